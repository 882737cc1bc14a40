// Package auth mints and reads signed flow tokens.
//
// A signed flow token is an HS256 JWT whose claims carry the phone number
// the flow was sent to, so the booking confirmation can be addressed
// without trusting anything inside the decrypted payload. Opaque tokens
// issued by other systems remain valid flow tokens; they simply carry no
// channel identity.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/tripflow/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims holds the registered claims plus the recipient phone.
type Claims struct {
	jwt.RegisteredClaims
	Phone string `json:"phone"`
}

// GenerateFlowToken signs a token for phone. Every call yields a distinct
// token (random jti), so each token identifies one conversation.
func GenerateFlowToken(phone string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   phone,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Phone: phone,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ChannelIdentityFromToken verifies tokenString and returns its phone.
// Expired tokens yield common.ErrTokenExpired; anything else that fails
// verification yields common.ErrInvalidToken.
func ChannelIdentityFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Phone == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Phone, nil
}
