package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/dmitrijs2005/tripflow/internal/common"
)

// Sign returns the signature header value for body: "sha256=" followed by
// the lowercase hex HMAC-SHA256 of body under secret.
func Sign(secret, body []byte) string {
	return common.SignaturePrefix + hex.EncodeToString(computeMAC(secret, body))
}

// VerifySignature checks header against the HMAC-SHA256 of the raw body.
//
// An empty secret disables the check (relaxed mode) and every request passes.
// Otherwise a missing, malformed, or mismatched header yields
// common.ErrorUnauthorized. The comparison is constant-time.
func VerifySignature(secret, body []byte, header string) error {
	if len(secret) == 0 {
		return nil
	}

	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, common.SignaturePrefix) {
		return common.ErrorUnauthorized
	}

	got, err := hex.DecodeString(strings.TrimPrefix(header, common.SignaturePrefix))
	if err != nil {
		return common.ErrorUnauthorized
	}

	if subtle.ConstantTimeCompare(got, computeMAC(secret, body)) != 1 {
		return common.ErrorUnauthorized
	}
	return nil
}

func computeMAC(secret, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return mac.Sum(nil)
}
