package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/tripflow/internal/common"
	"github.com/dmitrijs2005/tripflow/internal/shared"
)

const (
	// AESKeySize is the size of the ephemeral AES-128 key.
	AESKeySize = 16
	// IVSize is the size of the GCM nonce sent as initial_vector.
	IVSize = 16
	// TagSize is the size of the GCM tag appended to the ciphertext.
	TagSize = 16
)

// Envelope is the outer JSON body of an encrypted request.
type Envelope struct {
	EncryptedFlowData string `json:"encrypted_flow_data"`
	EncryptedAESKey   string `json:"encrypted_aes_key"`
	InitialVector     string `json:"initial_vector"`
}

// Exchange holds the symmetric material of one request/response pair.
// Plaintext is the decrypted request body. The key and IV stay private so
// the only way to use them is to seal the matching response.
type Exchange struct {
	Plaintext []byte

	key []byte
	iv  []byte
}

// FlipIV returns a copy of iv with every bit inverted. Applying it twice
// yields the original IV.
func FlipIV(iv []byte) []byte {
	flipped := make([]byte, len(iv))
	for i, b := range iv {
		flipped[i] = ^b
	}
	return flipped
}

// ParseEnvelope decodes the outer JSON body.
func ParseEnvelope(body []byte) (*Envelope, error) {
	env := &Envelope{}
	if err := json.Unmarshal(body, env); err != nil {
		return nil, decryptionError("envelope json")
	}
	if env.EncryptedAESKey == "" || env.EncryptedFlowData == "" || env.InitialVector == "" {
		return nil, decryptionError("envelope fields")
	}
	return env, nil
}

// DecryptRequest unwraps the AES key with RSA-OAEP(SHA-256) and opens the
// payload with AES-128-GCM under the original IV.
func DecryptRequest(priv *rsa.PrivateKey, env *Envelope) (*Exchange, error) {
	wrappedKey, err := base64.StdEncoding.DecodeString(env.EncryptedAESKey)
	if err != nil {
		return nil, decryptionError("aes key base64")
	}
	data, err := base64.StdEncoding.DecodeString(env.EncryptedFlowData)
	if err != nil {
		return nil, decryptionError("flow data base64")
	}
	iv, err := base64.StdEncoding.DecodeString(env.InitialVector)
	if err != nil {
		return nil, decryptionError("iv base64")
	}
	if len(iv) != IVSize {
		return nil, decryptionError("iv size")
	}
	if len(data) < TagSize {
		return nil, decryptionError("flow data size")
	}

	key, err := rsa.DecryptOAEP(sha256.New(), nil, priv, wrappedKey, nil)
	if err != nil {
		return nil, decryptionError("rsa unwrap")
	}
	if len(key) != AESKeySize {
		shared.WipeByteArray(key)
		return nil, decryptionError("aes key size")
	}

	plaintext, err := openGCM(key, iv, data)
	if err != nil {
		shared.WipeByteArray(key)
		return nil, decryptionError("aes-gcm open")
	}

	return &Exchange{Plaintext: plaintext, key: key, iv: iv}, nil
}

// EncryptResponse serializes v to JSON and seals it with the request's AES
// key under the flipped IV. The result is the complete response body.
func (x *Exchange) EncryptResponse(v any) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshalling response: %w", err)
	}

	sealed, err := sealGCM(x.key, FlipIV(x.iv), plaintext)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Wipe zeroes the AES key. The exchange cannot be used afterwards.
func (x *Exchange) Wipe() {
	shared.WipeByteArray(x.key)
	x.key = nil
}

// EncryptRequest is the client half of the protocol: it generates a fresh
// AES key and IV, seals v, and wraps the key for pub. The returned Exchange
// decrypts the matching response.
func EncryptRequest(pub *rsa.PublicKey, v any) (*Envelope, *Exchange, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("marshalling request: %w", err)
	}

	key := shared.GenerateRandByteArray(AESKeySize)
	iv := shared.GenerateRandByteArray(IVSize)

	sealed, err := sealGCM(key, iv, plaintext)
	if err != nil {
		return nil, nil, err
	}

	wrappedKey, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, key, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("wrapping aes key: %w", err)
	}

	env := &Envelope{
		EncryptedFlowData: base64.StdEncoding.EncodeToString(sealed),
		EncryptedAESKey:   base64.StdEncoding.EncodeToString(wrappedKey),
		InitialVector:     base64.StdEncoding.EncodeToString(iv),
	}
	return env, &Exchange{Plaintext: plaintext, key: key, iv: iv}, nil
}

// DecryptResponse opens a response body sealed by EncryptResponse.
func (x *Exchange) DecryptResponse(body string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, decryptionError("response base64")
	}
	plaintext, err := openGCM(x.key, FlipIV(x.iv), data)
	if err != nil {
		return nil, decryptionError("aes-gcm open")
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, IVSize)
}

// sealGCM returns ciphertext with the tag appended.
func sealGCM(key, iv, plaintext []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	return aesgcm.Seal(nil, iv, plaintext, nil), nil
}

// openGCM expects the 16-byte tag at the end of data.
func openGCM(key, iv, data []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return aesgcm.Open(nil, iv, data, nil)
}

func decryptionError(stage string) error {
	return fmt.Errorf("%w: %s", common.ErrDecryption, stage)
}
