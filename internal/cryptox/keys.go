package cryptox

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/youmark/pkcs8"
	"golang.org/x/crypto/ssh"
)

// MinKeyBits is the smallest RSA modulus accepted by GenerateKeyPair.
const MinKeyBits = 2048

var (
	parseRawPrivateKey               = ssh.ParseRawPrivateKey
	parseRawPrivateKeyWithPassphrase = ssh.ParseRawPrivateKeyWithPassphrase
	parseEncryptedPKCS8              = pkcs8.ParsePKCS8PrivateKeyRSA
)

var errNoPassphrase = errors.New("private key is passphrase protected but no passphrase is configured")

// LoadPrivateKey parses an RSA private key.
//
// raw is either PEM text (PKCS#1 "RSA PRIVATE KEY", PKCS#8 "PRIVATE KEY" or
// "ENCRYPTED PRIVATE KEY", legacy encrypted PEM, "OPENSSH PRIVATE KEY") or the same PEM encoded
// as a single base64 line, which survives secret stores that only hold one
// line. Literal "\n" sequences are expanded. The passphrase is used only
// when the key turns out to be protected.
func LoadPrivateKey(raw, passphrase string) (*rsa.PrivateKey, error) {
	data, err := unwrapPEM(raw)
	if err != nil {
		return nil, err
	}

	if block, _ := pem.Decode(data); block != nil && block.Type == "ENCRYPTED PRIVATE KEY" {
		if passphrase == "" {
			return nil, errNoPassphrase
		}
		rsaKey, err := parseEncryptedPKCS8(block.Bytes, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("parsing private key: %w", err)
		}
		return rsaKey, nil
	}

	key, err := parseRawPrivateKey(data)
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		if passphrase == "" {
			return nil, errNoPassphrase
		}
		key, err = parseRawPrivateKeyWithPassphrase(data, []byte(passphrase))
	}
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is %T, want RSA", key)
	}
	return rsaKey, nil
}

// LoadPublicKey parses a PEM encoded RSA public key ("PUBLIC KEY" or
// "RSA PUBLIC KEY"), accepting the same base64 wrapping as LoadPrivateKey.
func LoadPublicKey(raw string) (*rsa.PublicKey, error) {
	data, err := unwrapPEM(raw)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found in public key")
	}

	switch block.Type {
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parsing public key: %w", err)
		}
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("public key is %T, want RSA", pub)
		}
		return rsaPub, nil
	default:
		return nil, fmt.Errorf("unsupported public key block %q", block.Type)
	}
}

// KeyPair is a freshly generated key in its serialized forms.
type KeyPair struct {
	PrivatePEM []byte
	PublicPEM  []byte
}

// GenerateKeyPair creates an RSA key of the given size. With a passphrase the
// private half is written in the passphrase protected OpenSSH format;
// without one it is plain PKCS#8. The public half is PKIX PEM, the form the
// platform expects when the business key is registered.
func GenerateKeyPair(bits int, passphrase string) (*KeyPair, error) {
	if bits < MinKeyBits {
		return nil, fmt.Errorf("key size %d is below the minimum of %d bits", bits, MinKeyBits)
	}

	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	var privBlock *pem.Block
	if passphrase != "" {
		privBlock, err = ssh.MarshalPrivateKeyWithPassphrase(priv, "flow-endpoint", []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("marshalling protected key: %w", err)
		}
	} else {
		der, err := x509.MarshalPKCS8PrivateKey(priv)
		if err != nil {
			return nil, fmt.Errorf("marshalling private key: %w", err)
		}
		privBlock = &pem.Block{Type: "PRIVATE KEY", Bytes: der}
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("marshalling public key: %w", err)
	}

	return &KeyPair{
		PrivatePEM: pem.EncodeToMemory(privBlock),
		PublicPEM:  pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}),
	}, nil
}

// WrapBase64 returns the single-line form of a PEM document accepted by
// LoadPrivateKey and LoadPublicKey.
func WrapBase64(pemBytes []byte) string {
	return base64.StdEncoding.EncodeToString(pemBytes)
}

func unwrapPEM(raw string) ([]byte, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, errors.New("key is empty")
	}

	if !strings.Contains(s, "-----BEGIN") {
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("key is neither PEM nor base64: %w", err)
		}
		s = string(decoded)
	}

	return bytes.ReplaceAll([]byte(s), []byte(`\n`), []byte("\n")), nil
}
