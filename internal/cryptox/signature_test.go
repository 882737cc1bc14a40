package cryptox

import (
	"testing"

	"github.com/dmitrijs2005/tripflow/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature_Accepts(t *testing.T) {
	secret := []byte("app-secret")
	body := []byte(`{"encrypted_flow_data":"x"}`)

	require.NoError(t, VerifySignature(secret, body, Sign(secret, body)))
}

func TestVerifySignature_RejectsAnySingleBitFlip(t *testing.T) {
	secret := []byte("app-secret")
	body := []byte(`{"encrypted_flow_data":"abc","encrypted_aes_key":"def","initial_vector":"ghi"}`)
	header := Sign(secret, body)

	for i := range body {
		for bit := 0; bit < 8; bit++ {
			mutated := append([]byte(nil), body...)
			mutated[i] ^= 1 << bit
			err := VerifySignature(secret, mutated, header)
			if !assert.ErrorIs(t, err, common.ErrorUnauthorized, "byte %d bit %d", i, bit) {
				return
			}
		}
	}
}

func TestVerifySignature_Rejects(t *testing.T) {
	secret := []byte("app-secret")
	body := []byte("payload")

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"missing prefix", Sign(secret, body)[len(common.SignaturePrefix):]},
		{"not hex", "sha256=zz"},
		{"other secret", Sign([]byte("other"), body)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, VerifySignature(secret, body, tt.header), common.ErrorUnauthorized)
		})
	}
}

func TestVerifySignature_RelaxedModeWithoutSecret(t *testing.T) {
	assert.NoError(t, VerifySignature(nil, []byte("anything"), ""))
	assert.NoError(t, VerifySignature([]byte{}, []byte("anything"), "sha256=bogus"))
}
