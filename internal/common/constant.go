// Package common contains shared constants and sentinel errors used across
// the flow endpoint components.
package common

// SignatureHeaderName carries the HMAC-SHA256 signature of the raw request
// body, formatted as "sha256=<hex>".
const SignatureHeaderName = "X-Hub-Signature-256"

// SignaturePrefix precedes the hex digest in SignatureHeaderName.
const SignaturePrefix = "sha256="

// Status codes mandated by the flows data-exchange protocol.
const (
	// StatusDecryptionFailed tells the client to refresh the public key and retry.
	StatusDecryptionFailed = 421
	// StatusSignatureFailed rejects a request whose signature does not verify.
	StatusSignatureFailed = 432
)
