// Package cryptox implements the cryptography of the flows data-exchange
// endpoint: HMAC-SHA256 request signatures, RSA key loading, and the hybrid
// RSA-OAEP/AES-128-GCM envelope used for requests and responses.
//
// A request carries an AES key wrapped with the business public key, a
// 16-byte IV, and the AES-GCM ciphertext of the JSON payload with the tag
// appended. The response is sealed with the same AES key under the flipped
// IV (every bit inverted) and returned as a bare base64 string.
//
// Errors from the decryption path are always wrapped in common.ErrDecryption
// and name only the failed stage, so they are safe to log.
package cryptox
