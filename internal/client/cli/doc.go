// Package cli implements flowctl, the developer tool for the encrypted
// travel flow endpoint.
//
// Commands:
//   - keygen: create the RSA key pair the endpoint decrypts with
//   - sign: compute the X-Hub-Signature-256 header for a body
//   - token issue: mint a signed flow token carrying a phone number
//   - send: encrypt and sign a flow request, POST it, decrypt the answer
//
// Settings come from an optional JSON profile (--config), the environment,
// and per-command flags, in increasing precedence.
package cli
