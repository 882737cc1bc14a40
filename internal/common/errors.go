// Package common defines shared constants and sentinel errors used across
// the flow endpoint. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrAlreadyExists   = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Request authentication: bad or missing x-hub-signature-256.
	ErrorUnauthorized = errors.New("unauthorized")

	// Envelope errors: RSA unwrap, GCM tag, base64 or JSON.
	ErrDecryption = errors.New("decryption failed")

	// Protocol errors, surfaced to the platform as client errors.
	ErrUnknownAction = errors.New("unknown action")
	ErrUnknownScreen = errors.New("unknown screen")

	// Flow token errors (invalid or malformed signed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Persistence and completion errors.
	ErrSessionPersistence = errors.New("session persistence failed")
	ErrBookingPersistence = errors.New("booking persistence failed")
	ErrMissingAnchor      = errors.New("default location is not configured")
	ErrNotification       = errors.New("notification dispatch failed")
)
