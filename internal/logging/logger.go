// Package logging defines the structured-logging interface used across the
// flow endpoint and its slog implementation.
//
// Payload plaintext, AES keys, private keys, and shared secrets must never be
// passed as log arguments; log identifiers (flow_token, action, screen) and
// outcomes instead.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "screen submitted", "flow_token", token, "screen", screen)
type Logger interface {
	// Debug logs verbose diagnostics that are off in production.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}
