// Package logging is the structured logger handed to every mediaxfer
// component. New builds it on log/slog with a charmbracelet/log handler for
// terminals or a JSON handler for log collectors.
package logging

import "context"

// Logger takes a message plus alternating key and value arguments:
//
//	log.Warn(ctx, "processing attempt failed, retrying", "attempt", n, "error", err)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With binds args to every record of the returned logger.
	With(args ...any) Logger
}
