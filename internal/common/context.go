package common

import (
	"context"
	"log/slog"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyBookID    contextKey = "book_id"
	ContextKeyAttemptID contextKey = "attempt_id"
)

// WithBookID adds the book a capture is destined for to the context
func WithBookID(ctx context.Context, bookID string) context.Context {
	return context.WithValue(ctx, ContextKeyBookID, bookID)
}

// BookIDFromContext extracts the book ID from context
func BookIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyBookID).(string); ok {
		return id
	}
	return ""
}

// WithAttemptID marks work done on behalf of one capture attempt
func WithAttemptID(ctx context.Context, attemptID string) context.Context {
	return context.WithValue(ctx, ContextKeyAttemptID, attemptID)
}

// AttemptIDFromContext extracts the capture attempt ID from context
func AttemptIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyAttemptID).(string); ok {
		return id
	}
	return ""
}

// LoggerFrom decorates logger with the IDs carried by ctx.
func LoggerFrom(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if id := BookIDFromContext(ctx); id != "" {
		logger = logger.With("book_id", id)
	}
	if id := AttemptIDFromContext(ctx); id != "" {
		logger = logger.With("attempt_id", id)
	}
	return logger
}
