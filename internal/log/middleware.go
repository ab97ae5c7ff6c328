package log

import (
	"context"
	"log/slog"
)

type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogLogin records a login attempt. Passwords are never passed in.
func (sl *StructuredLogger) LogLogin(ctx context.Context, username, clientIP string, success bool, err error) {
	fields := NewFields().
		WithOperation(OpLogin).
		WithComponent(ComponentAuth).
		WithClientIP(clientIP).
		WithError(err)
	fields[FieldUsername] = username
	fields[FieldSuccess] = success

	if success {
		sl.logger.InfoContext(ctx, "Login succeeded", fields.ToSlice()...)
		return
	}
	sl.logger.WarnContext(ctx, "Login failed", fields.ToSlice()...)
}

// LogExport records a CSV download.
func (sl *StructuredLogger) LogExport(ctx context.Context, identity string, admin bool, rows int) {
	fields := NewFields().
		WithOperation(OpExport).
		WithComponent(ComponentReport)
	fields[FieldIdentity] = identity
	fields[FieldAdmin] = admin
	fields[FieldRows] = rows

	sl.logger.InfoContext(ctx, "CSV export served", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.logger.Logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}
