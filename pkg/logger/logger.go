package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance. The zero value discards everything,
// so packages can log before Init (and in tests) without setup.
var log zerolog.Logger

// ContextKey for storing logger in context
type ctxKey struct{}

// Init initializes the global logger
func Init(env string, logLevel string) {
	InitWithWriter(env, logLevel, os.Stdout)
}

// InitWithWriter initializes the global logger on an explicit writer.
func InitWithWriter(env string, logLevel string, out io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339

	output := out
	// Pretty console output for development
	if env == "development" || env == "dev" || env == "" {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
		}
	}

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log = zerolog.New(output).
		With().
		Timestamp().
		Str("service", "storefront").
		Logger()
}

// Get returns the global logger
func Get() *zerolog.Logger {
	return &log
}

// WithContext returns the request-scoped logger, or the global one.
func WithContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &log
	}
	if l, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
		return l
	}
	return &log
}

// NewContext creates a new context with the logger
func NewContext(ctx context.Context, l *zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// WithRequestID adds a request ID to the logger
func WithRequestID(requestID string) zerolog.Logger {
	return log.With().Str("request_id", requestID).Logger()
}

// WithUserID adds a user ID to the logger
func WithUserID(l zerolog.Logger, userID string) zerolog.Logger {
	return l.With().Str("user_id", userID).Logger()
}

// --- Convenience Methods ---

// Debug logs a debug message
func Debug() *zerolog.Event {
	return log.Debug()
}

// Info logs an info message
func Info() *zerolog.Event {
	return log.Info()
}

// Warn logs a warning message
func Warn() *zerolog.Event {
	return log.Warn()
}

// Error logs an error message
func Error() *zerolog.Event {
	return log.Error()
}

// Fatal logs a fatal message and exits
func Fatal() *zerolog.Event {
	return log.Fatal()
}

// --- Structured Logging Helpers ---

// Outbound logs one round trip to the backend or a third party.
func Outbound(ctx context.Context, method, url string, statusCode int, duration time.Duration, err error) {
	l := WithContext(ctx)
	if err != nil {
		l.Warn().
			Str("method", method).
			Str("url", url).
			Dur("duration_ms", duration).
			Err(err).
			Msg("Outbound request failed")
		return
	}

	event := l.Debug()
	if statusCode >= 500 {
		event = l.Warn()
	}
	event.
		Str("method", method).
		Str("url", url).
		Int("status", statusCode).
		Dur("duration_ms", duration).
		Msg("Outbound request")
}

// ServiceStart logs service startup
func ServiceStart(name, version, port string) {
	log.Info().
		Str("name", name).
		Str("version", version).
		Str("port", port).
		Msg("Service Started")
}

// ServiceStop logs service shutdown
func ServiceStop(name string) {
	log.Info().
		Str("name", name).
		Msg("Service Stopped")
}
