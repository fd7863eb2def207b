// internal/core/logging/logging.go
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

/*
 * Structured logging.
 *
 * Thin construction layer over zerolog. Format "json" writes one JSON
 * object per line; anything else writes human-readable console output.
 * Unknown levels fall back to info. The level is set on the returned
 * logger, never globally, so tests can build independent loggers.
 */

type contextKey string

const (
	FormatJSON    = "json"
	FormatConsole = "console"

	LevelDebug   = "debug"
	LevelInfo    = "info"
	LevelWarn    = "warn"
	LevelWarning = "warning"
	LevelError   = "error"

	contextKeyRequestID contextKey = "requestID"
)

// New creates a logger writing to stderr.
func New(level, format string) zerolog.Logger {
	return NewWithWriter(level, format, os.Stderr)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(level, format string, w io.Writer) zerolog.Logger {
	var logger zerolog.Logger
	if strings.ToLower(format) == FormatJSON {
		logger = zerolog.New(w)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
	}

	return logger.Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level, info when unknown.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn, LevelWarning:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ContextWithRequestID attaches a request ID picked up by FromContext.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, id)
}

// FromContext returns logger annotated with the request ID carried by ctx.
func FromContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok && id != "" {
		return logger.With().Str("request_id", id).Logger()
	}
	return logger
}
