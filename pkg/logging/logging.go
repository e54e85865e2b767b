// Package logging provides the structured logger used across the SDK.
//
// The default logger writes human-readable console output. Set
// LOG_FORMAT=json (or LOG_JSON=true) to switch to JSON output, and
// LOG_LEVEL to adjust verbosity (debug, info, warn, error).
package logging

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tagus/trailhound/pkg/multitenancy"
)

// Logger is the logging interface components depend on. Fields carry
// structured context for the message.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, fields map[string]interface{})
}

type zerologLogger struct {
	logger zerolog.Logger
}

// New creates a logger configured from the environment.
func New() Logger {
	zl := zerolog.New(output()).With().Timestamp().Logger().Level(level())
	return &zerologLogger{logger: zl}
}

// NewWithLogger wraps an existing zerolog logger.
func NewWithLogger(zl zerolog.Logger) Logger {
	return &zerologLogger{logger: zl}
}

func output() zerolog.LevelWriter {
	format := strings.ToLower(os.Getenv("LOG_FORMAT"))
	jsonFlag := strings.ToLower(os.Getenv("LOG_JSON"))
	if format == "json" || jsonFlag == "true" || jsonFlag == "1" || jsonFlag == "yes" {
		return zerolog.MultiLevelWriter(os.Stderr)
	}
	return zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stderr})
}

func level() zerolog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *zerologLogger) emit(ctx context.Context, ev *zerolog.Event, msg string, fields map[string]interface{}) {
	if projectID, err := multitenancy.GetProjectID(ctx); err == nil {
		ev = ev.Str("project_id", projectID)
	}
	if len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	ev.Msg(msg)
}

// Debug logs a message at debug level.
func (l *zerologLogger) Debug(ctx context.Context, msg string, fields map[string]interface{}) {
	l.emit(ctx, l.logger.Debug(), msg, fields)
}

// Info logs a message at info level.
func (l *zerologLogger) Info(ctx context.Context, msg string, fields map[string]interface{}) {
	l.emit(ctx, l.logger.Info(), msg, fields)
}

// Warn logs a message at warn level.
func (l *zerologLogger) Warn(ctx context.Context, msg string, fields map[string]interface{}) {
	l.emit(ctx, l.logger.Warn(), msg, fields)
}

// Error logs a message at error level.
func (l *zerologLogger) Error(ctx context.Context, msg string, fields map[string]interface{}) {
	l.emit(ctx, l.logger.Error(), msg, fields)
}
