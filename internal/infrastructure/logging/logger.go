package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger interface used by the shell, its plugins and the batch codec
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// DefaultLogger writes structured JSON entries through zerolog
type DefaultLogger struct {
	zl zerolog.Logger
}

// NewDefaultLogger creates a debug-level logger writing to stderr
func NewDefaultLogger() Logger {
	return NewLogger(os.Stderr, "debug")
}

// NewLogger creates a logger writing JSON lines to w. Unknown levels fall back to info.
func NewLogger(w io.Writer, level string) Logger {
	if w == nil {
		w = os.Stderr
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	zl := zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Logger()

	return &DefaultLogger{zl: zl}
}

// fieldsToMap converts the variadic fields slice to a map
// Expected format: key1, value1, key2, value2, ...
func fieldsToMap(fields []interface{}) map[string]interface{} {
	result := make(map[string]interface{})

	for i := 0; i < len(fields); i += 2 {
		if i+1 < len(fields) {
			if key, ok := fields[i].(string); ok {
				result[key] = fields[i+1]
			} else {
				// Non-string key: keep both halves under positional names
				result[fmt.Sprintf("field_%d", i/2)] = fields[i]
				result[fmt.Sprintf("field_%d_value", i/2)] = fields[i+1]
			}
		} else {
			result[fmt.Sprintf("field_%d", i/2)] = fields[i]
		}
	}

	return result
}

func (l *DefaultLogger) logStructured(level zerolog.Level, msg string, fields []interface{}) {
	l.zl.WithLevel(level).
		Dict("fields", zerolog.Dict().Fields(fieldsToMap(fields))).
		Msg(msg)
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) {
	l.logStructured(zerolog.DebugLevel, msg, fields)
}

func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	l.logStructured(zerolog.InfoLevel, msg, fields)
}

func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	l.logStructured(zerolog.WarnLevel, msg, fields)
}

func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	l.logStructured(zerolog.ErrorLevel, msg, fields)
}

// ClassifiedError is implemented by errors that carry a code and context
// (kept as an interface to avoid importing the errors package)
type ClassifiedError interface {
	Error() string
	GetCode() string
	GetContext() map[string]string
	GetTimestamp() time.Time
}

// LogError logs err with its classification and the given context
func LogError(logger Logger, err error, operation string, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	if classified, ok := err.(ClassifiedError); ok {
		fields := []interface{}{
			"operation", operation,
			"error_code", classified.GetCode(),
			"timestamp", classified.GetTimestamp(),
		}

		for k, v := range classified.GetContext() {
			fields = append(fields, k, v)
		}

		for k, v := range context {
			fields = append(fields, k, v)
		}

		logger.Error(fmt.Sprintf("Shell error: %s", err.Error()), fields...)
		return
	}

	fields := []interface{}{
		"operation", operation,
		"error_type", fmt.Sprintf("%T", err),
	}

	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Error(fmt.Sprintf("Unexpected error: %s", err.Error()), fields...)
}

// LogOperation logs a completed operation with its duration
func LogOperation(logger Logger, operation string, duration time.Duration, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	fields := []interface{}{
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	}

	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Info(fmt.Sprintf("Operation completed: %s", operation), fields...)
}
