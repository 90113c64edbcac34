package logging

import (
	"strings"

	wailslogger "github.com/wailsapp/wails/v2/pkg/logger"
)

var _ wailslogger.Logger = (*WailsLoggerAdapter)(nil)

// WailsLoggerAdapter routes the host runtime's own log output into our structured logger
type WailsLoggerAdapter struct {
	logger Logger
}

// NewWailsLoggerAdapter creates a new Wails logger adapter using our structured logger
func NewWailsLoggerAdapter(logger Logger) *WailsLoggerAdapter {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return &WailsLoggerAdapter{
		logger: logger,
	}
}

// Print logs a message at INFO level (Wails general output)
func (w *WailsLoggerAdapter) Print(message string) {
	w.logger.Info(message, "source", "wails")
}

// Trace logs a message at DEBUG level (Wails trace output)
func (w *WailsLoggerAdapter) Trace(message string) {
	w.logger.Debug(message, "source", "wails", "level", "trace")
}

func (w *WailsLoggerAdapter) Debug(message string) {
	w.logger.Debug(message, "source", "wails")
}

func (w *WailsLoggerAdapter) Info(message string) {
	w.logger.Info(message, "source", "wails")
}

func (w *WailsLoggerAdapter) Warning(message string) {
	w.logger.Warn(message, "source", "wails")
}

func (w *WailsLoggerAdapter) Error(message string) {
	w.logger.Error(message, "source", "wails")
}

// Fatal logs at ERROR level; the host decides whether to exit
func (w *WailsLoggerAdapter) Fatal(message string) {
	w.logger.Error(message, "source", "wails", "level", "fatal")
}

// WailsLogLevel maps a configured level name onto the host's log level
func WailsLogLevel(level string) wailslogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return wailslogger.TRACE
	case "debug":
		return wailslogger.DEBUG
	case "warn", "warning":
		return wailslogger.WARNING
	case "error", "fatal":
		return wailslogger.ERROR
	default:
		return wailslogger.INFO
	}
}
