package helpers

import (
	"errors"
	"fmt"
	"os"
	"time"

	"sjsage522/cardmonitor/logger"
	apperrors "sjsage522/cardmonitor/pkg/errors"
)

// LoggerInterface defines the interface for logger implementations
type LoggerInterface interface {
	LogError(query string, err error)
	LogInfo(format string, args ...interface{})
}

// Logger logs through the structured logger and, when errorFile is set,
// also appends errors to that file.
type Logger struct {
	errorFile string
	log       *logger.Logger
}

// NewLogger creates a new logger instance. An empty errorFile disables the file.
func NewLogger(errorFile string) *Logger {
	return &Logger{
		errorFile: errorFile,
		log:       logger.ForWorker(),
	}
}

// LogError logs an error with the query it belongs to
func (l *Logger) LogError(query string, err error) {
	event := l.log.Error().Str("query", query).Err(err)
	var monitorErr *apperrors.MonitorError
	if errors.As(err, &monitorErr) {
		event = event.Str("error_type", string(monitorErr.Type)).Bool("retryable", monitorErr.IsRetryable())
	}
	event.Msg("scan error")

	if l.errorFile == "" {
		return
	}

	f, fileErr := os.OpenFile(l.errorFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		l.log.Warn().Err(fileErr).Str("file", l.errorFile).Msg("failed to open error log")
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s] [%s] %s\n", timestamp, query, err.Error())
}

// LogInfo logs an informational message
func (l *Logger) LogInfo(format string, args ...interface{}) {
	l.log.Info().Msgf(format, args...)
}
