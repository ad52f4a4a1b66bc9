package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/clearpath-sec/cloudscan/config"
)

// LogLevel represents the available log levels
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// OutputType represents the output destination type
type OutputType string

const (
	OutputStdout OutputType = "stdout"
	OutputFile   OutputType = "file"
)

// CoreLogger wraps slog with configuration-aware construction and
// printf-style convenience methods.
type CoreLogger struct {
	*slog.Logger
	config config.LoggerConfig
}

// NewCoreLogger creates a new core logger instance based on configuration
func NewCoreLogger(cfg config.LoggerConfig) (*CoreLogger, error) {
	level, err := parseLogLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level '%s': %w", cfg.Level, err)
	}

	var writer io.Writer
	switch parseOutputType(cfg.Output) {
	case OutputFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("file path is required when output is set to 'file'")
		}
		file, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file '%s': %w", cfg.Path, err)
		}
		writer = file
	default:
		writer = os.Stdout
	}

	jsonHandler := slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: level,
	})

	return &CoreLogger{
		Logger: slog.New(jsonHandler),
		config: cfg,
	}, nil
}

// WithTraceID creates a new logger instance with the specified trace ID
func (l *CoreLogger) WithTraceID(traceID string) *CoreLogger {
	if traceID == "" {
		return l
	}
	return &CoreLogger{
		Logger: l.Logger.With("trace_id", traceID),
		config: l.config,
	}
}

// WithUserID creates a new logger instance with the specified user ID
func (l *CoreLogger) WithUserID(userID string) *CoreLogger {
	if userID == "" {
		return l
	}
	return &CoreLogger{
		Logger: l.Logger.With("user_id", userID),
		config: l.config,
	}
}

// WithFields creates a new logger instance with additional fields
func (l *CoreLogger) WithFields(fields map[string]interface{}) *CoreLogger {
	logger := l.Logger
	for key, value := range fields {
		logger = logger.With(key, value)
	}

	return &CoreLogger{
		Logger: logger,
		config: l.config,
	}
}

// Debug logs a debug level message
func (l *CoreLogger) Debug(msg string, args ...interface{}) {
	l.Logger.Debug(fmt.Sprintf(msg, args...))
}

// Info logs an info level message
func (l *CoreLogger) Info(msg string, args ...interface{}) {
	l.Logger.Info(fmt.Sprintf(msg, args...))
}

// Warn logs a warning level message
func (l *CoreLogger) Warn(msg string, args ...interface{}) {
	l.Logger.Warn(fmt.Sprintf(msg, args...))
}

// Error logs an error level message
func (l *CoreLogger) Error(msg string, args ...interface{}) {
	l.Logger.Error(fmt.Sprintf(msg, args...))
}

// InfoWithFields logs an info message with additional fields
func (l *CoreLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.WithFields(fields).Logger.Info(msg)
}

// WarnWithFields logs a warning message with additional fields
func (l *CoreLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.WithFields(fields).Logger.Warn(msg)
}

// ErrorWithFields logs an error message with additional fields
func (l *CoreLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.WithFields(fields).Logger.Error(msg)
}

// Fatal logs a fatal error and exits
func (l *CoreLogger) Fatal(msg string, args ...interface{}) {
	l.Logger.Error(fmt.Sprintf("FATAL: "+msg, args...))
	os.Exit(1)
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported log level: %s", level)
	}
}

func parseOutputType(output string) OutputType {
	switch strings.ToLower(strings.TrimSpace(output)) {
	case "file":
		return OutputFile
	case "stdout", "":
		return OutputStdout
	default:
		return OutputStdout
	}
}
