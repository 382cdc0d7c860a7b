// Package logger provides structured logging utilities
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds logger configuration
type Config struct {
	Level      string `mapstructure:"level" yaml:"level"`             // debug, info, warn, error, fatal
	Format     string `mapstructure:"format" yaml:"format"`           // text or json
	Output     string `mapstructure:"output" yaml:"output"`           // stdout, stderr, or file path
	TimeFormat string `mapstructure:"time_format" yaml:"time_format"` // RFC3339, RFC3339Nano, etc
}

var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	return l
}

// Init initializes the logger with configuration
func Init(cfg Config) {
	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	timeFormat := strings.TrimSpace(cfg.TimeFormat)
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timeFormat})
	default:
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: timeFormat})
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Output)) {
	case "", "stdout":
		base.SetOutput(os.Stdout)
	case "stderr":
		base.SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			base.SetOutput(os.Stdout)
			base.Warnf("logger: failed to open log file %s: %v", cfg.Output, err)
			return
		}
		base.SetOutput(f)
	}
}

// Logger exposes the underlying logrus logger (grpc interceptors, gin writers)
func Logger() *logrus.Logger {
	return base
}

// SetOutput redirects all log output; tests use it to capture lines
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// Debug logs debug message (only shown when level=debug)
func Debug(msg string) { base.Debug(msg) }

// Debugf logs formatted debug message
func Debugf(format string, args ...interface{}) { base.Debugf(format, args...) }

// Info logs info message
func Info(msg string) { base.Info(msg) }

// Infof logs formatted info message
func Infof(format string, args ...interface{}) { base.Infof(format, args...) }

// Warn logs warning message
func Warn(msg string) { base.Warn(msg) }

// Warnf logs formatted warning message
func Warnf(format string, args ...interface{}) { base.Warnf(format, args...) }

// Error logs error message
func Error(msg string) { base.Error(msg) }

// Errorf logs formatted error message
func Errorf(format string, args ...interface{}) { base.Errorf(format, args...) }

// Fatal logs fatal message and exits
func Fatal(msg string) { base.Fatal(msg) }

// Fatalf logs formatted fatal message and exits
func Fatalf(format string, args ...interface{}) { base.Fatalf(format, args...) }

// FieldLogger allows structured logging with fields
type FieldLogger struct {
	entry *logrus.Entry
}

// WithFields returns a logger carrying structured fields
func WithFields(fields map[string]interface{}) *FieldLogger {
	return &FieldLogger{entry: base.WithFields(logrus.Fields(fields))}
}

// WithError returns a logger carrying err under the "error" field
func WithError(err error) *FieldLogger {
	return &FieldLogger{entry: base.WithError(err)}
}

// WithField adds one more field
func (l *FieldLogger) WithField(key string, value interface{}) *FieldLogger {
	return &FieldLogger{entry: l.entry.WithField(key, value)}
}

// WithError adds err under the "error" field
func (l *FieldLogger) WithError(err error) *FieldLogger {
	return &FieldLogger{entry: l.entry.WithError(err)}
}

func (l *FieldLogger) Debug(msg string) { l.entry.Debug(msg) }
func (l *FieldLogger) Info(msg string)  { l.entry.Info(msg) }
func (l *FieldLogger) Warn(msg string)  { l.entry.Warn(msg) }
func (l *FieldLogger) Error(msg string) { l.entry.Error(msg) }

func (l *FieldLogger) Infof(format string, args ...interface{}) { l.entry.Infof(format, args...) }
func (l *FieldLogger) Warnf(format string, args ...interface{}) { l.entry.Warnf(format, args...) }

// Protocol-specific logging with structured fields

// HTTP logs HTTP protocol activity, tagged with the request id in ctx
func HTTP(ctx context.Context, method, path string, status, latencyMs int) {
	l := WithRequestID(ctx).
		WithField("protocol", "http").
		WithField("method", method).
		WithField("path", path).
		WithField("status", status).
		WithField("latency", latencyMs)
	msg := fmt.Sprintf("HTTP %s %s %d - %dms", method, path, status, latencyMs)
	switch {
	case status >= 500:
		l.Error(msg)
	case status >= 400:
		l.Warn(msg)
	default:
		l.Info(msg)
	}
}

// GRPC logs gRPC protocol activity
func GRPC(method, params string, latencyMs int) {
	WithFields(map[string]interface{}{
		"protocol": "grpc",
		"method":   method,
		"params":   params,
		"latency":  latencyMs,
	}).Info(fmt.Sprintf("gRPC %s(%s) - %dms", method, params, latencyMs))
}

// WebSocket logs WebSocket activity
func WebSocket(room, event string, userID string) {
	WithFields(map[string]interface{}{
		"protocol": "websocket",
		"room":     room,
		"event":    event,
		"user_id":  userID,
	}).Info(fmt.Sprintf("WebSocket [%s] %s", room, event))
}

// Events logs comment events crossing the bus
func Events(subject, eventType, postID string) {
	WithFields(map[string]interface{}{
		"protocol": "events",
		"subject":  subject,
		"type":     eventType,
		"post_id":  postID,
	}).Debug(fmt.Sprintf("event %s on %s", eventType, subject))
}

// Context-aware logging (for request tracing)
type contextKey string

const requestIDKey contextKey = "request_id"

// ContextWithRequestID stores a request id for WithRequestID
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request id stored in ctx, if any
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithRequestID extracts request ID from context and logs with it
func WithRequestID(ctx context.Context) *FieldLogger {
	if requestID := RequestID(ctx); requestID != "" {
		return WithFields(map[string]interface{}{
			"request_id": requestID,
		})
	}
	return WithFields(nil)
}
