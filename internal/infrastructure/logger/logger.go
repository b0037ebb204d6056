// Package logger wraps zap for the API server and the CLI commands.
package logger

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/taskboard/core/internal/infrastructure/config"
)

// Logger is a sugared zap logger with helpers for the events this service records
type Logger struct {
	*zap.SugaredLogger
}

// New builds a logger from the logger section of the config.
// "json" selects the production encoder; anything else the console one.
func New(cfg config.LoggerConfig) (*Logger, error) {
	zapConfig := zap.NewDevelopmentConfig()
	if cfg.Format == "json" {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.TimeKey = "ts"
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	if cfg.Output == "file" && cfg.Filename != "" {
		zapConfig.OutputPaths = []string{cfg.Filename}
		zapConfig.ErrorOutputPaths = []string{cfg.Filename}
	}

	base, err := zapConfig.Build(zap.AddCallerSkip(1), zap.Fields(zap.String("service", "taskboard")))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &Logger{SugaredLogger: base.Sugar()}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// WithFields returns a child logger carrying the given key/value pairs
func (l *Logger) WithFields(fields ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(fields...)}
}

func (l *Logger) WithComponent(component string) *Logger {
	return l.WithFields("component", component)
}

// HTTPRequest is one finished request as seen by the access log.
type HTTPRequest struct {
	ID        string
	AccountID string
	Method    string
	URI       string
	Status    int
	Latency   time.Duration
	RemoteIP  string
	UserAgent string
	Err       error
}

// LogHTTPRequest writes an access log line. Server errors log at error level,
// client errors at warn.
func (l *Logger) LogHTTPRequest(r HTTPRequest) {
	fields := []interface{}{
		"request_id", r.ID,
		"method", r.Method,
		"uri", r.URI,
		"status", r.Status,
		"latency_ms", float64(r.Latency.Microseconds()) / 1000,
		"remote_ip", r.RemoteIP,
		"user_agent", r.UserAgent,
	}
	if r.AccountID != "" {
		fields = append(fields, "account_id", r.AccountID)
	}
	if r.Err != nil {
		fields = append(fields, "error", r.Err.Error())
	}

	switch {
	case r.Status >= 500:
		l.Errorw("HTTP request", fields...)
	case r.Status >= 400:
		l.Warnw("HTTP request", fields...)
	default:
		l.Infow("HTTP request", fields...)
	}
}

// LogUserAction records a successful mutation performed by an account.
func (l *Logger) LogUserAction(accountID, action string, metadata map[string]interface{}) {
	l.Infow("User action", appendMap([]interface{}{"account_id", accountID, "action", action}, metadata)...)
}

// LogSecurityEvent records failed logins, rejected tokens and denied access.
func (l *Logger) LogSecurityEvent(event, accountID, ip string, details map[string]interface{}) {
	l.Warnw("Security event", appendMap([]interface{}{"security_event", event, "account_id", accountID, "ip", ip}, details)...)
}

func appendMap(fields []interface{}, m map[string]interface{}) []interface{} {
	for k, v := range m {
		fields = append(fields, k, v)
	}
	return fields
}

// Close flushes buffered entries
func (l *Logger) Close() error {
	return l.SugaredLogger.Sync()
}
