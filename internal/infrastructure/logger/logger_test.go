package logger

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/taskboard/core/internal/infrastructure/config"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestLogHTTPRequestLevels(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{200, zapcore.InfoLevel},
		{404, zapcore.WarnLevel},
		{503, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		log, logs := observed()
		log.LogHTTPRequest(HTTPRequest{ID: "req-1", Method: "GET", URI: "/boards", Status: tt.status, Latency: 1500 * time.Microsecond})

		entries := logs.All()
		if len(entries) != 1 {
			t.Fatalf("status %d: entries = %d", tt.status, len(entries))
		}
		if entries[0].Level != tt.level {
			t.Errorf("status %d: level = %v, want %v", tt.status, entries[0].Level, tt.level)
		}
		fields := entries[0].ContextMap()
		if fields["request_id"] != "req-1" || fields["latency_ms"] != 1.5 {
			t.Errorf("status %d: fields = %v", tt.status, fields)
		}
		if _, ok := fields["account_id"]; ok {
			t.Errorf("anonymous request logged an account: %v", fields)
		}
	}
}

func TestLogHTTPRequestCarriesAccountAndError(t *testing.T) {
	log, logs := observed()
	log.LogHTTPRequest(HTTPRequest{Status: 500, AccountID: "acc-7", Err: errors.New("boom")})

	fields := logs.All()[0].ContextMap()
	if fields["account_id"] != "acc-7" || fields["error"] != "boom" {
		t.Fatalf("fields = %v", fields)
	}
}

func TestSecurityEventIncludesDetails(t *testing.T) {
	log, logs := observed()
	log.WithComponent("auth").LogSecurityEvent("login_failed", "", "10.0.0.1", map[string]interface{}{"email": "a@example.com"})

	entry := logs.All()[0]
	if entry.Level != zapcore.WarnLevel {
		t.Fatalf("level = %v", entry.Level)
	}
	fields := entry.ContextMap()
	if fields["component"] != "auth" || fields["security_event"] != "login_failed" || fields["email"] != "a@example.com" {
		t.Fatalf("fields = %v", fields)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(config.LoggerConfig{Level: "loud"}); err == nil {
		t.Fatal("expected an error")
	}
	if _, err := New(config.LoggerConfig{Level: "info", Format: "json"}); err != nil {
		t.Fatalf("New: %v", err)
	}
}
