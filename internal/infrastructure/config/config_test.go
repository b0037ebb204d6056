package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_NAME", "boards_test")
	t.Setenv("AUTH_ACCESS_TTL", "10m")
	t.Setenv("CACHE_BOARD_TTL", "1m")
	t.Setenv("SERVER_PORT", "9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.Name != "boards_test" {
		t.Fatalf("database name = %q", cfg.Database.Name)
	}
	if cfg.Server.Port != 9000 {
		t.Fatalf("server port = %d", cfg.Server.Port)
	}
	if cfg.Auth.AccessTTL != 10*time.Minute {
		t.Fatalf("access ttl = %v", cfg.Auth.AccessTTL)
	}
	if cfg.Auth.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("refresh ttl = %v", cfg.Auth.RefreshTTL)
	}
	if cfg.Auth.ActivationTTL != 24*time.Hour {
		t.Fatalf("activation ttl = %v", cfg.Auth.ActivationTTL)
	}
	if cfg.Cache.BoardTTL != time.Minute || cfg.Cache.AccountTTL != 15*time.Minute {
		t.Fatalf("cache ttls = %v / %v", cfg.Cache.BoardTTL, cfg.Cache.AccountTTL)
	}
	if cfg.Redis.GetAddr() != "localhost:6379" {
		t.Fatalf("redis addr = %q", cfg.Redis.GetAddr())
	}
	if !strings.Contains(cfg.Database.GetDSN(), "dbname=boards_test") {
		t.Fatalf("dsn = %q", cfg.Database.GetDSN())
	}
}

func TestLoadRejectsDefaultSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for default JWT secret")
	}
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Host: "db", Name: "boards"},
			JWT:      JWTConfig{Secret: "s3cret"},
			Auth: AuthConfig{
				AccessTTL:       time.Minute,
				RefreshTTL:      time.Hour,
				ActivationTTL:   time.Hour,
				CleanupInterval: time.Hour,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing host", mutate: func(c *Config) { c.Database.Host = "" }, wantErr: true},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "zero access ttl", mutate: func(c *Config) { c.Auth.AccessTTL = 0 }, wantErr: true},
		{name: "zero cleanup interval", mutate: func(c *Config) { c.Auth.CleanupInterval = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateConfig err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
