package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Cache    CacheConfig    `mapstructure:"cache"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Security SecurityConfig `mapstructure:"security"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	// BaseURL is used to build links sent by email
	BaseURL string `mapstructure:"base_url"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// AuthConfig holds token lifetimes and cookie names
type AuthConfig struct {
	AccessTTL       time.Duration `mapstructure:"access_ttl"`
	RefreshTTL      time.Duration `mapstructure:"refresh_ttl"`
	ActivationTTL   time.Duration `mapstructure:"activation_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	AccessCookie    string        `mapstructure:"access_cookie"`
	RefreshCookie   string        `mapstructure:"refresh_cookie"`
	CookieSecure    bool          `mapstructure:"cookie_secure"`
	BcryptCost      int           `mapstructure:"bcrypt_cost"`
	RequireVerified bool          `mapstructure:"require_verified"`
}

// CacheConfig controls the Redis read-through cache in front of accounts, boards and memberships
type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	AccountTTL    time.Duration `mapstructure:"account_ttl"`
	BoardTTL      time.Duration `mapstructure:"board_ttl"`
	MembershipTTL time.Duration `mapstructure:"membership_ttl"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

type SecurityConfig struct {
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	RateLimitRequests  int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from defaults, an optional .env file and the environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Taskboard")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.base_url", "http://localhost:8080")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "30s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "taskboard")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.conn_max_idle_time", "30s")
	v.SetDefault("database.migrations_path", "migrations")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret", "change-me")
	v.SetDefault("jwt.issuer", "taskboard-api")

	v.SetDefault("auth.access_ttl", "30m")
	v.SetDefault("auth.refresh_ttl", "168h")
	v.SetDefault("auth.activation_ttl", "24h")
	v.SetDefault("auth.cleanup_interval", "1h")
	v.SetDefault("auth.access_cookie", "access_token")
	v.SetDefault("auth.refresh_cookie", "refresh_token")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.require_verified", true)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.account_ttl", "15m")
	v.SetDefault("cache.board_ttl", "15m")
	v.SetDefault("cache.membership_ttl", "15m")

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.from", "no-reply@taskboard.local")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")

	v.SetDefault("security.cors_allowed_origins", "*")
	v.SetDefault("security.rate_limit_requests", 100)
	v.SetDefault("security.rate_limit_window", "1m")

	v.SetDefault("metrics.enabled", true)
}

func bindEnvVars(v *viper.Viper) {
	bindings := map[string]string{
		"app.name":        "APP_NAME",
		"app.version":     "APP_VERSION",
		"app.environment": "APP_ENVIRONMENT",
		"app.debug":       "APP_DEBUG",
		"app.base_url":    "APP_BASE_URL",

		"server.port":            "SERVER_PORT",
		"server.host":            "SERVER_HOST",
		"server.read_timeout":    "SERVER_READ_TIMEOUT",
		"server.write_timeout":   "SERVER_WRITE_TIMEOUT",
		"server.idle_timeout":    "SERVER_IDLE_TIMEOUT",
		"server.request_timeout": "SERVER_REQUEST_TIMEOUT",

		"database.host":               "DB_HOST",
		"database.port":               "DB_PORT",
		"database.name":               "DB_NAME",
		"database.user":               "DB_USER",
		"database.password":           "DB_PASSWORD",
		"database.ssl_mode":           "DB_SSL_MODE",
		"database.max_open_conns":     "DB_MAX_OPEN_CONNS",
		"database.max_idle_conns":     "DB_MAX_IDLE_CONNS",
		"database.conn_max_lifetime":  "DB_CONN_MAX_LIFETIME",
		"database.conn_max_idle_time": "DB_CONN_MAX_IDLE_TIME",
		"database.migrations_path":    "DB_MIGRATIONS_PATH",

		"redis.host":     "REDIS_HOST",
		"redis.port":     "REDIS_PORT",
		"redis.password": "REDIS_PASSWORD",
		"redis.db":       "REDIS_DB",

		"jwt.secret": "JWT_SECRET",
		"jwt.issuer": "JWT_ISSUER",

		"auth.access_ttl":       "AUTH_ACCESS_TTL",
		"auth.refresh_ttl":      "AUTH_REFRESH_TTL",
		"auth.activation_ttl":   "AUTH_ACTIVATION_TTL",
		"auth.cleanup_interval": "AUTH_CLEANUP_INTERVAL",
		"auth.access_cookie":    "AUTH_ACCESS_COOKIE",
		"auth.refresh_cookie":   "AUTH_REFRESH_COOKIE",
		"auth.cookie_secure":    "AUTH_COOKIE_SECURE",
		"auth.bcrypt_cost":      "AUTH_BCRYPT_COST",
		"auth.require_verified": "AUTH_REQUIRE_VERIFIED",

		"cache.enabled":        "CACHE_ENABLED",
		"cache.account_ttl":    "CACHE_ACCOUNT_TTL",
		"cache.board_ttl":      "CACHE_BOARD_TTL",
		"cache.membership_ttl": "CACHE_MEMBERSHIP_TTL",

		"smtp.host":     "SMTP_HOST",
		"smtp.port":     "SMTP_PORT",
		"smtp.username": "SMTP_USERNAME",
		"smtp.password": "SMTP_PASSWORD",
		"smtp.from":     "SMTP_FROM",

		"logger.level":    "LOG_LEVEL",
		"logger.format":   "LOG_FORMAT",
		"logger.output":   "LOG_OUTPUT",
		"logger.filename": "LOG_FILENAME",

		"security.cors_allowed_origins": "CORS_ALLOWED_ORIGINS",
		"security.rate_limit_requests":  "RATE_LIMIT_REQUESTS",
		"security.rate_limit_window":    "RATE_LIMIT_WINDOW",

		"metrics.enabled": "ENABLE_METRICS",
	}
	for key, env := range bindings {
		_ = v.BindEnv(key, env)
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if cfg.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}

	if cfg.JWT.Secret == "" || cfg.JWT.Secret == "change-me" {
		return fmt.Errorf("JWT secret must be set and should not use default value")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	if cfg.Auth.AccessTTL <= 0 || cfg.Auth.RefreshTTL <= 0 || cfg.Auth.ActivationTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}

	if cfg.Auth.CleanupInterval <= 0 {
		return fmt.Errorf("token cleanup interval must be positive")
	}

	return nil
}

// GetDSN returns the database connection string
func (cfg *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

// GetAddr returns the Redis address
func (cfg *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// GetAddr returns the SMTP address
func (cfg *SMTPConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}

func (cfg *AppConfig) IsProduction() bool {
	return cfg.Environment == "production"
}
