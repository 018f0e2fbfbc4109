// Package config loads service settings from an optional .env file, the
// process environment and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
	DriverMongo  = "mongo"
)

type Config struct {
	ServerPort      string
	CORSOrigin      string
	ShutdownTimeout time.Duration
	// PasswordBlacklist is a file of rejected passwords, one per line.
	PasswordBlacklist string

	Storage       StorageConfig
	JWT           JWTConfig
	Log           LogConfig
	Notifications NotificationsConfig
	RateLimit     RateLimitConfig
	Telemetry     TelemetryConfig
}

type StorageConfig struct {
	Driver     string
	SQLitePath string
	MySQLDSN   string
	MongoURI   string
	MongoDB    string
}

type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type LogConfig struct {
	File       string
	Level      string
	SystemName string
	Timezone   string
}

type NotificationsConfig struct {
	URL     string
	Timeout time.Duration
}

type RateLimitConfig struct {
	TokenRPS   float64
	TokenBurst int
}

type TelemetryConfig struct {
	Enabled      bool
	Stdout       bool
	OTLPEndpoint string
}

// env maps config keys to the environment variable names the services use.
var env = map[string]string{
	"server.port":             "SERVER_PORT",
	"server.cors_origin":      "CORS_ORIGIN",
	"server.shutdown_timeout": "SHUTDOWN_TIMEOUT",
	"auth.password_blacklist": "PASSWORD_BLACKLIST_FILE",
	"storage.driver":          "STORAGE_DRIVER",
	"storage.sqlite_path":     "SQLITE_PATH",
	"storage.mysql_dsn":       "MYSQL_DSN",
	"storage.mongo_uri":       "MONGO_URI",
	"storage.mongo_db":        "MONGO_DB_NAME",
	"jwt.secret":              "JWT_SECRET",
	"jwt.access_ttl":          "JWT_ACCESS_TTL",
	"jwt.refresh_ttl":         "JWT_REFRESH_TTL",
	"log.file":                "LOG_FILE",
	"log.level":               "LOG_LEVEL",
	"log.system_name":         "LOG_SYSTEM_NAME",
	"log.timezone":            "LOG_TIMEZONE",
	"notifications.url":       "NOTIFICATIONS_SERVICE_URL",
	"notifications.timeout":   "NOTIFICATIONS_TIMEOUT",
	"rate_limit.token_rps":    "TOKEN_RATE_LIMIT_RPS",
	"rate_limit.token_burst":  "TOKEN_RATE_LIMIT_BURST",
	"telemetry.enabled":       "OTEL_ENABLED",
	"telemetry.stdout":        "OTEL_STDOUT",
	"telemetry.otlp_endpoint": "OTEL_EXPORTER_OTLP_ENDPOINT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.cors_origin", "*")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite_path", "tracker.db")
	v.SetDefault("storage.mongo_db", "tracker")
	v.SetDefault("jwt.access_ttl", 30*time.Minute)
	v.SetDefault("jwt.refresh_ttl", 24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.system_name", "tracker-service")
	v.SetDefault("log.timezone", "UTC")
	v.SetDefault("notifications.timeout", 5*time.Second)
	v.SetDefault("rate_limit.token_rps", 5.0)
	v.SetDefault("rate_limit.token_burst", 10)
}

// Load reads envFile (if present), then configFile (if non-empty), then the
// environment. Environment values win.
func Load(envFile, configFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return nil, fmt.Errorf("bind %s: %w", name, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		ServerPort:        strings.TrimPrefix(v.GetString("server.port"), ":"),
		CORSOrigin:        v.GetString("server.cors_origin"),
		ShutdownTimeout:   v.GetDuration("server.shutdown_timeout"),
		PasswordBlacklist: v.GetString("auth.password_blacklist"),
		Storage: StorageConfig{
			Driver:     strings.ToLower(v.GetString("storage.driver")),
			SQLitePath: v.GetString("storage.sqlite_path"),
			MySQLDSN:   v.GetString("storage.mysql_dsn"),
			MongoURI:   v.GetString("storage.mongo_uri"),
			MongoDB:    v.GetString("storage.mongo_db"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			AccessTTL:  v.GetDuration("jwt.access_ttl"),
			RefreshTTL: v.GetDuration("jwt.refresh_ttl"),
		},
		Log: LogConfig{
			File:       v.GetString("log.file"),
			Level:      v.GetString("log.level"),
			SystemName: v.GetString("log.system_name"),
			Timezone:   v.GetString("log.timezone"),
		},
		Notifications: NotificationsConfig{
			URL:     v.GetString("notifications.url"),
			Timeout: v.GetDuration("notifications.timeout"),
		},
		RateLimit: RateLimitConfig{
			TokenRPS:   v.GetFloat64("rate_limit.token_rps"),
			TokenBurst: v.GetInt("rate_limit.token_burst"),
		},
		Telemetry: TelemetryConfig{
			Enabled:      v.GetBool("telemetry.enabled"),
			Stdout:       v.GetBool("telemetry.stdout"),
			OTLPEndpoint: v.GetString("telemetry.otlp_endpoint"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverMySQL:
		if c.Storage.MySQLDSN == "" {
			return errors.New("MYSQL_DSN is required for the mysql driver")
		}
	case DriverMongo:
		if c.Storage.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT lifetimes must be positive")
	}
	return nil
}

// Location resolves the log timezone, falling back to UTC.
func (c LogConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
