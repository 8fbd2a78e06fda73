// Package config loads the service configuration from an optional
// config.yaml file overlaid with environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/shopspring/decimal"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// DefaultPath is the config file read when CONFIG_PATH is unset.
const DefaultPath = "config.yaml"

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	NewRelic NewRelicConfig `yaml:"new_relic"`
	Log      LogConfig      `yaml:"log"`
	Fare     FareConfig     `yaml:"fare"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Driver   string `yaml:"driver" env:"STORE_DRIVER" env-default:"postgres"`
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"DB_PASSWORD" env-default:"postgres"`
	DBName   string `yaml:"dbname" env:"DB_NAME" env-default:"metro"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`

	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"30m"`
}

// DSN returns the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"true"`
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string `yaml:"app_name" env:"NEW_RELIC_APP_NAME" env-default:"metro-fare-service"`
	LicenseKey string `yaml:"license_key" env:"NEW_RELIC_LICENSE_KEY"`
	Enabled    bool   `yaml:"enabled" env:"NEW_RELIC_ENABLED" env-default:"false"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format     string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
	FilePath   string `yaml:"file_path" env:"LOG_FILE_PATH"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"LOG_FILE_MAX_SIZE_MB" env-default:"100"`
	MaxBackups int    `yaml:"max_backups" env:"LOG_FILE_MAX_BACKUPS" env-default:"5"`
	MaxAgeDays int    `yaml:"max_age_days" env:"LOG_FILE_MAX_AGE_DAYS" env-default:"28"`
	Compress   bool   `yaml:"compress" env:"LOG_FILE_COMPRESS" env-default:"true"`
}

// FareConfig holds pricing configuration.
type FareConfig struct {
	RatePerEdge        string `yaml:"rate_per_edge" env:"FARE_RATE_PER_EDGE" env-default:"5.00"`
	OfflinePassengerID string `yaml:"offline_passenger_id" env:"FARE_OFFLINE_PASSENGER_ID" env-default:"offline"`
}

// Rate parses the per-hop fare.
func (f FareConfig) Rate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(f.RatePerEdge)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fare rate %q: %w", f.RatePerEdge, err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("fare rate %q must be positive", f.RatePerEdge)
	}
	return rate.Round(2), nil
}

// Load reads path if it exists, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values cleanenv cannot.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("config error: unknown store driver %q", c.Database.Driver)
	}
	if _, err := c.Fare.Rate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.Server.Port == "" {
		return errors.New("config error: server port is required")
	}
	return nil
}
