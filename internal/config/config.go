package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string `yaml:"port" env:"SERVER_PORT"`
		Mode            string `yaml:"mode" env:"SERVER_MODE"`
		ShutdownTimeout string `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	} `yaml:"server"`

	Database struct {
		Driver           string `yaml:"driver" env:"DB_DRIVER"`
		URI              string `yaml:"uri" env:"DB_URI"`
		Host             string `yaml:"host" env:"DB_HOST"`
		Port             string `yaml:"port" env:"DB_PORT"`
		User             string `yaml:"user" env:"DB_USER"`
		Password         string `yaml:"password" env:"DB_PASSWORD"`
		DBName           string `yaml:"dbname" env:"DB_NAME"`
		SSLMode          string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns     int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns     int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime  string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		ConnectTimeout   string `yaml:"connect_timeout" env:"DB_CONNECT_TIMEOUT"`
		OperationTimeout string `yaml:"operation_timeout" env:"DB_OPERATION_TIMEOUT"`
		MigrationsDir    string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
	} `yaml:"redis"`

	Session struct {
		Secret       string `yaml:"secret" env:"SESSION_SECRET"`
		TTL          string `yaml:"ttl" env:"SESSION_TTL"`
		CookieName   string `yaml:"cookie_name" env:"SESSION_COOKIE_NAME"`
		Issuer       string `yaml:"issuer" env:"SESSION_ISSUER"`
		SecureCookie bool   `yaml:"secure_cookie" env:"SESSION_SECURE_COOKIE"`
	} `yaml:"session"`

	Auth struct {
		BcryptCost int `yaml:"bcrypt_cost" env:"AUTH_BCRYPT_COST"`
	} `yaml:"auth"`

	Roster struct {
		DefaultPageSize  int     `yaml:"default_page_size" env:"ROSTER_DEFAULT_PAGE_SIZE"`
		MaxPageSize      int     `yaml:"max_page_size" env:"ROSTER_MAX_PAGE_SIZE"`
		MaxSearchResults int     `yaml:"max_search_results" env:"ROSTER_MAX_SEARCH_RESULTS"`
		ExportBatchSize  int     `yaml:"export_batch_size" env:"ROSTER_EXPORT_BATCH_SIZE"`
		GradeScale       float64 `yaml:"grade_scale" env:"ROSTER_GRADE_SCALE"`
		AverageTolerance float64 `yaml:"average_tolerance" env:"ROSTER_AVERAGE_TOLERANCE"`
	} `yaml:"roster"`

	Seed struct {
		Demo bool `yaml:"demo" env:"SEED_DEMO"`
	} `yaml:"seed"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a file, a .env file and environment
// variables, in increasing order of precedence.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// A missing .env is the normal case outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.ShutdownTimeout = "10s"

	config.Database.Driver = DriverMongo
	config.Database.URI = "mongodb://localhost:27017"
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "rosterhub"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.ConnectTimeout = "10s"
	config.Database.OperationTimeout = "5s"
	config.Database.MigrationsDir = "migrations"

	config.Redis.Addr = "localhost:6379"

	config.Session.TTL = "12h"
	config.Session.CookieName = "roster_session"
	config.Session.Issuer = "rosterhub"

	config.Auth.BcryptCost = 12

	config.Roster.DefaultPageSize = 10
	config.Roster.MaxPageSize = 100
	config.Roster.MaxSearchResults = 1000
	config.Roster.ExportBatchSize = 500
	config.Roster.GradeScale = 10.0
	config.Roster.AverageTolerance = 0.01

	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return applyEnv(reflect.ValueOf(config), "")
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case DriverMongo:
		if config.Database.URI == "" {
			return fmt.Errorf("database uri is required for the %s driver", DriverMongo)
		}
	case DriverPostgres:
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	if config.Database.DBName == "" {
		return fmt.Errorf("database name is required")
	}

	if config.Session.Secret == "" {
		return fmt.Errorf("session secret is required")
	}
	if config.Session.CookieName == "" {
		return fmt.Errorf("session cookie name is required")
	}
	if config.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	durations := map[string]string{
		"server.shutdown_timeout":    config.Server.ShutdownTimeout,
		"database.conn_max_lifetime": config.Database.ConnMaxLifetime,
		"database.connect_timeout":   config.Database.ConnectTimeout,
		"database.operation_timeout": config.Database.OperationTimeout,
		"session.ttl":                config.Session.TTL,
	}
	for name, value := range durations {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	r := config.Roster
	if r.MaxPageSize <= 0 {
		return fmt.Errorf("roster max_page_size must be positive")
	}
	if r.DefaultPageSize <= 0 || r.DefaultPageSize > r.MaxPageSize {
		return fmt.Errorf("roster default_page_size must be within 1..%d", r.MaxPageSize)
	}
	if r.MaxSearchResults <= 0 || r.ExportBatchSize <= 0 {
		return fmt.Errorf("roster max_search_results and export_batch_size must be positive")
	}
	if r.GradeScale <= 0 || r.AverageTolerance < 0 {
		return fmt.Errorf("roster grade_scale must be positive and average_tolerance non-negative")
	}

	if config.Auth.BcryptCost < 4 || config.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth bcrypt_cost must be within 4..31")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// OperationTimeout bounds every single store call.
func (c *Config) OperationTimeout() time.Duration {
	return mustDuration(c.Database.OperationTimeout)
}

func (c *Config) ConnectTimeout() time.Duration {
	return mustDuration(c.Database.ConnectTimeout)
}

func (c *Config) SessionTTL() time.Duration {
	return mustDuration(c.Session.TTL)
}

func (c *Config) ShutdownTimeout() time.Duration {
	return mustDuration(c.Server.ShutdownTimeout)
}

// mustDuration is only used on values already checked by validateConfig.
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// IsProduction reports whether gin should run in release mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Mode, "production") || strings.EqualFold(c.Server.Mode, "release")
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
