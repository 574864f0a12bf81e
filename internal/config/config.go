package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Cascade policies applied when an account is deleted
const (
	CascadeSenderOnly         = "sender_only"
	CascadeSenderAndRecipient = "sender_and_recipient"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port        string   `yaml:"port" env:"SERVER_PORT"`
		Mode        string   `yaml:"mode" env:"SERVER_MODE"`
		StoragePath string   `yaml:"storage_path" env:"SERVER_STORAGE_PATH"`
		BaseURL     string   `yaml:"base_url" env:"SERVER_BASE_URL"`
		CORSOrigins []string `yaml:"cors_origins" env:"SERVER_CORS_ORIGINS"`
		HookSecret  string   `yaml:"hook_secret" env:"SERVER_HOOK_SECRET"`
	} `yaml:"server"`

	Database struct {
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Fanout struct {
		BatchSize int `yaml:"batch_size" env:"FANOUT_BATCH_SIZE"`
	} `yaml:"fanout"`

	Accounts struct {
		CascadePolicy string `yaml:"cascade_policy" env:"ACCOUNTS_CASCADE_POLICY"`
		AdminEmail    string `yaml:"admin_email" env:"ACCOUNTS_ADMIN_EMAIL"`
		AdminUID      string `yaml:"admin_uid" env:"ACCOUNTS_ADMIN_UID"`
	} `yaml:"accounts"`

	Push struct {
		Enabled     bool   `yaml:"enabled" env:"PUSH_ENABLED"`
		FCMEndpoint string `yaml:"fcm_endpoint" env:"PUSH_FCM_ENDPOINT"`
		ServerKey   string `yaml:"server_key" env:"PUSH_SERVER_KEY"`
		Timeout     string `yaml:"timeout" env:"PUSH_TIMEOUT"`
	} `yaml:"push"`

	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
	} `yaml:"redis"`

	RateLimit struct {
		Enabled  bool   `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
		Requests int    `yaml:"requests" env:"RATE_LIMIT_REQUESTS"`
		Window   string `yaml:"window" env:"RATE_LIMIT_WINDOW"`
	} `yaml:"rate_limit"`
}

// LoadConfig loads configuration from a file, a .env file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

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
	// Server defaults
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.StoragePath = "./storage"
	config.Server.BaseURL = "http://localhost:8080"
	config.Server.CORSOrigins = []string{"http://localhost:3000"}

	// Database defaults
	config.Database.Driver = DriverPostgres
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "campusmesh"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"

	// JWT defaults
	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.Issuer = "campusmesh.app"

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Fanout.BatchSize = 100
	config.Accounts.CascadePolicy = CascadeSenderOnly

	config.Push.FCMEndpoint = "https://fcm.googleapis.com/fcm/send"
	config.Push.Timeout = "5s"

	config.RateLimit.Requests = 120
	config.RateLimit.Window = "1m"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return applyEnvOverrides(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case DriverPostgres:
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", config.Database.Driver)
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	if config.Fanout.BatchSize <= 0 {
		return fmt.Errorf("fan-out batch size must be positive, got %d", config.Fanout.BatchSize)
	}

	switch config.Accounts.CascadePolicy {
	case CascadeSenderOnly, CascadeSenderAndRecipient:
	default:
		return fmt.Errorf("unknown cascade policy %q", config.Accounts.CascadePolicy)
	}

	if config.Push.Enabled && config.Push.ServerKey == "" {
		return fmt.Errorf("push server key is required when push is enabled")
	}
	if _, err := time.ParseDuration(config.Push.Timeout); err != nil {
		return fmt.Errorf("invalid push timeout format: %w", err)
	}

	if config.RateLimit.Enabled {
		if config.RateLimit.Requests <= 0 {
			return fmt.Errorf("rate limit requests must be positive")
		}
		if _, err := time.ParseDuration(config.RateLimit.Window); err != nil {
			return fmt.Errorf("invalid rate limit window format: %w", err)
		}
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

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
