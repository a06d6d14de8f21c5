package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Checkout   CheckoutConfig
	Gateway    GatewayConfig
	Aggregator AggregatorConfig
	Kafka      KafkaConfig
	Redis      RedisConfig
	Labels     LabelArchiveConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey string
}

// CheckoutConfig holds the pricing knobs that used to be module-level
// constants: tax rate and the default parcel used when an order carries no
// dimensions of its own.
type CheckoutConfig struct {
	TaxRate         decimal.Decimal
	PickupPostcode  string
	DefaultWeightKg decimal.Decimal
}

// GatewayConfig holds payment-provider credentials and the request timeout.
type GatewayConfig struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Currency  string
	Timeout   time.Duration
}

// AggregatorConfig holds shipping-aggregator credentials.
type AggregatorConfig struct {
	BaseURL   string
	Email     string
	Password  string
	ChannelID string
	Timeout   time.Duration
	TokenTTL  time.Duration
}

// KafkaConfig holds notification-topic settings. When disabled the service
// logs notification events instead of publishing them.
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// RedisConfig holds the aggregator token cache settings.
type RedisConfig struct {
	Enabled bool
	Addr    string
	DB      int
}

// LabelArchiveConfig holds S3 settings for archiving shipping labels.
type LabelArchiveConfig struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "storefront"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey: getEnv("API_KEY", ""),
		},
		Checkout: CheckoutConfig{
			TaxRate:         getEnvAsDecimal("TAX_RATE", "0.10"),
			PickupPostcode:  getEnv("PICKUP_POSTCODE", ""),
			DefaultWeightKg: getEnvAsDecimal("DEFAULT_WEIGHT_KG", "0.5"),
		},
		Gateway: GatewayConfig{
			BaseURL:   getEnv("GATEWAY_BASE_URL", "https://api.paymentgateway.example"),
			KeyID:     getEnv("GATEWAY_KEY_ID", ""),
			KeySecret: getEnv("GATEWAY_KEY_SECRET", ""),
			Currency:  getEnv("GATEWAY_CURRENCY", "INR"),
			Timeout:   time.Duration(getEnvAsInt("GATEWAY_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Aggregator: AggregatorConfig{
			BaseURL:   getEnv("AGGREGATOR_BASE_URL", "https://apiv2.shipaggregator.example/v1/external"),
			Email:     getEnv("AGGREGATOR_EMAIL", ""),
			Password:  getEnv("AGGREGATOR_PASSWORD", ""),
			ChannelID: getEnv("AGGREGATOR_CHANNEL_ID", ""),
			Timeout:   time.Duration(getEnvAsInt("AGGREGATOR_TIMEOUT_SECONDS", 15)) * time.Second,
			TokenTTL:  time.Duration(getEnvAsInt("AGGREGATOR_TOKEN_TTL_HOURS", 240)) * time.Hour,
		},
		Kafka: KafkaConfig{
			Enabled: getEnvAsBool("KAFKA_ENABLED", false),
			Brokers: []string{getEnv("KAFKA_BROKER", "localhost:9092")},
			Topic:   getEnv("KAFKA_TOPIC", "order-notifications"),
		},
		Redis: RedisConfig{
			Enabled: getEnvAsBool("REDIS_ENABLED", false),
			Addr:    getEnv("REDIS_ADDR", "localhost:6379"),
			DB:      getEnvAsInt("REDIS_DB", 0),
		},
		Labels: LabelArchiveConfig{
			Enabled: getEnvAsBool("LABEL_ARCHIVE_ENABLED", false),
			Bucket:  getEnv("LABEL_ARCHIVE_BUCKET", ""),
			Region:  getEnv("LABEL_ARCHIVE_REGION", "us-east-1"),
			Prefix:  getEnv("LABEL_ARCHIVE_PREFIX", "labels/"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	if c.Checkout.TaxRate.IsNegative() || c.Checkout.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("tax rate must be between 0 and 1, got %s", c.Checkout.TaxRate)
	}

	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("gateway timeout must be positive")
	}

	if c.Aggregator.Timeout <= 0 {
		return fmt.Errorf("aggregator timeout must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 || c.Kafka.Brokers[0] == "" {
			return fmt.Errorf("kafka broker is required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required when kafka is enabled")
		}
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when redis is enabled")
	}

	if c.Labels.Enabled {
		if c.Labels.Bucket == "" {
			return fmt.Errorf("label archive bucket is required when archiving is enabled")
		}
		if c.Labels.Region == "" {
			return fmt.Errorf("label archive region is required when archiving is enabled")
		}
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDecimal retrieves an environment variable as a decimal, falling
// back to the given default when unset or unparsable.
func getEnvAsDecimal(key, defaultValue string) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	d, _ := decimal.NewFromString(defaultValue)
	return d
}
