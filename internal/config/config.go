package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Tracker  TrackerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Logging  LoggingConfig
}

type TrackerConfig struct {
	MaxRetries     int
	RequestTimeout time.Duration
	DropPercent    float64
	DropAmount     float64
	Interval       time.Duration
	ProductsFile   string
	UserAgents     []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr        string
	Password    string
	AlertStream string
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Tracker: TrackerConfig{
			MaxRetries:     getIntOrDefault("TRACKER_MAX_RETRIES", 3),
			RequestTimeout: getDurationOrDefault("TRACKER_REQUEST_TIMEOUT", 30*time.Second),
			DropPercent:    getFloatOrDefault("PRICE_DROP_PERCENT", 5),
			DropAmount:     getFloatOrDefault("PRICE_DROP_AMOUNT", 10),
			Interval:       getDurationOrDefault("TRACKER_INTERVAL", 12*time.Hour),
			ProductsFile:   getEnvOrDefault("PRODUCTS_FILE", "products.json"),
			UserAgents:     getStringSliceOrDefault("TRACKER_USER_AGENTS", nil),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "price_tracker"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:        getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password:    getEnvOrDefault("REDIS_PASSWORD", ""),
			AlertStream: getEnvOrDefault("ALERT_STREAM", "stream:price_alerts"),
		},
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Tracker.MaxRetries < 1 {
		return fmt.Errorf("TRACKER_MAX_RETRIES must be at least 1")
	}
	if c.Tracker.RequestTimeout <= 0 {
		return fmt.Errorf("TRACKER_REQUEST_TIMEOUT must be positive")
	}
	if c.Tracker.Interval <= 0 {
		return fmt.Errorf("TRACKER_INTERVAL must be positive")
	}
	if c.Tracker.DropPercent < 0 || c.Tracker.DropAmount < 0 {
		return fmt.Errorf("drop thresholds cannot be negative")
	}
	return nil
}

// Product is one entry of the tracked-product registry: a display name and
// the per-site URLs to scrape, with an optional target price.
type Product struct {
	Name        string            `json:"name"`
	URLs        map[string]string `json:"urls"`
	TargetPrice *decimal.Decimal  `json:"target_price,omitempty"`
}

// LoadProducts reads the product registry from a JSON file.
func LoadProducts(path string) ([]Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read products file: %w", err)
	}

	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to parse products file: %w", err)
	}

	for i, p := range products {
		if p.Name == "" {
			return nil, fmt.Errorf("product %d has no name", i)
		}
		if len(p.URLs) == 0 {
			return nil, fmt.Errorf("product %q has no urls", p.Name)
		}
	}

	return products, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
