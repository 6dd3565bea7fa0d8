package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Tracker.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Tracker.RequestTimeout)
	assert.Equal(t, 5.0, cfg.Tracker.DropPercent)
	assert.Equal(t, 10.0, cfg.Tracker.DropAmount)
	assert.Equal(t, 12*time.Hour, cfg.Tracker.Interval)
	assert.Equal(t, "products.json", cfg.Tracker.ProductsFile)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "stream:price_alerts", cfg.Redis.AlertStream)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TRACKER_MAX_RETRIES", "5")
	t.Setenv("TRACKER_REQUEST_TIMEOUT", "45s")
	t.Setenv("PRICE_DROP_PERCENT", "2.5")
	t.Setenv("TRACKER_INTERVAL", "6h")
	t.Setenv("TRACKER_USER_AGENTS", "ua-one,ua-two")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Tracker.MaxRetries)
	assert.Equal(t, 45*time.Second, cfg.Tracker.RequestTimeout)
	assert.Equal(t, 2.5, cfg.Tracker.DropPercent)
	assert.Equal(t, 6*time.Hour, cfg.Tracker.Interval)
	assert.Equal(t, []string{"ua-one", "ua-two"}, cfg.Tracker.UserAgents)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
}

func TestLoad_InvalidEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("TRACKER_MAX_RETRIES", "not-a-number")
	t.Setenv("TRACKER_INTERVAL", "tomorrow")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Tracker.MaxRetries)
	assert.Equal(t, 12*time.Hour, cfg.Tracker.Interval)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "zero retries", mutate: func(c *Config) { c.Tracker.MaxRetries = 0 }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.Tracker.RequestTimeout = 0 }, wantErr: true},
		{name: "zero interval", mutate: func(c *Config) { c.Tracker.Interval = 0 }, wantErr: true},
		{name: "negative percent threshold", mutate: func(c *Config) { c.Tracker.DropPercent = -1 }, wantErr: true},
		{name: "negative amount threshold", mutate: func(c *Config) { c.Tracker.DropAmount = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func writeProductsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadProducts(t *testing.T) {
	path := writeProductsFile(t, `[
		{
			"name": "Sony WH-1000XM4",
			"urls": {
				"amazon": "https://www.amazon.com/dp/B0863TXGM3",
				"bestbuy": "https://www.bestbuy.com/site/6408356.p"
			},
			"target_price": "299.99"
		},
		{
			"name": "Kindle Paperwhite",
			"urls": {"amazon": "https://www.amazon.com/dp/B08KTZ8249"}
		}
	]`)

	products, err := LoadProducts(path)
	require.NoError(t, err)
	require.Len(t, products, 2)

	first := products[0]
	assert.Equal(t, "Sony WH-1000XM4", first.Name)
	assert.Len(t, first.URLs, 2)
	require.NotNil(t, first.TargetPrice)
	assert.Equal(t, "299.99", first.TargetPrice.String())

	assert.Nil(t, products[1].TargetPrice)
}

func TestLoadProducts_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "invalid json", content: `{not json`},
		{name: "missing name", content: `[{"urls": {"amazon": "https://www.amazon.com/dp/X"}}]`},
		{name: "missing urls", content: `[{"name": "Nameless"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeProductsFile(t, tt.content)
			_, err := LoadProducts(path)
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadProducts(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})
}
