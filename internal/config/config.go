package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Cafe Inventory v1.0"`
		Port int    `envconfig:"PORT" default:"3000"`
	}

	DB struct {
		Driver   string `envconfig:"DB_DRIVER" default:"postgres"` // postgres | sqlite
		URL      string `envconfig:"DATABASE_URL"`
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"cafe_inventory"`
		LogLevel string `envconfig:"DB_LOG_LEVEL" default:"warn"`
	}

	Auth struct {
		JWTSecret string        `envconfig:"JWT_SECRET" default:"change-me-in-production"`
		TokenTTL  time.Duration `envconfig:"JWT_TTL" default:"24h"`
	}

	Redis struct {
		Addr     string        `envconfig:"REDIS_ADDR"`
		Password string        `envconfig:"REDIS_PASSWORD"`
		DB       int           `envconfig:"REDIS_DB" default:"0"`
		TTL      time.Duration `envconfig:"DASHBOARD_CACHE_TTL" default:"1m"`
	}

	Inventory struct {
		LowStockScanInterval time.Duration `envconfig:"LOW_STOCK_SCAN_INTERVAL" default:"5m"`
	}

	Seed struct {
		AdminUsername string `envconfig:"ADMIN_USERNAME" default:"admin"`
		AdminPassword string `envconfig:"ADMIN_PASSWORD" default:"admin123"`
	}
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DB.URL != "" {
		return c.DB.URL
	}

	if c.DB.Driver == "sqlite" {
		return c.DB.Name + ".db"
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DB.Host, c.DB.User, c.DB.Password, c.DB.Name, c.DB.Port)
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, relying on system env")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
