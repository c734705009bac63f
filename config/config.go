package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// HTTP configuration
	HTTPPort  string
	JWTSecret string

	// Payment gateway configuration
	PaymentGatewayKey    string
	PaymentGatewaySecret string

	// Infrastructure
	NATSUrl   string
	RedisAddr string

	// Cache TTL for wallet and room reads, in seconds
	CacheTTLSeconds int

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables. A .env file in the
// working directory is applied first when present.
func load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),

		HTTPPort:  envOrDefault("HTTP_PORT", "8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		PaymentGatewayKey:    os.Getenv("PAYMENT_GATEWAY_KEY"),
		PaymentGatewaySecret: os.Getenv("PAYMENT_GATEWAY_SECRET"),

		NATSUrl:   envOrDefault("NATS_URL", "nats://localhost:4222"),
		RedisAddr: envOrDefault("REDIS_ADDR", "localhost:6379"),

		CacheTTLSeconds: 60,

		Environment: envOrDefault("ENVIRONMENT", "development"),
	}

	if config.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if config.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return config, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
