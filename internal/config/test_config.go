package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadTestConfig loads the configuration from the .env file or environment variables for integration tests.
// If the TEST_REDIS_HOST variable is not set, it returns a Config with empty values
// which allows tests to skip when no store is available.
func LoadTestConfig() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist - it's optional)
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := &Config{}
	redisHost := os.Getenv("TEST_REDIS_HOST")
	if redisHost == "" {
		return cfg, nil
	}
	cfg.Store.Driver = StoreDriverRedis
	cfg.Store.Timeout = 5 * time.Second
	cfg.Redis.Host = redisHost

	redisPort, err := strconv.Atoi(envOrDefault("TEST_REDIS_PORT", "6379"))
	if err != nil {
		return nil, fmt.Errorf("invalid TEST_REDIS_PORT: %w", err)
	}
	cfg.Redis.Port = redisPort
	cfg.Redis.Password = os.Getenv("TEST_REDIS_PASSWORD")

	// Use a separate logical database so tests never touch application data
	redisDB, err := strconv.Atoi(envOrDefault("TEST_REDIS_DB", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid TEST_REDIS_DB: %w", err)
	}
	cfg.Redis.DB = redisDB

	cfg.Session.Secret = envOrDefault("TEST_SESSION_SECRET", "integration-secret")
	cfg.Admin.Username = "superuser1"
	cfg.Admin.Password = "123"

	return cfg, nil
}
