// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	StoreDriverRedis  = "redis"
	StoreDriverMySQL  = "mysql"
	StoreDriverMemory = "memory"
)

// maxAdminPasswordBytes is the bcrypt input limit
const maxAdminPasswordBytes = 72

// Config holds all configuration for the application
type Config struct {
	Store    StoreConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Server   ServerConfig
	Logging  LoggingConfig
	CORS     CORSConfig
	Session  SessionConfig
	Admin    AdminConfig
}

// StoreConfig selects the key-value backend
type StoreConfig struct {
	Driver  string
	Timeout time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// DatabaseConfig holds MySQL connection settings, used only by the mysql store driver
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port               int
	RateLimitPerMinute int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// SessionConfig holds the signing secret and lifetime of login sessions
type SessionConfig struct {
	Secret string
	Expiry time.Duration
}

// AdminConfig holds the credentials of the administrator seeded at startup
type AdminConfig struct {
	Username string
	Password string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{}

	// Store configuration
	cfg.Store.Driver = strings.ToLower(envOrDefault("STORE_DRIVER", StoreDriverRedis))
	switch cfg.Store.Driver {
	case StoreDriverRedis, StoreDriverMySQL, StoreDriverMemory:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER: %q", cfg.Store.Driver)
	}

	storeTimeout, err := time.ParseDuration(envOrDefault("STORE_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_TIMEOUT: %w", err)
	}
	cfg.Store.Timeout = storeTimeout

	// Redis configuration
	cfg.Redis.Host = envOrDefault("REDIS_HOST", "localhost")
	redisPort, err := strconv.Atoi(envOrDefault("REDIS_PORT", "6379"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	cfg.Redis.Port = redisPort
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD") // optional
	redisDB, err := strconv.Atoi(envOrDefault("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.Redis.DB = redisDB

	// Database configuration is only required by the mysql driver
	if cfg.Store.Driver == StoreDriverMySQL {
		if err := loadDatabaseConfig(&cfg.Database, ""); err != nil {
			return nil, err
		}
	}

	// Server configuration
	serverPort, err := strconv.Atoi(envOrDefault("SERVER_PORT", "5001"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	cfg.Server.Port = serverPort

	rateLimit, err := strconv.Atoi(envOrDefault("RATE_LIMIT_PER_MINUTE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}
	cfg.Server.RateLimitPerMinute = rateLimit

	// Logging configuration
	cfg.Logging.Level = envOrDefault("LOG_LEVEL", "info")

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// Session configuration
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	cfg.Session.Secret = secret

	expiry, err := time.ParseDuration(envOrDefault("SESSION_EXPIRY", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_EXPIRY: %w", err)
	}
	cfg.Session.Expiry = expiry

	// Seeded administrator
	cfg.Admin.Username = envOrDefault("ADMIN_USERNAME", "superuser1")
	cfg.Admin.Password = envOrDefault("ADMIN_PASSWORD", "123")
	if len(cfg.Admin.Password) > maxAdminPasswordBytes {
		return nil, fmt.Errorf("ADMIN_PASSWORD must be at most %d bytes", maxAdminPasswordBytes)
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// RedisAddr returns the host:port address of the Redis server
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func loadDatabaseConfig(db *DatabaseConfig, prefix string) error {
	db.Host = os.Getenv(prefix + "DB_HOST")
	if db.Host == "" {
		return fmt.Errorf("%sDB_HOST is required", prefix)
	}

	portStr := os.Getenv(prefix + "DB_PORT")
	if portStr == "" {
		return fmt.Errorf("%sDB_PORT is required", prefix)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid %sDB_PORT: %w", prefix, err)
	}
	db.Port = port

	db.User = os.Getenv(prefix + "DB_USER")
	if db.User == "" {
		return fmt.Errorf("%sDB_USER is required", prefix)
	}

	db.Password = os.Getenv(prefix + "DB_PASSWORD")
	if db.Password == "" {
		return fmt.Errorf("%sDB_PASSWORD is required", prefix)
	}

	db.DBName = os.Getenv(prefix + "DB_NAME")
	if db.DBName == "" {
		return fmt.Errorf("%sDB_NAME is required", prefix)
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parseOrigins splits a comma-separated list, defaulting to allow all origins
func parseOrigins(raw string) []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
