// Package storage holds the key-value clients and the document store that reads and writes
// whole JSON collections under a single key.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bookshelf/backend/internal/config"
	"github.com/bookshelf/backend/internal/models"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// Keys of the two documents kept in the store
const (
	BooksKey = "books"
	UsersKey = "users"
)

// KVClient is the interface that wraps the key-value operations the application needs.
type KVClient interface {
	// Method Get reads the value stored under "key".
	//
	// The boolean result is false when the key does not exist; this is not an error.
	Get(ctx context.Context, key string) (string, bool, error)
	// Method Set stores "value" under "key", overwriting any previous value.
	Set(ctx context.Context, key string, value string) error
	// Method Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
	// Method Close releases the connection to the backend.
	Close() error
}

// Connect builds the client selected by the store configuration and checks it is reachable.
//
// A client that cannot be reached is closed and ErrStoreUnavailable is returned; callers abort startup on it.
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (KVClient, error) {
	var (
		client KVClient
		err    error
	)

	switch cfg.Store.Driver {
	case config.StoreDriverRedis:
		client = NewRedisClient(RedisOptions{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	case config.StoreDriverMySQL:
		client, err = connectMySQL(cfg.DSN(), logger)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
		}
	case config.StoreDriverMemory:
		logger.Warn("using in-memory store, data will not survive a restart")
		client = NewMemoryClient()
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Store.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}

	logger.Info("connected to store", zap.String("driver", cfg.Store.Driver))
	return client, nil
}

// connectMySQL opens the database, applies migrations and wraps it in a KVClient
func connectMySQL(dsn string, logger *zap.Logger) (KVClient, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := RunMigrations(db, logger); err != nil {
		db.Close()
		return nil, err
	}

	return NewMySQLClient(db), nil
}
