package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// MySQLClient is a KVClient backed by the kv_store table
type MySQLClient struct {
	db *sql.DB
}

// NewMySQLClient wraps an open database. The kv_store table must exist (see RunMigrations).
func NewMySQLClient(db *sql.DB) *MySQLClient {
	return &MySQLClient{db: db}
}

// Method Get is a KVClient implementation for reading a row of kv_store.
func (c *MySQLClient) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := c.db.QueryRowContext(ctx, "SELECT v FROM kv_store WHERE k = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("mysql get %s: %w", key, err)
	}
	return value, true, nil
}

// Method Set is a KVClient implementation for upserting a row of kv_store.
func (c *MySQLClient) Set(ctx context.Context, key string, value string) error {
	_, err := c.db.ExecContext(ctx,
		"INSERT INTO kv_store (k, v) VALUES (?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v)",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("mysql set %s: %w", key, err)
	}
	return nil
}

// Method Ping is a KVClient implementation for checking the database connection.
func (c *MySQLClient) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Method Close is a KVClient implementation for closing the database.
func (c *MySQLClient) Close() error {
	return c.db.Close()
}

// RunMigrations creates or upgrades the kv_store table
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "bookshelf_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Get the working directory or use migrations folder relative to the binary
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(migrationPath, "mysql", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("store migrations applied", zap.String("source", migrationPath))
	return nil
}
