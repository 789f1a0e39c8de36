package main

import (
	"context"
	"log"
	"os"

	"github.com/bookshelf/backend/internal/config"
	"github.com/bookshelf/backend/internal/logger"
	"github.com/bookshelf/backend/internal/repositories"
	"github.com/bookshelf/backend/internal/services"
	"github.com/bookshelf/backend/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	root := &cobra.Command{
		Use:          "bookshelf",
		Short:        "Library book catalog web application",
		SilenceUsage: true,
		// Running without a subcommand starts the server.
		RunE: serve.RunE,
	}

	root.AddCommand(serve, newSeedAdminCmd(), newImportBooksCmd())
	return root
}

// app holds what every subcommand needs after startup
type app struct {
	cfg    *config.Config
	client storage.KVClient
	store  *storage.DocumentStore
	books  services.BooksRepository
	users  services.UsersRepository
}

// bootstrap loads configuration, initializes the logger and connects to the store.
// Any failure here is fatal.
func bootstrap(ctx context.Context) *app {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}

	client, err := storage.Connect(ctx, cfg, logger.Logger)
	if err != nil {
		logger.Logger.Fatal("Failed to connect to store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}

	store := storage.NewDocumentStore(client, logger.Logger, cfg.Store.Timeout)

	return &app{
		cfg:    cfg,
		client: client,
		store:  store,
		books:  repositories.NewBooksRepository(store, logger.Logger),
		users:  repositories.NewUsersRepository(store, logger.Logger),
	}
}

// close releases the store connection and flushes the logger
func (a *app) close() {
	if err := a.client.Close(); err != nil {
		logger.Logger.Error("Failed to close store", zap.Error(err))
	}
	logger.Sync()
}
