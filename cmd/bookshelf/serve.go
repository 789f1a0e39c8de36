package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookshelf/backend/internal/handlers"
	"github.com/bookshelf/backend/internal/logger"
	"github.com/bookshelf/backend/internal/metrics"
	"github.com/bookshelf/backend/internal/middleware"
	"github.com/bookshelf/backend/internal/services"
	"github.com/bookshelf/backend/internal/session"
	"github.com/bookshelf/backend/internal/views"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Seed the administrator and start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a := bootstrap(ctx)
			defer a.close()

			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	logger.Logger.Info("Starting Bookshelf")

	authService := services.NewAuthService(a.users, logger.Logger, a.cfg.Admin.Username, a.cfg.Admin.Password)
	if _, err := authService.SeedAdmin(ctx); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	catalogService := services.NewCatalogService(a.books, logger.Logger)

	renderer, err := views.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	tokens := session.NewTokenManager(a.cfg.Session.Secret, a.cfg.Session.Expiry)
	notices := session.NewFlashStore(a.cfg.Session.Secret, logger.Logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, tokens, renderer, notices, logger.Logger)
	booksHandler := handlers.NewBooksHandler(catalogService, renderer, notices, logger.Logger)
	healthHandler := handlers.NewHealthHandler(a.store, logger.Logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(metrics.InstrumentHandler)
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(logger.Logger))
	r.Use(middleware.RecoveryMiddleware(logger.Logger))
	r.Use(middleware.CORSMiddleware(a.cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(a.cfg.Server.RateLimitPerMinute, time.Minute))
	r.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))
	r.Use(middleware.SessionMiddleware(tokens, logger.Logger))

	r.Handle("/metrics", metrics.Handler())
	healthHandler.RegisterRoutes(r)
	authHandler.RegisterRoutes(r)
	booksHandler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Logger.Info("Server starting", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Server forced to shutdown", zap.Error(err))
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Logger.Info("Server exited")
	return nil
}
