package main

import (
	"fmt"

	"github.com/bookshelf/backend/internal/logger"
	"github.com/bookshelf/backend/internal/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSeedAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the administrator account if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := bootstrap(cmd.Context())
			defer a.close()

			created, err := services.NewAuthService(a.users, logger.Logger, a.cfg.Admin.Username, a.cfg.Admin.Password).SeedAdmin(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to seed admin: %w", err)
			}
			if !created {
				logger.Logger.Info("Admin user already exists", zap.String("username", a.cfg.Admin.Username))
			}
			return nil
		},
	}
}
