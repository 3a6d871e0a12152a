package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trackly/trackly-home/internal/config"
	"github.com/trackly/trackly-home/internal/logging"
	"github.com/trackly/trackly-home/pkg/repository"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			version, err := repository.SchemaVersion(cmd.Context(), db)
			if err != nil {
				return err
			}
			logger.Info("migrations applied", "version", version)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the applied state of every migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logging.Setup(cfg.LogLevel, cfg.LogFormat)

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			return repository.MigrationStatus(cmd.Context(), db)
		},
	})

	return cmd
}
