package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/trackly/trackly-home/home"
	"github.com/trackly/trackly-home/internal/config"
	"github.com/trackly/trackly-home/internal/logging"
	"github.com/trackly/trackly-home/internal/notification"
	"github.com/trackly/trackly-home/pkg/repository"
)

const (
	storePostgres = "postgres"
	storeMemory   = "memory"
)

func serveCmd() *cobra.Command {
	var store string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the household API.

Examples:
  trackly-home serve
  trackly-home serve --store=memory`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if store != storePostgres && store != storeMemory {
				return fmt.Errorf("--store must be %q or %q", storePostgres, storeMemory)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

			return runServe(cmd.Context(), cfg, store, logger)
		},
	}

	cmd.Flags().StringVar(&store, "store", storePostgres, "backing store: postgres or memory")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, store string, logger *slog.Logger) error {
	var db *sql.DB
	if store == storePostgres {
		var err error
		db, err = openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		logger.Info("connected to database")

		if cfg.DBAutoMigrate {
			if err := repository.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("migrations applied")
		}
	} else {
		logger.Warn("using in-memory store; data is lost on restart")
	}

	mailer := notification.NewMailer(notification.Config{
		ResendAPIKey: cfg.ResendAPIKey,
		ResendFrom:   cfg.ResendFrom,
		SMTP: notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
		},
	}, logger)

	app, err := home.New(home.Config{
		DB:                 db,
		JWTSecret:          cfg.JWTSecret,
		JWTIssuer:          cfg.JWTIssuer,
		JWTAudience:        cfg.JWTAudience,
		JWTLeeway:          cfg.JWTLeeway,
		SiteURL:            cfg.SiteURL,
		AllowedOrigins:     cfg.CORSOrigins,
		Mailer:             mailer,
		EmailWebhookSecret: cfg.EmailWebhookSecret,
		RateLimit:          cfg.RateLimit,
		SecurityHeaders:    cfg.SecurityHeaders,
		MaxRequestBodySize: cfg.Validation.MaxRequestBodySize,
		Logger:             logger,
	})
	if err != nil {
		return err
	}
	if cfg.HasEmailWebhook() {
		logger.Info("email delivery webhook enabled")
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      app.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", addr, "store", store)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
	return nil
}

func openDB(cfg *config.Config) (*sql.DB, error) {
	db, err := repository.NewDB(repository.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}
