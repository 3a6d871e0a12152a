package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/trackly/trackly-home/home"
	"github.com/trackly/trackly-home/internal/config"
	"github.com/trackly/trackly-home/pkg/domain"
)

// tokenCmd prints an access token signed with JWT_SECRET so the API can be
// exercised locally without the identity provider.
func tokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a development access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			id := uuid.New()
			if userID != "" {
				if id, err = uuid.Parse(userID); err != nil {
					return fmt.Errorf("--user: %w", err)
				}
			}

			app, err := home.New(home.Config{
				JWTSecret:   cfg.JWTSecret,
				JWTIssuer:   cfg.JWTIssuer,
				JWTAudience: cfg.JWTAudience,
				SiteURL:     cfg.SiteURL,
			})
			if err != nil {
				return err
			}

			token, err := app.IssueToken(domain.Caller{UserID: id, Email: email}, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user ID (default: random)")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")

	return cmd
}
