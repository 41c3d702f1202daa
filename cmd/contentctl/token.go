package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/studyvault-backend/internal/auth"
	"github.com/heartmarshall/studyvault-backend/internal/config"
	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage access tokens",
	}

	var (
		role string
		ttl  time.Duration
	)
	issue := &cobra.Command{
		Use:   "issue <tenant-id>",
		Short: "Issue a signed access token for a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			mgr := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
			token, err := mgr.GenerateAccessToken(domain.NormalizeID(args[0]), domain.Role(role), ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	issue.Flags().StringVar(&role, "role", domain.RoleTenant.String(), "tenant, moderator or admin")
	issue.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default from config)")

	cmd.AddCommand(issue)
	return cmd
}
