package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/freekieb7/go-newsgate/internal/config"
	"github.com/freekieb7/go-newsgate/internal/container"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token with the configured client secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		secret, _ := cmd.Flags().GetString("secret")
		if secret == "" {
			secret = cfg.Auth.ClientSecret
		}

		authService := container.NewAuthService(cfg.Auth, slog.New(slog.NewTextHandler(io.Discard, nil)))
		token, err := authService.ExchangeSecretForToken(cmd.Context(), secret)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, token.Token)
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			fmt.Fprintf(out, "subject: %s\nexpires: %s\n", token.Claims.Subject, token.Claims.ExpiresAt.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("secret", "", "client secret (defaults to CLIENT_SECRET)")
	tokenCmd.Flags().BoolP("verbose", "v", false, "print the token claims")
	rootCmd.AddCommand(tokenCmd)
}
