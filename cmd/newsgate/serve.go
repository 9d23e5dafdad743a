package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/freekieb7/go-newsgate/internal/config"
	"github.com/freekieb7/go-newsgate/internal/container"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func Run(ctx context.Context) error {
	// Shut down gracefully on interruption
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	c, err := container.New(ctx, cfg)
	if err != nil {
		return errors.Join(errors.New("startup failed"), err)
	}
	defer c.Close()

	server := c.HttpServer
	logger := c.Logger

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("Listening and serving",
			slog.String("addr", server.Addr),
			slog.String("auth_mode", string(cfg.Auth.Mode)),
			slog.String("environment", string(cfg.Server.Environment)))
		srvErr <- server.ListenAndServe()
	}()

	select {
	case err := <-srvErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return err
		}

		logger.Info("Shutdown completed")
	}

	return nil
}
