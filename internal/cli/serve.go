package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/existflow/taskhub/internal/logger"
	"github.com/existflow/taskhub/internal/server"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		secret := cfg.Auth.Secret
		if secret == "" {
			// sqlite dev mode only; Validate rejects this for postgres
			secret = uuid.NewString() + uuid.NewString()
			logger.Warn("No auth secret configured, using a random one; tokens will not survive a restart")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		database, st, err := openStore(ctx, cfg.Database.AutoMigrate)
		if err != nil {
			return err
		}
		defer func() {
			_ = database.Close()
			logger.Info("Database closed")
		}()

		srv := server.New(st, server.Options{
			Secret:         []byte(secret),
			TokenTTL:       cfg.Auth.TokenTTL,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		})

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start(cfg.Server.Addr)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Info("Shutting down", logger.F("timeout", cfg.Server.ShutdownTimeout.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config and PORT)")
}
