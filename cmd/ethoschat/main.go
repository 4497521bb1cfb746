package main

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ethoschat/ethoschat/internal/app"
	"github.com/ethoschat/ethoschat/internal/config"
	"github.com/ethoschat/ethoschat/internal/log"
	"github.com/ethoschat/ethoschat/internal/server"
	"github.com/ethoschat/ethoschat/internal/store/sqlite"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "ethoschat",
		Short:         "Reputation-gated chat client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	root.AddCommand(newChatCmd(&configPath))
	root.AddCommand(newServeCmd(&configPath))
	return root
}

func newChatCmd(configPath *string) *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive chat client",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if serverURL != "" {
				cfg.ServerURL = serverURL
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return app.New(cfg, logger).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "chat server base URL")
	return cmd
}

func newServeCmd(configPath *string) *cobra.Command {
	var addr, dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the development chat server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			if dbPath != "" {
				cfg.Serve.DatabasePath = dbPath
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	return cmd
}

func loadConfig(path string) (config.Config, *zerolog.Logger, error) {
	bootLogger := log.New("info")
	cfg, configPath, err := config.Load(bootLogger, path)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config %s: %w", configPath, err)
	}
	return cfg, log.New(cfg.LogLevel), nil
}

// runServer starts the development server and blocks until the context
// is cancelled or the listener fails.
func runServer(ctx context.Context, cfg config.Config, logger *zerolog.Logger) error {
	st, err := sqlite.New(cfg.Serve.DatabasePath)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close store")
		}
	}()

	logger.Info().Str("db_path", cfg.Serve.DatabasePath).Msg("database initialized")

	hub := server.NewHub(logger)
	srv := server.NewServer(cfg.Serve, hub, st, logger)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Serve.Addr).Msg("starting chat server")
		if err := srv.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Serve.ShutdownTimeout)
		defer cancel()

		logger.Info().Msg("shutting down http server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}
