package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kartoza/recession-dashboard/internal/forecast"
	"github.com/kartoza/recession-dashboard/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		port      int
		payload   string
		db        string
		watch     bool
		staticDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Flags take priority over the environment
			cfg := a.cfg
			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Port = port
			}
			if flags.Changed("payload") {
				cfg.PayloadPath = payload
			}
			if flags.Changed("db") {
				cfg.DatabasePath = db
			}
			if flags.Changed("watch") {
				cfg.Watch = watch
			}
			if flags.Changed("static") {
				cfg.StaticDir = staticDir
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			// Find an available port, starting from the requested one
			availablePort, err := findAvailablePort(cfg.Port, cfg.PortAttempts)
			if err != nil {
				return fmt.Errorf("failed to find available port: %w", err)
			}
			if availablePort != cfg.Port {
				log.Warn().Msgf("Port %d in use, using port %d instead", cfg.Port, availablePort)
			}
			cfg.Port = availablePort

			log.Info().
				Str("version", version).
				Int("port", cfg.Port).
				Str("payload", cfg.PayloadPath).
				Str("db", cfg.DatabasePath).
				Bool("watch", cfg.Watch).
				Msg("Recession dashboard starting")

			srv, err := server.New(cfg, forecast.NewStore())
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			// Graceful shutdown on SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.Start(gctx)
			})
			g.Go(func() error {
				<-gctx.Done()
				log.Info().Msg("Shutting down...")
				if err := srv.Stop(); err != nil {
					return fmt.Errorf("error during shutdown: %w", err)
				}
				return nil
			})
			return g.Wait()
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "HTTP server port")
	cmd.Flags().StringVar(&payload, "payload", "", "forecast payload file (.json, .yaml)")
	cmd.Flags().StringVar(&db, "db", "", "saved views database; empty disables saved views")
	cmd.Flags().BoolVar(&watch, "watch", true, "reload the payload when the file changes")
	cmd.Flags().StringVar(&staticDir, "static", "", "directory of frontend files to serve")
	return cmd
}

// findAvailablePort finds an available port, starting from the given port.
// If the port is in use, it tries subsequent ports up to maxAttempts times.
func findAvailablePort(startPort int, maxAttempts int) (int, error) {
	for i := 0; i < maxAttempts; i++ {
		port := startPort + i
		addr := fmt.Sprintf(":%d", port)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port found after %d attempts starting from %d", maxAttempts, startPort)
}
