// cmd/nutriscan/serve.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nutriscan/internal/logging"
	"nutriscan/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scoring and favorites tool server over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("host") {
				a.cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				a.cfg.Port = port
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return serve(a)
		},
	}

	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "Host address")
	cmd.Flags().IntVarP(&port, "port", "p", 8011, "Port for HTTP transport")
	return cmd
}

func serve(a *app) error {
	log := logging.Component("main")

	srv, err := server.NewScanServer(a.cfg)
	if err != nil {
		return err
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case serveErr = <-errCh:
		log.WithError(serveErr).Error("Server error")
	}

	log.Info("Shutting down...")
	cancel()
	if err := srv.Stop(); err != nil {
		log.WithError(err).Error("Error during shutdown")
	}
	return serveErr
}
