package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	_ "github.com/josejalvarezm/wellness-webhook-receiver"
	"github.com/josejalvarezm/wellness-webhook-receiver/internal/app"
	"github.com/josejalvarezm/wellness-webhook-receiver/internal/services"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook and query server",
	Long: `Run a local HTTP server with every endpoint:

  POST /webhooks/terra                      Terra aggregator deliveries
  POST /webhooks/whoop                      WHOOP notifications
  GET  /users/{user_id}/metrics/current     reconciled current values
  GET  /users/{user_id}/metrics/history     merged timeline and sparklines
  GET  /metrics                             Prometheus (METRICS_TOKEN bearer)
  GET  /healthz                             liveness`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != "" {
			cfg.Port = servePort
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err := services.NewZapLogger(cfg.Environment)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		server := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           a.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("starting webhook server", "addr", server.Addr)
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return fmt.Errorf("http server error: %w", err)
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "Run the Cloud Function targets with the Functions Framework",
	Long: `Serve the TerraWebhook and WhoopWebhook functions exactly as they are
deployed. Configuration is read from the environment only; set FUNCTION_TARGET
to serve a single function at /.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := servePort
		if port == "" {
			port = cfg.Port
		}
		color.Green("✓ Functions Framework listening on :%s", port)
		return funcframework.StartHostPort("", port)
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (default $PORT or 8080)")
	functionsCmd.Flags().StringVar(&servePort, "port", "", "listen port (default $PORT or 8080)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(functionsCmd)
}
