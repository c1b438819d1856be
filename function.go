// Package function contains the Cloud Function entry points for GCP Cloud Functions Gen2
package function

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/app"
	"github.com/josejalvarezm/wellness-webhook-receiver/internal/config"
	"github.com/josejalvarezm/wellness-webhook-receiver/internal/services"
)

var (
	initOnce    sync.Once
	application *app.App
)

func init() {
	functions.HTTP("TerraWebhook", TerraWebhook)
	functions.HTTP("WhoopWebhook", WhoopWebhook)
}

// TerraWebhook is the HTTP Cloud Function entry point for aggregator deliveries
func TerraWebhook(w http.ResponseWriter, r *http.Request) {
	a := getApp()
	if a == nil {
		http.Error(w, "Handler not initialized", http.StatusInternalServerError)
		return
	}
	a.Terra.ServeHTTP(w, r)
}

// WhoopWebhook is the HTTP Cloud Function entry point for WHOOP notifications
func WhoopWebhook(w http.ResponseWriter, r *http.Request) {
	a := getApp()
	if a == nil {
		http.Error(w, "Handler not initialized", http.StatusInternalServerError)
		return
	}
	a.Whoop.ServeHTTP(w, r)
}

// getApp builds the shared application on first use. Both functions share one
// instance per container.
func getApp() *app.App {
	initOnce.Do(func() {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Printf("Failed to load config: %v", err)
			return
		}

		logger, err := services.NewZapLogger(cfg.Environment)
		if err != nil {
			log.Printf("Failed to build logger: %v", err)
			return
		}

		application, err = app.New(context.Background(), cfg, logger)
		if err != nil {
			logger.Error("failed to initialize application", err)
			application = nil
		}
	})
	return application
}
