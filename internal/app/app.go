// Package app wires configuration, storage, services and HTTP handlers. It is
// shared by the Cloud Function entry points and the local CLI.
package app

import (
	"context"
	"fmt"
	"net/http"

	firebase "firebase.google.com/go/v4"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/config"
	"github.com/josejalvarezm/wellness-webhook-receiver/internal/domain"
	"github.com/josejalvarezm/wellness-webhook-receiver/internal/handlers"
	"github.com/josejalvarezm/wellness-webhook-receiver/internal/repositories"
	"github.com/josejalvarezm/wellness-webhook-receiver/internal/services"
	"github.com/josejalvarezm/wellness-webhook-receiver/internal/whoop"
)

// App holds the assembled components.
type App struct {
	Store       domain.Store
	Aggregation *services.AggregationService
	Terra       *handlers.WebhookHandler
	Whoop       *handlers.WebhookHandler
	Query       *handlers.QueryHandler

	metricsToken string
}

// New opens the configured store and optional sync feed and assembles the
// application.
func New(ctx context.Context, cfg *config.Config, logger domain.Logger) (*App, error) {
	var fbApp *firebase.App
	if cfg.StoreBackend == config.BackendFirestore || cfg.FirebaseDatabaseURL != "" {
		var err error
		fbApp, err = firebase.NewApp(ctx, &firebase.Config{
			ProjectID:   cfg.FirebaseProjectID,
			DatabaseURL: cfg.FirebaseDatabaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Firebase: %w", err)
		}
	}

	store, err := openStore(ctx, cfg, fbApp)
	if err != nil {
		return nil, err
	}

	var publisher domain.SyncPublisher
	if cfg.FirebaseDatabaseURL != "" {
		dbClient, err := fbApp.Database(ctx)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to get Firebase database client: %w", err)
		}
		publisher = repositories.NewFirebaseSyncPublisher(dbClient)
	}

	return Assemble(cfg, logger, store, publisher), nil
}

// OpenStore opens only the configured store. Used by read-only commands.
func OpenStore(ctx context.Context, cfg *config.Config) (domain.Store, error) {
	var fbApp *firebase.App
	if cfg.StoreBackend == config.BackendFirestore {
		var err error
		fbApp, err = firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Firebase: %w", err)
		}
	}
	return openStore(ctx, cfg, fbApp)
}

func openStore(ctx context.Context, cfg *config.Config, fbApp *firebase.App) (domain.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendFirestore:
		client, err := fbApp.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get Firestore client: %w", err)
		}
		return repositories.NewFirestoreStore(client), nil
	case config.BackendPostgres, config.BackendSQLite:
		store, err := repositories.OpenSQLStore(cfg.StoreBackend, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendMemory:
		return repositories.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// Assemble builds services and handlers over an already opened store.
// publisher may be nil.
func Assemble(cfg *config.Config, logger domain.Logger, store domain.Store, publisher domain.SyncPublisher) *App {
	ingestor := services.NewIngestor(store, store, publisher, logger)

	var whoopValidator domain.SignatureValidator = domain.NoopVerifier{}
	if cfg.WhoopVerificationEnabled() {
		whoopValidator = domain.NewWhoopVerifier(cfg.WhoopClientSecret, cfg.SignatureTolerance)
	} else {
		logger.Warn("WHOOP_CLIENT_SECRET not set, WHOOP webhook signatures are not verified")
	}

	client := whoop.NewClient(whoop.WithBaseURL(cfg.WhoopAPIBaseURL))

	terraService := services.NewTerraService(
		domain.NewTerraVerifier(cfg.TerraWebhookSecret, cfg.SignatureTolerance),
		store,
		ingestor,
		logger,
	)
	whoopService := services.NewWhoopService(
		whoopValidator,
		store,
		services.ClientFetcherFactory(client),
		ingestor,
		logger,
		cfg.WhoopFetchTimeout,
	)
	aggregation := services.NewAggregationService(store)

	// One limiter guards both webhook endpoints
	rateLimiter := handlers.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	a := &App{
		Store:        store,
		Aggregation:  aggregation,
		Terra:        handlers.NewWebhookHandler(terraService, logger, rateLimiter, handlers.TerraSuccessBody),
		Whoop:        handlers.NewWebhookHandler(whoopService, logger, rateLimiter, handlers.WhoopSuccessBody),
		Query:        handlers.NewQueryHandler(aggregation, logger),
		metricsToken: cfg.MetricsToken,
	}

	logger.Info("webhook handlers initialized",
		"environment", cfg.Environment,
		"database", cfg.StoreBackend,
		"sync_feed", publisher != nil,
		"rate_limit", fmt.Sprintf("%d req/s burst %d", cfg.RateLimitRPS, cfg.RateLimitBurst),
	)
	return a
}

// Router mounts every endpoint on one mux.
func (a *App) Router() http.Handler {
	return handlers.NewRouter(handlers.Routes{
		Terra:        a.Terra,
		Whoop:        a.Whoop,
		Query:        a.Query,
		MetricsToken: a.metricsToken,
	})
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}
