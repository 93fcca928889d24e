package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/integration-pipeline/billing"
	billingpostgres "github.com/marcelsud/integration-pipeline/billing/postgres"
	"github.com/marcelsud/integration-pipeline/config"
	connredis "github.com/marcelsud/integration-pipeline/connection/redis"
	"github.com/marcelsud/integration-pipeline/event"
	eventpostgres "github.com/marcelsud/integration-pipeline/event/postgres"
	eventredis "github.com/marcelsud/integration-pipeline/event/redis"
	"github.com/marcelsud/integration-pipeline/event/signature"
	"github.com/marcelsud/integration-pipeline/metrics"
	notifpostgres "github.com/marcelsud/integration-pipeline/notification/postgres"
	"github.com/marcelsud/integration-pipeline/notification/provider"
	notifredis "github.com/marcelsud/integration-pipeline/notification/redis"
	"github.com/marcelsud/integration-pipeline/pipeline"
	"github.com/marcelsud/integration-pipeline/policies"
	"github.com/marcelsud/integration-pipeline/retry"
	retryredis "github.com/marcelsud/integration-pipeline/retry/redis"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// terminalGuardTTL must outlive every retry schedule
const terminalGuardTTL = 30 * 24 * time.Hour

/* App is the wiring shared by every binary
 * The imports only go one way: cmd -> app -> domain -> storage
 */
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Redis    *redis.Client
	DB       *sql.DB
	Events   event.Repository
	Queue    *retryredis.Queue
	Pipeline *pipeline.Pipeline
	Exporter *metrics.OTelExporter
	Verifier *signature.Verifier
}

// NewLogger builds the process logger
func NewLogger(service string, cfg *config.Config) zerolog.Logger {
	return httplog.NewLogger(service, httplog.Options{
		JSON:     true,
		LogLevel: cfg.LogLevel,
	})
}

// New connects to the backends and builds the pipeline
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	a.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		a.Redis.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	var pg *eventpostgres.Repository
	if cfg.DatabaseURL != "" {
		var err error
		pg, err = eventpostgres.NewRepository(cfg.DatabaseURL)
		if err != nil {
			a.Redis.Close()
			return nil, err
		}
		a.DB = pg.DB
	}

	switch {
	case cfg.UsePostgres() && pg == nil:
		a.Redis.Close()
		return nil, fmt.Errorf("INBOX_BACKEND=postgres requires DATABASE_URL")
	case cfg.UsePostgres():
		if err := Migrate(ctx, pg); err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.Events = pg
	default:
		a.Events = eventredis.NewRepositoryWithClient(a.Redis)
	}

	a.Queue = retryredis.NewQueue(a.Redis)
	a.Verifier = signature.NewVerifier(cfg.Secrets(), cfg.WebhookAPIKey)

	loader := policies.NewLoader()
	if err := loader.LoadIfExists(cfg.PoliciesFile); err != nil {
		a.Close(ctx)
		return nil, err
	}

	collector := metrics.NewRedisCollector(a.Redis, a.Queue, a.Events)
	exporter, err := metrics.NewOTelExporter(collector)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Exporter = exporter

	recorder, err := metrics.NewRecorder(exporter.Meter(), a.Redis, logger)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	deps := pipeline.Deps{
		Events:    a.Events,
		Instances: connredis.NewStore(a.Redis),
		Queue:     a.Queue,
		Guard:     retryredis.NewGuard(a.Redis, terminalGuardTTL),
		Policies:  loader,
		Attempts:  notifredis.NewAttemptLog(a.Redis),
		Observer:  recorder,
		Ingests:   recorder,
		Logger:    logger,
	}

	if a.DB != nil && cfg.ProviderBaseURL != "" {
		client, err := provider.NewClient(provider.Config{
			BaseURL:             cfg.ProviderBaseURL,
			APIKey:              cfg.ProviderAPIKey,
			Timeout:             cfg.ProviderTimeout,
			ConsecutiveFailures: cfg.ProviderConsecutiveFailures,
			OpenTimeout:         cfg.ProviderOpenTimeout,
		}, logger)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		deps.Provider = client
		deps.Targets = notifpostgres.NewTargetStore(a.DB)
	}

	if a.DB != nil && cfg.BillingURL != "" {
		charger, err := billing.NewHTTPCharger(cfg.BillingURL, cfg.BillingToken, cfg.BillingTimeout)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		deps.Charger = charger
		deps.Suspender = billingpostgres.NewSuspender(a.DB)
	}

	a.Pipeline, err = pipeline.New(deps)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	logger.Info().
		Str("inbox", cfg.InboxBackend).
		Bool("notifications", deps.Targets != nil).
		Bool("payments", deps.Charger != nil).
		Msg("pipeline ready")

	return a, nil
}

// Worker builds a retry worker draining the shared queue
func (a *App) Worker() *retry.Worker {
	return retry.NewWorker(a.Queue, a.Pipeline.Scheduler, retry.WorkerConfig{
		Concurrency: a.Config.WorkerConcurrency,
		StaleAfter:  a.Config.WorkerStaleAfter,
	}, a.Logger).WithHeartbeat(a.Queue)
}

// Close releases every connection, it is safe on a partly built App
func (a *App) Close(ctx context.Context) {
	if a.Exporter != nil {
		if err := a.Exporter.Shutdown(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("shutting down metrics")
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
}

// SchemaCreator is implemented by stores that can apply their own DDL
type SchemaCreator interface {
	CreateTable(ctx context.Context) error
}

// Migrate applies the inbox schema, it is idempotent
func Migrate(ctx context.Context, store SchemaCreator) error {
	if err := store.CreateTable(ctx); err != nil {
		return fmt.Errorf("applying inbox schema: %w", err)
	}
	return nil
}
