package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/storeops/typesearch/internal/analytics"
	"github.com/storeops/typesearch/internal/config"
	"github.com/storeops/typesearch/internal/engine/typesense"
	"github.com/storeops/typesearch/internal/event"
	httphandler "github.com/storeops/typesearch/internal/handler/http"
	"github.com/storeops/typesearch/internal/indexer"
	"github.com/storeops/typesearch/internal/listing"
	"github.com/storeops/typesearch/internal/reconcile"
	"github.com/storeops/typesearch/internal/service"
	"github.com/storeops/typesearch/internal/suggest"
	"github.com/storeops/typesearch/pkg/database"
	"github.com/storeops/typesearch/pkg/health"
	"github.com/storeops/typesearch/pkg/kafka"
	"github.com/storeops/typesearch/pkg/tracing"
)

// App owns every long-lived dependency and runs the service.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	pool        *pgxpool.Pool
	redisClient *redis.Client
	consumers   *event.ConsumerGroup
	server      *http.Server

	shutdownTracer func(context.Context) error
}

// New wires the application from configuration. Dependencies that fail to
// connect abort startup; the engine is probed but allowed to be down, since
// search degrades rather than failing.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	shutdownTracer, err := tracing.InitTracer(ctx, cfg.TracerConfig())
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	poolCfg := cfg.PostgresPool()
	pool, err := database.NewPostgresPool(ctx, &poolCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisOptions())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	engine := typesense.NewClient(typesense.Config{
		Host:             cfg.Engine.Host,
		Port:             cfg.Engine.Port,
		Protocol:         cfg.Engine.Protocol,
		APIKey:           cfg.Engine.APIKey,
		CollectionPrefix: cfg.Engine.CollectionPrefix,
		Timeout:          cfg.Engine.Timeout,
	}, logger)

	if err := engine.Health(ctx); err != nil {
		logger.Warn("search engine unreachable at startup, listings will degrade",
			slog.String("error", err.Error()))
	}

	reconciler := reconcile.New(engine, reconcile.Config{
		MinPageSize: cfg.Search.MinPageSize,
		FetchAllCap: cfg.Search.FetchAllCap,
	}, logger)

	plans := service.PlanFactory(func(textFilter string) reconcile.ExecutionPlan {
		return listing.NewPostgresPlan(pool, textFilter)
	})

	source := indexer.NewPostgresSource(pool, cfg.Search.StorefrontBaseURL, cfg.Search.SaleBoost)
	ix := indexer.New(engine, source, indexer.Config{
		BatchSize: cfg.Search.IndexBatchSize,
		SaleBoost: cfg.Search.SaleBoost,
	}, logger)

	analyticsStore := analytics.NewStore(pool, logger)
	recents := suggest.NewRedisRecents(redisClient)

	svc := service.NewSearchService(engine, reconciler, plans, ix, analyticsStore, recents, logger)

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.Register("engine", svc.EngineHealthy)
	if cfg.Kafka.Enabled {
		healthHandler.Register("kafka", func(ctx context.Context) error {
			return kafka.PingBrokers(ctx, cfg.Kafka.Brokers)
		})
	}

	router := httphandler.NewRouter(httphandler.RouterConfig{
		Service:     svc,
		Health:      healthHandler,
		Logger:      logger,
		ServiceName: cfg.ServiceName,
		AdminAPIKey: cfg.HTTP.AdminAPIKey,
		CORSOrigins: cfg.HTTP.CORSOrigins,
	})

	app := &App{
		cfg:    cfg,
		logger: logger,
		pool:   pool,

		redisClient:    redisClient,
		shutdownTracer: shutdownTracer,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
			Handler:      router,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		},
	}

	if cfg.Kafka.Enabled {
		handler := event.NewIndexHandler(ix, logger)
		app.consumers = event.NewConsumerGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID, handler, logger)
	}

	return app, nil
}

// Run starts the HTTP server and the event consumers, then blocks until the
// context is cancelled and everything has shut down.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server listening", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	consumersDone := make(chan struct{})
	if a.consumers != nil {
		go func() {
			a.consumers.Run(ctx)
			close(consumersDone)
		}()
	} else {
		close(consumersDone)
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http shutdown", slog.String("error", err.Error()))
	}

	select {
	case <-consumersDone:
	case <-shutdownCtx.Done():
		a.logger.Warn("consumers did not drain before shutdown deadline")
	}
	if a.consumers != nil {
		a.consumers.Close()
	}

	a.pool.Close()
	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("close redis", slog.String("error", err.Error()))
	}
	if err := a.shutdownTracer(shutdownCtx); err != nil {
		a.logger.Error("shutdown tracer", slog.String("error", err.Error()))
	}

	a.logger.Info("shutdown complete")
	return nil
}
