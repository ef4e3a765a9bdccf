// API server entry point for PrivLens.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	appanalysis "github.com/privlens/privlens/internal/application/analysis"
	apppersonalization "github.com/privlens/privlens/internal/application/personalization"
	appsite "github.com/privlens/privlens/internal/application/site"
	"github.com/privlens/privlens/internal/config"
	"github.com/privlens/privlens/internal/infrastructure/database/postgres"
	"github.com/privlens/privlens/internal/infrastructure/database/postgres/repositories"
	"github.com/privlens/privlens/internal/infrastructure/database/redis"
	"github.com/privlens/privlens/internal/infrastructure/messaging/kafka"
	"github.com/privlens/privlens/internal/infrastructure/monitoring/logging"
	"github.com/privlens/privlens/internal/infrastructure/monitoring/prometheus"
	"github.com/privlens/privlens/internal/infrastructure/storage/minio"
	"github.com/privlens/privlens/internal/intelligence/policyai"
	httpserver "github.com/privlens/privlens/internal/interfaces/http"
	"github.com/privlens/privlens/pkg/types/common"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	logger.Info("starting privlens API server",
		logging.String("version", version),
		logging.Int("port", cfg.Server.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := postgres.RunMigrations(cfg.Database, logger); err != nil {
		logger.Fatal("migrations failed", logging.Err(err))
	}

	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("postgres connection failed", logging.Err(err))
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		logger.Fatal("redis connection failed", logging.Err(err))
	}
	defer redisClient.Close()

	producer := kafka.NewProducer(cfg.Kafka, logger)
	defer producer.Close()

	snapshots, err := minio.NewSnapshotStore(cfg.MinIO, logger)
	if err != nil {
		logger.Fatal("snapshot store initialization failed", logging.Err(err))
	}

	analyzer, err := policyai.NewHTTPClient(policyai.ClientConfig{
		BaseURL:      cfg.AI.BaseURL,
		APIKey:       cfg.AI.APIKey,
		Model:        cfg.AI.Model,
		Timeout:      cfg.AI.Timeout,
		MaxRetries:   cfg.AI.MaxRetries,
		RetryBackoff: cfg.AI.RetryBackoff,
	}, logger)
	if err != nil {
		logger.Fatal("AI client initialization failed", logging.Err(err))
	}

	metrics := prometheus.New()

	// Repositories; the analysis cache gets a redis hot-entry layer in front
	// of postgres.
	analysisRepo := redis.NewCachedAnalysisRepository(
		repositories.NewAnalysisRepository(pool, logger), redisClient, logger)
	clauseRepo := repositories.NewClauseRepository(pool, logger)
	prefRepo := repositories.NewPreferenceRepository(pool, logger)
	resultRepo := repositories.NewResultRepository(pool, logger)
	siteRepo := repositories.NewSiteRepository(pool, logger)

	// Application services.
	orchestrator := appanalysis.NewOrchestrator(
		analysisRepo, clauseRepo, analyzer, snapshots, metrics, logger,
		appanalysis.OrchestratorConfig{AITimeout: cfg.AI.Timeout},
	)
	maintenance := appanalysis.NewMaintenance(analysisRepo, logger)
	engine := apppersonalization.NewEngine(prefRepo, resultRepo, producer, logger)
	siteService := appsite.NewService(siteRepo, producer, logger)

	handlers := httpserver.Handlers{
		Analysis:        httpserver.NewAnalysisHandler(orchestrator, maintenance, engine),
		Personalization: httpserver.NewPersonalizationHandler(engine),
		Preference:      httpserver.NewPreferenceHandler(prefRepo),
		Clause:          httpserver.NewClauseHandler(clauseRepo),
		Site:            httpserver.NewSiteHandler(siteService),
		Health: httpserver.NewHealthHandler(version,
			postgresChecker(pool),
			redisChecker(redisClient),
		),
	}

	router := httpserver.NewRouter(cfg.Server, cfg.Metrics, handlers, logger, metrics, metrics.Handler())
	srv := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", logging.Err(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", logging.Err(err))
	}
	logger.Info("server stopped")
}

// loadConfig loads from the given file when it exists, otherwise from the
// environment.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err == nil {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

func newLogger(cfg config.LogConfig) (logging.Logger, error) {
	format := cfg.Format
	if format == "text" {
		format = "console"
	}
	outputs := []string{"stdout"}
	if cfg.Output != "" {
		outputs = []string{cfg.Output}
	}
	return logging.NewLogger(logging.LogConfig{
		Level:       cfg.Level,
		Format:      format,
		OutputPaths: outputs,
	})
}

func postgresChecker(pool *pgxpool.Pool) httpserver.HealthChecker {
	return func(ctx context.Context) common.ComponentHealth {
		start := time.Now()
		if err := pool.Ping(ctx); err != nil {
			return common.ComponentHealth{
				Name:    "postgres",
				Status:  common.HealthUnhealthy,
				Message: err.Error(),
			}
		}
		return common.ComponentHealth{
			Name:    "postgres",
			Status:  common.HealthHealthy,
			Latency: float64(time.Since(start).Milliseconds()),
		}
	}
}

func redisChecker(client *redis.Client) httpserver.HealthChecker {
	return func(ctx context.Context) common.ComponentHealth {
		start := time.Now()
		if err := client.Raw().Ping(ctx).Err(); err != nil {
			return common.ComponentHealth{
				Name:    "redis",
				Status:  common.HealthUnhealthy,
				Message: err.Error(),
			}
		}
		return common.ComponentHealth{
			Name:    "redis",
			Status:  common.HealthHealthy,
			Latency: float64(time.Since(start).Milliseconds()),
		}
	}
}
