// Batch worker entry point for PrivLens.  Runs the periodic re-analysis
// scheduler, the document-change consumer, and cache eviction.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	appanalysis "github.com/privlens/privlens/internal/application/analysis"
	apppersonalization "github.com/privlens/privlens/internal/application/personalization"
	appscheduler "github.com/privlens/privlens/internal/application/scheduler"
	appsite "github.com/privlens/privlens/internal/application/site"
	"github.com/privlens/privlens/internal/config"
	"github.com/privlens/privlens/internal/infrastructure/database/postgres"
	"github.com/privlens/privlens/internal/infrastructure/database/postgres/repositories"
	"github.com/privlens/privlens/internal/infrastructure/database/redis"
	"github.com/privlens/privlens/internal/infrastructure/messaging/kafka"
	"github.com/privlens/privlens/internal/infrastructure/monitoring/logging"
	"github.com/privlens/privlens/internal/infrastructure/monitoring/prometheus"
	"github.com/privlens/privlens/internal/infrastructure/scraper"
	"github.com/privlens/privlens/internal/infrastructure/storage/minio"
	"github.com/privlens/privlens/internal/intelligence/policyai"
)

const version = "0.1.0"

const evictionInterval = 24 * time.Hour

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	once := flag.Bool("once", false, "run a single batch cycle and exit")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)
	logger = logger.Named("worker")

	logger.Info("starting privlens worker", logging.String("version", version))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	source, err := scraper.NewClient(cfg.Scraper, logger)
	if err != nil {
		logger.Fatal("scraper client initialization failed", logging.Err(err))
	}

	metrics := prometheus.New()

	analysisRepo := redis.NewCachedAnalysisRepository(
		repositories.NewAnalysisRepository(pool, logger), redisClient, logger)
	clauseRepo := repositories.NewClauseRepository(pool, logger)
	siteRepo := repositories.NewSiteRepository(pool, logger)
	prefRepo := repositories.NewPreferenceRepository(pool, logger)
	resultRepo := repositories.NewResultRepository(pool, logger)

	orchestrator := appanalysis.NewOrchestrator(
		analysisRepo, clauseRepo, analyzer, snapshots, metrics, logger,
		appanalysis.OrchestratorConfig{AITimeout: cfg.AI.Timeout},
	)
	maintenance := appanalysis.NewMaintenance(analysisRepo, logger)
	siteService := appsite.NewService(siteRepo, producer, logger)
	engine := apppersonalization.NewEngine(prefRepo, resultRepo, producer, logger)

	sched := appscheduler.New(
		siteRepo, source, orchestrator, siteService,
		redis.NewLock(redisClient), metrics, logger,
		appscheduler.Config{
			Interval:    cfg.Scheduler.Interval,
			Freshness:   cfg.Scheduler.Freshness,
			ChunkSize:   cfg.Scheduler.ChunkSize,
			ChunkDelay:  cfg.Scheduler.ChunkDelay,
			Concurrency: cfg.Scheduler.Concurrency,
			ItemTimeout: cfg.Scheduler.ItemTimeout,
			BatchLimit:  cfg.Scheduler.BatchLimit,
		},
	)

	if *once {
		report, err := sched.RunOnce(ctx)
		if err != nil {
			logger.Fatal("batch cycle failed", logging.Err(err))
		}
		logger.Info("batch cycle complete",
			logging.Int("collected", report.Collected),
			logging.Int("succeeded", report.Succeeded),
			logging.Int("failed", report.Failed),
			logging.Int("skipped", report.Skipped),
			logging.Duration("duration", report.Duration),
		)
		return
	}

	consumer := kafka.NewChangeConsumer(cfg.Kafka, maintenance, engine, logger)
	defer consumer.Close()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("scheduler stopped", logging.Err(err))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("change consumer stopped", logging.Err(err))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runEviction(ctx, maintenance, cfg.Eviction, logger)
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")
	wg.Wait()
	logger.Info("worker stopped")
}

// runEviction prunes cold cache rows once per day.
func runEviction(ctx context.Context, m *appanalysis.Maintenance, cfg config.EvictionConfig, logger logging.Logger) {
	ticker := time.NewTicker(evictionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted, err := m.Evict(ctx, cfg.Retention, cfg.MinAccessCount)
			if err != nil {
				logger.Error("cache eviction failed", logging.Err(err))
				continue
			}
			logger.Info("cache eviction complete", logging.Int64("evicted", evicted))
		}
	}
}

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
