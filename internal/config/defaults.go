package config

import "time"

// Default value constants.
const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "privlens"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "privlens:"
	DefaultRedisTTL       = time.Hour

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "privlens-worker"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "privlens-snapshots"

	DefaultAIModel        = "policyai-v2"
	DefaultAITimeout      = 60 * time.Second
	DefaultAIMaxRetries   = 2
	DefaultAIRetryBackoff = 2 * time.Second

	DefaultScraperTimeout = 30 * time.Second

	DefaultSchedulerInterval    = 12 * time.Hour
	DefaultSchedulerFreshness   = 24 * time.Hour
	DefaultSchedulerChunkSize   = 5
	DefaultSchedulerChunkDelay  = time.Second
	DefaultSchedulerConcurrency = 3
	DefaultSchedulerItemTimeout = 90 * time.Second
	DefaultSchedulerBatchLimit  = 500

	DefaultEvictionRetention = 90 * 24 * time.Hour
	DefaultEvictionMinAccess = 3

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsPath = "/metrics"
)

// ApplyDefaults fills every zero-value field in cfg with the platform
// default.  Fields already set by the caller are left unchanged so explicit
// configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 90 * time.Second
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = 4 << 20
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Server.RateLimitRPS == 0 {
		cfg.Server.RateLimitRPS = 50
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.MinConns == 0 {
		cfg.Database.MinConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30 * time.Minute
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = "migrations"
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = 3 * time.Second
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = 3 * time.Second
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}
	if cfg.Kafka.ProducerRetries == 0 {
		cfg.Kafka.ProducerRetries = 3
	}
	if cfg.Kafka.BatchSize == 0 {
		cfg.Kafka.BatchSize = 100
	}

	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	if cfg.AI.Model == "" {
		cfg.AI.Model = DefaultAIModel
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = DefaultAITimeout
	}
	if cfg.AI.MaxRetries == 0 {
		cfg.AI.MaxRetries = DefaultAIMaxRetries
	}
	if cfg.AI.RetryBackoff == 0 {
		cfg.AI.RetryBackoff = DefaultAIRetryBackoff
	}

	if cfg.Scraper.Timeout == 0 {
		cfg.Scraper.Timeout = DefaultScraperTimeout
	}

	if cfg.Scheduler.Interval == 0 {
		cfg.Scheduler.Interval = DefaultSchedulerInterval
	}
	if cfg.Scheduler.Freshness == 0 {
		cfg.Scheduler.Freshness = DefaultSchedulerFreshness
	}
	if cfg.Scheduler.ChunkSize == 0 {
		cfg.Scheduler.ChunkSize = DefaultSchedulerChunkSize
	}
	if cfg.Scheduler.ChunkDelay == 0 {
		cfg.Scheduler.ChunkDelay = DefaultSchedulerChunkDelay
	}
	if cfg.Scheduler.Concurrency == 0 {
		cfg.Scheduler.Concurrency = DefaultSchedulerConcurrency
	}
	if cfg.Scheduler.ItemTimeout == 0 {
		cfg.Scheduler.ItemTimeout = DefaultSchedulerItemTimeout
	}
	if cfg.Scheduler.BatchLimit == 0 {
		cfg.Scheduler.BatchLimit = DefaultSchedulerBatchLimit
	}

	if cfg.Eviction.Retention == 0 {
		cfg.Eviction.Retention = DefaultEvictionRetention
	}
	if cfg.Eviction.MinAccessCount == 0 {
		cfg.Eviction.MinAccessCount = DefaultEvictionMinAccess
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}
