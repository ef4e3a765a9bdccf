// Package scheduler implements the periodic batch re-analysis driver: a
// fixed-interval loop that collects never-analyzed or stale sites and pushes
// them through the analysis workflow in rate-limited chunks under bounded
// concurrency.
package scheduler

import (
	"context"
	"sync"
	"time"

	appanalysis "github.com/privlens/privlens/internal/application/analysis"
	appsite "github.com/privlens/privlens/internal/application/site"
	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/internal/domain/site"
	"github.com/privlens/privlens/internal/infrastructure/monitoring/logging"
	"github.com/privlens/privlens/pkg/errors"
)

// DocumentSource supplies raw document text for a site.  The scheduler never
// fetches network resources itself; extraction is an external collaborator.
// A ("", nil) return means the site has no such document and the item is
// skipped, not failed.
type DocumentSource interface {
	FetchDocument(ctx context.Context, s *site.Site, ct analysis.ContentType) (string, error)
}

// Locker is a distributed mutex guarding a batch cycle so that only one
// worker instance runs it at a time.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Analyzer is the slice of the analysis workflow the scheduler drives.
type Analyzer interface {
	Analyze(ctx context.Context, in appanalysis.AnalyzeInput) (*appanalysis.AnalyzeOutput, error)
}

// Metrics receives batch telemetry.
type Metrics interface {
	BatchCycle(duration time.Duration, processed, failed int)
	BatchItem(success bool)
}

// NopMetrics discards all telemetry.
type NopMetrics struct{}

func (NopMetrics) BatchCycle(time.Duration, int, int) {}
func (NopMetrics) BatchItem(bool)                     {}

// lockKey names the distributed mutex for the batch cycle.
const lockKey = "privlens:scheduler:batch"

// Config tunes the scheduler.  Zero values fall back to the documented
// defaults.
type Config struct {
	Interval    time.Duration `mapstructure:"interval"`
	Freshness   time.Duration `mapstructure:"freshness"`
	ChunkSize   int           `mapstructure:"chunk_size"`
	ChunkDelay  time.Duration `mapstructure:"chunk_delay"`
	Concurrency int           `mapstructure:"concurrency"`
	ItemTimeout time.Duration `mapstructure:"item_timeout"`
	BatchLimit  int           `mapstructure:"batch_limit"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 12 * time.Hour
	}
	if c.Freshness <= 0 {
		c.Freshness = 24 * time.Hour
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 5
	}
	if c.ChunkDelay <= 0 {
		c.ChunkDelay = time.Second
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.ItemTimeout <= 0 {
		c.ItemTimeout = 90 * time.Second
	}
	if c.BatchLimit <= 0 {
		c.BatchLimit = 500
	}
}

// Report summarizes one batch cycle.
type Report struct {
	Collected int           `json:"collected"`
	Processed int           `json:"processed"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"duration"`
}

// Scheduler drives periodic re-analysis.  It is a two-state machine: idle or
// running one batch; a cycle requested while one is running is rejected, not
// queued.
type Scheduler struct {
	sites    site.Repository
	source   DocumentSource
	analyzer Analyzer
	registry *appsite.Service
	lock     Locker
	metrics  Metrics
	logger   logging.Logger
	cfg      Config

	mu      sync.Mutex
	running bool
}

// New wires the scheduler.  lock may be nil for single-instance deployments;
// metrics and logger fall back to no-ops.
func New(
	sites site.Repository,
	source DocumentSource,
	analyzer Analyzer,
	registry *appsite.Service,
	lock Locker,
	metrics Metrics,
	logger logging.Logger,
	cfg Config,
) *Scheduler {
	cfg.ApplyDefaults()
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Scheduler{
		sites:    sites,
		source:   source,
		analyzer: analyzer,
		registry: registry,
		lock:     lock,
		metrics:  metrics,
		logger:   logger.Named("scheduler"),
		cfg:      cfg,
	}
}

// Run blocks, running one batch cycle per interval until ctx is cancelled.
// An immediate first cycle runs on start.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping")
			return ctx.Err()
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	report, err := s.RunOnce(ctx)
	if err != nil {
		if !errors.IsCode(err, errors.ErrCodeSchedulerBusy) && !errors.IsCode(err, errors.ErrCodeLockNotAcquired) {
			s.logger.Error("batch cycle failed", logging.Err(err))
		}
		return
	}
	s.logger.Info("batch cycle complete",
		logging.Int("collected", report.Collected),
		logging.Int("succeeded", report.Succeeded),
		logging.Int("failed", report.Failed),
		logging.Int("skipped", report.Skipped),
		logging.Duration("duration", report.Duration),
	)
}

// RunOnce executes a single batch cycle.  Returns ErrCodeSchedulerBusy when a
// cycle is already running in this process and ErrCodeLockNotAcquired when
// another instance holds the distributed lock.
func (s *Scheduler) RunOnce(ctx context.Context) (*Report, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, errors.New(errors.ErrCodeSchedulerBusy, "batch cycle already running")
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if s.lock != nil {
		ok, err := s.lock.Acquire(ctx, lockKey, s.cfg.Interval/2)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeLockNotAcquired, "lock acquisition failed")
		}
		if !ok {
			return nil, errors.New(errors.ErrCodeLockNotAcquired, "another instance holds the batch lock")
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx), lockKey); err != nil {
				s.logger.Warn("lock release failed", logging.Err(err))
			}
		}()
	}

	start := time.Now()
	staleBefore := start.UTC().Add(-s.cfg.Freshness)
	due, err := s.sites.ListDueForAnalysis(ctx, staleBefore, s.cfg.BatchLimit)
	if err != nil {
		return nil, err
	}

	report := &Report{Collected: len(due)}
	for i := 0; i < len(due); i += s.cfg.ChunkSize {
		// Cooperative checkpoint: cancellation is honored between chunks,
		// never mid-chunk.
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.cfg.ChunkDelay):
			}
			if ctx.Err() != nil {
				break
			}
		}
		end := i + s.cfg.ChunkSize
		if end > len(due) {
			end = len(due)
		}
		s.processChunk(ctx, due[i:end], report)
	}

	report.Duration = time.Since(start)
	s.metrics.BatchCycle(report.Duration, report.Processed, report.Failed)
	return report, nil
}

// processChunk fans a chunk out under the concurrency bound.  A slow item is
// cut off by its own timeout and recorded as a failure; siblings proceed.
func (s *Scheduler) processChunk(ctx context.Context, chunk []*site.Site, report *Report) {
	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.cfg.Concurrency)
		mu  sync.Mutex
	)
	for _, st := range chunk {
		wg.Add(1)
		sem <- struct{}{}
		go func(st *site.Site) {
			defer wg.Done()
			defer func() { <-sem }()

			ok, skipped := s.processSite(ctx, st)
			mu.Lock()
			defer mu.Unlock()
			if skipped {
				report.Skipped++
				return
			}
			report.Processed++
			if ok {
				report.Succeeded++
			} else {
				report.Failed++
			}
		}(st)
	}
	wg.Wait()
}

// processSite re-analyzes every document the site declares.  Returns
// (success, skipped); a site with no documents at all is skipped.
func (s *Scheduler) processSite(ctx context.Context, st *site.Site) (bool, bool) {
	itemCtx, cancel := context.WithTimeout(ctx, s.cfg.ItemTimeout)
	defer cancel()

	types := []analysis.ContentType{}
	if st.TOSURL != "" {
		types = append(types, analysis.ContentTermsOfService)
	}
	if st.PolicyURL != "" {
		types = append(types, analysis.ContentPrivacyPolicy)
	}
	if len(types) == 0 {
		return false, true
	}

	success := true
	for _, ct := range types {
		if err := s.processDocument(itemCtx, st, ct); err != nil {
			success = false
			s.logger.Warn("batch item failed",
				logging.String("site_id", string(st.ID)),
				logging.String("domain", st.Domain),
				logging.String("content_type", string(ct)),
				logging.Err(err),
			)
		}
	}
	s.metrics.BatchItem(success)
	return success, false
}

func (s *Scheduler) processDocument(ctx context.Context, st *site.Site, ct analysis.ContentType) error {
	content, err := s.source.FetchDocument(ctx, st, ct)
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(err, errors.ErrCodeBatchItemTimeout, "batch item timed out fetching document")
		}
		return errors.Wrap(err, errors.ErrCodeExternalService, "document fetch failed")
	}
	if content == "" {
		return nil
	}

	hash := analysis.HashContent(content)
	changed := st.DocumentChanged(ct, hash)

	if _, err := s.analyzer.Analyze(ctx, appanalysis.AnalyzeInput{
		Content:      content,
		ContentType:  ct,
		ForceRefresh: changed,
		SiteID:       st.ID,
	}); err != nil {
		return err
	}

	if s.registry != nil {
		if _, err := s.registry.ObserveDocument(ctx, st.ID, ct, hash); err != nil {
			return err
		}
	}
	return nil
}
