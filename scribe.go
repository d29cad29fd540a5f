package scribe

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xraph/scribe/cache"
	"github.com/xraph/scribe/cache/memory"
	"github.com/xraph/scribe/generation"
	"github.com/xraph/scribe/lock"
	"github.com/xraph/scribe/plugin"
	"github.com/xraph/scribe/settings"
	"github.com/xraph/scribe/store"
	"github.com/xraph/scribe/tracking"
)

// Scribe is the licensing, content and tracking engine.
type Scribe struct {
	store     store.Store
	plugins   *plugin.Registry
	logger    *slog.Logger
	settings  *settings.Service
	cache     cache.Cache
	locker    lock.Locker
	generator generation.Generator
	scorer    generation.QualityScorer
	now       func() time.Time

	// Background tracking worker
	eventBuffer chan *tracking.Event
	stopChan    chan struct{}
	stopOnce    sync.Once
	started     atomic.Bool
	stopped     atomic.Bool
	// sendMu orders RecordAsync sends before the shutdown drain.
	sendMu sync.RWMutex
	wg          sync.WaitGroup

	// Configuration
	eventBatchSize     int
	eventFlushInterval time.Duration
	eventBufferSize    int
	settingsCacheTTL   time.Duration
	domainRetryLimit   int
}

// New creates a new Scribe instance.
func New(s store.Store, opts ...Option) *Scribe {
	e := &Scribe{
		store:              s,
		plugins:            plugin.NewRegistry(),
		logger:             slog.Default(),
		now:                time.Now,
		stopChan:           make(chan struct{}),
		eventBatchSize:     100,
		eventFlushInterval: 5 * time.Second,
		eventBufferSize:    10000,
		settingsCacheTTL:   30 * time.Second,
		domainRetryLimit:   5,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.cache == nil {
		e.cache = memory.New()
	}
	if e.locker == nil {
		e.locker = lock.NewLocal()
	}
	e.eventBuffer = make(chan *tracking.Event, e.eventBufferSize)
	e.settings = settings.NewService(s, e.cache, e.settingsCacheTTL, e.logger)

	return e
}

// Option configures a Scribe instance.
type Option func(*Scribe)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Scribe) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Scribe) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Scribe) {
		if d > 0 {
			e.plugins.WithTimeout(d)
		}
	}
}

// WithCache sets the cache in front of the settings store. Defaults to an
// in-process cache.
func WithCache(c cache.Cache) Option {
	return func(e *Scribe) { e.cache = c }
}

// WithLocker sets the per-license lock used by domain registration. Use a
// distributed locker when several processes share one store.
func WithLocker(l lock.Locker) Option {
	return func(e *Scribe) { e.locker = l }
}

// WithGenerator sets the content generator.
func WithGenerator(g generation.Generator) Option {
	return func(e *Scribe) { e.generator = g }
}

// WithQualityScorer sets the scorer used by ScoreContent.
func WithQualityScorer(q generation.QualityScorer) Option {
	return func(e *Scribe) { e.scorer = q }
}

// WithTrackingConfig configures asynchronous event batching.
func WithTrackingConfig(batchSize int, flushInterval time.Duration) Option {
	return func(e *Scribe) {
		if batchSize > 0 {
			e.eventBatchSize = batchSize
		}
		if flushInterval > 0 {
			e.eventFlushInterval = flushInterval
		}
	}
}

// WithTrackingBufferSize bounds the number of queued asynchronous events.
func WithTrackingBufferSize(n int) Option {
	return func(e *Scribe) {
		if n > 0 {
			e.eventBufferSize = n
		}
	}
}

// WithSettingsCacheTTL sets how long settings stay cached.
func WithSettingsCacheTTL(ttl time.Duration) Option {
	return func(e *Scribe) { e.settingsCacheTTL = ttl }
}

// WithDomainRetryLimit bounds the compare-and-swap attempts of a domain change.
func WithDomainRetryLimit(n int) Option {
	return func(e *Scribe) {
		if n > 0 {
			e.domainRetryLimit = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Scribe) { e.now = now }
}

// Start migrates the store, initializes plugins and begins the tracking
// flush worker.
func (e *Scribe) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.wg.Add(1)
	go e.eventFlushWorker(context.WithoutCancel(ctx))
	e.started.Store(true)

	e.logger.Info("scribe started",
		"batch_size", e.eventBatchSize,
		"flush_interval", e.eventFlushInterval,
		"settings_ttl", e.settingsCacheTTL,
	)

	return nil
}

// Stop drains the tracking buffer and closes the store. It is safe to call
// more than once.
func (e *Scribe) Stop() error {
	var err error
	e.stopOnce.Do(func() {
		e.sendMu.Lock()
		e.stopped.Store(true)
		close(e.stopChan)
		e.sendMu.Unlock()
		e.wg.Wait()

		e.plugins.EmitShutdown(context.Background())
		err = e.store.Close()

		e.logger.Info("scribe stopped")
	})
	return err
}

// Settings returns the cached settings service.
func (e *Scribe) Settings() *settings.Service { return e.settings }

// Plugins returns the plugin registry.
func (e *Scribe) Plugins() *plugin.Registry { return e.plugins }

// Store returns the underlying store.
func (e *Scribe) Store() store.Store { return e.store }

// eventFlushWorker persists asynchronously recorded events.
func (e *Scribe) eventFlushWorker(ctx context.Context) {
	defer e.wg.Done()

	batch := make([]*tracking.Event, 0, e.eventBatchSize)
	ticker := time.NewTicker(e.eventFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			// Final flush, including anything still queued.
		drain:
			for {
				select {
				case ev := <-e.eventBuffer:
					batch = append(batch, ev)
				default:
					break drain
				}
			}
			if len(batch) > 0 {
				e.flushEventBatch(ctx, batch)
			}
			return

		case ev := <-e.eventBuffer:
			batch = append(batch, ev)
			if len(batch) >= e.eventBatchSize {
				e.flushEventBatch(ctx, batch)
				batch = make([]*tracking.Event, 0, e.eventBatchSize)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				e.flushEventBatch(ctx, batch)
				batch = make([]*tracking.Event, 0, e.eventBatchSize)
			}
		}
	}
}

func (e *Scribe) flushEventBatch(ctx context.Context, batch []*tracking.Event) {
	start := time.Now()

	if err := e.store.AppendEvents(ctx, batch); err != nil {
		e.logger.Error("failed to flush tracking batch",
			"error", err,
			"batch_size", len(batch),
		)
		return
	}

	elapsed := time.Since(start)
	e.plugins.EmitEventsRecorded(ctx, batch)
	e.plugins.EmitEventsFlushed(ctx, len(batch), elapsed)

	e.logger.Debug("flushed tracking batch",
		"batch_size", len(batch),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}
