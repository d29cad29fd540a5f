package extension

import (
	"time"

	"github.com/xraph/scribe"
	"github.com/xraph/scribe/plugin"
	"github.com/xraph/scribe/store"
)

// Option configures the Scribe Forge extension.
type Option func(*Extension)

// WithStore sets the store for the scribe engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithScribeOption passes a scribe.Option through to the underlying engine.
func WithScribeOption(opt scribe.Option) Option {
	return func(e *Extension) {
		e.scribeOpts = append(e.scribeOpts, opt)
	}
}

// WithPlugin registers a scribe plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.scribeOpts = append(e.scribeOpts, scribe.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithTrackingBatchSize sets the number of tracking events to buffer before flushing.
func WithTrackingBatchSize(size int) Option {
	return func(e *Extension) { e.config.TrackingBatchSize = size }
}

// WithTrackingFlushInterval sets how frequently the tracking buffer is flushed.
func WithTrackingFlushInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.TrackingFlushInterval = d }
}

// WithSettingsCacheTTL sets the settings cache duration.
func WithSettingsCacheTTL(d time.Duration) Option {
	return func(e *Extension) { e.config.SettingsCacheTTL = d }
}

// WithRedis moves the settings cache and domain lock to the Redis server at addr.
func WithRedis(addr string) Option {
	return func(e *Extension) { e.config.RedisAddr = addr }
}

// WithKafka publishes lifecycle events to the given brokers.
func WithKafka(brokers ...string) Option {
	return func(e *Extension) { e.config.KafkaBrokers = brokers }
}

// WithGemini enables content generation with the given API key and model.
func WithGemini(apiKey, model string) Option {
	return func(e *Extension) {
		e.config.GeminiAPIKey = apiKey
		e.config.GeminiModel = model
	}
}
