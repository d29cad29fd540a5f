// Package extension provides the Forge extension adapter for Scribe.
//
// It implements the forge.Extension interface to integrate Scribe
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.scribe" or "scribe" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/scribe"
	rediscache "github.com/xraph/scribe/cache/redis"
	"github.com/xraph/scribe/eventbus"
	"github.com/xraph/scribe/generation"
	"github.com/xraph/scribe/generation/gemini"
	redislock "github.com/xraph/scribe/lock/redis"
	"github.com/xraph/scribe/store"
	"github.com/xraph/scribe/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "scribe"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Licensed AI content generation and affiliate tracking"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Scribe as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *scribe.Scribe
	store      store.Store
	redis      *goredis.Client
	scribeOpts []scribe.Option
}

// New creates a new Scribe Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Scribe instance.
// This is nil until Register is called.
func (e *Extension) Engine() *scribe.Scribe { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the scribe engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	opts, err := e.buildScribeOpts(context.Background())
	if err != nil {
		return err
	}

	e.engine = scribe.New(e.store, opts...)

	return vessel.Provide(fapp.Container(), func() (*scribe.Scribe, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("scribe: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	var errs []error
	if e.engine != nil {
		errs = append(errs, e.engine.Stop())
	}
	if e.redis != nil {
		errs = append(errs, e.redis.Close())
	}
	e.MarkStopped()
	return errors.Join(errs...)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("scribe: store not initialized")
	}
	if err := e.store.Ping(ctx); err != nil {
		return err
	}
	if e.redis != nil {
		return e.redis.Ping(ctx).Err()
	}
	return nil
}

// buildScribeOpts constructs scribe.Option values from the resolved config.
func (e *Extension) buildScribeOpts(ctx context.Context) ([]scribe.Option, error) {
	cfg := e.config
	opts := make([]scribe.Option, 0, len(e.scribeOpts)+9)

	opts = append(opts,
		scribe.WithTrackingConfig(cfg.TrackingBatchSize, cfg.TrackingFlushInterval),
		scribe.WithTrackingBufferSize(cfg.TrackingBufferSize),
		scribe.WithDomainRetryLimit(cfg.DomainRetryLimit),
		scribe.WithPluginTimeout(cfg.PluginTimeout),
	)
	if cfg.SettingsCacheTTL > 0 {
		opts = append(opts, scribe.WithSettingsCacheTTL(cfg.SettingsCacheTTL))
	}

	if cfg.RedisAddr != "" {
		e.redis = goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		opts = append(opts,
			scribe.WithCache(rediscache.New(e.redis, cfg.RedisPrefix+"cache:")),
			scribe.WithLocker(redislock.New(e.redis, cfg.RedisPrefix+"lock:")),
		)
	}

	if cfg.GeminiAPIKey != "" {
		var gopts []gemini.Option
		if cfg.GeminiModel != "" {
			gopts = append(gopts, gemini.WithModel(cfg.GeminiModel))
		}
		gen, err := gemini.New(ctx, cfg.GeminiAPIKey, gopts...)
		if err != nil {
			return nil, fmt.Errorf("scribe: create gemini generator: %w", err)
		}
		opts = append(opts, scribe.WithGenerator(gen))
	}
	opts = append(opts, scribe.WithQualityScorer(generation.NewLocalScorer(nil)))

	if len(cfg.KafkaBrokers) > 0 {
		popts := make([]eventbus.Option, 0, len(cfg.KafkaTopics))
		for event, topic := range cfg.KafkaTopics {
			popts = append(popts, eventbus.WithTopic(event, topic))
		}
		pub, err := eventbus.New(cfg.KafkaBrokers, popts...)
		if err != nil {
			return nil, fmt.Errorf("scribe: create kafka publisher: %w", err)
		}
		opts = append(opts, scribe.WithPlugin(pub))
	}

	// Pass-through options last so they win.
	opts = append(opts, e.scribeOpts...)

	return opts, nil
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("scribe: configuration is required but not found in config files; " +
				"ensure 'extensions.scribe' or 'scribe' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("scribe: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("tracking_batch_size", e.config.TrackingBatchSize),
		forge.F("tracking_flush_interval", e.config.TrackingFlushInterval),
		forge.F("settings_cache_ttl", e.config.SettingsCacheTTL),
		forge.F("redis", e.config.RedisAddr != ""),
		forge.F("generation", e.config.GeminiAPIKey != ""),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.scribe", "scribe"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("scribe: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("scribe: loaded config from file", forge.F("key", key))
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.TrackingBatchSize == 0 {
		cfg.TrackingBatchSize = defaults.TrackingBatchSize
	}
	if cfg.TrackingFlushInterval == 0 {
		cfg.TrackingFlushInterval = defaults.TrackingFlushInterval
	}
	if cfg.TrackingBufferSize == 0 {
		cfg.TrackingBufferSize = defaults.TrackingBufferSize
	}
	if cfg.SettingsCacheTTL == 0 {
		cfg.SettingsCacheTTL = defaults.SettingsCacheTTL
	}
	if cfg.DomainRetryLimit == 0 {
		cfg.DomainRetryLimit = defaults.DomainRetryLimit
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	if cfg.RedisPrefix == "" {
		cfg.RedisPrefix = defaults.RedisPrefix
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if yamlConfig.TrackingBatchSize == 0 {
		yamlConfig.TrackingBatchSize = programmaticConfig.TrackingBatchSize
	}
	if yamlConfig.TrackingFlushInterval == 0 {
		yamlConfig.TrackingFlushInterval = programmaticConfig.TrackingFlushInterval
	}
	if yamlConfig.TrackingBufferSize == 0 {
		yamlConfig.TrackingBufferSize = programmaticConfig.TrackingBufferSize
	}
	if yamlConfig.SettingsCacheTTL == 0 {
		yamlConfig.SettingsCacheTTL = programmaticConfig.SettingsCacheTTL
	}
	if yamlConfig.DomainRetryLimit == 0 {
		yamlConfig.DomainRetryLimit = programmaticConfig.DomainRetryLimit
	}
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}
	if yamlConfig.RedisAddr == "" {
		yamlConfig.RedisAddr = programmaticConfig.RedisAddr
	}
	if yamlConfig.RedisPrefix == "" {
		yamlConfig.RedisPrefix = programmaticConfig.RedisPrefix
	}
	if yamlConfig.GeminiModel == "" {
		yamlConfig.GeminiModel = programmaticConfig.GeminiModel
	}
	if yamlConfig.GeminiAPIKey == "" {
		yamlConfig.GeminiAPIKey = programmaticConfig.GeminiAPIKey
	}
	if len(yamlConfig.KafkaBrokers) == 0 {
		yamlConfig.KafkaBrokers = programmaticConfig.KafkaBrokers
	}
	if yamlConfig.KafkaTopics == nil {
		yamlConfig.KafkaTopics = programmaticConfig.KafkaTopics
	}

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
