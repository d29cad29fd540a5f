package extension

import "time"

// Config holds the Scribe extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.scribe" or "scribe" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// TrackingBatchSize is the number of tracking events to buffer before
	// flushing to the store (default: 100).
	TrackingBatchSize int `json:"tracking_batch_size" mapstructure:"tracking_batch_size" yaml:"tracking_batch_size"`

	// TrackingFlushInterval is how frequently the tracking buffer is flushed
	// even if the batch size has not been reached (default: 5s).
	TrackingFlushInterval time.Duration `json:"tracking_flush_interval" mapstructure:"tracking_flush_interval" yaml:"tracking_flush_interval"`

	// TrackingBufferSize bounds the queue behind RecordAsync (default: 10000).
	TrackingBufferSize int `json:"tracking_buffer_size" mapstructure:"tracking_buffer_size" yaml:"tracking_buffer_size"`

	// SettingsCacheTTL controls how long settings stay cached before they
	// are re-read from the store (default: 30s).
	SettingsCacheTTL time.Duration `json:"settings_cache_ttl" mapstructure:"settings_cache_ttl" yaml:"settings_cache_ttl"`

	// DomainRetryLimit bounds the compare-and-swap attempts of a domain
	// registration (default: 5).
	DomainRetryLimit int `json:"domain_retry_limit" mapstructure:"domain_retry_limit" yaml:"domain_retry_limit"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// RedisAddr, when set, moves the settings cache and the per-license
	// domain lock to Redis so several processes can share one store.
	RedisAddr string `json:"redis_addr" mapstructure:"redis_addr" yaml:"redis_addr"`

	// RedisPrefix namespaces every Redis key (default: "scribe:").
	RedisPrefix string `json:"redis_prefix" mapstructure:"redis_prefix" yaml:"redis_prefix"`

	// GeminiModel names the model used for content generation. Generation
	// is enabled only when GeminiAPIKey is also set.
	GeminiModel string `json:"gemini_model" mapstructure:"gemini_model" yaml:"gemini_model"`

	// GeminiAPIKey authenticates the content generator.
	GeminiAPIKey string `json:"-" mapstructure:"gemini_api_key" yaml:"gemini_api_key"`

	// KafkaBrokers, when set, registers a publisher that writes lifecycle
	// events to Kafka.
	KafkaBrokers []string `json:"kafka_brokers" mapstructure:"kafka_brokers" yaml:"kafka_brokers"`

	// KafkaTopics overrides the topic of individual event types, keyed by
	// event type (for example "scribe.content.published").
	KafkaTopics map[string]string `json:"kafka_topics" mapstructure:"kafka_topics" yaml:"kafka_topics"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TrackingBatchSize:     100,
		TrackingFlushInterval: 5 * time.Second,
		TrackingBufferSize:    10000,
		SettingsCacheTTL:      30 * time.Second,
		DomainRetryLimit:      5,
		PluginTimeout:         5 * time.Second,
		RedisPrefix:           "scribe:",
	}
}
