package extension

import (
	"context"
	"testing"
	"time"
)

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{TrackingBatchSize: 10})
	want := DefaultConfig()
	want.TrackingBatchSize = 10
	if cfg != want {
		t.Errorf("config = %+v, want %+v", cfg, want)
	}
}

func TestMergeConfigurations(t *testing.T) {
	yamlCfg := Config{
		TrackingBatchSize: 250,
		RedisAddr:         "redis:6379",
	}
	programmatic := Config{
		DisableMigrate:        true,
		TrackingBatchSize:     10,
		TrackingFlushInterval: time.Second,
		RedisAddr:             "localhost:6379",
		GeminiModel:           "gemini-2.0-flash",
	}

	got := mergeConfigurations(yamlCfg, programmatic)

	tests := []struct {
		name string
		ok   bool
	}{
		{"disable_migrate from options", got.DisableMigrate},
		{"yaml batch size wins", got.TrackingBatchSize == 250},
		{"options fill flush interval", got.TrackingFlushInterval == time.Second},
		{"yaml redis wins", got.RedisAddr == "redis:6379"},
		{"options fill model", got.GeminiModel == "gemini-2.0-flash"},
		{"defaults fill buffer", got.TrackingBufferSize == DefaultConfig().TrackingBufferSize},
		{"defaults fill prefix", got.RedisPrefix == "scribe:"},
	}
	for _, tt := range tests {
		if !tt.ok {
			t.Errorf("%s: config = %+v", tt.name, got)
		}
	}
}

func TestBuildScribeOpts(t *testing.T) {
	e := New(WithTrackingBatchSize(5), WithScribeOption(nil))
	e.config = mergeWithDefaults(e.config)

	opts, err := e.buildScribeOpts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// Five config options, the scorer and the pass-through option.
	if len(opts) != 7 {
		t.Errorf("len(opts) = %d, want 7", len(opts))
	}
	if e.redis != nil {
		t.Error("redis client created without an address")
	}
}

func TestBuildScribeOptsKafka(t *testing.T) {
	e := New(WithKafka("localhost:9092"))
	e.config = mergeWithDefaults(e.config)
	e.config.KafkaTopics = map[string]string{"scribe.content.published": "articles"}

	opts, err := e.buildScribeOpts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// Five config options, the scorer and the publisher.
	if len(opts) != 7 {
		t.Errorf("len(opts) = %d, want 7", len(opts))
	}
}
