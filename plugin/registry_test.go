package plugin_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/scribe/content"
	"github.com/xraph/scribe/license"
	"github.com/xraph/scribe/plugin"
)

type licenseHook struct {
	name  string
	calls atomic.Int32
	err   error
	delay time.Duration
}

func (h *licenseHook) Name() string { return h.name }

func (h *licenseHook) OnLicenseIssued(ctx context.Context, _ *license.License) error {
	h.calls.Add(1)
	if h.delay > 0 {
		select {
		case <-time.After(h.delay):
		case <-ctx.Done():
		}
	}
	return h.err
}

type publishHook struct {
	published atomic.Int32
}

func (h *publishHook) Name() string { return "publish" }

func (h *publishHook) OnContentPublished(context.Context, *content.Content) error {
	h.published.Add(1)
	return nil
}

func newRegistry() *plugin.Registry {
	return plugin.NewRegistry().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegister(t *testing.T) {
	r := newRegistry()

	if err := r.Register(&licenseHook{name: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&publishHook{}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&licenseHook{name: "a"}); err == nil {
		t.Error("duplicate registration accepted")
	}

	if r.Count() != 2 || len(r.List()) != 2 {
		t.Errorf("count = %d, list = %d", r.Count(), len(r.List()))
	}
	if r.Get("publish") == nil || r.Get("missing") != nil {
		t.Error("Get returned the wrong plugin")
	}
}

func TestEmitDispatchesByInterface(t *testing.T) {
	r := newRegistry()
	lh := &licenseHook{name: "license"}
	ph := &publishHook{}
	_ = r.Register(lh)
	_ = r.Register(ph)

	ctx := context.Background()
	r.EmitLicenseIssued(ctx, &license.License{})
	r.EmitContentPublished(ctx, &content.Content{})
	r.EmitContentPublished(ctx, &content.Content{})
	r.EmitEventsFlushed(ctx, 3, time.Millisecond)

	if lh.calls.Load() != 1 {
		t.Errorf("license hook calls = %d", lh.calls.Load())
	}
	if ph.published.Load() != 2 {
		t.Errorf("publish hook calls = %d", ph.published.Load())
	}
}

func TestEmitIsolatesFailures(t *testing.T) {
	tests := []struct {
		name string
		hook *licenseHook
	}{
		{"error", &licenseHook{name: "bad", err: errors.New("boom")}},
		{"timeout", &licenseHook{name: "slow", delay: time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRegistry().WithTimeout(20 * time.Millisecond)
			next := &licenseHook{name: "next"}
			_ = r.Register(tt.hook)
			_ = r.Register(next)

			start := time.Now()
			r.EmitLicenseIssued(context.Background(), &license.License{})

			if time.Since(start) >= time.Second {
				t.Error("emit waited for the slow hook")
			}
			if next.calls.Load() != 1 {
				t.Error("failure stopped later hooks")
			}
		})
	}
}
