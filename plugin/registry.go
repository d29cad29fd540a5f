package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/scribe/content"
	"github.com/xraph/scribe/entitlement"
	"github.com/xraph/scribe/license"
	"github.com/xraph/scribe/tracking"
	"github.com/xraph/scribe/website"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit                  []OnInit
	onShutdown              []OnShutdown
	onLicenseIssued         []OnLicenseIssued
	onLicenseActivated      []OnLicenseActivated
	onLicenseCancelled      []OnLicenseCancelled
	onDomainRegistered      []OnDomainRegistered
	onDomainUnregistered    []OnDomainUnregistered
	onEntitlementChecked    []OnEntitlementChecked
	onQuotaExceeded         []OnQuotaExceeded
	onWebsiteCreated        []OnWebsiteCreated
	onWebsiteDeleted        []OnWebsiteDeleted
	onContentGenerated      []OnContentGenerated
	onContentQualityChecked []OnContentQualityChecked
	onContentPublished      []OnContentPublished
	onContentFailed         []OnContentFailed
	onQualityGateRejected   []OnQualityGateRejected
	onEventsRecorded        []OnEventsRecorded
	onEventsFlushed         []OnEventsFlushed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	r.timeout = d
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnLicenseIssued); ok {
		r.onLicenseIssued = append(r.onLicenseIssued, v)
	}
	if v, ok := p.(OnLicenseActivated); ok {
		r.onLicenseActivated = append(r.onLicenseActivated, v)
	}
	if v, ok := p.(OnLicenseCancelled); ok {
		r.onLicenseCancelled = append(r.onLicenseCancelled, v)
	}
	if v, ok := p.(OnDomainRegistered); ok {
		r.onDomainRegistered = append(r.onDomainRegistered, v)
	}
	if v, ok := p.(OnDomainUnregistered); ok {
		r.onDomainUnregistered = append(r.onDomainUnregistered, v)
	}
	if v, ok := p.(OnEntitlementChecked); ok {
		r.onEntitlementChecked = append(r.onEntitlementChecked, v)
	}
	if v, ok := p.(OnQuotaExceeded); ok {
		r.onQuotaExceeded = append(r.onQuotaExceeded, v)
	}
	if v, ok := p.(OnWebsiteCreated); ok {
		r.onWebsiteCreated = append(r.onWebsiteCreated, v)
	}
	if v, ok := p.(OnWebsiteDeleted); ok {
		r.onWebsiteDeleted = append(r.onWebsiteDeleted, v)
	}
	if v, ok := p.(OnContentGenerated); ok {
		r.onContentGenerated = append(r.onContentGenerated, v)
	}
	if v, ok := p.(OnContentQualityChecked); ok {
		r.onContentQualityChecked = append(r.onContentQualityChecked, v)
	}
	if v, ok := p.(OnContentPublished); ok {
		r.onContentPublished = append(r.onContentPublished, v)
	}
	if v, ok := p.(OnContentFailed); ok {
		r.onContentFailed = append(r.onContentFailed, v)
	}
	if v, ok := p.(OnQualityGateRejected); ok {
		r.onQualityGateRejected = append(r.onQualityGateRejected, v)
	}
	if v, ok := p.(OnEventsRecorded); ok {
		r.onEventsRecorded = append(r.onEventsRecorded, v)
	}
	if v, ok := p.(OnEventsFlushed); ok {
		r.onEventsFlushed = append(r.onEventsFlushed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeFor[OnInit]()},
	{"OnShutdown", reflect.TypeFor[OnShutdown]()},
	{"OnLicenseIssued", reflect.TypeFor[OnLicenseIssued]()},
	{"OnLicenseActivated", reflect.TypeFor[OnLicenseActivated]()},
	{"OnLicenseCancelled", reflect.TypeFor[OnLicenseCancelled]()},
	{"OnDomainRegistered", reflect.TypeFor[OnDomainRegistered]()},
	{"OnDomainUnregistered", reflect.TypeFor[OnDomainUnregistered]()},
	{"OnEntitlementChecked", reflect.TypeFor[OnEntitlementChecked]()},
	{"OnQuotaExceeded", reflect.TypeFor[OnQuotaExceeded]()},
	{"OnWebsiteCreated", reflect.TypeFor[OnWebsiteCreated]()},
	{"OnWebsiteDeleted", reflect.TypeFor[OnWebsiteDeleted]()},
	{"OnContentGenerated", reflect.TypeFor[OnContentGenerated]()},
	{"OnContentQualityChecked", reflect.TypeFor[OnContentQualityChecked]()},
	{"OnContentPublished", reflect.TypeFor[OnContentPublished]()},
	{"OnContentFailed", reflect.TypeFor[OnContentFailed]()},
	{"OnQualityGateRejected", reflect.TypeFor[OnQualityGateRejected]()},
	{"OnEventsRecorded", reflect.TypeFor[OnEventsRecorded]()},
	{"OnEventsFlushed", reflect.TypeFor[OnEventsFlushed]()},
}

// implementedInterfaces returns the hook names p implements.
func implementedInterfaces(p Plugin) []string {
	var out []string
	t := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if t.Implements(h.typ) {
			out = append(out, h.name)
		}
	}
	return out
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

func (r *Registry) EmitInit(ctx context.Context, engine any) {
	emit(ctx, r, "OnInit", snapshot(r, &r.onInit), func(p OnInit) error {
		return p.OnInit(ctx, engine)
	})
}

func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(ctx, r, "OnShutdown", snapshot(r, &r.onShutdown), func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

func (r *Registry) EmitLicenseIssued(ctx context.Context, l *license.License) {
	emit(ctx, r, "OnLicenseIssued", snapshot(r, &r.onLicenseIssued), func(p OnLicenseIssued) error {
		return p.OnLicenseIssued(ctx, l)
	})
}

func (r *Registry) EmitLicenseActivated(ctx context.Context, l *license.License) {
	emit(ctx, r, "OnLicenseActivated", snapshot(r, &r.onLicenseActivated), func(p OnLicenseActivated) error {
		return p.OnLicenseActivated(ctx, l)
	})
}

func (r *Registry) EmitLicenseCancelled(ctx context.Context, l *license.License) {
	emit(ctx, r, "OnLicenseCancelled", snapshot(r, &r.onLicenseCancelled), func(p OnLicenseCancelled) error {
		return p.OnLicenseCancelled(ctx, l)
	})
}

func (r *Registry) EmitDomainRegistered(ctx context.Context, l *license.License, domain string) {
	emit(ctx, r, "OnDomainRegistered", snapshot(r, &r.onDomainRegistered), func(p OnDomainRegistered) error {
		return p.OnDomainRegistered(ctx, l, domain)
	})
}

func (r *Registry) EmitDomainUnregistered(ctx context.Context, l *license.License, domain string) {
	emit(ctx, r, "OnDomainUnregistered", snapshot(r, &r.onDomainUnregistered), func(p OnDomainUnregistered) error {
		return p.OnDomainUnregistered(ctx, l, domain)
	})
}

func (r *Registry) EmitEntitlementChecked(ctx context.Context, d *entitlement.Decision) {
	emit(ctx, r, "OnEntitlementChecked", snapshot(r, &r.onEntitlementChecked), func(p OnEntitlementChecked) error {
		return p.OnEntitlementChecked(ctx, d)
	})
}

func (r *Registry) EmitQuotaExceeded(ctx context.Context, userID string, resource entitlement.Resource, used, limit int64) {
	emit(ctx, r, "OnQuotaExceeded", snapshot(r, &r.onQuotaExceeded), func(p OnQuotaExceeded) error {
		return p.OnQuotaExceeded(ctx, userID, resource, used, limit)
	})
}

func (r *Registry) EmitWebsiteCreated(ctx context.Context, w *website.Website) {
	emit(ctx, r, "OnWebsiteCreated", snapshot(r, &r.onWebsiteCreated), func(p OnWebsiteCreated) error {
		return p.OnWebsiteCreated(ctx, w)
	})
}

func (r *Registry) EmitWebsiteDeleted(ctx context.Context, w *website.Website) {
	emit(ctx, r, "OnWebsiteDeleted", snapshot(r, &r.onWebsiteDeleted), func(p OnWebsiteDeleted) error {
		return p.OnWebsiteDeleted(ctx, w)
	})
}

func (r *Registry) EmitContentGenerated(ctx context.Context, c *content.Content) {
	emit(ctx, r, "OnContentGenerated", snapshot(r, &r.onContentGenerated), func(p OnContentGenerated) error {
		return p.OnContentGenerated(ctx, c)
	})
}

func (r *Registry) EmitContentQualityChecked(ctx context.Context, c *content.Content) {
	emit(ctx, r, "OnContentQualityChecked", snapshot(r, &r.onContentQualityChecked), func(p OnContentQualityChecked) error {
		return p.OnContentQualityChecked(ctx, c)
	})
}

func (r *Registry) EmitContentPublished(ctx context.Context, c *content.Content) {
	emit(ctx, r, "OnContentPublished", snapshot(r, &r.onContentPublished), func(p OnContentPublished) error {
		return p.OnContentPublished(ctx, c)
	})
}

func (r *Registry) EmitContentFailed(ctx context.Context, c *content.Content, reason string) {
	emit(ctx, r, "OnContentFailed", snapshot(r, &r.onContentFailed), func(p OnContentFailed) error {
		return p.OnContentFailed(ctx, c, reason)
	})
}

func (r *Registry) EmitQualityGateRejected(ctx context.Context, c *content.Content, failures []content.QualityFailure) {
	emit(ctx, r, "OnQualityGateRejected", snapshot(r, &r.onQualityGateRejected), func(p OnQualityGateRejected) error {
		return p.OnQualityGateRejected(ctx, c, failures)
	})
}

func (r *Registry) EmitEventsRecorded(ctx context.Context, events []*tracking.Event) {
	emit(ctx, r, "OnEventsRecorded", snapshot(r, &r.onEventsRecorded), func(p OnEventsRecorded) error {
		return p.OnEventsRecorded(ctx, events)
	})
}

func (r *Registry) EmitEventsFlushed(ctx context.Context, count int, elapsed time.Duration) {
	emit(ctx, r, "OnEventsFlushed", snapshot(r, &r.onEventsFlushed), func(p OnEventsFlushed) error {
		return p.OnEventsFlushed(ctx, count, elapsed)
	})
}

// snapshot reads a cached hook list under the read lock.
func snapshot[T any](r *Registry, list *[]T) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return *list
}

// emit calls fn for every plugin in order, logging failures. Hook errors
// never propagate to the caller.
func emit[T Plugin](ctx context.Context, r *Registry, hook string, plugins []T, fn func(T) error) {
	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return fn(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the content pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
