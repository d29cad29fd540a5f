// Package plugin provides an extensible plugin system for Scribe.
// Plugins can hook into lifecycle events to extend functionality.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/scribe/content"
	"github.com/xraph/scribe/entitlement"
	"github.com/xraph/scribe/license"
	"github.com/xraph/scribe/tracking"
	"github.com/xraph/scribe/website"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts. engine is the *scribe.Scribe.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// License hooks
// ──────────────────────────────────────────────────

type OnLicenseIssued interface {
	Plugin
	OnLicenseIssued(ctx context.Context, l *license.License) error
}

type OnLicenseActivated interface {
	Plugin
	OnLicenseActivated(ctx context.Context, l *license.License) error
}

type OnLicenseCancelled interface {
	Plugin
	OnLicenseCancelled(ctx context.Context, l *license.License) error
}

// OnDomainRegistered is called after a domain is added to a license.
// Idempotent re-registrations do not fire it.
type OnDomainRegistered interface {
	Plugin
	OnDomainRegistered(ctx context.Context, l *license.License, domain string) error
}

type OnDomainUnregistered interface {
	Plugin
	OnDomainUnregistered(ctx context.Context, l *license.License, domain string) error
}

// ──────────────────────────────────────────────────
// Entitlement hooks
// ──────────────────────────────────────────────────

type OnEntitlementChecked interface {
	Plugin
	OnEntitlementChecked(ctx context.Context, d *entitlement.Decision) error
}

type OnQuotaExceeded interface {
	Plugin
	OnQuotaExceeded(ctx context.Context, userID string, resource entitlement.Resource, used, limit int64) error
}

// ──────────────────────────────────────────────────
// Website hooks
// ──────────────────────────────────────────────────

type OnWebsiteCreated interface {
	Plugin
	OnWebsiteCreated(ctx context.Context, w *website.Website) error
}

type OnWebsiteDeleted interface {
	Plugin
	OnWebsiteDeleted(ctx context.Context, w *website.Website) error
}

// ──────────────────────────────────────────────────
// Content hooks
// ──────────────────────────────────────────────────

type OnContentGenerated interface {
	Plugin
	OnContentGenerated(ctx context.Context, c *content.Content) error
}

type OnContentQualityChecked interface {
	Plugin
	OnContentQualityChecked(ctx context.Context, c *content.Content) error
}

type OnContentPublished interface {
	Plugin
	OnContentPublished(ctx context.Context, c *content.Content) error
}

type OnContentFailed interface {
	Plugin
	OnContentFailed(ctx context.Context, c *content.Content, reason string) error
}

// OnQualityGateRejected is called when Publish refuses content.
type OnQualityGateRejected interface {
	Plugin
	OnQualityGateRejected(ctx context.Context, c *content.Content, failures []content.QualityFailure) error
}

// ──────────────────────────────────────────────────
// Tracking hooks
// ──────────────────────────────────────────────────

// OnEventsRecorded is called after events are persisted, synchronously or
// by the flush worker.
type OnEventsRecorded interface {
	Plugin
	OnEventsRecorded(ctx context.Context, events []*tracking.Event) error
}

type OnEventsFlushed interface {
	Plugin
	OnEventsFlushed(ctx context.Context, count int, elapsed time.Duration) error
}
