// Package audithook bridges Scribe lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import an
// audit service directly. Callers inject a RecorderFunc adapter at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xraph/scribe/content"
	"github.com/xraph/scribe/entitlement"
	"github.com/xraph/scribe/license"
	"github.com/xraph/scribe/plugin"
	"github.com/xraph/scribe/website"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                  = (*Extension)(nil)
	_ plugin.OnLicenseIssued         = (*Extension)(nil)
	_ plugin.OnLicenseActivated      = (*Extension)(nil)
	_ plugin.OnLicenseCancelled      = (*Extension)(nil)
	_ plugin.OnDomainRegistered      = (*Extension)(nil)
	_ plugin.OnDomainUnregistered    = (*Extension)(nil)
	_ plugin.OnEntitlementChecked    = (*Extension)(nil)
	_ plugin.OnQuotaExceeded         = (*Extension)(nil)
	_ plugin.OnWebsiteCreated        = (*Extension)(nil)
	_ plugin.OnWebsiteDeleted        = (*Extension)(nil)
	_ plugin.OnContentGenerated      = (*Extension)(nil)
	_ plugin.OnContentQualityChecked = (*Extension)(nil)
	_ plugin.OnContentPublished      = (*Extension)(nil)
	_ plugin.OnContentFailed         = (*Extension)(nil)
	_ plugin.OnQualityGateRejected   = (*Extension)(nil)
	_ plugin.OnEventsFlushed         = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Scribe lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// License lifecycle hooks
// ──────────────────────────────────────────────────

// OnLicenseIssued implements plugin.OnLicenseIssued.
func (e *Extension) OnLicenseIssued(ctx context.Context, l *license.License) error {
	return e.record(ctx, ActionLicenseIssued, SeverityInfo, OutcomeSuccess,
		ResourceLicense, l.ID.String(), CategoryLicensing, nil,
		"user_id", l.UserID,
		"plan", string(l.Plan),
		"status", string(l.Status),
	)
}

// OnLicenseActivated implements plugin.OnLicenseActivated.
func (e *Extension) OnLicenseActivated(ctx context.Context, l *license.License) error {
	return e.record(ctx, ActionLicenseActivated, SeverityInfo, OutcomeSuccess,
		ResourceLicense, l.ID.String(), CategoryLicensing, nil,
		"user_id", l.UserID,
	)
}

// OnLicenseCancelled implements plugin.OnLicenseCancelled.
func (e *Extension) OnLicenseCancelled(ctx context.Context, l *license.License) error {
	return e.record(ctx, ActionLicenseCancelled, SeverityWarning, OutcomeSuccess,
		ResourceLicense, l.ID.String(), CategoryLicensing, nil,
		"user_id", l.UserID,
		"domains", len(l.RegisteredDomains),
	)
}

// OnDomainRegistered implements plugin.OnDomainRegistered.
func (e *Extension) OnDomainRegistered(ctx context.Context, l *license.License, domain string) error {
	return e.record(ctx, ActionDomainRegistered, SeverityInfo, OutcomeSuccess,
		ResourceDomain, domain, CategoryLicensing, nil,
		"license_id", l.ID.String(),
		"registered", len(l.RegisteredDomains),
		"max_websites", l.MaxWebsites,
	)
}

// OnDomainUnregistered implements plugin.OnDomainUnregistered.
func (e *Extension) OnDomainUnregistered(ctx context.Context, l *license.License, domain string) error {
	return e.record(ctx, ActionDomainUnregistered, SeverityInfo, OutcomeSuccess,
		ResourceDomain, domain, CategoryLicensing, nil,
		"license_id", l.ID.String(),
	)
}

// ──────────────────────────────────────────────────
// Entitlement hooks
// ──────────────────────────────────────────────────

// OnQuotaExceeded implements plugin.OnQuotaExceeded.
func (e *Extension) OnQuotaExceeded(ctx context.Context, userID string, resource entitlement.Resource, used, limit int64) error {
	return e.record(ctx, ActionQuotaExceeded, SeverityWarning, OutcomeFailure,
		ResourceEntitlement, string(resource), CategoryAccess, nil,
		"user_id", userID,
		"used", used,
		"limit", limit,
	)
}

// OnEntitlementChecked implements plugin.OnEntitlementChecked. Only denials
// are audited.
func (e *Extension) OnEntitlementChecked(ctx context.Context, d *entitlement.Decision) error {
	if d.Allowed {
		return nil
	}
	return e.record(ctx, ActionEntitlementDenied, SeverityInfo, OutcomeFailure,
		ResourceEntitlement, string(d.Resource), CategoryAccess, nil,
		"user_id", d.UserID,
		"reason", d.Reason,
	)
}

// ──────────────────────────────────────────────────
// Website hooks
// ──────────────────────────────────────────────────

// OnWebsiteCreated implements plugin.OnWebsiteCreated.
func (e *Extension) OnWebsiteCreated(ctx context.Context, w *website.Website) error {
	return e.record(ctx, ActionWebsiteCreated, SeverityInfo, OutcomeSuccess,
		ResourceWebsite, w.ID.String(), CategoryLicensing, nil,
		"user_id", w.UserID,
		"domain", w.Domain,
	)
}

// OnWebsiteDeleted implements plugin.OnWebsiteDeleted.
func (e *Extension) OnWebsiteDeleted(ctx context.Context, w *website.Website) error {
	return e.record(ctx, ActionWebsiteDeleted, SeverityInfo, OutcomeSuccess,
		ResourceWebsite, w.ID.String(), CategoryLicensing, nil,
		"user_id", w.UserID,
		"domain", w.Domain,
	)
}

// ──────────────────────────────────────────────────
// Content lifecycle hooks
// ──────────────────────────────────────────────────

// OnContentGenerated implements plugin.OnContentGenerated.
func (e *Extension) OnContentGenerated(ctx context.Context, c *content.Content) error {
	return e.record(ctx, ActionContentGenerated, SeverityInfo, OutcomeSuccess,
		ResourceContent, c.ID.String(), CategoryContent, nil,
		"website_id", c.WebsiteID.String(),
		"topic", c.Topic,
	)
}

// OnContentQualityChecked implements plugin.OnContentQualityChecked.
func (e *Extension) OnContentQualityChecked(ctx context.Context, c *content.Content) error {
	return e.record(ctx, ActionContentQualityChecked, SeverityInfo, OutcomeSuccess,
		ResourceContent, c.ID.String(), CategoryContent, nil,
		"plagiarism", deref(c.PlagiarismScore),
		"readability", deref(c.ReadabilityScore),
	)
}

// OnContentPublished implements plugin.OnContentPublished.
func (e *Extension) OnContentPublished(ctx context.Context, c *content.Content) error {
	return e.record(ctx, ActionContentPublished, SeverityInfo, OutcomeSuccess,
		ResourceContent, c.ID.String(), CategoryContent, nil,
		"website_id", c.WebsiteID.String(),
	)
}

// OnContentFailed implements plugin.OnContentFailed.
func (e *Extension) OnContentFailed(ctx context.Context, c *content.Content, reason string) error {
	return e.record(ctx, ActionContentFailed, SeverityError, OutcomeFailure,
		ResourceContent, c.ID.String(), CategoryContent, fmt.Errorf("%s", reason),
		"website_id", c.WebsiteID.String(),
	)
}

// OnQualityGateRejected implements plugin.OnQualityGateRejected.
func (e *Extension) OnQualityGateRejected(ctx context.Context, c *content.Content, failures []content.QualityFailure) error {
	metrics := make([]string, len(failures))
	for i, f := range failures {
		metrics[i] = string(f.Metric)
	}
	return e.record(ctx, ActionContentRejected, SeverityWarning, OutcomeFailure,
		ResourceContent, c.ID.String(), CategoryContent, nil,
		"failed_metrics", strings.Join(metrics, ","),
	)
}

// ──────────────────────────────────────────────────
// Tracking hooks
// ──────────────────────────────────────────────────

// OnEventsFlushed implements plugin.OnEventsFlushed.
func (e *Extension) OnEventsFlushed(ctx context.Context, count int, elapsed time.Duration) error {
	return e.record(ctx, ActionEventsFlushed, SeverityInfo, OutcomeSuccess,
		ResourceTracking, "", CategoryTracking, nil,
		"count", count,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func deref(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
