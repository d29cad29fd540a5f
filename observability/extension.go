// Package observability provides a metrics extension for Scribe that records
// lifecycle event counts through a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/scribe/content"
	"github.com/xraph/scribe/entitlement"
	"github.com/xraph/scribe/license"
	"github.com/xraph/scribe/plugin"
	"github.com/xraph/scribe/tracking"
	"github.com/xraph/scribe/website"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                  = (*MetricsExtension)(nil)
	_ plugin.OnLicenseIssued         = (*MetricsExtension)(nil)
	_ plugin.OnLicenseActivated      = (*MetricsExtension)(nil)
	_ plugin.OnLicenseCancelled      = (*MetricsExtension)(nil)
	_ plugin.OnDomainRegistered      = (*MetricsExtension)(nil)
	_ plugin.OnDomainUnregistered    = (*MetricsExtension)(nil)
	_ plugin.OnEntitlementChecked    = (*MetricsExtension)(nil)
	_ plugin.OnQuotaExceeded         = (*MetricsExtension)(nil)
	_ plugin.OnWebsiteCreated        = (*MetricsExtension)(nil)
	_ plugin.OnWebsiteDeleted        = (*MetricsExtension)(nil)
	_ plugin.OnContentGenerated      = (*MetricsExtension)(nil)
	_ plugin.OnContentQualityChecked = (*MetricsExtension)(nil)
	_ plugin.OnContentPublished      = (*MetricsExtension)(nil)
	_ plugin.OnContentFailed         = (*MetricsExtension)(nil)
	_ plugin.OnQualityGateRejected   = (*MetricsExtension)(nil)
	_ plugin.OnEventsRecorded        = (*MetricsExtension)(nil)
	_ plugin.OnEventsFlushed         = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Scribe plugin to track licensing and content metrics.
type MetricsExtension struct {
	// License metrics
	LicenseIssued    Counter
	LicenseActivated Counter
	LicenseCancelled Counter

	// Domain metrics
	DomainRegistered   Counter
	DomainUnregistered Counter

	// Entitlement metrics
	EntitlementChecks Counter
	EntitlementDenied Counter
	QuotaExceeded     Counter

	// Website metrics
	WebsiteCreated Counter
	WebsiteDeleted Counter

	// Content metrics
	ContentGenerated      Counter
	ContentQualityChecked Counter
	ContentPublished      Counter
	ContentFailed         Counter
	ContentRejected       Counter
	PlagiarismScore       Histogram
	ReadabilityScore      Histogram
	ContentWordCount      Histogram

	// Tracking metrics
	EventsRecorded    Counter
	ConversionRevenue Counter
	EventBatchSize    Histogram
	EventFlushLatency Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		LicenseIssued:    factory.Counter("scribe.license.issued"),
		LicenseActivated: factory.Counter("scribe.license.activated"),
		LicenseCancelled: factory.Counter("scribe.license.cancelled"),

		DomainRegistered:   factory.Counter("scribe.domain.registered"),
		DomainUnregistered: factory.Counter("scribe.domain.unregistered"),

		EntitlementChecks: factory.Counter("scribe.entitlement.checks"),
		EntitlementDenied: factory.Counter("scribe.entitlement.denied"),
		QuotaExceeded:     factory.Counter("scribe.quota.exceeded"),

		WebsiteCreated: factory.Counter("scribe.website.created"),
		WebsiteDeleted: factory.Counter("scribe.website.deleted"),

		ContentGenerated:      factory.Counter("scribe.content.generated"),
		ContentQualityChecked: factory.Counter("scribe.content.quality_checked"),
		ContentPublished:      factory.Counter("scribe.content.published"),
		ContentFailed:         factory.Counter("scribe.content.failed"),
		ContentRejected:       factory.Counter("scribe.content.rejected"),
		PlagiarismScore:       factory.Histogram("scribe.content.plagiarism_score"),
		ReadabilityScore:      factory.Histogram("scribe.content.readability_score"),
		ContentWordCount:      factory.Histogram("scribe.content.word_count"),

		EventsRecorded:    factory.Counter("scribe.tracking.events.recorded"),
		ConversionRevenue: factory.Counter("scribe.tracking.conversion.revenue"),
		EventBatchSize:    factory.Histogram("scribe.tracking.batch.size"),
		EventFlushLatency: factory.Histogram("scribe.tracking.flush.latency_ms"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ──────────────────────────────────────────────────
// License lifecycle hooks
// ──────────────────────────────────────────────────

// OnLicenseIssued implements plugin.OnLicenseIssued.
func (m *MetricsExtension) OnLicenseIssued(context.Context, *license.License) error {
	m.LicenseIssued.Inc()
	return nil
}

// OnLicenseActivated implements plugin.OnLicenseActivated.
func (m *MetricsExtension) OnLicenseActivated(context.Context, *license.License) error {
	m.LicenseActivated.Inc()
	return nil
}

// OnLicenseCancelled implements plugin.OnLicenseCancelled.
func (m *MetricsExtension) OnLicenseCancelled(context.Context, *license.License) error {
	m.LicenseCancelled.Inc()
	return nil
}

// OnDomainRegistered implements plugin.OnDomainRegistered.
func (m *MetricsExtension) OnDomainRegistered(context.Context, *license.License, string) error {
	m.DomainRegistered.Inc()
	return nil
}

// OnDomainUnregistered implements plugin.OnDomainUnregistered.
func (m *MetricsExtension) OnDomainUnregistered(context.Context, *license.License, string) error {
	m.DomainUnregistered.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Entitlement hooks
// ──────────────────────────────────────────────────

// OnEntitlementChecked implements plugin.OnEntitlementChecked.
func (m *MetricsExtension) OnEntitlementChecked(_ context.Context, d *entitlement.Decision) error {
	m.EntitlementChecks.Inc()
	if !d.Allowed {
		m.EntitlementDenied.Inc()
	}
	return nil
}

// OnQuotaExceeded implements plugin.OnQuotaExceeded.
func (m *MetricsExtension) OnQuotaExceeded(context.Context, string, entitlement.Resource, int64, int64) error {
	m.QuotaExceeded.Inc()
	return nil
}

// OnWebsiteCreated implements plugin.OnWebsiteCreated.
func (m *MetricsExtension) OnWebsiteCreated(context.Context, *website.Website) error {
	m.WebsiteCreated.Inc()
	return nil
}

// OnWebsiteDeleted implements plugin.OnWebsiteDeleted.
func (m *MetricsExtension) OnWebsiteDeleted(context.Context, *website.Website) error {
	m.WebsiteDeleted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Content lifecycle hooks
// ──────────────────────────────────────────────────

// OnContentGenerated implements plugin.OnContentGenerated.
func (m *MetricsExtension) OnContentGenerated(_ context.Context, c *content.Content) error {
	m.ContentGenerated.Inc()
	if c.WordCount != nil {
		m.ContentWordCount.Observe(float64(*c.WordCount))
	}
	return nil
}

// OnContentQualityChecked implements plugin.OnContentQualityChecked.
func (m *MetricsExtension) OnContentQualityChecked(_ context.Context, c *content.Content) error {
	m.ContentQualityChecked.Inc()
	if c.PlagiarismScore != nil {
		m.PlagiarismScore.Observe(*c.PlagiarismScore)
	}
	if c.ReadabilityScore != nil {
		m.ReadabilityScore.Observe(*c.ReadabilityScore)
	}
	return nil
}

// OnContentPublished implements plugin.OnContentPublished.
func (m *MetricsExtension) OnContentPublished(context.Context, *content.Content) error {
	m.ContentPublished.Inc()
	return nil
}

// OnContentFailed implements plugin.OnContentFailed.
func (m *MetricsExtension) OnContentFailed(context.Context, *content.Content, string) error {
	m.ContentFailed.Inc()
	return nil
}

// OnQualityGateRejected implements plugin.OnQualityGateRejected.
func (m *MetricsExtension) OnQualityGateRejected(context.Context, *content.Content, []content.QualityFailure) error {
	m.ContentRejected.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Tracking hooks
// ──────────────────────────────────────────────────

// OnEventsRecorded implements plugin.OnEventsRecorded.
func (m *MetricsExtension) OnEventsRecorded(_ context.Context, events []*tracking.Event) error {
	m.EventsRecorded.Add(float64(len(events)))
	for _, ev := range events {
		if ev.Type == tracking.EventConversion && ev.Value != nil {
			m.ConversionRevenue.Add(*ev.Value)
		}
	}
	return nil
}

// OnEventsFlushed implements plugin.OnEventsFlushed.
func (m *MetricsExtension) OnEventsFlushed(_ context.Context, count int, elapsed time.Duration) error {
	m.EventBatchSize.Observe(float64(count))
	m.EventFlushLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}
