package audithook

// Action constants for audit events.
const (
	// License actions
	ActionLicenseIssued    = "license.issued"
	ActionLicenseActivated = "license.activated"
	ActionLicenseCancelled = "license.cancelled"

	// Domain actions
	ActionDomainRegistered   = "domain.registered"
	ActionDomainUnregistered = "domain.unregistered"

	// Entitlement actions
	ActionEntitlementDenied = "entitlement.denied"
	ActionQuotaExceeded     = "quota.exceeded"

	// Website actions
	ActionWebsiteCreated = "website.created"
	ActionWebsiteDeleted = "website.deleted"

	// Content actions
	ActionContentGenerated      = "content.generated"
	ActionContentQualityChecked = "content.quality_checked"
	ActionContentPublished      = "content.published"
	ActionContentFailed         = "content.failed"
	ActionContentRejected       = "content.rejected"

	// Tracking actions
	ActionEventsFlushed = "tracking.flushed"
)

// Resource constants for audit events.
const (
	ResourceLicense     = "license"
	ResourceDomain      = "domain"
	ResourceEntitlement = "entitlement"
	ResourceWebsite     = "website"
	ResourceContent     = "content"
	ResourceTracking    = "tracking"
)

// Category constants for audit events.
const (
	CategoryLicensing = "licensing"
	CategoryAccess    = "access"
	CategoryContent   = "content"
	CategoryTracking  = "tracking"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
