package scribe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/scribe/cache"
	"github.com/xraph/scribe/content"
	"github.com/xraph/scribe/settings"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("scribe: not found")
	ErrAlreadyExists = errors.New("scribe: already exists")
	ErrInvalidInput  = errors.New("scribe: invalid input")

	// License errors
	ErrLicenseNotFound  = fmt.Errorf("scribe: license not found: %w", ErrNotFound)
	ErrLicenseExpired   = errors.New("scribe: license expired or inactive")
	ErrNoActiveLicense  = errors.New("scribe: no active license")
	ErrVersionConflict  = errors.New("scribe: concurrent modification")
	ErrDomainContention = errors.New("scribe: domain registration retries exhausted")

	// Entitlement errors
	ErrQuotaExceeded = errors.New("scribe: quota exceeded")
	ErrLimitExceeded = fmt.Errorf("scribe: monthly content limit exceeded: %w", ErrQuotaExceeded)

	// Website errors
	ErrWebsiteNotFound = fmt.Errorf("scribe: website not found: %w", ErrNotFound)

	// Content errors
	ErrContentNotFound  = fmt.Errorf("scribe: content not found: %w", ErrNotFound)
	ErrInvalidState     = errors.New("scribe: invalid state")
	ErrQualityGate      = errors.New("scribe: quality gate failed")
	ErrGenerationFailed = errors.New("scribe: generation failed")
	ErrNoGenerator      = errors.New("scribe: no generator configured")
	ErrNoScorer         = errors.New("scribe: no quality scorer configured")

	// Tracking errors
	ErrInvalidEventValue  = errors.New("scribe: invalid event value")
	ErrTrackingBufferFull = errors.New("scribe: tracking buffer full")

	// Store errors
	ErrStoreNotReady   = errors.New("scribe: store not ready")
	ErrStoreClosed     = errors.New("scribe: store is closed")
	ErrMigrationFailed = errors.New("scribe: migration failed")

	// Shared with the leaf packages that define them.
	ErrSettingNotFound = settings.ErrNotFound
	ErrCacheMiss       = cache.ErrMiss
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("scribe: validation failed for %s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// QualityGateError is returned by Publish when scores miss a threshold. Each
// failing metric is listed.
type QualityGateError struct {
	ContentID string
	Failures  []content.QualityFailure
}

func (e *QualityGateError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.String()
	}
	return fmt.Sprintf("scribe: quality gate failed for %s: %s", e.ContentID, strings.Join(parts, "; "))
}

func (e *QualityGateError) Unwrap() error { return ErrQualityGate }

// Failed reports whether metric is among the failures.
func (e *QualityGateError) Failed(metric content.Metric) bool {
	for _, f := range e.Failures {
		if f.Metric == metric {
			return true
		}
	}
	return false
}

// InvalidStateError is returned when an operation is attempted from a status
// that does not permit it.
type InvalidStateError struct {
	Op     string
	Status content.Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("scribe: cannot %s content in status %q", e.Op, e.Status)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "scribe: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("scribe: %d errors occurred", len(e.Errors))
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrSettingNotFound)
}

// IsQuotaError returns true if the error is related to quota/limits.
func IsQuotaError(err error) bool {
	return errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrNoActiveLicense)
}

// IsValidation returns true for malformed input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInvalidEventValue)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTrackingBufferFull) ||
		errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrVersionConflict) ||
		errors.Is(err, ErrDomainContention)
}

// IsQualityGate returns true if publishing was refused by the quality gate.
func IsQualityGate(err error) bool {
	return errors.Is(err, ErrQualityGate)
}

// IsInvalidState returns true if the content status did not permit the operation.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}
