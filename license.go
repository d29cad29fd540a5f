package scribe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xraph/scribe/entitlement"
	"github.com/xraph/scribe/id"
	"github.com/xraph/scribe/license"
	"github.com/xraph/scribe/settings"
	"github.com/xraph/scribe/types"
)

// IssueInput describes a new license.
type IssueInput struct {
	UserID string
	Plan   license.Plan
	// Activate issues the license directly in the active state instead of pending.
	Activate  bool
	ExpiresAt *time.Time
	Metadata  map[string]string
}

// IssueLicense creates a license with the plan's limits. Limits come from
// the plan_<plan>_max_* settings when set, else license.DefaultLimits.
func (e *Scribe) IssueLicense(ctx context.Context, in IssueInput) (*license.License, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, ValidationError{Field: "user_id", Message: "is required"}
	}
	if in.Plan == "" {
		in.Plan = license.PlanFree
	}
	if !in.Plan.Valid() {
		return nil, ValidationError{Field: "plan", Message: fmt.Sprintf("unknown plan %q", in.Plan)}
	}

	now := e.now()
	if in.ExpiresAt != nil && !in.ExpiresAt.After(now) {
		return nil, ValidationError{Field: "expires_at", Message: "must be in the future"}
	}

	limits, err := e.planLimits(ctx, in.Plan)
	if err != nil {
		return nil, err
	}

	status := license.StatusPending
	if in.Activate {
		status = license.StatusActive
	}

	l := &license.License{
		Entity:             types.NewEntityAt(now),
		ID:                 id.NewLicenseID(),
		UserID:             in.UserID,
		LicenseKey:         newLicenseKey(),
		Plan:               in.Plan,
		Status:             status,
		MaxWebsites:        limits.MaxWebsites,
		MaxContentPerMonth: limits.MaxContentPerMonth,
		ExpiresAt:          in.ExpiresAt,
		RegisteredDomains:  []string{},
		Metadata:           in.Metadata,
	}

	if err := e.store.CreateLicense(ctx, l); err != nil {
		return nil, err
	}

	e.logger.Info("license issued",
		"license_id", l.ID.String(),
		"user_id", l.UserID,
		"plan", l.Plan,
		"status", l.Status,
	)
	e.plugins.EmitLicenseIssued(ctx, l)
	return l, nil
}

// planLimits resolves the quotas of p, honouring settings overrides. A
// negative override is ignored in favour of the plan default.
func (e *Scribe) planLimits(ctx context.Context, p license.Plan) (license.Limits, error) {
	def := license.DefaultLimits(p)

	websites, err := e.planLimit(ctx, p, "max_websites", def.MaxWebsites)
	if err != nil {
		return license.Limits{}, err
	}
	monthly, err := e.planLimit(ctx, p, "max_content_per_month", def.MaxContentPerMonth)
	if err != nil {
		return license.Limits{}, err
	}
	return license.Limits{MaxWebsites: websites, MaxContentPerMonth: monthly}, nil
}

func (e *Scribe) planLimit(ctx context.Context, p license.Plan, field string, def int) (int, error) {
	key := settings.PlanKey(string(p), field)
	v, err := e.settings.Int(ctx, key, def)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		e.logger.Warn("negative plan limit ignored", "key", key, "value", v, "default", def)
		return def, nil
	}
	return v, nil
}

func newLicenseKey() string {
	return "SCR-" + strings.ToUpper(uuid.NewString())
}

// GetLicense retrieves a license by ID.
func (e *Scribe) GetLicense(ctx context.Context, licID id.LicenseID) (*license.License, error) {
	return e.store.GetLicense(ctx, licID)
}

// GetLicenseByKey retrieves a license by its key.
func (e *Scribe) GetLicenseByKey(ctx context.Context, licenseKey string) (*license.License, error) {
	return e.store.GetLicenseByKey(ctx, licenseKey)
}

// ActiveLicenseForUser returns the user's newest license that is active now.
func (e *Scribe) ActiveLicenseForUser(ctx context.Context, userID string) (*license.License, error) {
	return e.store.GetActiveLicense(ctx, userID, e.now())
}

// ListLicenses lists a user's licenses.
func (e *Scribe) ListLicenses(ctx context.Context, userID string, opts license.ListOpts) ([]*license.License, error) {
	return e.store.ListLicenses(ctx, userID, opts)
}

// ActivateLicense moves a pending license to active. Activating an active
// license is a no-op.
func (e *Scribe) ActivateLicense(ctx context.Context, licID id.LicenseID) (*license.License, error) {
	l, err := e.store.GetLicense(ctx, licID)
	if err != nil {
		return nil, err
	}

	switch l.Status {
	case license.StatusActive:
		return l, nil
	case license.StatusPending:
	default:
		return nil, fmt.Errorf("%w: license %s is %s", ErrLicenseExpired, l.ID, l.Status)
	}

	l.Status = license.StatusActive
	l.Touch(e.now())
	if err := e.store.UpdateLicense(ctx, l); err != nil {
		return nil, err
	}

	e.logger.Info("license activated", "license_id", l.ID.String(), "user_id", l.UserID)
	e.plugins.EmitLicenseActivated(ctx, l)
	return l, nil
}

// CancelLicense marks a license cancelled. The record and its domains are kept.
func (e *Scribe) CancelLicense(ctx context.Context, licID id.LicenseID) (*license.License, error) {
	l, err := e.store.GetLicense(ctx, licID)
	if err != nil {
		return nil, err
	}
	if l.Status == license.StatusCancelled {
		return l, nil
	}

	now := e.now().UTC()
	l.Status = license.StatusCancelled
	l.CancelledAt = &now
	l.Touch(now)
	if err := e.store.UpdateLicense(ctx, l); err != nil {
		return nil, err
	}

	e.logger.Info("license cancelled", "license_id", l.ID.String(), "user_id", l.UserID)
	e.plugins.EmitLicenseCancelled(ctx, l)
	return l, nil
}

// ExtendLicense sets a new expiry. An expired license becomes active again;
// a cancelled one cannot be extended.
func (e *Scribe) ExtendLicense(ctx context.Context, licID id.LicenseID, expiresAt time.Time) (*license.License, error) {
	now := e.now()
	if !expiresAt.After(now) {
		return nil, ValidationError{Field: "expires_at", Message: "must be in the future"}
	}

	l, err := e.store.GetLicense(ctx, licID)
	if err != nil {
		return nil, err
	}
	if l.Status == license.StatusCancelled {
		return nil, fmt.Errorf("%w: license %s is cancelled", ErrLicenseExpired, l.ID)
	}

	if l.Status == license.StatusExpired {
		l.Status = license.StatusActive
	}
	exp := expiresAt.UTC()
	l.ExpiresAt = &exp
	l.Touch(now)
	if err := e.store.UpdateLicense(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate reports the state of a license without changing it. When domain
// is non-empty the result also says whether it is registered.
func (e *Scribe) Validate(ctx context.Context, licenseKey, domain string) (*license.Validation, error) {
	l, err := e.store.GetLicenseByKey(ctx, licenseKey)
	if err != nil {
		return nil, err
	}

	now := e.now()
	v := &license.Validation{
		Valid:     l.IsActive(now),
		Plan:      l.Plan,
		Status:    l.EffectiveStatus(now),
		ExpiresAt: l.ExpiresAt,
	}
	if domain != "" {
		d := license.NormalizeDomain(domain)
		registered := d != "" && l.HasDomain(d)
		v.DomainRegistered = &registered
	}
	return v, nil
}

// RegisterDomain adds domain to the license. Registering a domain that is
// already present succeeds without a write. Otherwise the license must be
// active and below MaxWebsites.
//
// Concurrent calls against one license are serialized by the locker and the
// write is a compare-and-swap on the license version, so the domain count
// can never pass MaxWebsites.
func (e *Scribe) RegisterDomain(ctx context.Context, licenseKey, domain string) error {
	_, err := e.registerDomain(ctx, licenseKey, domain)
	return err
}

// registerDomain is RegisterDomain that also reports whether this call added
// the domain, as opposed to finding it already registered.
func (e *Scribe) registerDomain(ctx context.Context, licenseKey, domain string) (bool, error) {
	d := license.NormalizeDomain(domain)
	if d == "" {
		return false, ValidationError{Field: "domain", Message: "is empty"}
	}

	l, changed, err := e.changeDomains(ctx, licenseKey, func(l *license.License) ([]string, error) {
		if l.HasDomain(d) {
			return nil, nil
		}
		if now := e.now(); !l.IsActive(now) {
			return nil, fmt.Errorf("%w: license is %s", ErrLicenseExpired, l.EffectiveStatus(now))
		}
		if !l.HasCapacity() {
			return nil, fmt.Errorf("%w: %d of %d domains registered", ErrQuotaExceeded, len(l.RegisteredDomains), l.MaxWebsites)
		}
		return l.WithDomain(d), nil
	})
	if err != nil {
		if l != nil && errors.Is(err, ErrQuotaExceeded) {
			e.logger.Warn("domain quota exceeded",
				"license_id", l.ID.String(),
				"domain", d,
				"max_websites", l.MaxWebsites,
			)
			e.plugins.EmitQuotaExceeded(ctx, l.UserID, entitlement.ResourceWebsites,
				int64(len(l.RegisteredDomains)), int64(l.MaxWebsites))
		}
		return false, err
	}

	if changed {
		e.logger.Info("domain registered", "license_id", l.ID.String(), "domain", d)
		e.plugins.EmitDomainRegistered(ctx, l, d)
	}
	return changed, nil
}

// UnregisterDomain removes domain from the license and reports whether it
// was present. An absent domain causes no write.
func (e *Scribe) UnregisterDomain(ctx context.Context, licenseKey, domain string) (bool, error) {
	d := license.NormalizeDomain(domain)
	if d == "" {
		return false, nil
	}

	l, changed, err := e.changeDomains(ctx, licenseKey, func(l *license.License) ([]string, error) {
		if !l.HasDomain(d) {
			return nil, nil
		}
		return l.WithoutDomain(d), nil
	})
	if err != nil {
		return false, err
	}

	if changed {
		e.logger.Info("domain unregistered", "license_id", l.ID.String(), "domain", d)
		e.plugins.EmitDomainUnregistered(ctx, l, d)
	}
	return changed, nil
}

// changeDomains runs fn against a fresh read of the license and writes the
// domain set it returns. A nil set means no change. The license lock is held
// throughout and a version conflict rereads and retries up to the retry limit.
//
// The last license read is returned even when fn fails.
func (e *Scribe) changeDomains(
	ctx context.Context,
	licenseKey string,
	fn func(l *license.License) ([]string, error),
) (*license.License, bool, error) {
	unlock, err := e.locker.Lock(ctx, "license:"+licenseKey)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	for attempt := 1; attempt <= e.domainRetryLimit; attempt++ {
		l, err := e.store.GetLicenseByKey(ctx, licenseKey)
		if err != nil {
			return nil, false, err
		}

		domains, err := fn(l)
		if err != nil {
			return l, false, err
		}
		if domains == nil {
			return l, false, nil
		}

		err = e.store.UpdateLicenseDomains(ctx, l.ID, l.Version, domains)
		switch {
		case err == nil:
			l.RegisteredDomains = domains
			l.Version++
			return l, true, nil
		case errors.Is(err, ErrVersionConflict):
			e.logger.Debug("license version conflict",
				"license_id", l.ID.String(),
				"attempt", attempt,
			)
		default:
			return l, false, err
		}
	}

	return nil, false, ErrDomainContention
}
