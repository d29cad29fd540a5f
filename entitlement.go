package scribe

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/scribe/entitlement"
	"github.com/xraph/scribe/id"
	"github.com/xraph/scribe/license"
	"github.com/xraph/scribe/website"
)

// CanAddWebsite reports whether userID may register another website: the
// user needs an active license with fewer websites than MaxWebsites. A user
// without an active license gets false and no error.
func (e *Scribe) CanAddWebsite(ctx context.Context, userID string) (bool, error) {
	l, err := e.activeLicense(ctx, userID)
	if err != nil {
		return false, err
	}
	d, err := e.websiteDecision(ctx, userID, l)
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}

// CanGenerateContent checks the monthly content quota of the website's
// owner. Content counts toward the UTC calendar month of its GeneratedAt,
// across all of the owner's websites.
//
// The check is advisory: concurrent generations may overshoot by a few.
func (e *Scribe) CanGenerateContent(ctx context.Context, websiteID id.WebsiteID) error {
	w, err := e.store.GetWebsite(ctx, websiteID)
	if err != nil {
		return err
	}

	l, err := e.activeLicense(ctx, w.UserID)
	if err != nil {
		return err
	}
	if l == nil {
		e.plugins.EmitEntitlementChecked(ctx,
			entitlement.Denied(w.UserID, entitlement.ResourceContent, "no active license"))
		return ErrNoActiveLicense
	}

	d, err := e.contentDecision(ctx, w.UserID, l)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return fmt.Errorf("%w: %d of %d this month", ErrLimitExceeded, d.Used, d.Limit)
	}
	return nil
}

// Entitlements summarizes every quota of userID. A user without an active
// license gets denied decisions rather than an error.
func (e *Scribe) Entitlements(ctx context.Context, userID string) (*entitlement.Summary, error) {
	l, err := e.activeLicense(ctx, userID)
	if err != nil {
		return nil, err
	}

	sum := &entitlement.Summary{
		UserID: userID,
		Period: entitlement.MonthWindow(e.now()),
	}
	if l != nil {
		sum.LicenseID = l.ID.String()
		sum.Plan = string(l.Plan)
	}

	if sum.Websites, err = e.websiteDecision(ctx, userID, l); err != nil {
		return nil, err
	}
	if sum.Content, err = e.contentDecision(ctx, userID, l); err != nil {
		return nil, err
	}
	return sum, nil
}

// activeLicense returns nil without error when the user has no active license.
func (e *Scribe) activeLicense(ctx context.Context, userID string) (*license.License, error) {
	l, err := e.store.GetActiveLicense(ctx, userID, e.now())
	if errors.Is(err, ErrNoActiveLicense) {
		return nil, nil
	}
	return l, err
}

func (e *Scribe) websiteDecision(ctx context.Context, userID string, l *license.License) (*entitlement.Decision, error) {
	if l == nil {
		d := entitlement.Denied(userID, entitlement.ResourceWebsites, "no active license")
		e.plugins.EmitEntitlementChecked(ctx, d)
		return d, nil
	}

	used, err := e.store.CountWebsites(ctx, userID)
	if err != nil {
		return nil, err
	}

	d := entitlement.Decide(userID, entitlement.ResourceWebsites, used, int64(l.MaxWebsites))
	e.report(ctx, d)
	return d, nil
}

func (e *Scribe) contentDecision(ctx context.Context, userID string, l *license.License) (*entitlement.Decision, error) {
	if l == nil {
		d := entitlement.Denied(userID, entitlement.ResourceContent, "no active license")
		e.plugins.EmitEntitlementChecked(ctx, d)
		return d, nil
	}

	sites, err := e.store.ListWebsites(ctx, userID, website.ListOpts{})
	if err != nil {
		return nil, err
	}

	var used int64
	if len(sites) > 0 {
		ids := make([]id.WebsiteID, len(sites))
		for i, w := range sites {
			ids[i] = w.ID
		}
		month := entitlement.MonthWindow(e.now())
		if used, err = e.store.CountGeneratedContent(ctx, ids, month.Start, month.End); err != nil {
			return nil, err
		}
	}

	d := entitlement.Decide(userID, entitlement.ResourceContent, used, int64(l.MaxContentPerMonth))
	e.report(ctx, d)
	return d, nil
}

func (e *Scribe) report(ctx context.Context, d *entitlement.Decision) {
	if !d.Allowed {
		e.logger.Warn("quota exceeded",
			"user_id", d.UserID,
			"resource", d.Resource,
			"used", d.Used,
			"limit", d.Limit,
		)
		e.plugins.EmitQuotaExceeded(ctx, d.UserID, d.Resource, d.Used, d.Limit)
	}
	e.plugins.EmitEntitlementChecked(ctx, d)
}
