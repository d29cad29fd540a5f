package scribe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/scribe/id"
	"github.com/xraph/scribe/license"
	"github.com/xraph/scribe/types"
	"github.com/xraph/scribe/website"
)

// CreateWebsiteInput describes a website to register.
type CreateWebsiteInput struct {
	UserID   string
	URL      string
	Name     string
	Metadata map[string]string
}

// CreateWebsite registers a website for the user. Its domain is registered
// on the user's active license first, so the license quota is enforced
// atomically. If persisting the website then fails, the domain is released
// only when this call added it and no other website took the same slot.
func (e *Scribe) CreateWebsite(ctx context.Context, in CreateWebsiteInput) (*website.Website, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, ValidationError{Field: "user_id", Message: "is required"}
	}
	domain := license.NormalizeDomain(in.URL)
	if domain == "" {
		return nil, ValidationError{Field: "url", Message: "has no domain"}
	}

	l, err := e.store.GetActiveLicense(ctx, in.UserID, e.now())
	if err != nil {
		return nil, err
	}

	allowed, err := e.CanAddWebsite(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("%w: website limit %d reached", ErrQuotaExceeded, l.MaxWebsites)
	}

	added, err := e.registerDomain(ctx, l.LicenseKey, domain)
	if err != nil {
		return nil, err
	}

	name := in.Name
	if name == "" {
		name = domain
	}
	w := &website.Website{
		Entity:    types.NewEntityAt(e.now()),
		ID:        id.NewWebsiteID(),
		UserID:    in.UserID,
		LicenseID: l.ID,
		URL:       in.URL,
		Domain:    domain,
		Name:      name,
		Metadata:  in.Metadata,
	}

	if err := e.store.CreateWebsite(ctx, w); err != nil {
		// ErrAlreadyExists means a concurrent create for the same domain won
		// and now depends on the registration.
		if added && !errors.Is(err, ErrAlreadyExists) {
			if _, uerr := e.UnregisterDomain(ctx, l.LicenseKey, domain); uerr != nil {
				e.logger.Error("failed to release domain after website create failed",
					"license_id", l.ID.String(),
					"domain", domain,
					"error", uerr,
				)
			}
		}
		return nil, err
	}

	e.logger.Info("website created",
		"website_id", w.ID.String(),
		"user_id", w.UserID,
		"domain", w.Domain,
	)
	e.plugins.EmitWebsiteCreated(ctx, w)
	return w, nil
}

// GetWebsite retrieves a website by ID.
func (e *Scribe) GetWebsite(ctx context.Context, websiteID id.WebsiteID) (*website.Website, error) {
	return e.store.GetWebsite(ctx, websiteID)
}

// ListWebsites lists a user's websites.
func (e *Scribe) ListWebsites(ctx context.Context, userID string, opts website.ListOpts) ([]*website.Website, error) {
	return e.store.ListWebsites(ctx, userID, opts)
}

// DeleteWebsite removes a website and releases its domain from the license
// it was registered on.
func (e *Scribe) DeleteWebsite(ctx context.Context, websiteID id.WebsiteID) error {
	w, err := e.store.GetWebsite(ctx, websiteID)
	if err != nil {
		return err
	}
	if err := e.store.DeleteWebsite(ctx, websiteID); err != nil {
		return err
	}

	l, err := e.store.GetLicense(ctx, w.LicenseID)
	switch {
	case err == nil:
		if _, err := e.UnregisterDomain(ctx, l.LicenseKey, w.Domain); err != nil {
			return err
		}
	case IsNotFound(err):
		e.logger.Warn("website license missing", "website_id", w.ID.String(), "license_id", w.LicenseID.String())
	default:
		return err
	}

	e.logger.Info("website deleted", "website_id", w.ID.String(), "domain", w.Domain)
	e.plugins.EmitWebsiteDeleted(ctx, w)
	return nil
}
