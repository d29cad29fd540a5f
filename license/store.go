package license

import (
	"context"
	"time"

	"github.com/xraph/scribe/id"
)

type Store interface {
	CreateLicense(ctx context.Context, l *License) error
	GetLicense(ctx context.Context, licID id.LicenseID) (*License, error)
	GetLicenseByKey(ctx context.Context, licenseKey string) (*License, error)
	// GetActiveLicense returns the newest license of userID that is active at now.
	GetActiveLicense(ctx context.Context, userID string, now time.Time) (*License, error)
	ListLicenses(ctx context.Context, userID string, opts ListOpts) ([]*License, error)
	// UpdateLicense writes every field except the domain set and version.
	UpdateLicense(ctx context.Context, l *License) error
	// UpdateLicenseDomains replaces the domain set only if the stored version
	// still equals expectedVersion, and bumps the version.
	UpdateLicenseDomains(ctx context.Context, licID id.LicenseID, expectedVersion int64, domains []string) error
}

type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
