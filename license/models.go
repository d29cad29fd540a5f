package license

import (
	"slices"
	"time"

	"github.com/xraph/scribe/id"
	"github.com/xraph/scribe/types"
)

type Plan string

const (
	PlanFree       Plan = "free"
	PlanBasic      Plan = "basic"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Valid reports whether p is one of the known plans.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanBasic, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Limits are the quotas a plan grants.
type Limits struct {
	MaxWebsites        int `json:"max_websites"        yaml:"max_websites"`
	MaxContentPerMonth int `json:"max_content_per_month" yaml:"max_content_per_month"`
}

var defaultLimits = map[Plan]Limits{
	PlanFree:       {MaxWebsites: 1, MaxContentPerMonth: 5},
	PlanBasic:      {MaxWebsites: 3, MaxContentPerMonth: 50},
	PlanPro:        {MaxWebsites: 10, MaxContentPerMonth: 200},
	PlanEnterprise: {MaxWebsites: 100, MaxContentPerMonth: 2000},
}

// DefaultLimits returns the built-in quotas for p. Unknown plans get the free tier.
func DefaultLimits(p Plan) Limits {
	if l, ok := defaultLimits[p]; ok {
		return l
	}
	return defaultLimits[PlanFree]
}

// License entitles a user to a bounded number of websites and monthly content.
//
// RegisteredDomains is kept normalized and never longer than MaxWebsites.
// Version increases on every domain-set change and guards concurrent writers.
type License struct {
	types.Entity
	ID                 id.LicenseID      `json:"id"`
	UserID             string            `json:"user_id"`
	LicenseKey         string            `json:"license_key"`
	Plan               Plan              `json:"plan"`
	Status             Status            `json:"status"`
	MaxWebsites        int               `json:"max_websites"`
	MaxContentPerMonth int               `json:"max_content_per_month"`
	ExpiresAt          *time.Time        `json:"expires_at,omitempty"`
	CancelledAt        *time.Time        `json:"cancelled_at,omitempty"`
	RegisteredDomains  []string          `json:"registered_domains"`
	Version            int64             `json:"version"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// IsActive reports whether the license is active and unexpired at now.
func (l *License) IsActive(now time.Time) bool {
	if l.Status != StatusActive {
		return false
	}
	return l.ExpiresAt == nil || now.Before(*l.ExpiresAt)
}

// EffectiveStatus reports Status, except that an active license whose
// expiry has passed reads as expired.
func (l *License) EffectiveStatus(now time.Time) Status {
	if l.Status == StatusActive && !l.IsActive(now) {
		return StatusExpired
	}
	return l.Status
}

// HasDomain reports whether the normalized domain is registered.
func (l *License) HasDomain(domain string) bool {
	return slices.Contains(l.RegisteredDomains, domain)
}

// HasCapacity reports whether another domain fits under MaxWebsites.
func (l *License) HasCapacity() bool {
	return len(l.RegisteredDomains) < l.MaxWebsites
}

// WithDomain returns a copy of the domain set with domain appended.
func (l *License) WithDomain(domain string) []string {
	out := make([]string, 0, len(l.RegisteredDomains)+1)
	out = append(out, l.RegisteredDomains...)
	return append(out, domain)
}

// WithoutDomain returns a copy of the domain set with domain removed.
func (l *License) WithoutDomain(domain string) []string {
	out := make([]string, 0, len(l.RegisteredDomains))
	for _, d := range l.RegisteredDomains {
		if d != domain {
			out = append(out, d)
		}
	}
	return out
}

// Clone returns a deep copy of l.
func (l *License) Clone() *License {
	c := *l
	c.RegisteredDomains = slices.Clone(l.RegisteredDomains)
	if l.ExpiresAt != nil {
		t := *l.ExpiresAt
		c.ExpiresAt = &t
	}
	if l.CancelledAt != nil {
		t := *l.CancelledAt
		c.CancelledAt = &t
	}
	if l.Metadata != nil {
		c.Metadata = make(map[string]string, len(l.Metadata))
		for k, v := range l.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// Validation is the read-only answer to a license key check.
type Validation struct {
	Valid     bool       `json:"valid"`
	Plan      Plan       `json:"plan"`
	Status    Status     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	// DomainRegistered is nil when no domain was asked about.
	DomainRegistered *bool `json:"domain_registered,omitempty"`
}
