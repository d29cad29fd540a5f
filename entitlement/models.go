// Package entitlement holds the quota arithmetic shared by the website and
// content checks.
package entitlement

import "time"

// Resource names a metered quota.
type Resource string

const (
	ResourceWebsites Resource = "websites"
	ResourceContent  Resource = "content_per_month"
)

// Decision is the outcome of one quota check.
type Decision struct {
	UserID    string   `json:"user_id"`
	Resource  Resource `json:"resource"`
	Allowed   bool     `json:"allowed"`
	Used      int64    `json:"used"`
	Limit     int64    `json:"limit"`
	Remaining int64    `json:"remaining"`
	Reason    string   `json:"reason,omitempty"`
}

// Decide allows one more unit when used is strictly below limit.
func Decide(userID string, r Resource, used, limit int64) *Decision {
	d := &Decision{
		UserID:    userID,
		Resource:  r,
		Used:      used,
		Limit:     limit,
		Remaining: max(0, limit-used),
		Allowed:   used < limit,
	}
	if !d.Allowed {
		d.Reason = "quota exceeded"
	}
	return d
}

// Denied is a decision made without counting, e.g. when there is no license.
func Denied(userID string, r Resource, reason string) *Decision {
	return &Decision{UserID: userID, Resource: r, Reason: reason}
}

// Summary reports every quota of a user at once.
type Summary struct {
	UserID    string     `json:"user_id"`
	LicenseID string     `json:"license_id,omitempty"`
	Plan      string     `json:"plan,omitempty"`
	Websites  *Decision  `json:"websites"`
	Content   *Decision  `json:"content"`
	Period    MonthRange `json:"period"`
}

// MonthRange is a half-open [Start, End) interval.
type MonthRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MonthWindow returns the UTC calendar month containing t.
func MonthWindow(t time.Time) MonthRange {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return MonthRange{Start: start, End: start.AddDate(0, 1, 0)}
}
