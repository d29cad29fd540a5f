package website

import (
	"github.com/xraph/scribe/id"
	"github.com/xraph/scribe/types"
)

// Website is a site a user has registered for content generation.
// Domain is the normalized form of URL and is what the user's license holds.
type Website struct {
	types.Entity
	ID        id.WebsiteID      `json:"id"`
	UserID    string            `json:"user_id"`
	LicenseID id.LicenseID      `json:"license_id"`
	URL       string            `json:"url"`
	Domain    string            `json:"domain"`
	Name      string            `json:"name"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
