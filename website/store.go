package website

import (
	"context"

	"github.com/xraph/scribe/id"
)

type Store interface {
	CreateWebsite(ctx context.Context, w *Website) error
	GetWebsite(ctx context.Context, websiteID id.WebsiteID) (*Website, error)
	ListWebsites(ctx context.Context, userID string, opts ListOpts) ([]*Website, error)
	CountWebsites(ctx context.Context, userID string) (int64, error)
	DeleteWebsite(ctx context.Context, websiteID id.WebsiteID) error
}

type ListOpts struct {
	Limit  int
	Offset int
}
