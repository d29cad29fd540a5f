package content

import (
	"context"
	"time"

	"github.com/xraph/scribe/id"
)

type Store interface {
	CreateContent(ctx context.Context, c *Content) error
	GetContent(ctx context.Context, contentID id.ContentID) (*Content, error)
	UpdateContent(ctx context.Context, c *Content) error
	ListContent(ctx context.Context, websiteID id.WebsiteID, opts ListOpts) ([]*Content, error)
	// CountGeneratedContent counts content of the given websites whose
	// GeneratedAt falls in [start, end).
	CountGeneratedContent(ctx context.Context, websiteIDs []id.WebsiteID, start, end time.Time) (int64, error)
}

type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
