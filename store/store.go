package store

import (
	"context"

	"github.com/xraph/scribe/content"
	"github.com/xraph/scribe/license"
	"github.com/xraph/scribe/settings"
	"github.com/xraph/scribe/tracking"
	"github.com/xraph/scribe/website"
)

// Store is the unified storage interface for all Scribe entities. Each
// sub-interface uses entity-prefixed method names so they embed cleanly.
type Store interface {
	license.Store
	website.Store
	content.Store
	tracking.Store
	settings.Store

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
