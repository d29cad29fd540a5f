package tracking

import "context"

// Store is append-only: there is no update or delete.
type Store interface {
	AppendEvents(ctx context.Context, events []*Event) error
	AggregateEvents(ctx context.Context, ref TrackableRef) (Totals, error)
	QueryEvents(ctx context.Context, ref TrackableRef, opts QueryOpts) ([]*Event, error)
}
