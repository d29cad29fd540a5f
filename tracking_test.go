package scribe_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/xraph/scribe"
	"github.com/xraph/scribe/id"
	"github.com/xraph/scribe/store/memory"
	"github.com/xraph/scribe/tracking"
)

func record(t *testing.T, s *scribe.Scribe, ref tracking.TrackableRef, typ tracking.EventType, value *float64, n int) {
	t.Helper()
	for range n {
		if _, err := s.Record(context.Background(), scribe.RecordInput{Trackable: ref, Type: typ, Value: value}); err != nil {
			t.Fatalf("Record(%s): %v", typ, err)
		}
	}
}

func TestMetrics(t *testing.T) {
	s, _ := newTestScribe(t)
	ctx := context.Background()
	ref := tracking.ContentRef(id.NewContentID())

	record(t, s, ref, tracking.EventImpression, nil, 100)
	record(t, s, ref, tracking.EventClick, nil, 10)
	record(t, s, ref, tracking.EventConversion, ptr(50.0), 2)
	record(t, s, ref, tracking.EventShare, nil, 3)

	// Events of another trackable are not counted.
	record(t, s, tracking.AffiliateLinkRef(id.NewAffiliateLinkID()), tracking.EventClick, nil, 5)

	m, err := s.Metrics(ctx, ref)
	if err != nil {
		t.Fatal(err)
	}
	if m.CTR != 10 || m.ConversionRate != 20 || m.TotalRevenue != 100 || m.EarningsPerClick != 5 {
		t.Errorf("metrics = %+v", m)
	}
	if m.Impressions != 100 || m.Clicks != 10 || m.Conversions != 2 || m.Shares != 3 {
		t.Errorf("totals = %+v", m)
	}
}

func TestMetricsEmpty(t *testing.T) {
	s, _ := newTestScribe(t)
	ref := tracking.ContentRef(id.NewContentID())

	m, err := s.Metrics(context.Background(), ref)
	if err != nil {
		t.Fatal(err)
	}
	for name, v := range map[string]float64{"ctr": m.CTR, "conversion_rate": m.ConversionRate, "epc": m.EarningsPerClick} {
		if v != 0 || math.IsNaN(v) {
			t.Errorf("%s = %v, want 0", name, v)
		}
	}

	// Conversions without clicks still divide by nothing.
	record(t, s, ref, tracking.EventConversion, ptr(10.0), 1)
	m, _ = s.Metrics(context.Background(), ref)
	if m.ConversionRate != 0 || m.EarningsPerClick != 0 || m.TotalRevenue != 10 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestRecordValidation(t *testing.T) {
	s, _ := newTestScribe(t)
	ref := tracking.ContentRef(id.NewContentID())

	tests := []struct {
		name    string
		in      scribe.RecordInput
		wantErr error
	}{
		{"conversion without value", scribe.RecordInput{Trackable: ref, Type: tracking.EventConversion}, scribe.ErrInvalidEventValue},
		{"zero conversion", scribe.RecordInput{Trackable: ref, Type: tracking.EventConversion, Value: ptr(0.0)}, scribe.ErrInvalidEventValue},
		{"negative conversion", scribe.RecordInput{Trackable: ref, Type: tracking.EventConversion, Value: ptr(-5.0)}, scribe.ErrInvalidEventValue},
		{"infinite conversion", scribe.RecordInput{Trackable: ref, Type: tracking.EventConversion, Value: ptr(math.Inf(1))}, scribe.ErrInvalidEventValue},
		{"click with value", scribe.RecordInput{Trackable: ref, Type: tracking.EventClick, Value: ptr(1.0)}, scribe.ErrInvalidEventValue},
		{"unknown type", scribe.RecordInput{Trackable: ref, Type: "hover"}, scribe.ErrInvalidInput},
		{"empty ref", scribe.RecordInput{Trackable: tracking.TrackableRef{Type: tracking.TrackableContent}, Type: tracking.EventClick}, scribe.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Record(context.Background(), tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	events, _ := s.Events(context.Background(), ref, tracking.QueryOpts{})
	if len(events) != 0 {
		t.Errorf("rejected events were stored: %d", len(events))
	}
}

func TestRecordUserAgent(t *testing.T) {
	s, _ := newTestScribe(t)
	ctx := context.Background()
	ref := tracking.ContentRef(id.NewContentID())

	ua := "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	ev, err := s.Record(ctx, scribe.RecordInput{
		Trackable: ref,
		Type:      tracking.EventImpression,
		Metadata:  map[string]string{tracking.MetaUserAgent: ua},
	})
	if err != nil {
		t.Fatal(err)
	}
	if ev.Metadata[tracking.MetaBrowser] != string(tracking.BrowserSafari) {
		t.Errorf("browser = %q", ev.Metadata[tracking.MetaBrowser])
	}
	if ev.Metadata[tracking.MetaDevice] != tracking.DeviceMobile {
		t.Errorf("device = %q", ev.Metadata[tracking.MetaDevice])
	}
	if !ev.OccurredAt.Equal(testNow) {
		t.Errorf("OccurredAt = %v", ev.OccurredAt)
	}
}

func TestEventsWindow(t *testing.T) {
	s, _ := newTestScribe(t)
	ctx := context.Background()
	ref := tracking.ContentRef(id.NewContentID())

	for i := range 5 {
		_, err := s.Record(ctx, scribe.RecordInput{
			Trackable:  ref,
			Type:       tracking.EventClick,
			OccurredAt: testNow.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	events, err := s.Events(ctx, ref, tracking.QueryOpts{
		Type:  tracking.EventClick,
		Start: testNow.Add(time.Hour),
		End:   testNow.Add(3 * time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || !events[0].OccurredAt.Before(events[1].OccurredAt) {
		t.Errorf("events = %v", events)
	}
}

func TestRecordAsync(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, st := newTestScribe(t, scribe.WithTrackingConfig(1000, time.Hour))
	ctx := context.Background()
	ref := tracking.ContentRef(id.NewContentID())

	in := scribe.RecordInput{Trackable: ref, Type: tracking.EventImpression}
	if err := s.RecordAsync(ctx, in); !errors.Is(err, scribe.ErrStoreNotReady) {
		t.Fatalf("before Start: err = %v", err)
	}

	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	for range 25 {
		if err := s.RecordAsync(ctx, in); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.RecordAsync(ctx, scribe.RecordInput{Trackable: ref, Type: tracking.EventConversion}); !errors.Is(err, scribe.ErrInvalidEventValue) {
		t.Errorf("invalid async event: err = %v", err)
	}

	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}

	totals, err := st.AggregateEvents(ctx, ref)
	if err != nil {
		t.Fatal(err)
	}
	if totals.Impressions != 25 {
		t.Errorf("flushed impressions = %d, want 25", totals.Impressions)
	}
	if err := s.RecordAsync(ctx, in); !errors.Is(err, scribe.ErrStoreClosed) {
		t.Errorf("after Stop: err = %v", err)
	}
}

// gatedStore holds every AppendEvents call until gate is closed.
type gatedStore struct {
	*memory.Store
	gate chan struct{}
}

func (g *gatedStore) AppendEvents(ctx context.Context, events []*tracking.Event) error {
	<-g.gate
	return g.Store.AppendEvents(ctx, events)
}

func TestRecordAsyncBufferFull(t *testing.T) {
	st := &gatedStore{Store: memory.New(), gate: make(chan struct{})}
	s := scribe.New(st,
		scribe.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		scribe.WithTrackingBufferSize(1),
		scribe.WithTrackingConfig(1, time.Hour),
	)
	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}

	// The worker takes at most one event before blocking in the store, so
	// the third send cannot fit.
	in := scribe.RecordInput{Trackable: tracking.ContentRef(id.NewContentID()), Type: tracking.EventClick}
	var accepted int
	var full bool
	for range 3 {
		err := s.RecordAsync(ctx, in)
		if errors.Is(err, scribe.ErrTrackingBufferFull) {
			full = true
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		accepted++
	}
	if !full {
		t.Error("buffer never reported full")
	}

	close(st.gate)
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	totals, _ := st.AggregateEvents(ctx, in.Trackable)
	if totals.Clicks != int64(accepted) {
		t.Errorf("clicks = %d, want %d", totals.Clicks, accepted)
	}
}

func TestRecordAsyncDuringStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, st := newTestScribe(t, scribe.WithTrackingConfig(50, time.Hour))
	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	in := scribe.RecordInput{Trackable: tracking.ContentRef(id.NewContentID()), Type: tracking.EventImpression}

	var (
		wg       sync.WaitGroup
		accepted atomic.Int64
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				err := s.RecordAsync(ctx, in)
				if errors.Is(err, scribe.ErrStoreClosed) {
					return
				}
				if err == nil {
					accepted.Add(1)
				}
			}
		}()
	}

	time.Sleep(5 * time.Millisecond)
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	wg.Wait()

	totals, err := st.AggregateEvents(ctx, in.Trackable)
	if err != nil {
		t.Fatal(err)
	}
	if totals.Impressions != accepted.Load() {
		t.Errorf("flushed %d events, accepted %d", totals.Impressions, accepted.Load())
	}
}
