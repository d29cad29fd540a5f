package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/scribe"
	"github.com/xraph/scribe/content"
	"github.com/xraph/scribe/id"
	"github.com/xraph/scribe/license"
	"github.com/xraph/scribe/settings"
	"github.com/xraph/scribe/store/memory"
	"github.com/xraph/scribe/tracking"
	"github.com/xraph/scribe/types"
	"github.com/xraph/scribe/website"
)

func newLicense(userID, key string) *license.License {
	return &license.License{
		Entity:      types.NewEntity(),
		ID:          id.NewLicenseID(),
		UserID:      userID,
		LicenseKey:  key,
		Plan:        license.PlanBasic,
		Status:      license.StatusActive,
		MaxWebsites: 3,
	}
}

func TestLicenseDomainsCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	l := newLicense("u1", "key-1")
	if err := s.CreateLicense(ctx, l); err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateLicenseDomains(ctx, l.ID, 0, []string{"a.com"}); err != nil {
		t.Fatalf("first CAS: %v", err)
	}
	if err := s.UpdateLicenseDomains(ctx, l.ID, 0, []string{"b.com"}); !errors.Is(err, scribe.ErrVersionConflict) {
		t.Fatalf("stale CAS err = %v, want ErrVersionConflict", err)
	}
	if err := s.UpdateLicenseDomains(ctx, id.NewLicenseID(), 0, nil); !errors.Is(err, scribe.ErrLicenseNotFound) {
		t.Fatalf("missing CAS err = %v", err)
	}

	got, err := s.GetLicenseByKey(ctx, "key-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != 1 || len(got.RegisteredDomains) != 1 || got.RegisteredDomains[0] != "a.com" {
		t.Errorf("license after CAS = %+v", got)
	}

	// UpdateLicense must not clobber the domain set.
	got.RegisteredDomains = nil
	got.Status = license.StatusCancelled
	if err := s.UpdateLicense(ctx, got); err != nil {
		t.Fatal(err)
	}
	again, _ := s.GetLicense(ctx, l.ID)
	if again.Status != license.StatusCancelled || len(again.RegisteredDomains) != 1 || again.Version != 1 {
		t.Errorf("UpdateLicense changed domains: %+v", again)
	}
}

func TestReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	l := newLicense("u1", "key-1")
	l.RegisteredDomains = []string{"a.com"}
	_ = s.CreateLicense(ctx, l)

	l.RegisteredDomains[0] = "mutated.com"
	got, _ := s.GetLicense(ctx, l.ID)
	got.RegisteredDomains[0] = "also-mutated.com"

	again, _ := s.GetLicense(ctx, l.ID)
	if again.RegisteredDomains[0] != "a.com" {
		t.Errorf("store shares memory with callers: %v", again.RegisteredDomains)
	}
}

func TestDuplicateLicenseKey(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	_ = s.CreateLicense(ctx, newLicense("u1", "dup"))
	if err := s.CreateLicense(ctx, newLicense("u2", "dup")); !errors.Is(err, scribe.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestActiveLicense(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	now := time.Now().UTC()

	expired := newLicense("u1", "old")
	past := now.Add(-time.Hour)
	expired.ExpiresAt = &past
	_ = s.CreateLicense(ctx, expired)

	if _, err := s.GetActiveLicense(ctx, "u1", now); !errors.Is(err, scribe.ErrNoActiveLicense) {
		t.Fatalf("err = %v, want ErrNoActiveLicense", err)
	}

	live := newLicense("u1", "new")
	live.Entity = types.NewEntityAt(now.Add(time.Minute))
	_ = s.CreateLicense(ctx, live)
	got, err := s.GetActiveLicense(ctx, "u1", now)
	if err != nil || got.ID != live.ID {
		t.Fatalf("GetActiveLicense = %v, %v", got, err)
	}
}

func TestWebsites(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	for i, d := range []string{"a.com", "b.com", "c.com"} {
		w := &website.Website{
			Entity: types.NewEntityAt(time.Unix(int64(i), 0)),
			ID:     id.NewWebsiteID(),
			UserID: "u1",
			Domain: d,
		}
		if err := s.CreateWebsite(ctx, w); err != nil {
			t.Fatal(err)
		}
	}
	dup := &website.Website{ID: id.NewWebsiteID(), UserID: "u1", Domain: "a.com"}
	if err := s.CreateWebsite(ctx, dup); !errors.Is(err, scribe.ErrAlreadyExists) {
		t.Errorf("duplicate domain err = %v", err)
	}

	n, _ := s.CountWebsites(ctx, "u1")
	if n != 3 {
		t.Errorf("CountWebsites = %d", n)
	}
	list, _ := s.ListWebsites(ctx, "u1", website.ListOpts{Offset: 1, Limit: 1})
	if len(list) != 1 || list[0].Domain != "b.com" {
		t.Errorf("page = %+v", list)
	}

	if err := s.DeleteWebsite(ctx, list[0].ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetWebsite(ctx, list[0].ID); !errors.Is(err, scribe.ErrWebsiteNotFound) {
		t.Errorf("after delete err = %v", err)
	}
	if !scribe.IsNotFound(s.DeleteWebsite(ctx, list[0].ID)) {
		t.Error("second delete should be not found")
	}
}

func TestCountGeneratedContent(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	w1, w2 := id.NewWebsiteID(), id.NewWebsiteID()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	add := func(w id.WebsiteID, at *time.Time) {
		c := &content.Content{Entity: types.NewEntity(), ID: id.NewContentID(), WebsiteID: w, GeneratedAt: at}
		if err := s.CreateContent(ctx, c); err != nil {
			t.Fatal(err)
		}
	}
	in := start.Add(time.Hour)
	before := start.Add(-time.Second)
	add(w1, &in)
	add(w2, &in)
	add(w1, &before)
	add(w1, &end)
	add(w1, nil)
	add(id.NewWebsiteID(), &in)

	n, err := s.CountGeneratedContent(ctx, []id.WebsiteID{w1, w2}, start, end)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("CountGeneratedContent = %d, want 2", n)
	}
}

func TestTrackingAggregateAndQuery(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	ref := tracking.ContentRef(id.NewContentID())
	other := tracking.ContentRef(id.NewContentID())
	base := time.Now().UTC()
	val := 25.0

	var events []*tracking.Event
	for i := range 4 {
		events = append(events, &tracking.Event{
			ID: id.NewTrackingEventID(), Trackable: ref, Type: tracking.EventImpression,
			OccurredAt: base.Add(time.Duration(i) * time.Second),
		})
	}
	events = append(events,
		&tracking.Event{ID: id.NewTrackingEventID(), Trackable: ref, Type: tracking.EventClick, OccurredAt: base},
		&tracking.Event{ID: id.NewTrackingEventID(), Trackable: ref, Type: tracking.EventConversion, Value: &val, OccurredAt: base},
		&tracking.Event{ID: id.NewTrackingEventID(), Trackable: other, Type: tracking.EventClick, OccurredAt: base},
	)
	if err := s.AppendEvents(ctx, events); err != nil {
		t.Fatal(err)
	}

	totals, _ := s.AggregateEvents(ctx, ref)
	want := tracking.Totals{Impressions: 4, Clicks: 1, Conversions: 1, Revenue: 25}
	if totals != want {
		t.Errorf("totals = %+v, want %+v", totals, want)
	}

	got, _ := s.QueryEvents(ctx, ref, tracking.QueryOpts{
		Type:  tracking.EventImpression,
		Start: base.Add(time.Second),
		End:   base.Add(3 * time.Second),
	})
	if len(got) != 2 {
		t.Errorf("windowed query = %d events, want 2", len(got))
	}
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	if _, err := s.GetSetting(ctx, "x"); !errors.Is(err, settings.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	_ = s.PutSetting(ctx, &settings.Setting{Key: "x", Value: "1"})
	_ = s.PutSetting(ctx, &settings.Setting{Key: "x", Value: "2"})
	got, err := s.GetSetting(ctx, "x")
	if err != nil || got.Value != "2" {
		t.Errorf("GetSetting = %+v, %v", got, err)
	}
	all, _ := s.ListSettings(ctx)
	if len(all) != 1 {
		t.Errorf("ListSettings = %d", len(all))
	}
}
