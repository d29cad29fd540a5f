package scribe_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/scribe"
	"github.com/xraph/scribe/content"
	"github.com/xraph/scribe/generation"
	"github.com/xraph/scribe/store/memory"
	"github.com/xraph/scribe/tracking"
)

// TestDocumentationExamples walks through the package documentation's
// quick start against the memory store.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		s := scribe.New(memory.New(),
			scribe.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			scribe.WithTrackingConfig(100, 5*time.Second),
			scribe.WithSettingsCacheTTL(30*time.Second),
			scribe.WithGenerator(stubGenerator("Burr grinders crush beans evenly. Blade grinders chop them.")),
			scribe.WithQualityScorer(generation.NewLocalScorer(nil)),
		)

		ctx := context.Background()
		if err := s.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer s.Stop()

		l, err := s.IssueLicense(ctx, scribe.IssueInput{UserID: "u1", Plan: scribe.PlanPro, Activate: true})
		if err != nil {
			t.Fatal(err)
		}

		w, err := s.CreateWebsite(ctx, scribe.CreateWebsiteInput{UserID: "u1", URL: "https://example.com"})
		if err != nil {
			t.Fatal(err)
		}

		v, err := s.Validate(ctx, l.LicenseKey, "example.com")
		if err != nil || !v.Valid || v.DomainRegistered == nil || !*v.DomainRegistered {
			t.Fatalf("Validate = %+v, %v", v, err)
		}

		c, err := s.Generate(ctx, scribe.GenerateInput{WebsiteID: w.ID, Topic: "espresso grinders", Keywords: []string{"burr grinder"}})
		if err != nil {
			t.Fatal(err)
		}
		if c, err = s.ApplyQualityScores(ctx, c.ID, 4, 81); err != nil {
			t.Fatal(err)
		}
		if c, err = s.Publish(ctx, c.ID); err != nil {
			t.Fatal(err)
		}
		if c.Status != content.StatusPublished || c.PublishedAt == nil {
			t.Errorf("published content = %+v", c)
		}

		ref := tracking.ContentRef(c.ID)
		for _, typ := range []tracking.EventType{tracking.EventImpression, tracking.EventImpression, tracking.EventClick} {
			if _, err := s.Record(ctx, scribe.RecordInput{Trackable: ref, Type: typ}); err != nil {
				t.Fatal(err)
			}
		}
		m, err := s.Metrics(ctx, ref)
		if err != nil {
			t.Fatal(err)
		}
		if m.CTR != 50 {
			t.Errorf("CTR = %v, want 50", m.CTR)
		}
	})

	t.Run("ReExports", func(t *testing.T) {
		if got := scribe.ClassifyUserAgent("Mozilla/5.0 Firefox/120.0"); got != tracking.BrowserFirefox {
			t.Errorf("ClassifyUserAgent = %q", got)
		}
		if scribe.IsMobile("Mozilla/5.0 (Windows NT 10.0; Win64; x64)") {
			t.Error("desktop reported as mobile")
		}
		if th := scribe.DefaultThresholds(); th.MaxPlagiarism != 10 || th.MinReadability != 70 {
			t.Errorf("DefaultThresholds = %+v", th)
		}
		if m := scribe.ComputeMetrics(tracking.Totals{}); m.CTR != 0 {
			t.Errorf("empty CTR = %v", m.CTR)
		}
	})
}
