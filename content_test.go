package scribe_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/xraph/scribe"
	"github.com/xraph/scribe/content"
	"github.com/xraph/scribe/generation"
	"github.com/xraph/scribe/id"
	"github.com/xraph/scribe/license"
	"github.com/xraph/scribe/website"
)

func newSite(t *testing.T, s *scribe.Scribe, userID, url string) *website.Website {
	t.Helper()
	w, err := s.CreateWebsite(context.Background(), scribe.CreateWebsiteInput{UserID: userID, URL: url})
	if err != nil {
		t.Fatalf("CreateWebsite(%q): %v", url, err)
	}
	return w
}

func generate(t *testing.T, s *scribe.Scribe, websiteID id.WebsiteID) *content.Content {
	t.Helper()
	c, err := s.Generate(context.Background(), scribe.GenerateInput{
		WebsiteID: websiteID,
		Topic:     "home espresso",
		Keywords:  []string{"grinder", "crema"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return c
}

func TestGenerate(t *testing.T) {
	s, _ := newTestScribe(t)
	ctx := context.Background()
	issue(t, s, "u1", license.PlanBasic)
	w := newSite(t, s, "u1", "https://blog.example.com")

	c := generate(t, s, w.ID)
	if c.Status != content.StatusGenerated {
		t.Errorf("status = %s", c.Status)
	}
	if c.GeneratedAt == nil || !c.GeneratedAt.Equal(testNow) {
		t.Errorf("GeneratedAt = %v", c.GeneratedAt)
	}
	if c.WordCount == nil || *c.WordCount != 7 {
		t.Errorf("WordCount = %v", c.WordCount)
	}
	if c.MinWords != 1000 || c.Tone != "professional" || c.Title != "On home espresso" {
		t.Errorf("content = %+v", c)
	}
	if c.Metadata[scribe.MetaModel] != "stub" {
		t.Errorf("model metadata = %v", c.Metadata)
	}

	stored, err := s.GetContent(ctx, c.ID)
	if err != nil || stored.Status != content.StatusGenerated {
		t.Fatalf("stored = %v, %v", stored, err)
	}

	tests := []struct {
		name string
		in   scribe.GenerateInput
	}{
		{"empty topic", scribe.GenerateInput{WebsiteID: w.ID, Topic: " ", Keywords: []string{"k"}}},
		{"no keywords", scribe.GenerateInput{WebsiteID: w.ID, Topic: "t"}},
		{"blank keywords", scribe.GenerateInput{WebsiteID: w.ID, Topic: "t", Keywords: []string{"", " "}}},
		{"negative words", scribe.GenerateInput{WebsiteID: w.ID, Topic: "t", Keywords: []string{"k"}, WordCount: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Generate(ctx, tt.in); !scribe.IsValidation(err) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}
}

func TestGenerateFailure(t *testing.T) {
	boom := errors.New("model unavailable")
	s, _ := newTestScribe(t, scribe.WithGenerator(generation.GeneratorFunc(
		func(context.Context, generation.Request) (*generation.Draft, error) { return nil, boom },
	)))
	ctx := context.Background()
	issue(t, s, "u1", license.PlanBasic)
	w := newSite(t, s, "u1", "example.com")

	_, err := s.Generate(ctx, scribe.GenerateInput{WebsiteID: w.ID, Topic: "t", Keywords: []string{"k"}})
	if !errors.Is(err, scribe.ErrGenerationFailed) || !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}

	items, _ := s.ListContent(ctx, w.ID, content.ListOpts{})
	if len(items) != 1 || items[0].Status != content.StatusFailed || items[0].FailureReason != boom.Error() {
		t.Fatalf("content = %+v", items)
	}
	if items[0].GeneratedAt != nil {
		t.Error("failed content counted as generated")
	}
}

func TestGenerateMonthlyLimit(t *testing.T) {
	s, _ := newTestScribe(t)
	ctx := context.Background()
	if err := s.Settings().Set(ctx, "plan_free_max_content_per_month", "2"); err != nil {
		t.Fatal(err)
	}
	issue(t, s, "u1", license.PlanFree)
	w := newSite(t, s, "u1", "example.com")

	generate(t, s, w.ID)
	generate(t, s, w.ID)

	err := s.CanGenerateContent(ctx, w.ID)
	if !errors.Is(err, scribe.ErrLimitExceeded) || !errors.Is(err, scribe.ErrQuotaExceeded) {
		t.Fatalf("CanGenerateContent: err = %v", err)
	}
	if _, err := s.Generate(ctx, scribe.GenerateInput{WebsiteID: w.ID, Topic: "t", Keywords: []string{"k"}}); !scribe.IsQuotaError(err) {
		t.Errorf("Generate over limit: err = %v", err)
	}

	// A new month resets the count.
	next := scribe.New(s.Store(), scribe.WithClock(func() time.Time { return testNow.AddDate(0, 1, 0) }))
	if err := next.CanGenerateContent(ctx, w.ID); err != nil {
		t.Errorf("next month: %v", err)
	}
}

func TestCanGenerateContentNoLicense(t *testing.T) {
	s, _ := newTestScribe(t)
	ctx := context.Background()
	l := issue(t, s, "u1", license.PlanBasic)
	w := newSite(t, s, "u1", "example.com")

	if _, err := s.CancelLicense(ctx, l.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.CanGenerateContent(ctx, w.ID); !errors.Is(err, scribe.ErrNoActiveLicense) {
		t.Errorf("err = %v, want no active license", err)
	}
	if err := s.CanGenerateContent(ctx, id.NewWebsiteID()); !scribe.IsNotFound(err) {
		t.Errorf("unknown website: err = %v", err)
	}
}

func TestQualityGate(t *testing.T) {
	tests := []struct {
		name                    string
		plagiarism, readability float64
		passed                  bool
		failing                 []content.Metric
	}{
		{"passes", 10, 70, true, nil},
		{"plagiarism too high", 15, 80, false, []content.Metric{content.MetricPlagiarism}},
		{"readability too low", 5, 69.9, false, []content.Metric{content.MetricReadability}},
		{"both fail", 50, 10, false, []content.Metric{content.MetricPlagiarism, content.MetricReadability}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestScribe(t)
			ctx := context.Background()
			issue(t, s, "u1", license.PlanBasic)
			w := newSite(t, s, "u1", "example.com")
			c := generate(t, s, w.ID)

			c, err := s.ApplyQualityScores(ctx, c.ID, tt.plagiarism, tt.readability)
			if err != nil {
				t.Fatal(err)
			}
			if c.Status != content.StatusGenerated || c.QualityCheckedAt == nil {
				t.Fatalf("after scoring = %+v", c)
			}

			passed, err := s.HasPassedQualityChecks(ctx, c)
			if err != nil || passed != tt.passed {
				t.Fatalf("HasPassedQualityChecks = %v, %v", passed, err)
			}

			published, err := s.Publish(ctx, c.ID)
			if tt.passed {
				if err != nil || published.Status != content.StatusPublished || published.PublishedAt == nil {
					t.Fatalf("Publish = %+v, %v", published, err)
				}
				return
			}

			var gate *scribe.QualityGateError
			if !errors.As(err, &gate) || !scribe.IsQualityGate(err) {
				t.Fatalf("Publish: err = %v, want quality gate error", err)
			}
			if len(gate.Failures) != len(tt.failing) {
				t.Fatalf("failures = %v", gate.Failures)
			}
			for _, m := range tt.failing {
				if !gate.Failed(m) {
					t.Errorf("%s not reported in %v", m, gate)
				}
			}

			stored, _ := s.GetContent(ctx, c.ID)
			if stored.Status != content.StatusGenerated || stored.PublishedAt != nil {
				t.Errorf("rejected content changed: %+v", stored)
			}
		})
	}
}

func TestThresholdsFromSettings(t *testing.T) {
	s, _ := newTestScribe(t)
	ctx := context.Background()
	issue(t, s, "u1", license.PlanBasic)
	w := newSite(t, s, "u1", "example.com")
	c := generate(t, s, w.ID)

	if err := s.Settings().Set(ctx, "default_plagiarism_threshold", "20"); err != nil {
		t.Fatal(err)
	}
	c, _ = s.ApplyQualityScores(ctx, c.ID, 15, 80)
	if _, err := s.Publish(ctx, c.ID); err != nil {
		t.Errorf("publish under raised threshold: %v", err)
	}
}

func TestLifecycleStateErrors(t *testing.T) {
	s, _ := newTestScribe(t)
	ctx := context.Background()
	issue(t, s, "u1", license.PlanBasic)
	w := newSite(t, s, "u1", "example.com")
	c := generate(t, s, w.ID)

	for _, bad := range [][2]float64{{101, 80}, {math.NaN(), 80}, {5, math.NaN()}, {math.Inf(-1), 80}} {
		if _, err := s.ApplyQualityScores(ctx, c.ID, bad[0], bad[1]); !scribe.IsValidation(err) {
			t.Errorf("scores %v: err = %v", bad, err)
		}
	}
	if _, err := s.ApplyQualityScores(ctx, c.ID, 1, 90); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ApplyQualityScores(ctx, c.ID, 1, 90); !scribe.IsInvalidState(err) {
		t.Errorf("re-score: err = %v", err)
	}
	if _, err := s.Publish(ctx, c.ID); err != nil {
		t.Fatal(err)
	}

	var state *scribe.InvalidStateError
	if _, err := s.Publish(ctx, c.ID); !errors.As(err, &state) || state.Status != content.StatusPublished {
		t.Errorf("publish twice: err = %v", err)
	}
	if _, err := s.MarkFailed(ctx, c.ID, "late"); !scribe.IsInvalidState(err) {
		t.Errorf("fail published: err = %v", err)
	}

	other := generate(t, s, w.ID)
	failed, err := s.MarkFailed(ctx, other.ID, "abandoned")
	if err != nil || failed.Status != content.StatusFailed || failed.FailedAt == nil {
		t.Fatalf("MarkFailed = %+v, %v", failed, err)
	}
	if _, err := s.Publish(ctx, other.ID); !scribe.IsInvalidState(err) {
		t.Errorf("publish failed: err = %v", err)
	}
	if _, err := s.GetContent(ctx, id.NewContentID()); !errors.Is(err, scribe.ErrContentNotFound) {
		t.Errorf("missing content: err = %v", err)
	}
}

func TestScoreContent(t *testing.T) {
	body := "The cat sat on the mat. It was warm. The sun was out."
	s, _ := newTestScribe(t,
		scribe.WithGenerator(stubGenerator(body)),
		scribe.WithQualityScorer(generation.NewLocalScorer(map[string]string{"nursery": body})),
	)
	ctx := context.Background()
	issue(t, s, "u1", license.PlanBasic)
	w := newSite(t, s, "u1", "example.com")
	c := generate(t, s, w.ID)

	c, err := s.ScoreContent(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if c.PlagiarismScore == nil || *c.PlagiarismScore != 100 {
		t.Errorf("plagiarism = %v", c.PlagiarismScore)
	}
	if c.Metadata[scribe.MetaPlagiarismMatches] != "nursery" {
		t.Errorf("metadata = %v", c.Metadata)
	}

	_, err = s.Publish(ctx, c.ID)
	var gate *scribe.QualityGateError
	if !errors.As(err, &gate) || !gate.Failed(content.MetricPlagiarism) {
		t.Errorf("Publish: err = %v", err)
	}

	noScorer, _ := newTestScribe(t)
	if _, err := noScorer.ScoreContent(ctx, c.ID); !errors.Is(err, scribe.ErrNoScorer) {
		t.Errorf("no scorer: err = %v", err)
	}
}

type fixedScorer struct {
	plagiarism, readability float64
}

func (f fixedScorer) Plagiarism(context.Context, string) (float64, []string, error) {
	return f.plagiarism, nil, nil
}

func (f fixedScorer) Readability(context.Context, string) (float64, []string, error) {
	return f.readability, nil, nil
}

func TestScoreContentRejectsNonFiniteScores(t *testing.T) {
	tests := []struct {
		name   string
		scorer fixedScorer
	}{
		{"nan", fixedScorer{math.NaN(), math.NaN()}},
		{"nan readability", fixedScorer{1, math.NaN()}},
		{"infinite plagiarism", fixedScorer{math.Inf(-1), 90}},
		{"out of range", fixedScorer{1, 140}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestScribe(t, scribe.WithQualityScorer(tt.scorer))
			ctx := context.Background()
			issue(t, s, "u1", license.PlanBasic)
			w := newSite(t, s, "u1", "example.com")
			c := generate(t, s, w.ID)

			if _, err := s.ScoreContent(ctx, c.ID); !scribe.IsValidation(err) {
				t.Fatalf("ScoreContent: err = %v, want validation error", err)
			}
			stored, _ := s.GetContent(ctx, c.ID)
			if stored.QualityCheckedAt != nil || stored.PlagiarismScore != nil {
				t.Errorf("scores were stored: %+v", stored)
			}
			if _, err := s.Publish(ctx, c.ID); !scribe.IsQualityGate(err) {
				t.Errorf("Publish: err = %v, want quality gate error", err)
			}
		})
	}
}

func TestNonFiniteThresholdSettingKeepsDefault(t *testing.T) {
	s, _ := newTestScribe(t)
	ctx := context.Background()
	issue(t, s, "u1", license.PlanBasic)
	w := newSite(t, s, "u1", "example.com")
	c := generate(t, s, w.ID)

	if err := s.Settings().Set(ctx, "default_plagiarism_threshold", "NaN"); err != nil {
		t.Fatal(err)
	}
	th, err := s.Thresholds(ctx)
	if err != nil || th != content.DefaultThresholds() {
		t.Fatalf("Thresholds = %+v, %v", th, err)
	}

	c, _ = s.ApplyQualityScores(ctx, c.ID, 99, 90)
	if _, err := s.Publish(ctx, c.ID); !scribe.IsQualityGate(err) {
		t.Errorf("Publish: err = %v, want quality gate error", err)
	}
}

func TestGenerateUsesDraftWordCount(t *testing.T) {
	gen := generation.GeneratorFunc(func(context.Context, generation.Request) (*generation.Draft, error) {
		return &generation.Draft{Body: "three short words", WordCount: 1200}, nil
	})
	s, _ := newTestScribe(t, scribe.WithGenerator(gen))
	issue(t, s, "u1", license.PlanBasic)
	w := newSite(t, s, "u1", "example.com")

	c := generate(t, s, w.ID)
	if c.WordCount == nil || *c.WordCount != 1200 {
		t.Errorf("word count = %v, want 1200", c.WordCount)
	}
}
