package scribe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/scribe/content"
	"github.com/xraph/scribe/generation"
	"github.com/xraph/scribe/id"
	"github.com/xraph/scribe/settings"
	"github.com/xraph/scribe/types"
)

const (
	defaultWordCount = 500
	defaultTone      = "professional"
)

// Metadata keys written by the content lifecycle.
const (
	MetaModel             = "model"
	MetaPlagiarismMatches = "plagiarism_matches"
	MetaReadabilityHints  = "readability_suggestions"
)

// GenerateInput describes an article to draft for a website.
type GenerateInput struct {
	WebsiteID id.WebsiteID
	Topic     string
	Keywords  []string
	WordCount int // defaults to 500
	Tone      string
	Audience  string
	Metadata  map[string]string
}

// Generate drafts an article for the website. The owner's monthly quota is
// checked first. The content row is stored as pending, then as generated
// once the generator returns; a generator error leaves it failed and
// returns ErrGenerationFailed.
func (e *Scribe) Generate(ctx context.Context, in GenerateInput) (*content.Content, error) {
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return nil, ValidationError{Field: "topic", Message: "is required"}
	}
	keywords := make([]string, 0, len(in.Keywords))
	for _, k := range in.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	if len(keywords) == 0 {
		return nil, ValidationError{Field: "keywords", Message: "at least one keyword is required"}
	}
	if in.WordCount < 0 {
		return nil, ValidationError{Field: "word_count", Message: "must not be negative"}
	}
	if in.WordCount == 0 {
		in.WordCount = defaultWordCount
	}
	if in.Tone == "" {
		in.Tone = defaultTone
	}
	if e.generator == nil {
		return nil, ErrNoGenerator
	}

	if err := e.CanGenerateContent(ctx, in.WebsiteID); err != nil {
		return nil, err
	}

	minWords, err := e.settings.Int(ctx, settings.KeyMinWords, 1000)
	if err != nil {
		return nil, err
	}

	c := &content.Content{
		Entity:         types.NewEntityAt(e.now()),
		ID:             id.NewContentID(),
		WebsiteID:      in.WebsiteID,
		Title:          topic,
		Topic:          topic,
		TargetKeywords: keywords,
		MinWords:       minWords,
		Tone:           in.Tone,
		Audience:       in.Audience,
		Status:         content.StatusPending,
		Metadata:       in.Metadata,
	}
	if err := e.store.CreateContent(ctx, c); err != nil {
		return nil, err
	}

	draft, err := e.generator.Generate(ctx, generation.Request{
		Topic:     topic,
		Keywords:  keywords,
		WordCount: in.WordCount,
		MinWords:  minWords,
		Tone:      in.Tone,
		Audience:  in.Audience,
	})
	if err == nil && (draft == nil || strings.TrimSpace(draft.Body) == "") {
		err = errors.New("empty draft")
	}
	if err != nil {
		if _, ferr := e.fail(ctx, c, err.Error()); ferr != nil {
			e.logger.Error("failed to record generation failure",
				"content_id", c.ID.String(),
				"error", ferr,
			)
		}
		return nil, fmt.Errorf("%w: content %s: %w", ErrGenerationFailed, c.ID, err)
	}

	now := e.now().UTC()
	body := draft.Body
	words := draft.WordCount
	if words <= 0 {
		words = content.CountWords(body)
	}
	if draft.Title != "" {
		c.Title = draft.Title
	}
	c.Body = &body
	c.WordCount = &words
	c.Status = content.StatusGenerated
	c.GeneratedAt = &now
	if draft.Model != "" {
		if c.Metadata == nil {
			c.Metadata = make(map[string]string)
		}
		c.Metadata[MetaModel] = draft.Model
	}
	c.Touch(now)

	if err := e.store.UpdateContent(ctx, c); err != nil {
		return nil, err
	}

	e.logger.Info("content generated",
		"content_id", c.ID.String(),
		"website_id", c.WebsiteID.String(),
		"word_count", words,
	)
	e.plugins.EmitContentGenerated(ctx, c)
	return c, nil
}

// ApplyQualityScores records the plagiarism and readability scores of
// generated content. Scores are 0-100 and can be applied once. The status is
// left unchanged: only Publish acts on the scores.
func (e *Scribe) ApplyQualityScores(ctx context.Context, contentID id.ContentID, plagiarism, readability float64) (*content.Content, error) {
	if !content.ValidScore(plagiarism) {
		return nil, ValidationError{Field: "plagiarism_score", Message: "must be between 0 and 100"}
	}
	if !content.ValidScore(readability) {
		return nil, ValidationError{Field: "readability_score", Message: "must be between 0 and 100"}
	}

	c, err := e.store.GetContent(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if err := scorable(c); err != nil {
		return nil, err
	}
	return e.applyScores(ctx, c, plagiarism, readability)
}

// ScoreContent rates the body of generated content with the configured
// QualityScorer and applies the scores. Matched sources and readability
// suggestions are kept in the content metadata.
func (e *Scribe) ScoreContent(ctx context.Context, contentID id.ContentID) (*content.Content, error) {
	if e.scorer == nil {
		return nil, ErrNoScorer
	}

	c, err := e.store.GetContent(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if err := scorable(c); err != nil {
		return nil, err
	}

	var body string
	if c.Body != nil {
		body = *c.Body
	}

	plagiarism, matches, err := e.scorer.Plagiarism(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("scribe: plagiarism check: %w", err)
	}
	readability, suggestions, err := e.scorer.Readability(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("scribe: readability check: %w", err)
	}

	if len(matches) > 0 || len(suggestions) > 0 {
		if c.Metadata == nil {
			c.Metadata = make(map[string]string)
		}
		if len(matches) > 0 {
			c.Metadata[MetaPlagiarismMatches] = strings.Join(matches, ",")
		}
		if len(suggestions) > 0 {
			c.Metadata[MetaReadabilityHints] = strings.Join(suggestions, "\n")
		}
	}

	if !content.ValidScore(plagiarism) {
		return nil, ValidationError{Field: "plagiarism_score", Message: fmt.Sprintf("scorer returned %g", plagiarism)}
	}
	if !content.ValidScore(readability) {
		return nil, ValidationError{Field: "readability_score", Message: fmt.Sprintf("scorer returned %g", readability)}
	}

	return e.applyScores(ctx, c, plagiarism, readability)
}

func scorable(c *content.Content) error {
	if c.Status != content.StatusGenerated {
		return &InvalidStateError{Op: "score", Status: c.Status}
	}
	if c.QualityCheckedAt != nil {
		return &InvalidStateError{Op: "re-score", Status: c.Status}
	}
	return nil
}

func (e *Scribe) applyScores(ctx context.Context, c *content.Content, plagiarism, readability float64) (*content.Content, error) {
	now := e.now().UTC()
	c.PlagiarismScore = &plagiarism
	c.ReadabilityScore = &readability
	c.QualityCheckedAt = &now
	c.Touch(now)

	if err := e.store.UpdateContent(ctx, c); err != nil {
		return nil, err
	}

	e.logger.Debug("content quality checked",
		"content_id", c.ID.String(),
		"plagiarism", plagiarism,
		"readability", readability,
	)
	e.plugins.EmitContentQualityChecked(ctx, c)
	return c, nil
}

// Thresholds returns the current quality gate.
func (e *Scribe) Thresholds(ctx context.Context) (content.Thresholds, error) {
	def := content.DefaultThresholds()

	plagiarism, err := e.settings.Float(ctx, settings.KeyPlagiarismThreshold, def.MaxPlagiarism)
	if err != nil {
		return content.Thresholds{}, err
	}
	readability, err := e.settings.Float(ctx, settings.KeyReadabilityThreshold, def.MinReadability)
	if err != nil {
		return content.Thresholds{}, err
	}
	return content.Thresholds{MaxPlagiarism: plagiarism, MinReadability: readability}, nil
}

// HasPassedQualityChecks reports whether c has both scores within the
// current thresholds.
func (e *Scribe) HasPassedQualityChecks(ctx context.Context, c *content.Content) (bool, error) {
	t, err := e.Thresholds(ctx)
	if err != nil {
		return false, err
	}
	return content.Passes(c, t), nil
}

// Publish moves generated content that passes the quality gate to
// published. Content that fails gets a *QualityGateError naming every
// failing metric and keeps its status.
func (e *Scribe) Publish(ctx context.Context, contentID id.ContentID) (*content.Content, error) {
	c, err := e.store.GetContent(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if c.Status != content.StatusGenerated {
		return nil, &InvalidStateError{Op: "publish", Status: c.Status}
	}

	t, err := e.Thresholds(ctx)
	if err != nil {
		return nil, err
	}
	if failures := content.Evaluate(c, t); len(failures) > 0 {
		gerr := &QualityGateError{ContentID: c.ID.String(), Failures: failures}
		e.logger.Info("content rejected by quality gate",
			"content_id", c.ID.String(),
			"reason", gerr.Error(),
		)
		e.plugins.EmitQualityGateRejected(ctx, c, failures)
		return nil, gerr
	}

	now := e.now().UTC()
	c.Status = content.StatusPublished
	c.PublishedAt = &now
	c.Touch(now)
	if err := e.store.UpdateContent(ctx, c); err != nil {
		return nil, err
	}

	e.logger.Info("content published", "content_id", c.ID.String())
	e.plugins.EmitContentPublished(ctx, c)
	return c, nil
}

// MarkFailed abandons pending or generated content.
func (e *Scribe) MarkFailed(ctx context.Context, contentID id.ContentID, reason string) (*content.Content, error) {
	c, err := e.store.GetContent(ctx, contentID)
	if err != nil {
		return nil, err
	}
	return e.fail(ctx, c, reason)
}

func (e *Scribe) fail(ctx context.Context, c *content.Content, reason string) (*content.Content, error) {
	if !content.CanTransition(c.Status, content.StatusFailed) {
		return nil, &InvalidStateError{Op: "fail", Status: c.Status}
	}

	now := e.now().UTC()
	c.Status = content.StatusFailed
	c.FailedAt = &now
	c.FailureReason = reason
	c.Touch(now)
	if err := e.store.UpdateContent(ctx, c); err != nil {
		return nil, err
	}

	e.logger.Warn("content failed", "content_id", c.ID.String(), "reason", reason)
	e.plugins.EmitContentFailed(ctx, c, reason)
	return c, nil
}

// GetContent retrieves content by ID.
func (e *Scribe) GetContent(ctx context.Context, contentID id.ContentID) (*content.Content, error) {
	return e.store.GetContent(ctx, contentID)
}

// ListContent lists a website's content.
func (e *Scribe) ListContent(ctx context.Context, websiteID id.WebsiteID, opts content.ListOpts) ([]*content.Content, error) {
	return e.store.ListContent(ctx, websiteID, opts)
}
