package content

import (
	"slices"
	"strings"
	"time"

	"github.com/xraph/scribe/id"
	"github.com/xraph/scribe/types"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusGenerated Status = "generated"
	StatusPublished Status = "published"
	StatusFailed    Status = "failed"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusGenerated, StatusFailed},
	StatusGenerated: {StatusPublished, StatusFailed},
}

// CanTransition reports whether from may move to to. Published and failed
// are terminal.
func CanTransition(from, to Status) bool {
	return slices.Contains(transitions[from], to)
}

// Content is an AI-drafted article attached to a website.
//
// Each timestamp is set once, by the transition that produces it.
// PublishedAt is only ever set together with StatusPublished.
type Content struct {
	types.Entity
	ID               id.ContentID      `json:"id"`
	WebsiteID        id.WebsiteID      `json:"website_id"`
	Title            string            `json:"title"`
	Topic            string            `json:"topic"`
	Body             *string           `json:"body,omitempty"`
	TargetKeywords   []string          `json:"target_keywords"`
	MinWords         int               `json:"min_words"`
	WordCount        *int              `json:"word_count,omitempty"`
	Tone             string            `json:"tone,omitempty"`
	Audience         string            `json:"audience,omitempty"`
	Status           Status            `json:"status"`
	PlagiarismScore  *float64          `json:"plagiarism_score,omitempty"`
	ReadabilityScore *float64          `json:"readability_score,omitempty"`
	GeneratedAt      *time.Time        `json:"generated_at,omitempty"`
	QualityCheckedAt *time.Time        `json:"quality_checked_at,omitempty"`
	PublishedAt      *time.Time        `json:"published_at,omitempty"`
	FailedAt         *time.Time        `json:"failed_at,omitempty"`
	FailureReason    string            `json:"failure_reason,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// Clone returns a deep copy of c.
func (c *Content) Clone() *Content {
	out := *c
	out.TargetKeywords = slices.Clone(c.TargetKeywords)
	out.Body = clonePtr(c.Body)
	out.WordCount = clonePtr(c.WordCount)
	out.PlagiarismScore = clonePtr(c.PlagiarismScore)
	out.ReadabilityScore = clonePtr(c.ReadabilityScore)
	out.GeneratedAt = clonePtr(c.GeneratedAt)
	out.QualityCheckedAt = clonePtr(c.QualityCheckedAt)
	out.PublishedAt = clonePtr(c.PublishedAt)
	out.FailedAt = clonePtr(c.FailedAt)
	if c.Metadata != nil {
		out.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// CountWords counts whitespace-separated words.
func CountWords(s string) int {
	return len(strings.Fields(s))
}
