// Package generation defines the collaborators the content lifecycle calls
// out to: a Generator that drafts articles and a QualityScorer that rates them.
package generation

import (
	"context"
	"fmt"
	"strings"
)

// Request describes the article to draft.
type Request struct {
	Topic     string
	Keywords  []string
	WordCount int
	MinWords  int
	Tone      string
	Audience  string
}

// Draft is a generated article.
type Draft struct {
	Title string
	Body  string
	Model string
	// WordCount is the generator's own count. Zero means unknown.
	WordCount int
}

// Generator drafts content. Implementations must honour ctx cancellation.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Draft, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (*Draft, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (*Draft, error) {
	return f(ctx, req)
}

// QualityScorer rates a body of text on the 0-100 scales the quality gate
// uses. A high plagiarism score is bad; a high readability score is good.
type QualityScorer interface {
	Plagiarism(ctx context.Context, text string) (score float64, matches []string, err error)
	Readability(ctx context.Context, text string) (score float64, suggestions []string, err error)
}

// BuildPrompt renders the instruction sent to a language model.
func BuildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write an SEO-optimized blog article about %q.\n", req.Topic)
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&b, "Target keywords: %s.\n", strings.Join(req.Keywords, ", "))
	}
	words := max(req.WordCount, req.MinWords)
	if words > 0 {
		fmt.Fprintf(&b, "Length: about %d words.\n", words)
	}
	if req.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s.\n", req.Tone)
	}
	if req.Audience != "" {
		fmt.Fprintf(&b, "Audience: %s.\n", req.Audience)
	}
	b.WriteString("Start with the title on the first line prefixed by \"# \", then the article body in Markdown.")
	return b.String()
}

// ParseDraft splits model output into a title and body. The first
// non-empty line is the title, with any leading '#' markers removed.
func ParseDraft(text string) (title, body string) {
	text = strings.TrimSpace(text)
	first, rest, _ := strings.Cut(text, "\n")
	title = strings.TrimSpace(strings.TrimLeft(first, "# "))
	title = strings.TrimPrefix(title, "Title:")
	return strings.TrimSpace(title), strings.TrimSpace(rest)
}
