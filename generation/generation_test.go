package generation

import (
	"context"
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(Request{
		Topic:     "home espresso",
		Keywords:  []string{"grinder", "crema"},
		WordCount: 500,
		MinWords:  1000,
		Tone:      "friendly",
		Audience:  "beginners",
	})
	for _, want := range []string{`"home espresso"`, "grinder, crema", "about 1000 words", "Tone: friendly", "Audience: beginners"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestParseDraft(t *testing.T) {
	tests := []struct {
		in, title, body string
	}{
		{"# Brewing Basics\n\nGrind fresh.", "Brewing Basics", "Grind fresh."},
		{"Title: Brewing Basics\nGrind fresh.", "Brewing Basics", "Grind fresh."},
		{"\n\n## Only a title", "Only a title", ""},
	}
	for _, tt := range tests {
		title, body := ParseDraft(tt.in)
		if title != tt.title || body != tt.body {
			t.Errorf("ParseDraft(%q) = %q, %q", tt.in, title, body)
		}
	}
}

func TestLocalScorerReadability(t *testing.T) {
	s := NewLocalScorer(nil)
	ctx := context.Background()

	easy, _, _ := s.Readability(ctx, "The cat sat on the mat. It was warm. The sun was out.")
	hard, suggestions, _ := s.Readability(ctx,
		"Notwithstanding considerable organizational heterogeneity, institutional administrators systematically operationalize multidimensional evaluative methodologies throughout interdepartmental communication infrastructures, consequently necessitating comprehensive documentation.")

	if easy < 70 {
		t.Errorf("easy text scored %v, want >= 70", easy)
	}
	if hard >= easy {
		t.Errorf("hard text scored %v, not below easy %v", hard, easy)
	}
	if len(suggestions) == 0 {
		t.Error("expected suggestions for dense text")
	}
	if empty, _, _ := s.Readability(ctx, ""); empty != 0 {
		t.Errorf("empty text scored %v", empty)
	}
}

func TestLocalScorerPlagiarism(t *testing.T) {
	ref := "the quick brown fox jumps over the lazy dog and runs into the forest"
	s := NewLocalScorer(map[string]string{"fable": ref, "other": "nothing in common here at all really"})
	ctx := context.Background()

	score, matches, err := s.Plagiarism(ctx, ref)
	if err != nil {
		t.Fatal(err)
	}
	if score != 100 || len(matches) != 1 || matches[0] != "fable" {
		t.Errorf("copy scored %v matches %v", score, matches)
	}

	score, matches, _ = s.Plagiarism(ctx, "an entirely original sentence about espresso machines and grinders")
	if score != 0 || len(matches) != 0 {
		t.Errorf("original scored %v matches %v", score, matches)
	}
}
