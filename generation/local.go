package generation

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"
)

const shingleSize = 5

// LocalScorer scores text without calling out to a service. Readability is
// the Flesch reading-ease score. Plagiarism is the largest share of the
// text's word 5-grams found in any one reference document.
type LocalScorer struct {
	references map[string]map[string]struct{}
}

// NewLocalScorer indexes the given reference documents by name.
func NewLocalScorer(references map[string]string) *LocalScorer {
	s := &LocalScorer{references: make(map[string]map[string]struct{}, len(references))}
	for name, text := range references {
		s.references[name] = shingles(words(text))
	}
	return s
}

var _ QualityScorer = (*LocalScorer)(nil)

func (s *LocalScorer) Plagiarism(_ context.Context, text string) (float64, []string, error) {
	own := shingles(words(text))
	if len(own) == 0 {
		return 0, nil, nil
	}

	var best float64
	var matches []string
	for name, ref := range s.references {
		shared := 0
		for sh := range own {
			if _, ok := ref[sh]; ok {
				shared++
			}
		}
		if shared == 0 {
			continue
		}
		matches = append(matches, name)
		best = max(best, float64(shared)/float64(len(own))*100)
	}
	slices.Sort(matches)
	return best, matches, nil
}

func (s *LocalScorer) Readability(_ context.Context, text string) (float64, []string, error) {
	ws := words(text)
	if len(ws) == 0 {
		return 0, []string{"text is empty"}, nil
	}
	sentences := sentenceCount(text)
	syllables := 0
	for _, w := range ws {
		syllables += syllableCount(w)
	}

	wordsPerSentence := float64(len(ws)) / float64(sentences)
	score := 206.835 - 1.015*wordsPerSentence - 84.6*(float64(syllables)/float64(len(ws)))
	score = min(max(score, 0), 100)

	var suggestions []string
	if wordsPerSentence > 25 {
		suggestions = append(suggestions, fmt.Sprintf("average sentence has %.0f words; aim for under 20", wordsPerSentence))
	}
	if float64(syllables)/float64(len(ws)) > 1.7 {
		suggestions = append(suggestions, "prefer shorter words")
	}
	return score, suggestions, nil
}

func words(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	return fields
}

func shingles(ws []string) map[string]struct{} {
	out := make(map[string]struct{})
	for i := 0; i+shingleSize <= len(ws); i++ {
		out[strings.Join(ws[i:i+shingleSize], " ")] = struct{}{}
	}
	return out
}

func sentenceCount(text string) int {
	n := 0
	inSentence := false
	for _, r := range text {
		switch {
		case r == '.' || r == '!' || r == '?':
			if inSentence {
				n++
			}
			inSentence = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			inSentence = true
		}
	}
	if inSentence {
		n++
	}
	return max(n, 1)
}

// syllableCount approximates English syllables by counting vowel groups.
func syllableCount(word string) int {
	n := 0
	prevVowel := false
	for _, r := range word {
		v := strings.ContainsRune("aeiouy", r)
		if v && !prevVowel {
			n++
		}
		prevVowel = v
	}
	if strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") && n > 1 {
		n--
	}
	return max(n, 1)
}
