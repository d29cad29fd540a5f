package content

import (
	"fmt"
	"math"
)

// Metric names a quality score.
type Metric string

const (
	MetricPlagiarism  Metric = "plagiarism"
	MetricReadability Metric = "readability"
)

// Thresholds bound the scores content must meet to publish.
// Plagiarism must not exceed MaxPlagiarism; readability must reach MinReadability.
type Thresholds struct {
	MaxPlagiarism  float64 `json:"max_plagiarism"  yaml:"max_plagiarism"`
	MinReadability float64 `json:"min_readability" yaml:"min_readability"`
}

// DefaultThresholds returns the stock gate: plagiarism <= 10, readability >= 70.
func DefaultThresholds() Thresholds {
	return Thresholds{MaxPlagiarism: 10, MinReadability: 70}
}

// QualityFailure describes one metric that failed the gate. Value is nil when
// the score was never recorded.
type QualityFailure struct {
	Metric    Metric   `json:"metric"`
	Value     *float64 `json:"value,omitempty"`
	Threshold float64  `json:"threshold"`
}

func (f QualityFailure) String() string {
	if f.Value == nil {
		return fmt.Sprintf("%s score missing (threshold %g)", f.Metric, f.Threshold)
	}
	switch f.Metric {
	case MetricPlagiarism:
		return fmt.Sprintf("plagiarism %g exceeds %g", *f.Value, f.Threshold)
	default:
		return fmt.Sprintf("%s %g below %g", f.Metric, *f.Value, f.Threshold)
	}
}

// Evaluate returns every metric of c that fails t, in a fixed order
// (plagiarism, then readability). An empty result means c passes.
func Evaluate(c *Content, t Thresholds) []QualityFailure {
	var failures []QualityFailure

	// Comparisons are negated so a NaN score or threshold fails.
	if c.PlagiarismScore == nil || !(*c.PlagiarismScore <= t.MaxPlagiarism) {
		failures = append(failures, QualityFailure{
			Metric:    MetricPlagiarism,
			Value:     clonePtr(c.PlagiarismScore),
			Threshold: t.MaxPlagiarism,
		})
	}
	if c.ReadabilityScore == nil || !(*c.ReadabilityScore >= t.MinReadability) {
		failures = append(failures, QualityFailure{
			Metric:    MetricReadability,
			Value:     clonePtr(c.ReadabilityScore),
			Threshold: t.MinReadability,
		})
	}

	return failures
}

// Passes reports whether c clears t.
func Passes(c *Content, t Thresholds) bool {
	return len(Evaluate(c, t)) == 0
}

// ValidScore reports whether v is a usable 0-100 score. NaN and infinities
// are never valid.
func ValidScore(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= 0 && v <= 100
}
