// Package settings provides the admin-tunable key/value settings scribe reads
// at decision time, with a cache in front of the store.
package settings

import (
	"context"
	"errors"
	"time"
)

// Keys read by the engine.
const (
	KeyPlagiarismThreshold  = "default_plagiarism_threshold"
	KeyReadabilityThreshold = "default_readability_threshold"
	KeyMinWords             = "default_min_words"
)

// Defaults are used when a key has never been set.
var Defaults = map[string]string{
	KeyPlagiarismThreshold:  "10",
	KeyReadabilityThreshold: "70",
	KeyMinWords:             "1000",
}

// PlanKey returns the settings key that overrides one plan limit, for
// example PlanKey("pro", "max_websites") is "plan_pro_max_websites".
func PlanKey(plan, limit string) string {
	return "plan_" + plan + "_" + limit
}

// ErrNotFound is returned by a Store for a key that was never set.
var ErrNotFound = errors.New("settings: not found")

// Setting is one persisted key/value pair.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Store interface {
	GetSetting(ctx context.Context, key string) (*Setting, error)
	PutSetting(ctx context.Context, s *Setting) error
	ListSettings(ctx context.Context) ([]*Setting, error)
}
