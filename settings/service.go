package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/xraph/scribe/cache"
)

// Cached entries carry a one-byte tag so that "never set" can be cached too.
const (
	cachedValue   = "v"
	cachedMissing = "-"
	keyPrefix     = "settings:"
)

// Service reads settings through a cache. Concurrent misses for the same key
// share one store read. Set and Invalidate drop the cached entry so the next
// read reloads it.
type Service struct {
	store  Store
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
	group  singleflight.Group
}

// NewService creates a Service. ttl bounds how stale a cached value can be.
func NewService(store Store, c cache.Cache, ttl time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		cache:  c,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Lookup returns the stored value of key and whether it was ever set.
func (s *Service) Lookup(ctx context.Context, key string) (string, bool, error) {
	if raw, err := s.cache.Get(ctx, keyPrefix+key); err == nil {
		if v, ok := decode(raw); ok || raw == cachedMissing {
			return v, ok, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("settings: cache read failed", "key", key, "error", err)
	}

	res, err, _ := s.group.Do(key, func() (any, error) {
		setting, err := s.store.GetSetting(ctx, key)
		switch {
		case errors.Is(err, ErrNotFound):
			s.fill(ctx, key, cachedMissing)
			return nil, nil
		case err != nil:
			return nil, err
		}
		s.fill(ctx, key, cachedValue+setting.Value)
		return setting.Value, nil
	})
	if err != nil {
		return "", false, fmt.Errorf("settings: load %s: %w", key, err)
	}
	if res == nil {
		return "", false, nil
	}
	return res.(string), true, nil
}

// String returns key's value, else the built-in default, else def.
func (s *Service) String(ctx context.Context, key, def string) (string, error) {
	v, ok, err := s.Lookup(ctx, key)
	if err != nil {
		return "", err
	}
	if ok {
		return v, nil
	}
	if d, ok := Defaults[key]; ok {
		return d, nil
	}
	return def, nil
}

// Float returns key as a float. A stored value that does not parse falls back
// to the default and is logged.
func (s *Service) Float(ctx context.Context, key string, def float64) (float64, error) {
	raw, err := s.String(ctx, key, "")
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		s.logger.Warn("settings: value is not a finite number", "key", key, "value", raw)
		return def, nil
	}
	return v, nil
}

// Int returns key as an int, with the same fallback rules as Float.
func (s *Service) Int(ctx context.Context, key string, def int) (int, error) {
	raw, err := s.String(ctx, key, "")
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		s.logger.Warn("settings: value is not an integer", "key", key, "value", raw)
		return def, nil
	}
	return v, nil
}

// Set persists value and invalidates the cached entry.
func (s *Service) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("settings: empty key")
	}
	if err := s.store.PutSetting(ctx, &Setting{Key: key, Value: value, UpdatedAt: s.now().UTC()}); err != nil {
		return fmt.Errorf("settings: put %s: %w", key, err)
	}
	return s.Invalidate(ctx, key)
}

// Invalidate drops the cached entry for key.
func (s *Service) Invalidate(ctx context.Context, key string) error {
	s.group.Forget(key)
	return s.cache.Delete(ctx, keyPrefix+key)
}

// All returns every stored setting merged over the built-in defaults.
func (s *Service) All(ctx context.Context) (map[string]string, error) {
	stored, err := s.store.ListSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("settings: list: %w", err)
	}
	out := make(map[string]string, len(Defaults)+len(stored))
	for k, v := range Defaults {
		out[k] = v
	}
	for _, st := range stored {
		out[st.Key] = st.Value
	}
	return out, nil
}

func (s *Service) fill(ctx context.Context, key, raw string) {
	if err := s.cache.Set(ctx, keyPrefix+key, raw, s.ttl); err != nil {
		s.logger.Warn("settings: cache write failed", "key", key, "error", err)
	}
}

func decode(raw string) (string, bool) {
	if strings.HasPrefix(raw, cachedValue) {
		return raw[len(cachedValue):], true
	}
	return "", false
}
