// Package redis provides a lock.Locker that coordinates across processes
// through Redis SET NX with a TTL.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/scribe/lock"
)

var _ lock.Locker = (*Locker)(nil)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker acquires keys as "prefix+key" with a random token.
type Locker struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
	logger *slog.Logger
}

// Option configures a Locker.
type Option func(*Locker)

// WithTTL sets how long a held lock survives a crashed holder (default 10s).
func WithTTL(ttl time.Duration) Option {
	return func(l *Locker) { l.ttl = ttl }
}

// WithRetryInterval sets the poll interval while waiting (default 25ms).
func WithRetryInterval(d time.Duration) Option {
	return func(l *Locker) { l.retry = d }
}

// WithLogger sets the logger used for release failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locker) { l.logger = logger }
}

// New creates a Redis-backed Locker.
func New(client *goredis.Client, prefix string, opts ...Option) *Locker {
	l := &Locker{
		client: client,
		prefix: prefix,
		ttl:    10 * time.Second,
		retry:  25 * time.Millisecond,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	full := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, full, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("scribe/redis: acquire %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func() {
		// Release must run even if the caller's ctx is already cancelled.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.ttl)
		defer cancel()
		if err := releaseScript.Run(rctx, l.client, []string{full}, token).Err(); err != nil {
			l.logger.Warn("scribe/redis: release lock failed",
				"key", key,
				"error", err,
			)
		}
	}, nil
}
