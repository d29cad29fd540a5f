package settings_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/scribe/cache/memory"
	"github.com/xraph/scribe/settings"
)

type countingStore struct {
	mu    sync.Mutex
	data  map[string]string
	reads atomic.Int64
	delay time.Duration
	fail  error
}

func newCountingStore() *countingStore {
	return &countingStore{data: make(map[string]string)}
}

func (s *countingStore) GetSetting(_ context.Context, key string) (*settings.Setting, error) {
	s.reads.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.fail != nil {
		return nil, s.fail
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, settings.ErrNotFound
	}
	return &settings.Setting{Key: key, Value: v}, nil
}

func (s *countingStore) PutSetting(_ context.Context, st *settings.Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[st.Key] = st.Value
	return nil
}

func (s *countingStore) ListSettings(_ context.Context) ([]*settings.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*settings.Setting, 0, len(s.data))
	for k, v := range s.data {
		out = append(out, &settings.Setting{Key: k, Value: v})
	}
	return out, nil
}

func TestDefaults(t *testing.T) {
	ctx := context.Background()
	svc := settings.NewService(newCountingStore(), memory.New(), time.Minute, nil)

	plag, err := svc.Float(ctx, settings.KeyPlagiarismThreshold, -1)
	if err != nil || plag != 10 {
		t.Errorf("plagiarism default = %v, %v", plag, err)
	}
	read, _ := svc.Float(ctx, settings.KeyReadabilityThreshold, -1)
	if read != 70 {
		t.Errorf("readability default = %v", read)
	}
	words, _ := svc.Int(ctx, settings.KeyMinWords, -1)
	if words != 1000 {
		t.Errorf("min words default = %v", words)
	}
	other, _ := svc.Int(ctx, "unknown_key", 42)
	if other != 42 {
		t.Errorf("caller default = %v", other)
	}
}

func TestCachedReadsAndInvalidate(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	store.data[settings.KeyPlagiarismThreshold] = "12"
	svc := settings.NewService(store, memory.New(), time.Hour, nil)

	for range 5 {
		v, err := svc.Float(ctx, settings.KeyPlagiarismThreshold, 0)
		if err != nil || v != 12 {
			t.Fatalf("Float = %v, %v", v, err)
		}
	}
	if n := store.reads.Load(); n != 1 {
		t.Errorf("store reads = %d, want 1", n)
	}

	// A write behind the cache is not seen until invalidated.
	store.data[settings.KeyPlagiarismThreshold] = "20"
	if v, _ := svc.Float(ctx, settings.KeyPlagiarismThreshold, 0); v != 12 {
		t.Errorf("expected cached 12, got %v", v)
	}
	if err := svc.Invalidate(ctx, settings.KeyPlagiarismThreshold); err != nil {
		t.Fatal(err)
	}
	if v, _ := svc.Float(ctx, settings.KeyPlagiarismThreshold, 0); v != 20 {
		t.Errorf("expected 20 after invalidate, got %v", v)
	}
}

func TestSetInvalidates(t *testing.T) {
	ctx := context.Background()
	svc := settings.NewService(newCountingStore(), memory.New(), time.Hour, nil)

	if v, _ := svc.Int(ctx, settings.KeyMinWords, 0); v != 1000 {
		t.Fatalf("default = %v", v)
	}
	if err := svc.Set(ctx, settings.KeyMinWords, "1500"); err != nil {
		t.Fatal(err)
	}
	if v, _ := svc.Int(ctx, settings.KeyMinWords, 0); v != 1500 {
		t.Errorf("after Set = %v", v)
	}

	all, err := svc.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if all[settings.KeyMinWords] != "1500" || all[settings.KeyReadabilityThreshold] != "70" {
		t.Errorf("All = %v", all)
	}
}

func TestMissingKeyIsCached(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	svc := settings.NewService(store, memory.New(), time.Hour, nil)

	for range 3 {
		if _, ok, err := svc.Lookup(ctx, "nope"); err != nil || ok {
			t.Fatalf("Lookup = %v, %v", ok, err)
		}
	}
	if n := store.reads.Load(); n != 1 {
		t.Errorf("store reads = %d, want 1", n)
	}
}

func TestTTLExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := newCountingStore()
	store.data["k"] = "1"
	svc := settings.NewService(store, memory.New(memory.WithClock(func() time.Time { return now })), time.Minute, nil)

	_, _ = svc.Int(ctx, "k", 0)
	now = now.Add(2 * time.Minute)
	_, _ = svc.Int(ctx, "k", 0)

	if n := store.reads.Load(); n != 2 {
		t.Errorf("store reads = %d, want 2 after ttl", n)
	}
}

func TestConcurrentMissesShareOneRead(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	store.data["k"] = "7"
	store.delay = 20 * time.Millisecond
	svc := settings.NewService(store, memory.New(), time.Hour, nil)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := svc.Int(ctx, "k", 0); err != nil || v != 7 {
				t.Errorf("Int = %v, %v", v, err)
			}
		}()
	}
	wg.Wait()

	if n := store.reads.Load(); n > 2 {
		t.Errorf("store reads = %d, expected misses to be collapsed", n)
	}
}

func TestStoreErrorPropagates(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	store.fail = errors.New("db down")
	svc := settings.NewService(store, memory.New(), time.Hour, nil)

	if _, err := svc.Float(ctx, settings.KeyPlagiarismThreshold, 0); err == nil {
		t.Fatal("expected error")
	}
}

func TestUnparsableFallsBack(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	store.data["n"] = "abc"
	svc := settings.NewService(store, memory.New(), time.Hour, nil)

	if v, err := svc.Float(ctx, "n", 3.5); err != nil || v != 3.5 {
		t.Errorf("Float = %v, %v", v, err)
	}
}

func TestNumericFallback(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"valid", "12.5", 12.5},
		{"garbage", "ten", 10},
		{"nan", "NaN", 10},
		{"inf", "+Inf", 10},
		{"negative inf", "-Inf", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newCountingStore()
			store.data[settings.KeyPlagiarismThreshold] = tt.raw
			svc := settings.NewService(store, memory.New(), time.Hour, nil)

			v, err := svc.Float(ctx, settings.KeyPlagiarismThreshold, 10)
			if err != nil || v != tt.want {
				t.Errorf("Float(%q) = %v, %v, want %v", tt.raw, v, err, tt.want)
			}
		})
	}
}
