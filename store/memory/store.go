package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/xraph/scribe"
	"github.com/xraph/scribe/content"
	"github.com/xraph/scribe/id"
	"github.com/xraph/scribe/license"
	"github.com/xraph/scribe/settings"
	"github.com/xraph/scribe/store"
	"github.com/xraph/scribe/tracking"
	"github.com/xraph/scribe/website"
)

var _ store.Store = (*Store)(nil)

// Store keeps everything in maps guarded by one RWMutex. Values are copied
// on the way in and out so callers never share memory with the store.
type Store struct {
	mu sync.RWMutex

	licenses map[string]*license.License
	websites map[string]*website.Website
	contents map[string]*content.Content
	events   []*tracking.Event
	settings map[string]*settings.Setting
}

func New() *Store {
	return &Store{
		licenses: make(map[string]*license.License),
		websites: make(map[string]*website.Website),
		contents: make(map[string]*content.Content),
		events:   make([]*tracking.Event, 0),
		settings: make(map[string]*settings.Setting),
	}
}

// ──────────────────────────────────────────────────
// License Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateLicense(_ context.Context, l *license.License) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.licenses[l.ID.String()]; exists {
		return scribe.ErrAlreadyExists
	}
	for _, other := range s.licenses {
		if other.LicenseKey == l.LicenseKey {
			return scribe.ErrAlreadyExists
		}
	}
	s.licenses[l.ID.String()] = l.Clone()
	return nil
}

func (s *Store) GetLicense(_ context.Context, licID id.LicenseID) (*license.License, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if l, ok := s.licenses[licID.String()]; ok {
		return l.Clone(), nil
	}
	return nil, scribe.ErrLicenseNotFound
}

func (s *Store) GetLicenseByKey(_ context.Context, licenseKey string) (*license.License, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.licenses {
		if l.LicenseKey == licenseKey {
			return l.Clone(), nil
		}
	}
	return nil, scribe.ErrLicenseNotFound
}

func (s *Store) GetActiveLicense(_ context.Context, userID string, now time.Time) (*license.License, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var newest *license.License
	for _, l := range s.licenses {
		if l.UserID != userID || !l.IsActive(now) {
			continue
		}
		if newest == nil || l.CreatedAt.After(newest.CreatedAt) {
			newest = l
		}
	}
	if newest == nil {
		return nil, scribe.ErrNoActiveLicense
	}
	return newest.Clone(), nil
}

func (s *Store) ListLicenses(_ context.Context, userID string, opts license.ListOpts) ([]*license.License, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*license.License, 0)
	for _, l := range s.licenses {
		if l.UserID == userID && (opts.Status == "" || l.Status == opts.Status) {
			result = append(result, l.Clone())
		}
	}
	slices.SortFunc(result, func(a, b *license.License) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID.String(), b.ID.String()))
	})
	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateLicense(_ context.Context, l *license.License) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.licenses[l.ID.String()]
	if !ok {
		return scribe.ErrLicenseNotFound
	}
	next := l.Clone()
	next.RegisteredDomains = cur.RegisteredDomains
	next.Version = cur.Version
	s.licenses[l.ID.String()] = next
	return nil
}

func (s *Store) UpdateLicenseDomains(_ context.Context, licID id.LicenseID, expectedVersion int64, domains []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.licenses[licID.String()]
	if !ok {
		return scribe.ErrLicenseNotFound
	}
	if cur.Version != expectedVersion {
		return scribe.ErrVersionConflict
	}
	cur.RegisteredDomains = slices.Clone(domains)
	cur.Version++
	cur.UpdatedAt = time.Now().UTC()
	return nil
}

// ──────────────────────────────────────────────────
// Website Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateWebsite(_ context.Context, w *website.Website) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.websites[w.ID.String()]; exists {
		return scribe.ErrAlreadyExists
	}
	for _, other := range s.websites {
		if other.UserID == w.UserID && other.Domain == w.Domain {
			return scribe.ErrAlreadyExists
		}
	}
	s.websites[w.ID.String()] = cloneWebsite(w)
	return nil
}

func (s *Store) GetWebsite(_ context.Context, websiteID id.WebsiteID) (*website.Website, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if w, ok := s.websites[websiteID.String()]; ok {
		return cloneWebsite(w), nil
	}
	return nil, scribe.ErrWebsiteNotFound
}

func (s *Store) ListWebsites(_ context.Context, userID string, opts website.ListOpts) ([]*website.Website, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*website.Website, 0)
	for _, w := range s.websites {
		if w.UserID == userID {
			result = append(result, cloneWebsite(w))
		}
	}
	slices.SortFunc(result, func(a, b *website.Website) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID.String(), b.ID.String()))
	})
	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) CountWebsites(_ context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, w := range s.websites {
		if w.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteWebsite(_ context.Context, websiteID id.WebsiteID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.websites[websiteID.String()]; !ok {
		return scribe.ErrWebsiteNotFound
	}
	delete(s.websites, websiteID.String())
	return nil
}

func cloneWebsite(w *website.Website) *website.Website {
	c := *w
	if w.Metadata != nil {
		c.Metadata = make(map[string]string, len(w.Metadata))
		for k, v := range w.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// ──────────────────────────────────────────────────
// Content Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateContent(_ context.Context, c *content.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.contents[c.ID.String()]; exists {
		return scribe.ErrAlreadyExists
	}
	s.contents[c.ID.String()] = c.Clone()
	return nil
}

func (s *Store) GetContent(_ context.Context, contentID id.ContentID) (*content.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.contents[contentID.String()]; ok {
		return c.Clone(), nil
	}
	return nil, scribe.ErrContentNotFound
}

func (s *Store) UpdateContent(_ context.Context, c *content.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contents[c.ID.String()]; !ok {
		return scribe.ErrContentNotFound
	}
	s.contents[c.ID.String()] = c.Clone()
	return nil
}

func (s *Store) ListContent(_ context.Context, websiteID id.WebsiteID, opts content.ListOpts) ([]*content.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*content.Content, 0)
	for _, c := range s.contents {
		if c.WebsiteID == websiteID && (opts.Status == "" || c.Status == opts.Status) {
			result = append(result, c.Clone())
		}
	}
	slices.SortFunc(result, func(a, b *content.Content) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID.String(), b.ID.String()))
	})
	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) CountGeneratedContent(_ context.Context, websiteIDs []id.WebsiteID, start, end time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, c := range s.contents {
		if c.GeneratedAt == nil || !slices.Contains(websiteIDs, c.WebsiteID) {
			continue
		}
		if !c.GeneratedAt.Before(start) && c.GeneratedAt.Before(end) {
			n++
		}
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// Tracking Store implementation
// ──────────────────────────────────────────────────

func (s *Store) AppendEvents(_ context.Context, events []*tracking.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		s.events = append(s.events, cloneEvent(e))
	}
	return nil
}

func (s *Store) AggregateEvents(_ context.Context, ref tracking.TrackableRef) (tracking.Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t tracking.Totals
	for _, e := range s.events {
		if e.Trackable == ref {
			t.Add(e)
		}
	}
	return t, nil
}

func (s *Store) QueryEvents(_ context.Context, ref tracking.TrackableRef, opts tracking.QueryOpts) ([]*tracking.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*tracking.Event, 0)
	for _, e := range s.events {
		if e.Trackable != ref || (opts.Type != "" && e.Type != opts.Type) {
			continue
		}
		if !opts.Start.IsZero() && e.OccurredAt.Before(opts.Start) {
			continue
		}
		if !opts.End.IsZero() && !e.OccurredAt.Before(opts.End) {
			continue
		}
		result = append(result, cloneEvent(e))
	}
	slices.SortStableFunc(result, func(a, b *tracking.Event) int {
		return a.OccurredAt.Compare(b.OccurredAt)
	})
	return page(result, opts.Offset, opts.Limit), nil
}

func cloneEvent(e *tracking.Event) *tracking.Event {
	c := *e
	if e.Value != nil {
		v := *e.Value
		c.Value = &v
	}
	if e.Metadata != nil {
		c.Metadata = make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// ──────────────────────────────────────────────────
// Settings Store implementation
// ──────────────────────────────────────────────────

func (s *Store) GetSetting(_ context.Context, key string) (*settings.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.settings[key]; ok {
		c := *st
		return &c, nil
	}
	return nil, settings.ErrNotFound
}

func (s *Store) PutSetting(_ context.Context, st *settings.Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *st
	s.settings[st.Key] = &c
	return nil
}

func (s *Store) ListSettings(_ context.Context) ([]*settings.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*settings.Setting, 0, len(s.settings))
	for _, st := range s.settings {
		c := *st
		result = append(result, &c)
	}
	slices.SortFunc(result, func(a, b *settings.Setting) int { return cmp.Compare(a.Key, b.Key) })
	return result, nil
}

// ──────────────────────────────────────────────────
// Core methods
// ──────────────────────────────────────────────────

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func page[T any](items []T, offset, limit int) []T {
	start := min(offset, len(items))
	end := len(items)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return items[start:end]
}
