package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/scribe"
	"github.com/xraph/scribe/content"
	"github.com/xraph/scribe/id"
	"github.com/xraph/scribe/license"
	"github.com/xraph/scribe/settings"
	scribestore "github.com/xraph/scribe/store"
	"github.com/xraph/scribe/tracking"
	"github.com/xraph/scribe/website"
)

// compile-time interface check
var _ scribestore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("scribe/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("scribe/sqlite: %w: %w", scribe.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== License Store ====================

func (s *Store) CreateLicense(ctx context.Context, l *license.License) error {
	_, err := s.sdb.NewInsert(toLicenseModel(l)).Exec(ctx)
	return err
}

func (s *Store) GetLicense(ctx context.Context, licID id.LicenseID) (*license.License, error) {
	m := new(licenseModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", licID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, scribe.ErrLicenseNotFound
		}
		return nil, err
	}
	return fromLicenseModel(m)
}

func (s *Store) GetLicenseByKey(ctx context.Context, licenseKey string) (*license.License, error) {
	m := new(licenseModel)
	err := s.sdb.NewSelect(m).
		Where("license_key = ?", licenseKey).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, scribe.ErrLicenseNotFound
		}
		return nil, err
	}
	return fromLicenseModel(m)
}

func (s *Store) GetActiveLicense(ctx context.Context, userID string, at time.Time) (*license.License, error) {
	m := new(licenseModel)
	err := s.sdb.NewSelect(m).
		Where("user_id = ?", userID).
		Where("status = ?", string(license.StatusActive)).
		Where("(expires_at IS NULL OR expires_at > ?)", at).
		OrderExpr("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, scribe.ErrNoActiveLicense
		}
		return nil, err
	}
	return fromLicenseModel(m)
}

func (s *Store) ListLicenses(ctx context.Context, userID string, opts license.ListOpts) ([]*license.License, error) {
	var models []licenseModel
	q := s.sdb.NewSelect(&models).Where("user_id = ?", userID)

	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*license.License, len(models))
	for i := range models {
		l, err := fromLicenseModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = l
	}
	return result, nil
}

func (s *Store) UpdateLicense(ctx context.Context, l *license.License) error {
	m := toLicenseModel(l)
	res, err := s.sdb.NewUpdate((*licenseModel)(nil)).
		Set("plan = ?", m.Plan).
		Set("status = ?", m.Status).
		Set("max_websites = ?", m.MaxWebsites).
		Set("max_content_per_month = ?", m.MaxContentPerMonth).
		Set("expires_at = ?", m.ExpiresAt).
		Set("cancelled_at = ?", m.CancelledAt).
		Set("metadata = ?", m.Metadata).
		Set("updated_at = ?", now()).
		Where("id = ?", m.ID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRow(res, scribe.ErrLicenseNotFound)
}

func (s *Store) UpdateLicenseDomains(ctx context.Context, licID id.LicenseID, expectedVersion int64, domains []string) error {
	res, err := s.sdb.NewUpdate((*licenseModel)(nil)).
		Set("registered_domains = ?", marshalStrings(domains)).
		Set("version = ?", expectedVersion+1).
		Set("updated_at = ?", now()).
		Where("id = ?", licID.String()).
		Where("version = ?", expectedVersion).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}
	// Nothing matched: either the license is gone or another writer won.
	if _, err := s.GetLicense(ctx, licID); err != nil {
		return err
	}
	return scribe.ErrVersionConflict
}

// ==================== Website Store ====================

func (s *Store) CreateWebsite(ctx context.Context, w *website.Website) error {
	_, err := s.sdb.NewInsert(toWebsiteModel(w)).Exec(ctx)
	return err
}

func (s *Store) GetWebsite(ctx context.Context, websiteID id.WebsiteID) (*website.Website, error) {
	m := new(websiteModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", websiteID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, scribe.ErrWebsiteNotFound
		}
		return nil, err
	}
	return fromWebsiteModel(m)
}

func (s *Store) ListWebsites(ctx context.Context, userID string, opts website.ListOpts) ([]*website.Website, error) {
	var models []websiteModel
	q := s.sdb.NewSelect(&models).Where("user_id = ?", userID)
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*website.Website, len(models))
	for i := range models {
		w, err := fromWebsiteModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = w
	}
	return result, nil
}

func (s *Store) CountWebsites(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.sdb.NewRaw(`SELECT COUNT(*) FROM scribe_websites WHERE user_id = ?`, userID).Scan(ctx, &n)
	return n, err
}

func (s *Store) DeleteWebsite(ctx context.Context, websiteID id.WebsiteID) error {
	res, err := s.sdb.NewDelete((*websiteModel)(nil)).
		Where("id = ?", websiteID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRow(res, scribe.ErrWebsiteNotFound)
}

// ==================== Content Store ====================

func (s *Store) CreateContent(ctx context.Context, c *content.Content) error {
	_, err := s.sdb.NewInsert(toContentModel(c)).Exec(ctx)
	return err
}

func (s *Store) GetContent(ctx context.Context, contentID id.ContentID) (*content.Content, error) {
	m := new(contentModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", contentID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, scribe.ErrContentNotFound
		}
		return nil, err
	}
	return fromContentModel(m)
}

func (s *Store) UpdateContent(ctx context.Context, c *content.Content) error {
	m := toContentModel(c)
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return expectRow(res, scribe.ErrContentNotFound)
}

func (s *Store) ListContent(ctx context.Context, websiteID id.WebsiteID, opts content.ListOpts) ([]*content.Content, error) {
	var models []contentModel
	q := s.sdb.NewSelect(&models).Where("website_id = ?", websiteID.String())

	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*content.Content, len(models))
	for i := range models {
		c, err := fromContentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

func (s *Store) CountGeneratedContent(ctx context.Context, websiteIDs []id.WebsiteID, start, end time.Time) (int64, error) {
	if len(websiteIDs) == 0 {
		return 0, nil
	}
	args := []any{start, end}
	marks := make([]string, len(websiteIDs))
	for i, w := range websiteIDs {
		args = append(args, w.String())
		marks[i] = "?"
	}

	var n int64
	err := s.sdb.NewRaw(`
		SELECT COUNT(*) FROM scribe_content
		WHERE generated_at >= ? AND generated_at < ? AND website_id IN (`+strings.Join(marks, ", ")+`)
	`, args...).Scan(ctx, &n)
	return n, err
}

// ==================== Tracking Store ====================

func (s *Store) AppendEvents(ctx context.Context, events []*tracking.Event) error {
	if len(events) == 0 {
		return nil
	}
	models := make([]trackingEventModel, len(events))
	for i, e := range events {
		models[i] = *toTrackingEventModel(e)
	}
	_, err := s.sdb.NewInsert(&models).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	return err
}

// AggregateEvents totals a trackable's events in one statement, built as a
// JSON object so the row decodes straight into tracking.Totals.
func (s *Store) AggregateEvents(ctx context.Context, ref tracking.TrackableRef) (tracking.Totals, error) {
	var raw string
	err := s.sdb.NewRaw(`
		SELECT json_object(
			'impressions', COALESCE(SUM(event_type = 'impression'), 0),
			'clicks', COALESCE(SUM(event_type = 'click'), 0),
			'shares', COALESCE(SUM(event_type = 'share'), 0),
			'conversions', COALESCE(SUM(event_type = 'conversion'), 0),
			'revenue', COALESCE(SUM(CASE WHEN event_type = 'conversion' THEN value END), 0)
		)
		FROM scribe_tracking_events
		WHERE trackable_type = ? AND trackable_id = ?
	`, string(ref.Type), ref.ID).Scan(ctx, &raw)
	if err != nil {
		return tracking.Totals{}, err
	}

	var t tracking.Totals
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return tracking.Totals{}, fmt.Errorf("decode event totals: %w", err)
	}
	return t, nil
}

func (s *Store) QueryEvents(ctx context.Context, ref tracking.TrackableRef, opts tracking.QueryOpts) ([]*tracking.Event, error) {
	var models []trackingEventModel
	q := s.sdb.NewSelect(&models).
		Where("trackable_type = ?", string(ref.Type)).
		Where("trackable_id = ?", ref.ID)

	if opts.Type != "" {
		q = q.Where("event_type = ?", string(opts.Type))
	}
	if !opts.Start.IsZero() {
		q = q.Where("occurred_at >= ?", opts.Start)
	}
	if !opts.End.IsZero() {
		q = q.Where("occurred_at < ?", opts.End)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("occurred_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*tracking.Event, len(models))
	for i := range models {
		e, err := fromTrackingEventModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

// ==================== Settings Store ====================

func (s *Store) GetSetting(ctx context.Context, key string) (*settings.Setting, error) {
	m := new(settingModel)
	err := s.sdb.NewSelect(m).
		Where("key = ?", key).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, settings.ErrNotFound
		}
		return nil, err
	}
	return fromSettingModel(m), nil
}

func (s *Store) PutSetting(ctx context.Context, st *settings.Setting) error {
	_, err := s.sdb.NewInsert(toSettingModel(st)).
		OnConflict("(key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) ListSettings(ctx context.Context) ([]*settings.Setting, error) {
	var models []settingModel
	if err := s.sdb.NewSelect(&models).OrderExpr("key ASC").Scan(ctx); err != nil {
		return nil, err
	}
	result := make([]*settings.Setting, len(models))
	for i := range models {
		result[i] = fromSettingModel(&models[i])
	}
	return result, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

type rowsResult interface {
	RowsAffected() (int64, error)
}

// expectRow maps a write that touched no rows to notFound.
func expectRow(res rowsResult, notFound error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
