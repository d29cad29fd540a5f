package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
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

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("scribe/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("scribe/postgres: %w: %w", scribe.ErrMigrationFailed, err)
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
	_, err := s.pg.NewInsert(toLicenseModel(l)).Exec(ctx)
	return err
}

func (s *Store) GetLicense(ctx context.Context, licID id.LicenseID) (*license.License, error) {
	m := new(licenseModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", licID.String()).
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
	err := s.pg.NewSelect(m).
		Where("license_key = $1", licenseKey).
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
	err := s.pg.NewSelect(m).
		Where("user_id = $1", userID).
		Where("status = $2", string(license.StatusActive)).
		Where("(expires_at IS NULL OR expires_at > $3)", at).
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
	q := s.pg.NewSelect(&models).Where("user_id = $1", userID)

	if opts.Status != "" {
		q = q.Where("status = $2", string(opts.Status))
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
	res, err := s.pg.NewUpdate((*licenseModel)(nil)).
		Set("plan = $1", m.Plan).
		Set("status = $2", m.Status).
		Set("max_websites = $3", m.MaxWebsites).
		Set("max_content_per_month = $4", m.MaxContentPerMonth).
		Set("expires_at = $5", m.ExpiresAt).
		Set("cancelled_at = $6", m.CancelledAt).
		Set("metadata = $7", m.Metadata).
		Set("updated_at = $8", now()).
		Where("id = $9", m.ID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRow(res, scribe.ErrLicenseNotFound)
}

func (s *Store) UpdateLicenseDomains(ctx context.Context, licID id.LicenseID, expectedVersion int64, domains []string) error {
	res, err := s.pg.NewUpdate((*licenseModel)(nil)).
		Set("registered_domains = $1", string(marshalStrings(domains))).
		Set("version = $2", expectedVersion+1).
		Set("updated_at = $3", now()).
		Where("id = $4", licID.String()).
		Where("version = $5", expectedVersion).
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
	_, err := s.pg.NewInsert(toWebsiteModel(w)).Exec(ctx)
	return err
}

func (s *Store) GetWebsite(ctx context.Context, websiteID id.WebsiteID) (*website.Website, error) {
	m := new(websiteModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", websiteID.String()).
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
	q := s.pg.NewSelect(&models).Where("user_id = $1", userID)
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
	err := s.pg.NewRaw(`SELECT COUNT(*) FROM scribe_websites WHERE user_id = $1`, userID).Scan(ctx, &n)
	return n, err
}

func (s *Store) DeleteWebsite(ctx context.Context, websiteID id.WebsiteID) error {
	res, err := s.pg.NewDelete((*websiteModel)(nil)).
		Where("id = $1", websiteID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRow(res, scribe.ErrWebsiteNotFound)
}

// ==================== Content Store ====================

func (s *Store) CreateContent(ctx context.Context, c *content.Content) error {
	_, err := s.pg.NewInsert(toContentModel(c)).Exec(ctx)
	return err
}

func (s *Store) GetContent(ctx context.Context, contentID id.ContentID) (*content.Content, error) {
	m := new(contentModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", contentID.String()).
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
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return expectRow(res, scribe.ErrContentNotFound)
}

func (s *Store) ListContent(ctx context.Context, websiteID id.WebsiteID, opts content.ListOpts) ([]*content.Content, error) {
	var models []contentModel
	q := s.pg.NewSelect(&models).Where("website_id = $1", websiteID.String())

	if opts.Status != "" {
		q = q.Where("status = $2", string(opts.Status))
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
		marks[i] = fmt.Sprintf("$%d", i+3)
	}

	var n int64
	err := s.pg.NewRaw(`
		SELECT COUNT(*) FROM scribe_content
		WHERE generated_at >= $1 AND generated_at < $2 AND website_id IN (`+strings.Join(marks, ", ")+`)
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
	_, err := s.pg.NewInsert(&models).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	return err
}

// AggregateEvents totals a trackable's events in one statement, built as a
// JSON object so the row decodes straight into tracking.Totals.
func (s *Store) AggregateEvents(ctx context.Context, ref tracking.TrackableRef) (tracking.Totals, error) {
	var raw string
	err := s.pg.NewRaw(`
		SELECT json_build_object(
			'impressions', COUNT(*) FILTER (WHERE event_type = 'impression'),
			'clicks', COUNT(*) FILTER (WHERE event_type = 'click'),
			'shares', COUNT(*) FILTER (WHERE event_type = 'share'),
			'conversions', COUNT(*) FILTER (WHERE event_type = 'conversion'),
			'revenue', COALESCE(SUM(value) FILTER (WHERE event_type = 'conversion'), 0)
		)::text
		FROM scribe_tracking_events
		WHERE trackable_type = $1 AND trackable_id = $2
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
	q := s.pg.NewSelect(&models).
		Where("trackable_type = $1", string(ref.Type)).
		Where("trackable_id = $2", ref.ID)

	argIdx := 2
	if opts.Type != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("event_type = $%d", argIdx), string(opts.Type))
	}
	if !opts.Start.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("occurred_at >= $%d", argIdx), opts.Start)
	}
	if !opts.End.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("occurred_at < $%d", argIdx), opts.End)
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
	err := s.pg.NewSelect(m).
		Where("key = $1", key).
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
	_, err := s.pg.NewInsert(toSettingModel(st)).
		OnConflict("(key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) ListSettings(ctx context.Context) ([]*settings.Setting, error) {
	var models []settingModel
	if err := s.pg.NewSelect(&models).OrderExpr("key ASC").Scan(ctx); err != nil {
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
