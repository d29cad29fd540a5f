package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/scribe"
	"github.com/xraph/scribe/content"
	"github.com/xraph/scribe/id"
	"github.com/xraph/scribe/license"
	"github.com/xraph/scribe/settings"
	scribestore "github.com/xraph/scribe/store"
	"github.com/xraph/scribe/tracking"
	"github.com/xraph/scribe/website"
)

// Collection name constants.
const (
	colLicenses = "scribe_licenses"
	colWebsites = "scribe_websites"
	colContent  = "scribe_content"
	colEvents   = "scribe_tracking_events"
	colSettings = "scribe_settings"
)

// compile-time interface check
var _ scribestore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all scribe collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("scribe/mongo: migrate %s indexes: %w", col, err)
		}
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
	_, err := s.mdb.NewInsert(toLicenseModel(l)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return scribe.ErrAlreadyExists
		}
		return fmt.Errorf("scribe/mongo: create license: %w", err)
	}
	return nil
}

func (s *Store) GetLicense(ctx context.Context, licID id.LicenseID) (*license.License, error) {
	return s.findLicense(ctx, bson.M{"_id": licID.String()})
}

func (s *Store) GetLicenseByKey(ctx context.Context, licenseKey string) (*license.License, error) {
	return s.findLicense(ctx, bson.M{"license_key": licenseKey})
}

func (s *Store) findLicense(ctx context.Context, filter bson.M) (*license.License, error) {
	var m licenseModel
	err := s.mdb.NewFind(&m).
		Filter(filter).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, scribe.ErrLicenseNotFound
		}
		return nil, fmt.Errorf("scribe/mongo: get license: %w", err)
	}
	return fromLicenseModel(&m)
}

func (s *Store) GetActiveLicense(ctx context.Context, userID string, at time.Time) (*license.License, error) {
	var models []licenseModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{
			"user_id": userID,
			"status":  string(license.StatusActive),
			"$or": bson.A{
				bson.M{"expires_at": nil},
				bson.M{"expires_at": bson.M{"$gt": at}},
			},
		}).
		Sort(bson.D{{Key: "created_at", Value: -1}}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scribe/mongo: get active license: %w", err)
	}
	if len(models) == 0 {
		return nil, scribe.ErrNoActiveLicense
	}
	return fromLicenseModel(&models[0])
}

func (s *Store) ListLicenses(ctx context.Context, userID string, opts license.ListOpts) ([]*license.License, error) {
	var models []licenseModel

	filter := bson.M{"user_id": userID}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("scribe/mongo: list licenses: %w", err)
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
	res, err := s.mdb.NewUpdate((*licenseModel)(nil)).
		Filter(bson.M{"_id": m.ID}).
		Set("plan", m.Plan).
		Set("status", m.Status).
		Set("max_websites", m.MaxWebsites).
		Set("max_content_per_month", m.MaxContentPerMonth).
		Set("expires_at", m.ExpiresAt).
		Set("cancelled_at", m.CancelledAt).
		Set("metadata", m.Metadata).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("scribe/mongo: update license: %w", err)
	}
	if res.MatchedCount() == 0 {
		return scribe.ErrLicenseNotFound
	}
	return nil
}

func (s *Store) UpdateLicenseDomains(ctx context.Context, licID id.LicenseID, expectedVersion int64, domains []string) error {
	if domains == nil {
		domains = []string{}
	}
	res, err := s.mdb.NewUpdate((*licenseModel)(nil)).
		Filter(bson.M{"_id": licID.String(), "version": expectedVersion}).
		Set("registered_domains", domains).
		Set("version", expectedVersion+1).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("scribe/mongo: update license domains: %w", err)
	}
	if res.MatchedCount() > 0 {
		return nil
	}
	if _, err := s.GetLicense(ctx, licID); err != nil {
		return err
	}
	return scribe.ErrVersionConflict
}

// ==================== Website Store ====================

func (s *Store) CreateWebsite(ctx context.Context, w *website.Website) error {
	_, err := s.mdb.NewInsert(toWebsiteModel(w)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return scribe.ErrAlreadyExists
		}
		return fmt.Errorf("scribe/mongo: create website: %w", err)
	}
	return nil
}

func (s *Store) GetWebsite(ctx context.Context, websiteID id.WebsiteID) (*website.Website, error) {
	var m websiteModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": websiteID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, scribe.ErrWebsiteNotFound
		}
		return nil, fmt.Errorf("scribe/mongo: get website: %w", err)
	}
	return fromWebsiteModel(&m)
}

func (s *Store) ListWebsites(ctx context.Context, userID string, opts website.ListOpts) ([]*website.Website, error) {
	var models []websiteModel
	q := s.mdb.NewFind(&models).
		Filter(bson.M{"user_id": userID}).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("scribe/mongo: list websites: %w", err)
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
	n, err := s.mdb.Collection(colWebsites).CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("scribe/mongo: count websites: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteWebsite(ctx context.Context, websiteID id.WebsiteID) error {
	res, err := s.mdb.NewDelete((*websiteModel)(nil)).
		Filter(bson.M{"_id": websiteID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("scribe/mongo: delete website: %w", err)
	}
	if res.DeletedCount() == 0 {
		return scribe.ErrWebsiteNotFound
	}
	return nil
}

// ==================== Content Store ====================

func (s *Store) CreateContent(ctx context.Context, c *content.Content) error {
	_, err := s.mdb.NewInsert(toContentModel(c)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("scribe/mongo: create content: %w", err)
	}
	return nil
}

func (s *Store) GetContent(ctx context.Context, contentID id.ContentID) (*content.Content, error) {
	var m contentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": contentID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, scribe.ErrContentNotFound
		}
		return nil, fmt.Errorf("scribe/mongo: get content: %w", err)
	}
	return fromContentModel(&m)
}

func (s *Store) UpdateContent(ctx context.Context, c *content.Content) error {
	m := toContentModel(c)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("scribe/mongo: update content: %w", err)
	}
	if res.MatchedCount() == 0 {
		return scribe.ErrContentNotFound
	}
	return nil
}

func (s *Store) ListContent(ctx context.Context, websiteID id.WebsiteID, opts content.ListOpts) ([]*content.Content, error) {
	var models []contentModel

	filter := bson.M{"website_id": websiteID.String()}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("scribe/mongo: list content: %w", err)
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
	ids := make(bson.A, len(websiteIDs))
	for i, w := range websiteIDs {
		ids[i] = w.String()
	}

	n, err := s.mdb.Collection(colContent).CountDocuments(ctx, bson.M{
		"website_id":   bson.M{"$in": ids},
		"generated_at": bson.M{"$gte": start, "$lt": end},
	})
	if err != nil {
		return 0, fmt.Errorf("scribe/mongo: count generated content: %w", err)
	}
	return n, nil
}

// ==================== Tracking Store ====================

func (s *Store) AppendEvents(ctx context.Context, events []*tracking.Event) error {
	for _, e := range events {
		_, err := s.mdb.NewInsert(toTrackingEventModel(e)).Exec(ctx)
		if err != nil {
			// A retried flush may resend events that already landed.
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return fmt.Errorf("scribe/mongo: append event: %w", err)
		}
	}
	return nil
}

func (s *Store) AggregateEvents(ctx context.Context, ref tracking.TrackableRef) (tracking.Totals, error) {
	pipeline := bson.A{
		bson.M{
			"$match": bson.M{
				"trackable_type": string(ref.Type),
				"trackable_id":   ref.ID,
			},
		},
		bson.M{
			"$group": bson.M{
				"_id":     "$event_type",
				"count":   bson.M{"$sum": 1},
				"revenue": bson.M{"$sum": bson.M{"$ifNull": bson.A{"$value", 0}}},
			},
		},
	}

	cursor, err := s.mdb.Collection(colEvents).Aggregate(ctx, pipeline)
	if err != nil {
		return tracking.Totals{}, fmt.Errorf("scribe/mongo: aggregate events: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		EventType string  `bson:"_id"`
		Count     int64   `bson:"count"`
		Revenue   float64 `bson:"revenue"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return tracking.Totals{}, fmt.Errorf("scribe/mongo: aggregate events decode: %w", err)
	}

	var t tracking.Totals
	for _, r := range rows {
		switch tracking.EventType(r.EventType) {
		case tracking.EventImpression:
			t.Impressions = r.Count
		case tracking.EventClick:
			t.Clicks = r.Count
		case tracking.EventShare:
			t.Shares = r.Count
		case tracking.EventConversion:
			t.Conversions = r.Count
			t.Revenue = r.Revenue
		}
	}
	return t, nil
}

func (s *Store) QueryEvents(ctx context.Context, ref tracking.TrackableRef, opts tracking.QueryOpts) ([]*tracking.Event, error) {
	var models []trackingEventModel

	filter := bson.M{
		"trackable_type": string(ref.Type),
		"trackable_id":   ref.ID,
	}
	if opts.Type != "" {
		filter["event_type"] = string(opts.Type)
	}
	window := bson.M{}
	if !opts.Start.IsZero() {
		window["$gte"] = opts.Start
	}
	if !opts.End.IsZero() {
		window["$lt"] = opts.End
	}
	if len(window) > 0 {
		filter["occurred_at"] = window
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "occurred_at", Value: 1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("scribe/mongo: query events: %w", err)
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
	var m settingModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": key}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, settings.ErrNotFound
		}
		return nil, fmt.Errorf("scribe/mongo: get setting: %w", err)
	}
	return fromSettingModel(&m), nil
}

func (s *Store) PutSetting(ctx context.Context, st *settings.Setting) error {
	_, err := s.mdb.NewUpdate((*settingModel)(nil)).
		Filter(bson.M{"_id": st.Key}).
		SetUpdate(bson.M{"$set": bson.M{
			"value":      st.Value,
			"updated_at": st.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("scribe/mongo: put setting: %w", err)
	}
	return nil
}

func (s *Store) ListSettings(ctx context.Context) ([]*settings.Setting, error) {
	var models []settingModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scribe/mongo: list settings: %w", err)
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

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all scribe collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colLicenses: {
			{
				Keys:    bson.D{{Key: "license_key", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colWebsites: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "domain", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "license_id", Value: 1}}},
		},
		colContent: {
			{Keys: bson.D{{Key: "website_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "website_id", Value: 1}, {Key: "generated_at", Value: 1}}},
		},
		colEvents: {
			{Keys: bson.D{{Key: "trackable_type", Value: 1}, {Key: "trackable_id", Value: 1}, {Key: "occurred_at", Value: 1}}},
		},
		colSettings: {},
	}
}
