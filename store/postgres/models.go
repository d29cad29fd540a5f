package postgres

import (
	"encoding/json"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/scribe/content"
	"github.com/xraph/scribe/id"
	"github.com/xraph/scribe/license"
	"github.com/xraph/scribe/settings"
	"github.com/xraph/scribe/tracking"
	"github.com/xraph/scribe/types"
	"github.com/xraph/scribe/website"
)

// ==================== License models ====================

type licenseModel struct {
	grove.BaseModel `grove:"table:scribe_licenses"`

	ID                 string            `grove:"id,pk"`
	UserID             string            `grove:"user_id"`
	LicenseKey         string            `grove:"license_key"`
	Plan               string            `grove:"plan"`
	Status             string            `grove:"status"`
	MaxWebsites        int               `grove:"max_websites"`
	MaxContentPerMonth int               `grove:"max_content_per_month"`
	ExpiresAt          *time.Time        `grove:"expires_at"`
	CancelledAt        *time.Time        `grove:"cancelled_at"`
	RegisteredDomains  json.RawMessage   `grove:"registered_domains,type:jsonb"`
	Version            int64             `grove:"version"`
	Metadata           map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt          time.Time         `grove:"created_at"`
	UpdatedAt          time.Time         `grove:"updated_at"`
}

func toLicenseModel(l *license.License) *licenseModel {
	return &licenseModel{
		ID:                 l.ID.String(),
		UserID:             l.UserID,
		LicenseKey:         l.LicenseKey,
		Plan:               string(l.Plan),
		Status:             string(l.Status),
		MaxWebsites:        l.MaxWebsites,
		MaxContentPerMonth: l.MaxContentPerMonth,
		ExpiresAt:          l.ExpiresAt,
		CancelledAt:        l.CancelledAt,
		RegisteredDomains:  marshalStrings(l.RegisteredDomains),
		Version:            l.Version,
		Metadata:           l.Metadata,
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}
}

func fromLicenseModel(m *licenseModel) (*license.License, error) {
	licID, err := id.ParseLicenseID(m.ID)
	if err != nil {
		return nil, err
	}
	return &license.License{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:                 licID,
		UserID:             m.UserID,
		LicenseKey:         m.LicenseKey,
		Plan:               license.Plan(m.Plan),
		Status:             license.Status(m.Status),
		MaxWebsites:        m.MaxWebsites,
		MaxContentPerMonth: m.MaxContentPerMonth,
		ExpiresAt:          m.ExpiresAt,
		CancelledAt:        m.CancelledAt,
		RegisteredDomains:  unmarshalStrings(m.RegisteredDomains),
		Version:            m.Version,
		Metadata:           m.Metadata,
	}, nil
}

// ==================== Website models ====================

type websiteModel struct {
	grove.BaseModel `grove:"table:scribe_websites"`

	ID        string            `grove:"id,pk"`
	UserID    string            `grove:"user_id"`
	LicenseID string            `grove:"license_id"`
	URL       string            `grove:"url"`
	Domain    string            `grove:"domain"`
	Name      string            `grove:"name"`
	Metadata  map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt time.Time         `grove:"created_at"`
	UpdatedAt time.Time         `grove:"updated_at"`
}

func toWebsiteModel(w *website.Website) *websiteModel {
	return &websiteModel{
		ID:        w.ID.String(),
		UserID:    w.UserID,
		LicenseID: w.LicenseID.String(),
		URL:       w.URL,
		Domain:    w.Domain,
		Name:      w.Name,
		Metadata:  w.Metadata,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func fromWebsiteModel(m *websiteModel) (*website.Website, error) {
	webID, err := id.ParseWebsiteID(m.ID)
	if err != nil {
		return nil, err
	}
	licID, err := id.ParseLicenseID(m.LicenseID)
	if err != nil {
		return nil, err
	}
	return &website.Website{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:        webID,
		UserID:    m.UserID,
		LicenseID: licID,
		URL:       m.URL,
		Domain:    m.Domain,
		Name:      m.Name,
		Metadata:  m.Metadata,
	}, nil
}

// ==================== Content models ====================

type contentModel struct {
	grove.BaseModel `grove:"table:scribe_content"`

	ID               string            `grove:"id,pk"`
	WebsiteID        string            `grove:"website_id"`
	Title            string            `grove:"title"`
	Topic            string            `grove:"topic"`
	Body             *string           `grove:"body"`
	TargetKeywords   json.RawMessage   `grove:"target_keywords,type:jsonb"`
	MinWords         int               `grove:"min_words"`
	WordCount        *int              `grove:"word_count"`
	Tone             string            `grove:"tone"`
	Audience         string            `grove:"audience"`
	Status           string            `grove:"status"`
	PlagiarismScore  *float64          `grove:"plagiarism_score"`
	ReadabilityScore *float64          `grove:"readability_score"`
	GeneratedAt      *time.Time        `grove:"generated_at"`
	QualityCheckedAt *time.Time        `grove:"quality_checked_at"`
	PublishedAt      *time.Time        `grove:"published_at"`
	FailedAt         *time.Time        `grove:"failed_at"`
	FailureReason    string            `grove:"failure_reason"`
	Metadata         map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt        time.Time         `grove:"created_at"`
	UpdatedAt        time.Time         `grove:"updated_at"`
}

func toContentModel(c *content.Content) *contentModel {
	return &contentModel{
		ID:               c.ID.String(),
		WebsiteID:        c.WebsiteID.String(),
		Title:            c.Title,
		Topic:            c.Topic,
		Body:             c.Body,
		TargetKeywords:   marshalStrings(c.TargetKeywords),
		MinWords:         c.MinWords,
		WordCount:        c.WordCount,
		Tone:             c.Tone,
		Audience:         c.Audience,
		Status:           string(c.Status),
		PlagiarismScore:  c.PlagiarismScore,
		ReadabilityScore: c.ReadabilityScore,
		GeneratedAt:      c.GeneratedAt,
		QualityCheckedAt: c.QualityCheckedAt,
		PublishedAt:      c.PublishedAt,
		FailedAt:         c.FailedAt,
		FailureReason:    c.FailureReason,
		Metadata:         c.Metadata,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func fromContentModel(m *contentModel) (*content.Content, error) {
	cntID, err := id.ParseContentID(m.ID)
	if err != nil {
		return nil, err
	}
	webID, err := id.ParseWebsiteID(m.WebsiteID)
	if err != nil {
		return nil, err
	}
	return &content.Content{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:               cntID,
		WebsiteID:        webID,
		Title:            m.Title,
		Topic:            m.Topic,
		Body:             m.Body,
		TargetKeywords:   unmarshalStrings(m.TargetKeywords),
		MinWords:         m.MinWords,
		WordCount:        m.WordCount,
		Tone:             m.Tone,
		Audience:         m.Audience,
		Status:           content.Status(m.Status),
		PlagiarismScore:  m.PlagiarismScore,
		ReadabilityScore: m.ReadabilityScore,
		GeneratedAt:      m.GeneratedAt,
		QualityCheckedAt: m.QualityCheckedAt,
		PublishedAt:      m.PublishedAt,
		FailedAt:         m.FailedAt,
		FailureReason:    m.FailureReason,
		Metadata:         m.Metadata,
	}, nil
}

// ==================== Tracking Event models ====================

type trackingEventModel struct {
	grove.BaseModel `grove:"table:scribe_tracking_events"`

	ID            string            `grove:"id,pk"`
	TrackableType string            `grove:"trackable_type"`
	TrackableID   string            `grove:"trackable_id"`
	EventType     string            `grove:"event_type"`
	Value         *float64          `grove:"value"`
	OccurredAt    time.Time         `grove:"occurred_at"`
	Metadata      map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt     time.Time         `grove:"created_at"`
}

func toTrackingEventModel(e *tracking.Event) *trackingEventModel {
	return &trackingEventModel{
		ID:            e.ID.String(),
		TrackableType: string(e.Trackable.Type),
		TrackableID:   e.Trackable.ID,
		EventType:     string(e.Type),
		Value:         e.Value,
		OccurredAt:    e.OccurredAt,
		Metadata:      e.Metadata,
		CreatedAt:     now(),
	}
}

func fromTrackingEventModel(m *trackingEventModel) (*tracking.Event, error) {
	evtID, err := id.ParseTrackingEventID(m.ID)
	if err != nil {
		return nil, err
	}
	return &tracking.Event{
		ID:         evtID,
		Trackable:  tracking.TrackableRef{Type: tracking.TrackableType(m.TrackableType), ID: m.TrackableID},
		Type:       tracking.EventType(m.EventType),
		Value:      m.Value,
		OccurredAt: m.OccurredAt,
		Metadata:   m.Metadata,
	}, nil
}

// ==================== Setting models ====================

type settingModel struct {
	grove.BaseModel `grove:"table:scribe_settings"`

	Key       string    `grove:"key,pk"`
	Value     string    `grove:"value"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toSettingModel(st *settings.Setting) *settingModel {
	return &settingModel{Key: st.Key, Value: st.Value, UpdatedAt: st.UpdatedAt}
}

func fromSettingModel(m *settingModel) *settings.Setting {
	return &settings.Setting{Key: m.Key, Value: m.Value, UpdatedAt: m.UpdatedAt}
}

// ==================== Helpers ====================

func marshalStrings(v []string) json.RawMessage {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v) //nolint:errcheck // []string always marshals
	return b
}

func unmarshalStrings(raw json.RawMessage) []string {
	out := []string{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out) //nolint:errcheck // best-effort
	}
	return out
}
