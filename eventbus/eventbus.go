// Package eventbus publishes Scribe lifecycle events to Kafka so other
// services can react to licensing, content and tracking changes.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/xraph/scribe/content"
	"github.com/xraph/scribe/license"
	"github.com/xraph/scribe/plugin"
	"github.com/xraph/scribe/tracking"
	"github.com/xraph/scribe/website"
)

var (
	_ plugin.Plugin                = (*Publisher)(nil)
	_ plugin.OnShutdown            = (*Publisher)(nil)
	_ plugin.OnLicenseIssued       = (*Publisher)(nil)
	_ plugin.OnLicenseCancelled    = (*Publisher)(nil)
	_ plugin.OnDomainRegistered    = (*Publisher)(nil)
	_ plugin.OnDomainUnregistered  = (*Publisher)(nil)
	_ plugin.OnWebsiteCreated      = (*Publisher)(nil)
	_ plugin.OnWebsiteDeleted      = (*Publisher)(nil)
	_ plugin.OnContentPublished    = (*Publisher)(nil)
	_ plugin.OnQualityGateRejected = (*Publisher)(nil)
	_ plugin.OnEventsRecorded      = (*Publisher)(nil)
)

// Event types. Each is also the default topic.
const (
	EventLicenseIssued      = "scribe.license.issued"
	EventLicenseCancelled   = "scribe.license.cancelled"
	EventDomainRegistered   = "scribe.domain.registered"
	EventDomainUnregistered = "scribe.domain.unregistered"
	EventWebsiteCreated     = "scribe.website.created"
	EventWebsiteDeleted     = "scribe.website.deleted"
	EventContentPublished   = "scribe.content.published"
	EventContentRejected    = "scribe.content.rejected"
	EventTrackingRecorded   = "scribe.tracking.recorded"
)

// Writer is the subset of *kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Envelope wraps every published payload.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// Publisher is a plugin that writes lifecycle events to Kafka topics.
// Messages are keyed so every event of one license, website or trackable
// lands on the same partition.
type Publisher struct {
	writer       Writer
	topicByEvent map[string]string
	now          func() time.Time
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithTopic routes eventType to topic instead of the default.
func WithTopic(eventType, topic string) Option {
	return func(p *Publisher) { p.topicByEvent[eventType] = topic }
}

// WithClock overrides time.Now for envelope timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) { p.now = now }
}

// New creates a Publisher writing to the given brokers.
func New(brokers []string, opts ...Option) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("eventbus: at least one broker is required")
	}
	return NewWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
	}, opts...), nil
}

// NewWithWriter creates a Publisher around an existing writer. The writer
// must not have a fixed Topic, since every message names its own.
func NewWithWriter(w Writer, opts ...Option) *Publisher {
	p := &Publisher{
		writer:       w,
		topicByEvent: make(map[string]string),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements plugin.Plugin.
func (p *Publisher) Name() string { return "eventbus-kafka" }

// OnShutdown implements plugin.OnShutdown.
func (p *Publisher) OnShutdown(context.Context) error {
	return p.writer.Close()
}

// licenseEvent is the published view of a license. The license key is a
// credential and never leaves the process.
type licenseEvent struct {
	LicenseID          string         `json:"license_id"`
	UserID             string         `json:"user_id"`
	Plan               license.Plan   `json:"plan"`
	Status             license.Status `json:"status"`
	MaxWebsites        int            `json:"max_websites"`
	MaxContentPerMonth int            `json:"max_content_per_month"`
	ExpiresAt          *time.Time     `json:"expires_at,omitempty"`
}

func toLicenseEvent(l *license.License) licenseEvent {
	return licenseEvent{
		LicenseID:          l.ID.String(),
		UserID:             l.UserID,
		Plan:               l.Plan,
		Status:             l.Status,
		MaxWebsites:        l.MaxWebsites,
		MaxContentPerMonth: l.MaxContentPerMonth,
		ExpiresAt:          l.ExpiresAt,
	}
}

func (p *Publisher) OnLicenseIssued(ctx context.Context, l *license.License) error {
	return p.publish(ctx, EventLicenseIssued, l.ID.String(), toLicenseEvent(l))
}

func (p *Publisher) OnLicenseCancelled(ctx context.Context, l *license.License) error {
	return p.publish(ctx, EventLicenseCancelled, l.ID.String(), toLicenseEvent(l))
}

type domainChange struct {
	LicenseID string `json:"license_id"`
	UserID    string `json:"user_id"`
	Domain    string `json:"domain"`
}

func (p *Publisher) OnDomainRegistered(ctx context.Context, l *license.License, domain string) error {
	return p.publish(ctx, EventDomainRegistered, l.ID.String(),
		domainChange{LicenseID: l.ID.String(), UserID: l.UserID, Domain: domain})
}

func (p *Publisher) OnDomainUnregistered(ctx context.Context, l *license.License, domain string) error {
	return p.publish(ctx, EventDomainUnregistered, l.ID.String(),
		domainChange{LicenseID: l.ID.String(), UserID: l.UserID, Domain: domain})
}

func (p *Publisher) OnWebsiteCreated(ctx context.Context, w *website.Website) error {
	return p.publish(ctx, EventWebsiteCreated, w.ID.String(), w)
}

func (p *Publisher) OnWebsiteDeleted(ctx context.Context, w *website.Website) error {
	return p.publish(ctx, EventWebsiteDeleted, w.ID.String(), w)
}

func (p *Publisher) OnContentPublished(ctx context.Context, c *content.Content) error {
	return p.publish(ctx, EventContentPublished, c.WebsiteID.String(), c)
}

type rejection struct {
	ContentID string                   `json:"content_id"`
	WebsiteID string                   `json:"website_id"`
	Failures  []content.QualityFailure `json:"failures"`
}

func (p *Publisher) OnQualityGateRejected(ctx context.Context, c *content.Content, failures []content.QualityFailure) error {
	return p.publish(ctx, EventContentRejected, c.WebsiteID.String(), rejection{
		ContentID: c.ID.String(),
		WebsiteID: c.WebsiteID.String(),
		Failures:  failures,
	})
}

// OnEventsRecorded publishes each tracking event as its own message in a
// single write.
func (p *Publisher) OnEventsRecorded(ctx context.Context, events []*tracking.Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		msg, err := p.message(EventTrackingRecorded, ev.Trackable.String(), ev)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Publisher) publish(ctx context.Context, eventType, key string, data any) error {
	msg, err := p.message(eventType, key, data)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) message(eventType, key string, data any) (kafka.Message, error) {
	now := p.now().UTC()
	payload, err := json.Marshal(Envelope{Type: eventType, OccurredAt: now, Data: data})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("eventbus: encode %s: %w", eventType, err)
	}
	topic := eventType
	if mapped, ok := p.topicByEvent[eventType]; ok && mapped != "" {
		topic = mapped
	}
	return kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
		Time:  now,
	}, nil
}
