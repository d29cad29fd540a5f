package eventbus_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/xraph/scribe/content"
	"github.com/xraph/scribe/eventbus"
	"github.com/xraph/scribe/id"
	"github.com/xraph/scribe/license"
	"github.com/xraph/scribe/tracking"
)

type memWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error {
	w.closed = true
	return nil
}

var fixed = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func TestPublishRoutesTopics(t *testing.T) {
	w := &memWriter{}
	p := eventbus.NewWithWriter(w,
		eventbus.WithTopic(eventbus.EventDomainRegistered, "licensing"),
		eventbus.WithClock(func() time.Time { return fixed }),
	)
	ctx := context.Background()
	l := &license.License{ID: id.NewLicenseID(), UserID: "u1"}

	if err := p.OnLicenseIssued(ctx, l); err != nil {
		t.Fatal(err)
	}
	if err := p.OnDomainRegistered(ctx, l, "a.com"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		topic string
		typ   string
	}{
		{eventbus.EventLicenseIssued, eventbus.EventLicenseIssued},
		{"licensing", eventbus.EventDomainRegistered},
	}
	if len(w.msgs) != len(tests) {
		t.Fatalf("messages = %d, want %d", len(w.msgs), len(tests))
	}
	for i, tt := range tests {
		msg := w.msgs[i]
		if msg.Topic != tt.topic || string(msg.Key) != l.ID.String() || !msg.Time.Equal(fixed) {
			t.Errorf("message %d = topic %q key %q time %v", i, msg.Topic, msg.Key, msg.Time)
		}
		var env struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			t.Fatal(err)
		}
		if env.Type != tt.typ {
			t.Errorf("message %d type = %q, want %q", i, env.Type, tt.typ)
		}
	}
}

func TestEventsRecordedSingleWrite(t *testing.T) {
	w := &memWriter{}
	p := eventbus.NewWithWriter(w)
	ref := tracking.ContentRef(id.NewContentID())

	err := p.OnEventsRecorded(context.Background(), []*tracking.Event{
		{Trackable: ref, Type: tracking.EventImpression},
		{Trackable: ref, Type: tracking.EventClick},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(w.msgs) != 2 {
		t.Fatalf("messages = %d", len(w.msgs))
	}
	for _, m := range w.msgs {
		if string(m.Key) != ref.String() {
			t.Errorf("key = %q, want %q", m.Key, ref.String())
		}
	}

	if err := p.OnEventsRecorded(context.Background(), nil); err != nil || len(w.msgs) != 2 {
		t.Error("empty batch was written")
	}
}

func TestRejectionPayload(t *testing.T) {
	w := &memWriter{}
	p := eventbus.NewWithWriter(w)
	c := &content.Content{ID: id.NewContentID(), WebsiteID: id.NewWebsiteID()}
	score := 40.0

	err := p.OnQualityGateRejected(context.Background(), c, []content.QualityFailure{
		{Metric: content.MetricReadability, Value: &score, Threshold: 70},
	})
	if err != nil {
		t.Fatal(err)
	}

	var env struct {
		Data struct {
			ContentID string `json:"content_id"`
			Failures  []struct {
				Metric string `json:"metric"`
			} `json:"failures"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.msgs[0].Value, &env); err != nil {
		t.Fatal(err)
	}
	if env.Data.ContentID != c.ID.String() || len(env.Data.Failures) != 1 || env.Data.Failures[0].Metric != "readability" {
		t.Errorf("payload = %+v", env.Data)
	}
}

func TestWriterErrorsPropagate(t *testing.T) {
	w := &memWriter{err: errors.New("broker down")}
	p := eventbus.NewWithWriter(w)
	if err := p.OnLicenseCancelled(context.Background(), &license.License{ID: id.NewLicenseID()}); err == nil {
		t.Error("expected writer error")
	}
	if err := p.OnShutdown(context.Background()); err != nil || !w.closed {
		t.Error("shutdown did not close the writer")
	}
}

func TestNewRequiresBrokers(t *testing.T) {
	if _, err := eventbus.New(nil); err == nil {
		t.Error("expected error without brokers")
	}
}

func TestLicenseKeyIsNotPublished(t *testing.T) {
	w := &memWriter{}
	p := eventbus.NewWithWriter(w)
	l := &license.License{ID: id.NewLicenseID(), UserID: "u1", LicenseKey: "SCR-SECRET", Plan: license.PlanPro}

	if err := p.OnLicenseIssued(context.Background(), l); err != nil {
		t.Fatal(err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("wrote %d messages", len(w.msgs))
	}
	if strings.Contains(string(w.msgs[0].Value), "SCR-SECRET") {
		t.Errorf("license key leaked: %s", w.msgs[0].Value)
	}

	var env struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(w.msgs[0].Value, &env); err != nil {
		t.Fatal(err)
	}
	if env.Data["license_id"] != l.ID.String() || env.Data["plan"] != "pro" {
		t.Errorf("data = %v", env.Data)
	}
}
