package scribe

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/xraph/scribe/id"
	"github.com/xraph/scribe/tracking"
)

// RecordInput is one engagement event.
type RecordInput struct {
	Trackable tracking.TrackableRef
	Type      tracking.EventType
	// Value is required for conversions and forbidden otherwise.
	Value    *float64
	Metadata map[string]string
	// OccurredAt defaults to now.
	OccurredAt time.Time
}

// Record validates and appends one event. Duplicates are allowed.
func (e *Scribe) Record(ctx context.Context, in RecordInput) (*tracking.Event, error) {
	ev, err := e.newEvent(in)
	if err != nil {
		return nil, err
	}

	batch := []*tracking.Event{ev}
	if err := e.store.AppendEvents(ctx, batch); err != nil {
		return nil, err
	}

	e.plugins.EmitEventsRecorded(ctx, batch)
	return ev, nil
}

// RecordAsync validates an event and queues it for the background flush
// worker. It never blocks: a full queue returns ErrTrackingBufferFull.
func (e *Scribe) RecordAsync(_ context.Context, in RecordInput) error {
	ev, err := e.newEvent(in)
	if err != nil {
		return err
	}

	e.sendMu.RLock()
	defer e.sendMu.RUnlock()
	if e.stopped.Load() {
		return ErrStoreClosed
	}
	if !e.started.Load() {
		return ErrStoreNotReady
	}

	select {
	case e.eventBuffer <- ev:
		return nil
	default:
		return ErrTrackingBufferFull
	}
}

func (e *Scribe) newEvent(in RecordInput) (*tracking.Event, error) {
	if !in.Trackable.Valid() {
		return nil, ValidationError{Field: "trackable", Message: fmt.Sprintf("invalid reference %q", in.Trackable)}
	}
	if !in.Type.Valid() {
		return nil, ValidationError{Field: "event_type", Message: fmt.Sprintf("unknown type %q", in.Type)}
	}
	if !tracking.ValueAllowed(in.Type, in.Value) {
		if in.Type == tracking.EventConversion {
			return nil, fmt.Errorf("%w: conversion needs a positive value", ErrInvalidEventValue)
		}
		return nil, fmt.Errorf("%w: %s events carry no value", ErrInvalidEventValue, in.Type)
	}

	ev := &tracking.Event{
		ID:         id.NewTrackingEventID(),
		Trackable:  in.Trackable,
		Type:       in.Type,
		OccurredAt: in.OccurredAt,
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = e.now()
	}
	ev.OccurredAt = ev.OccurredAt.UTC()
	if in.Value != nil {
		v := *in.Value
		ev.Value = &v
	}

	if len(in.Metadata) > 0 {
		ev.Metadata = maps.Clone(in.Metadata)
		if ua := ev.Metadata[tracking.MetaUserAgent]; ua != "" {
			ev.Metadata[tracking.MetaBrowser] = string(tracking.ClassifyUserAgent(ua))
			ev.Metadata[tracking.MetaDevice] = tracking.DeviceClass(ua)
		}
	}

	return ev, nil
}

// Metrics aggregates the events of ref into engagement ratios. Ratios with a
// zero denominator are 0.
func (e *Scribe) Metrics(ctx context.Context, ref tracking.TrackableRef) (*tracking.Metrics, error) {
	if !ref.Valid() {
		return nil, ValidationError{Field: "trackable", Message: fmt.Sprintf("invalid reference %q", ref)}
	}

	totals, err := e.store.AggregateEvents(ctx, ref)
	if err != nil {
		return nil, err
	}

	m := tracking.ComputeMetrics(totals)
	return &m, nil
}

// Events lists the events of ref in the order they occurred.
func (e *Scribe) Events(ctx context.Context, ref tracking.TrackableRef, opts tracking.QueryOpts) ([]*tracking.Event, error) {
	if !ref.Valid() {
		return nil, ValidationError{Field: "trackable", Message: fmt.Sprintf("invalid reference %q", ref)}
	}
	return e.store.QueryEvents(ctx, ref, opts)
}
