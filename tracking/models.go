package tracking

import (
	"math"
	"time"

	"github.com/xraph/scribe/id"
)

// TrackableType tags what a TrackableRef points at.
type TrackableType string

const (
	TrackableContent       TrackableType = "content"
	TrackableAffiliateLink TrackableType = "affiliate_link"
)

// TrackableRef identifies the thing an event is recorded against.
type TrackableRef struct {
	Type TrackableType `json:"type" yaml:"type"`
	ID   string        `json:"id"   yaml:"id"`
}

// ContentRef refers to a content item.
func ContentRef(contentID id.ContentID) TrackableRef {
	return TrackableRef{Type: TrackableContent, ID: contentID.String()}
}

// AffiliateLinkRef refers to an affiliate link.
func AffiliateLinkRef(linkID id.AffiliateLinkID) TrackableRef {
	return TrackableRef{Type: TrackableAffiliateLink, ID: linkID.String()}
}

// Valid reports whether r has a known type and a non-empty id.
func (r TrackableRef) Valid() bool {
	switch r.Type {
	case TrackableContent, TrackableAffiliateLink:
		return r.ID != ""
	}
	return false
}

func (r TrackableRef) String() string {
	return string(r.Type) + ":" + r.ID
}

type EventType string

const (
	EventImpression EventType = "impression"
	EventClick      EventType = "click"
	EventShare      EventType = "share"
	EventConversion EventType = "conversion"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case EventImpression, EventClick, EventShare, EventConversion:
		return true
	}
	return false
}

// ValueAllowed reports whether v is acceptable for an event of type t:
// conversions need a finite positive value, every other type must have none.
func ValueAllowed(t EventType, v *float64) bool {
	if t != EventConversion {
		return v == nil
	}
	return v != nil && *v > 0 && !math.IsInf(*v, 0) && !math.IsNaN(*v)
}

// Event is one append-only engagement record.
type Event struct {
	ID         id.TrackingEventID `json:"id"`
	Trackable  TrackableRef       `json:"trackable"`
	Type       EventType          `json:"type"`
	Value      *float64           `json:"value,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
	Metadata   map[string]string  `json:"metadata,omitempty"`
}

// Metadata keys Record fills in from a recorded user agent.
const (
	MetaUserAgent = "user_agent"
	MetaBrowser   = "browser"
	MetaDevice    = "device"
)

const (
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
)

type QueryOpts struct {
	Type   EventType
	Start  time.Time
	End    time.Time
	Limit  int
	Offset int
}
