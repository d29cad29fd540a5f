// Package id defines the TypeID identifiers used by scribe entities.
//
// An ID is "prefix_suffix" where the prefix names the entity kind and the
// suffix is a UUIDv7, so IDs sort by creation time.
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for scribe entities.
const (
	PrefixLicense       Prefix = "lic"
	PrefixWebsite       Prefix = "web"
	PrefixContent       Prefix = "cnt"
	PrefixTrackingEvent Prefix = "tevt"
	PrefixAffiliateLink Prefix = "afl"
)

// ID wraps a TypeID. The zero value is Nil and stores as NULL.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates an ID with the given prefix. It panics on an invalid prefix.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string such as "lic_01h2xcejqtf2nbrexx3vqjhp41".
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// MustParseWithPrefix is like ParseWithPrefix but panics on error.
func MustParseWithPrefix(s string, expected Prefix) ID {
	parsed, err := ParseWithPrefix(s, expected)
	if err != nil {
		panic(fmt.Sprintf("id: must parse with prefix %q: %v", expected, err))
	}

	return parsed
}

// LicenseID identifies a license (prefix: "lic").
type LicenseID = ID

// WebsiteID identifies a registered website (prefix: "web").
type WebsiteID = ID

// ContentID identifies a content item (prefix: "cnt").
type ContentID = ID

// TrackingEventID identifies a tracking event (prefix: "tevt").
type TrackingEventID = ID

// AffiliateLinkID identifies an affiliate link (prefix: "afl").
type AffiliateLinkID = ID

// AnyID accepts any valid prefix.
type AnyID = ID

// NewLicenseID generates a new unique license ID.
func NewLicenseID() ID { return New(PrefixLicense) }

// NewWebsiteID generates a new unique website ID.
func NewWebsiteID() ID { return New(PrefixWebsite) }

// NewContentID generates a new unique content ID.
func NewContentID() ID { return New(PrefixContent) }

// NewTrackingEventID generates a new unique tracking event ID.
func NewTrackingEventID() ID { return New(PrefixTrackingEvent) }

// NewAffiliateLinkID generates a new unique affiliate link ID.
func NewAffiliateLinkID() ID { return New(PrefixAffiliateLink) }

// ParseLicenseID parses a string and validates the "lic" prefix.
func ParseLicenseID(s string) (ID, error) { return ParseWithPrefix(s, PrefixLicense) }

// ParseWebsiteID parses a string and validates the "web" prefix.
func ParseWebsiteID(s string) (ID, error) { return ParseWithPrefix(s, PrefixWebsite) }

// ParseContentID parses a string and validates the "cnt" prefix.
func ParseContentID(s string) (ID, error) { return ParseWithPrefix(s, PrefixContent) }

// ParseTrackingEventID parses a string and validates the "tevt" prefix.
func ParseTrackingEventID(s string) (ID, error) { return ParseWithPrefix(s, PrefixTrackingEvent) }

// ParseAffiliateLinkID parses a string and validates the "afl" prefix.
func ParseAffiliateLinkID(s string) (ID, error) { return ParseWithPrefix(s, PrefixAffiliateLink) }

// ParseAny parses a string into an ID without checking the prefix.
func ParseAny(s string) (ID, error) { return Parse(s) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
// Returns nil for the Nil ID so that optional foreign key columns store NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		if v == "" {
			*i = Nil

			return nil
		}

		return i.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*i = Nil

			return nil
		}

		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
