package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/scribe/id"
)

var kinds = []struct {
	name    string
	prefix  id.Prefix
	newFn   func() id.ID
	parseFn func(string) (id.ID, error)
}{
	{"License", id.PrefixLicense, id.NewLicenseID, id.ParseLicenseID},
	{"Website", id.PrefixWebsite, id.NewWebsiteID, id.ParseWebsiteID},
	{"Content", id.PrefixContent, id.NewContentID, id.ParseContentID},
	{"TrackingEvent", id.PrefixTrackingEvent, id.NewTrackingEventID, id.ParseTrackingEventID},
	{"AffiliateLink", id.PrefixAffiliateLink, id.NewAffiliateLinkID, id.ParseAffiliateLinkID},
}

func TestConstructorsUsePrefix(t *testing.T) {
	for _, k := range kinds {
		t.Run(k.name, func(t *testing.T) {
			got := k.newFn()
			if !strings.HasPrefix(got.String(), string(k.prefix)+"_") {
				t.Errorf("expected prefix %q, got %q", k.prefix, got.String())
			}
			if got.Prefix() != k.prefix {
				t.Errorf("Prefix() = %q, want %q", got.Prefix(), k.prefix)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, k := range kinds {
		t.Run(k.name, func(t *testing.T) {
			original := k.newFn()
			parsed, err := k.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}

			anyParsed, err := id.ParseAny(original.String())
			if err != nil {
				t.Fatalf("ParseAny failed: %v", err)
			}
			if anyParsed.String() != original.String() {
				t.Errorf("ParseAny mismatch: %q != %q", anyParsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	for i, k := range kinds {
		other := kinds[(i+1)%len(kinds)]
		t.Run(k.name, func(t *testing.T) {
			if _, err := k.parseFn(other.newFn().String()); err == nil {
				t.Errorf("%s parser accepted a %s id", k.name, other.name)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}
	if i.Prefix() != "" {
		t.Errorf("expected empty prefix, got %q", i.Prefix())
	}
}

func TestMarshalUnmarshalText(t *testing.T) {
	original := id.NewContentID()
	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}

	var restored id.ID
	if err := restored.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if restored.String() != original.String() {
		t.Errorf("mismatch: %q != %q", restored.String(), original.String())
	}

	var empty id.ID
	if err := empty.UnmarshalText(nil); err != nil {
		t.Fatalf("UnmarshalText(nil) failed: %v", err)
	}
	if !empty.IsNil() {
		t.Error("expected nil after unmarshalling empty text")
	}
}

func TestValueScan(t *testing.T) {
	original := id.NewLicenseID()
	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned id.ID
	if err := scanned.Scan(val); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if scanned.String() != original.String() {
		t.Errorf("mismatch: %q != %q", scanned.String(), original.String())
	}

	var nilID id.ID
	val, err = nilID.Value()
	if err != nil {
		t.Fatalf("Value(nil) failed: %v", err)
	}
	if val != nil {
		t.Errorf("expected nil value for nil ID, got %v", val)
	}

	var fromBytes id.ID
	if err := fromBytes.Scan([]byte(original.String())); err != nil {
		t.Fatalf("Scan([]byte) failed: %v", err)
	}
	if fromBytes.String() != original.String() {
		t.Errorf("mismatch: %q != %q", fromBytes.String(), original.String())
	}

	if err := fromBytes.Scan(42); err == nil {
		t.Error("expected error scanning an int")
	}
}

func TestUniqueness(t *testing.T) {
	a := id.NewTrackingEventID()
	b := id.NewTrackingEventID()
	if a.String() == b.String() {
		t.Errorf("two consecutive ids are equal: %q", a.String())
	}
}
