// Package temporal parses the free-form timestamps found in trip exports and
// renders them in the canonical UTC form stored in the database.
package temporal

import (
	"fmt"
	"strings"
	"time"
)

// CanonicalLayout is the ISO-8601 UTC form every stored timestamp uses.
// Lexical order of canonical strings equals chronological order.
const CanonicalLayout = "2006-01-02T15:04:05.000Z"

// Layouts that carry their own offset.
var zonedLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 Z07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02T15:04:05-0700",
}

// Layouts without an offset; they are read in the normalizer's location.
// Fractional seconds are accepted after the seconds field of any layout.
var localLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Normalizer converts raw timestamps to canonical UTC strings.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer returns a Normalizer reading offset-less timestamps in loc.
// A nil loc means UTC.
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{loc: loc}
}

// Location returns the zone used for offset-less inputs.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Parse parses raw into an instant. ok is false when no layout matches.
func (n *Normalizer) Parse(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, n.loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Normalize returns raw converted to UTC in CanonicalLayout.
func (n *Normalizer) Normalize(raw string) (string, bool) {
	t, ok := n.Parse(raw)
	if !ok {
		return "", false
	}
	return t.UTC().Format(CanonicalLayout), true
}

// PickupHour returns the UTC hour of day (0-23) of raw.
func (n *Normalizer) PickupHour(raw string) (int, bool) {
	t, ok := n.Parse(raw)
	if !ok {
		return 0, false
	}
	return t.UTC().Hour(), true
}

var utcNormalizer = NewNormalizer(time.UTC)

// NormalizeTimestamp normalizes raw, reading offset-less values as UTC.
func NormalizeTimestamp(raw string) (string, bool) {
	return utcNormalizer.Normalize(raw)
}

// ExtractPickupHour returns the UTC hour of raw, reading offset-less values as UTC.
// Callers pass the already normalized pickup timestamp.
func ExtractPickupHour(raw string) (int, bool) {
	return utcNormalizer.PickupHour(raw)
}

// LoadLocation resolves a zone name; empty means UTC.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "UTC") {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", name, err)
	}
	return loc, nil
}
