package timezone

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata" // zone database fallback for hosts without one
)

// DisplayLayout is the wall-clock format returned to API clients.
const DisplayLayout = "2006-01-02 15:04:05"

var (
	ErrUnknownTimezone = errors.New("unknown timezone")
	ErrInvalidDatetime = errors.New("invalid datetime")
)

// Layouts carrying an explicit offset; they win over the caller's zone.
var offsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

// Naive wall-clock layouts interpreted in the caller's zone.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalizer converts between caller-local datetimes and the UTC instants
// kept in storage. Write paths use the strict ToUTC, read paths the lenient
// ToLocal.
type Normalizer struct{}

func New() Normalizer {
	return Normalizer{}
}

// ToUTC parses value and returns its UTC instant. A value with an explicit
// offset keeps that offset and tzName is ignored for it; a naive value is
// read as wall-clock time in tzName (empty means UTC). Unknown zones and
// unparseable values are errors.
func (n Normalizer) ToUTC(value string, tzName string) (time.Time, error) {
	loc, err := loadZone(tzName)
	if err != nil {
		return time.Time{}, err
	}

	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("datetime %q: %w", value, ErrInvalidDatetime)
}

// ToLocal renders a stored instant as wall-clock time in tzName. An unknown
// or empty zone falls back to UTC.
func (n Normalizer) ToLocal(t time.Time, tzName string) string {
	loc, err := loadZone(tzName)
	if err != nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DisplayLayout)
}

// loadZone resolves tzName against the zone database. Go's "Local" alias
// names the process zone, not a database entry, and reads as unknown here.
func loadZone(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	if name == "Local" {
		return nil, fmt.Errorf("timezone %q: %w", name, ErrUnknownTimezone)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", name, ErrUnknownTimezone)
	}
	return loc, nil
}
