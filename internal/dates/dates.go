// Package dates formats calendar days and decodes store timestamps.
package dates

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DayLayout is the calendar-day format used for due dates.
const DayLayout = "2006-01-02"

// StorageLayout is the fixed-width UTC layout timestamps are written in.
// Values in this layout sort lexicographically in time order.
const StorageLayout = "2006-01-02T15:04:05.000000Z"

// Day returns the calendar day of t in t's location.
func Day(t time.Time) string {
	return t.Format(DayLayout)
}

// AddDays returns the calendar day n days after t.
func AddDays(t time.Time, n int) string {
	return t.AddDate(0, 0, n).Format(DayLayout)
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	DayLayout,
}

// ParseTimestamp parses the timestamp forms PostgREST and SQL drivers emit.
// Values without a zone are read as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range parseLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// Timestamp is a time decoded tolerantly from JSON or SQL.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// String returns the storage form of the timestamp.
func (ts Timestamp) String() string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(StorageLayout)
}

// MarshalJSON encodes the timestamp in storage form, or null when zero.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.String())
}

// UnmarshalJSON accepts null, or any layout ParseTimestamp understands.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		ts.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		ts.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	ts.Time = parsed
	return nil
}

// Scan implements sql.Scanner.
func (ts *Timestamp) Scan(src any) error {
	switch value := src.(type) {
	case nil:
		ts.Time = time.Time{}
		return nil
	case time.Time:
		ts.Time = value
		return nil
	case string:
		return ts.scanString(value)
	case []byte:
		return ts.scanString(string(value))
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (ts *Timestamp) scanString(value string) error {
	parsed, err := ParseTimestamp(value)
	if err != nil {
		return err
	}
	ts.Time = parsed
	return nil
}

// Value implements driver.Valuer.
func (ts Timestamp) Value() (driver.Value, error) {
	if ts.IsZero() {
		return nil, nil
	}
	return ts.String(), nil
}
