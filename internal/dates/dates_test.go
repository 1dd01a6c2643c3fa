package dates

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAddDaysCrossesMonth(t *testing.T) {
	now := time.Date(2026, time.January, 31, 23, 30, 0, 0, time.UTC)
	if got := AddDays(now, 1); got != "2026-02-01" {
		t.Fatalf("expected 2026-02-01, got %q", got)
	}
	if got := Day(now); got != "2026-01-31" {
		t.Fatalf("expected 2026-01-31, got %q", got)
	}
}

func TestDayUsesLocation(t *testing.T) {
	loc := time.FixedZone("east", 10*60*60)
	now := time.Date(2026, time.March, 1, 20, 0, 0, 0, time.UTC).In(loc)
	if got := Day(now); got != "2026-03-02" {
		t.Fatalf("expected 2026-03-02, got %q", got)
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	cases := []string{
		"2026-02-01T12:34:56.123456+00:00",
		"2026-02-01T12:34:56Z",
		"2026-02-01T12:34:56.123456",
		"2026-02-01 12:34:56.123456+00",
		"2026-02-01 12:34:56",
		"2026-02-01",
	}
	for _, value := range cases {
		t.Run(value, func(t *testing.T) {
			parsed, err := ParseTimestamp(value)
			if err != nil {
				t.Fatalf("parse %q: %v", value, err)
			}
			if Day(parsed.UTC()) != "2026-02-01" {
				t.Fatalf("expected day 2026-02-01, got %s", parsed)
			}
		})
	}
}

func TestTimestampJSON(t *testing.T) {
	var payload struct {
		CreatedAt Timestamp `json:"created_at"`
		ExpiresAt Timestamp `json:"expires_at"`
	}
	data := []byte(`{"created_at":"2026-02-01T12:00:00+02:00","expires_at":null}`)
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := payload.CreatedAt.String(); got != "2026-02-01T10:00:00.000000Z" {
		t.Fatalf("expected storage form, got %q", got)
	}
	if !payload.ExpiresAt.IsZero() {
		t.Fatalf("expected zero expires_at, got %v", payload.ExpiresAt)
	}
}

func TestTimestampScan(t *testing.T) {
	var ts Timestamp
	if err := ts.Scan([]byte("2026-02-01T10:00:00.000000Z")); err != nil {
		t.Fatalf("scan: %v", err)
	}
	value, err := ts.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if value != "2026-02-01T10:00:00.000000Z" {
		t.Fatalf("expected round trip, got %v", value)
	}
	if err := ts.Scan(42); err == nil {
		t.Fatalf("expected error scanning int")
	}
}
