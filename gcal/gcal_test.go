package gcal

import (
	"testing"
	"time"
)

func TestToCalendarEvent(t *testing.T) {
	ev := Event{
		Key:         "HYPER_SBI_2-20261005T010000Z",
		Summary:     "HYPER SBI 2 maintenance",
		Description: "desc",
		Start:       time.Date(2026, 10, 5, 1, 0, 0, 0, time.UTC),
		End:         time.Date(2026, 10, 5, 6, 0, 0, 0, time.UTC),
		TimeZone:    "Asia/Tokyo",
	}

	got := toCalendarEvent(ev)
	if got.Summary != ev.Summary {
		t.Errorf("Summary = %q, want %q", got.Summary, ev.Summary)
	}
	if got.Start.DateTime != "2026-10-05T01:00:00Z" {
		t.Errorf("Start.DateTime = %q", got.Start.DateTime)
	}
	if got.End.DateTime != "2026-10-05T06:00:00Z" {
		t.Errorf("End.DateTime = %q", got.End.DateTime)
	}
	if got.Start.TimeZone != "Asia/Tokyo" || got.End.TimeZone != "Asia/Tokyo" {
		t.Errorf("time zones = %q, %q", got.Start.TimeZone, got.End.TimeZone)
	}
	if got.ExtendedProperties == nil || got.ExtendedProperties.Private[keyProperty] != ev.Key {
		t.Errorf("key property not set: %+v", got.ExtendedProperties)
	}
}
