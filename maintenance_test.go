package peripheral

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMaintenanceRanges(t *testing.T) {
	table := Table{
		{"サービス", "メンテナンス予定時間", "備考"},
		{"別サービス", "9/1（月）01:00〜02:00", ""},
		{"HYPER SBI 2", "10/5（日）01:00〜06:00 12/30（火）23:00〜12/31（水）05:00", ""},
	}

	ranges, err := MaintenanceRanges(table, "HYPER SBI 2", "メンテナンス予定時間")
	if err != nil {
		t.Fatalf("MaintenanceRanges: %v", err)
	}
	want := []string{"10/5（日）01:00〜06:00", "12/30（火）23:00〜12/31（水）05:00"}
	if len(ranges) != len(want) {
		t.Fatalf("got %d ranges, want %d: %v", len(ranges), len(want), ranges)
	}
	for i := range want {
		if ranges[i] != want[i] {
			t.Errorf("range %d = %q, want %q", i, ranges[i], want[i])
		}
	}
}

func TestMaintenanceRangesErrors(t *testing.T) {
	table := Table{
		{"サービス", "メンテナンス予定時間"},
		{"HYPER SBI 2", "10/5（日）01:00〜06:00"},
	}
	if _, err := MaintenanceRanges(table, "HYPER SBI 2", "no such header"); err == nil {
		t.Error("missing header column should be an error")
	}
	if _, err := MaintenanceRanges(table, "no such service", "メンテナンス予定時間"); err == nil {
		t.Error("missing service row should be an error")
	}
	if _, err := MaintenanceRanges(nil, "x", "y"); err == nil {
		t.Error("empty table should be an error")
	}
}

func TestParseMaintenanceWindows(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, loc)
	log := zap.NewNop()

	t.Run("same day", func(t *testing.T) {
		windows := ParseMaintenanceWindows([]string{"10/5（日）01:00〜06:00"}, "svc", now, loc, log)
		if len(windows) != 1 {
			t.Fatalf("got %d windows, want 1", len(windows))
		}
		w := windows[0]
		if want := time.Date(2026, 10, 5, 1, 0, 0, 0, loc); !w.Start.Equal(want) {
			t.Errorf("Start = %v, want %v", w.Start, want)
		}
		if want := time.Date(2026, 10, 5, 6, 0, 0, 0, loc); !w.End.Equal(want) {
			t.Errorf("End = %v, want %v", w.End, want)
		}
	})

	t.Run("explicit end day", func(t *testing.T) {
		windows := ParseMaintenanceWindows([]string{"10/5（日）23:00〜10/6（月）05:00"}, "svc", now, loc, log)
		if len(windows) != 1 {
			t.Fatalf("got %d windows, want 1", len(windows))
		}
		if want := time.Date(2026, 10, 6, 5, 0, 0, 0, loc); !windows[0].End.Equal(want) {
			t.Errorf("End = %v, want %v", windows[0].End, want)
		}
	})

	t.Run("year rollover", func(t *testing.T) {
		// a published January window seen in September belongs to next year
		windows := ParseMaintenanceWindows([]string{"1/4（日）01:00〜06:00"}, "svc", now, loc, log)
		if len(windows) != 1 {
			t.Fatalf("got %d windows, want 1", len(windows))
		}
		if want := time.Date(2027, 1, 4, 1, 0, 0, 0, loc); !windows[0].Start.Equal(want) {
			t.Errorf("Start = %v, want %v", windows[0].Start, want)
		}
	})

	t.Run("leap day cannot roll over", func(t *testing.T) {
		// Feb 29 exists in 2028 but not in 2029: once past, the window
		// is dropped instead of becoming a zero-time event
		core, logs := observer.New(zap.WarnLevel)
		leapNow := time.Date(2028, 3, 1, 0, 0, 0, 0, loc)
		windows := ParseMaintenanceWindows([]string{"2/29（火）01:00〜02:00"}, "svc", leapNow, loc, zap.New(core))
		if len(windows) != 0 {
			t.Fatalf("got %d windows, want 0: %+v", len(windows), windows)
		}
		if logs.Len() != 1 {
			t.Errorf("got %d warnings, want 1", logs.Len())
		}
	})

	t.Run("unparseable windows are dropped", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		windows := ParseMaintenanceWindows(
			[]string{"garbage", "10/5（日）01:00〜06:00", "10/x（日）01:00〜06:00"},
			"svc", now, loc, zap.New(core))
		if len(windows) != 1 {
			t.Fatalf("got %d windows, want 1", len(windows))
		}
		if logs.Len() != 2 {
			t.Errorf("got %d warnings, want 2", logs.Len())
		}
	})
}

func TestMaintenanceWindowKey(t *testing.T) {
	w := MaintenanceWindow{
		Service: "HYPER SBI 2",
		Start:   time.Date(2026, 10, 5, 1, 0, 0, 0, time.UTC),
	}
	if got, want := w.Key(), "HYPER_SBI_2-20261005T010000Z"; got != want {
		t.Errorf("Key = %q, want %q", got, want)
	}
}

func TestMaintenanceRendering(t *testing.T) {
	windows := []MaintenanceWindow{{
		Service: "svc",
		Start:   time.Date(2026, 10, 5, 1, 0, 0, 0, time.UTC),
		End:     time.Date(2026, 10, 5, 6, 0, 0, 0, time.UTC),
	}}
	md := MaintenanceMarkdown(windows)
	if !strings.Contains(md, "| svc | 2026-10-05 01:00 UTC | 2026-10-05 06:00 UTC |") {
		t.Errorf("unexpected markdown:\n%s", md)
	}
	if empty := MaintenanceMarkdown(nil); !strings.Contains(empty, "No upcoming") {
		t.Errorf("unexpected empty markdown:\n%s", empty)
	}
	body := MaintenanceMailBody(windows)
	if !strings.Contains(body, "svc:") {
		t.Errorf("unexpected mail body:\n%s", body)
	}
}
