package peripheral

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestYahooSymbol(t *testing.T) {
	tests := []struct {
		entry WatchlistEntry
		want  string
		ok    bool
	}{
		{WatchlistEntry{Symbol: "6758", Market: "TKY", Kind: "ST"}, "6758.T", true},
		{WatchlistEntry{Symbol: "1111", Market: "SPR", Kind: "ST"}, "1111.S", true},
		{WatchlistEntry{Symbol: "2222", Market: "NGY", Kind: "ST"}, "2222.N", true},
		{WatchlistEntry{Symbol: "3333", Market: "FKO", Kind: "ST"}, "3333.F", true},
		{WatchlistEntry{Symbol: "6758", Market: "TKY", Kind: "ET"}, "", false},
		{WatchlistEntry{Symbol: "6758", Market: "XXX", Kind: "ST"}, "", false},
	}
	for _, tt := range tests {
		got, ok := YahooSymbol(tt.entry)
		if got != tt.want || ok != tt.ok {
			t.Errorf("YahooSymbol(%+v) = %q, %v; want %q, %v", tt.entry, got, ok, tt.want, tt.ok)
		}
	}
}

func TestWriteYahooCSV(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	entries := []WatchlistEntry{
		{Symbol: "6758", Market: "TKY", Kind: "ST"},
		{Symbol: "1306", Market: "TKY", Kind: "ET"}, // not a stock, silently skipped
		{Symbol: "9999", Market: "XXX", Kind: "ST"}, // unknown market, warned
		{Symbol: "9434", Market: "TKY", Kind: "ST"},
	}

	var b strings.Builder
	if err := WriteYahooCSV(&b, entries, zap.New(core)); err != nil {
		t.Fatalf("WriteYahooCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus 2 rows:\n%s", len(lines), b.String())
	}
	if !strings.HasPrefix(lines[0], "Symbol,Current Price,") {
		t.Errorf("unexpected header %q", lines[0])
	}
	// the application stores entries newest first, so the export reverses
	if want := "9434.T" + strings.Repeat(",", 15); lines[1] != want {
		t.Errorf("row 1 = %q, want %q", lines[1], want)
	}
	if want := "6758.T" + strings.Repeat(",", 15); lines[2] != want {
		t.Errorf("row 2 = %q, want %q", lines[2], want)
	}
	if logs.Len() != 1 {
		t.Errorf("got %d warnings, want 1 for the unknown market", logs.Len())
	}
}

func TestExportYahooCSV(t *testing.T) {
	dir := t.TempDir()
	entries := []WatchlistEntry{
		{Symbol: "6758", Market: "TKY", Kind: "ST", List: "Watchlist 1"},
		{Symbol: "9434", Market: "TKY", Kind: "ST", List: "Watchlist 2"},
		{Symbol: "7203", Market: "TKY", Kind: "ST", List: "Watchlist 1"},
	}

	names, err := ExportYahooCSV(dir, entries, zap.NewNop())
	if err != nil {
		t.Fatalf("ExportYahooCSV: %v", err)
	}
	// names come back in order of first appearance
	if len(names) != 2 || names[0] != "Watchlist 1" || names[1] != "Watchlist 2" {
		t.Fatalf("names = %v, want [Watchlist 1 Watchlist 2]", names)
	}
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name+".csv"))
		if err != nil {
			t.Fatalf("missing export for %q: %v", name, err)
		}
		if !strings.HasPrefix(string(data), "Symbol,") {
			t.Errorf("export for %q has no header", name)
		}
	}
}
