package peripheral

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testSpec(t *testing.T) *OrderStatusSpec {
	t.Helper()
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	spec, err := OrderStatusSpecFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return spec
}

// row builds an order-table row with the given cells at the columns the
// default layout uses: description 3, datetime 5, size 6, price 7.
func row(desc, datetime, size, price string) []string {
	return []string{"", "", "", desc, "", datetime, size, price}
}

func TestParseOrderTableRoundTrip(t *testing.T) {
	spec := testSpec(t)
	table := Table{
		row("ソニーグループ 6758 東証", "", "", ""),
		row("信新買", "", "100", ""),
		row("", "08/25 09:01:23", "", "530.5"),
		row("ソニーグループ 6758 東証", "", "", ""),
		row("信返売", "", "100", ""),
		row("", "08/25 09:31:00", "", "534"),
	}

	records := ParseOrderTable(table, spec, zap.NewNop())
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1: %+v", len(records), records)
	}
	r := records[0]
	if r.Symbol != "6758" {
		t.Errorf("Symbol = %q, want %q", r.Symbol, "6758")
	}
	if r.TradeType != "long" {
		t.Errorf("TradeType = %q, want %q", r.TradeType, "long")
	}
	if r.TradeStyle != "day" {
		t.Errorf("TradeStyle = %q, want %q", r.TradeStyle, "day")
	}
	if r.EntryDate != "08/25" || r.EntryTime != "09:01:23" {
		t.Errorf("entry datetime = %q %q, want 08/25 09:01:23", r.EntryDate, r.EntryTime)
	}
	if !r.EntryPrice.Equal(decimal.RequireFromString("530.5")) {
		t.Errorf("EntryPrice = %s, want 530.5", r.EntryPrice)
	}
	if r.ExitDate != "08/25" || r.ExitTime != "09:31:00" {
		t.Errorf("exit datetime = %q %q, want 08/25 09:31:00", r.ExitDate, r.ExitTime)
	}
	if !r.ExitPrice.Equal(decimal.RequireFromString("534")) {
		t.Errorf("ExitPrice = %s, want 534", r.ExitPrice)
	}
	if !r.Size.Equal(decimal.RequireFromString("100")) {
		t.Errorf("Size = %s, want 100", r.Size)
	}
}

func TestParseOrderTableAveragesEntryFills(t *testing.T) {
	spec := testSpec(t)
	table := Table{
		row("テスト 1234 東証", "", "", ""),
		row("信新売", "", "200", ""),
		row("", "08/25 10:00:00", "100", "500"),
		row("約定", "", "100", "510"),
		row("テスト 1234 東証", "", "", ""),
		row("信返買", "", "200", ""),
		row("", "08/25 10:30:00", "200", "490"),
	}

	records := ParseOrderTable(table, spec, zap.NewNop())
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1: %+v", len(records), records)
	}
	r := records[0]
	if r.TradeType != "short" {
		t.Errorf("TradeType = %q, want %q", r.TradeType, "short")
	}
	// two 100-share fills at 500 and 510 average to 505
	if !r.EntryPrice.Equal(decimal.RequireFromString("505")) {
		t.Errorf("EntryPrice = %s, want the volume-weighted 505", r.EntryPrice)
	}
	if !r.ExitPrice.Equal(decimal.RequireFromString("490")) {
		t.Errorf("ExitPrice = %s, want 490", r.ExitPrice)
	}
}

func TestParseOrderTableAveragesExitFills(t *testing.T) {
	spec := testSpec(t)
	table := Table{
		row("テスト 1234 東証", "", "", ""),
		row("信新買", "", "200", ""),
		row("", "08/25 09:00:00", "200", "500"),
		row("テスト 1234 東証", "", "", ""),
		row("信返売", "", "200", ""),
		row("", "08/25 11:00:00", "100", "520"),
		row("約定", "", "100", "530"),
	}

	records := ParseOrderTable(table, spec, zap.NewNop())
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1: %+v", len(records), records)
	}
	if !records[0].ExitPrice.Equal(decimal.RequireFromString("525")) {
		t.Errorf("ExitPrice = %s, want the volume-weighted 525", records[0].ExitPrice)
	}
}

func TestParseOrderTableDropsUnreadableBlocks(t *testing.T) {
	spec := testSpec(t)
	core, logs := observer.New(zap.WarnLevel)
	table := Table{
		row("ゴミ 9999 東証", "", "", ""),
		row("信新買", "", "-", ""), // unreadable size
		row("", "08/25 09:00:00", "", "500"),
		row("ソニーグループ 6758 東証", "", "", ""),
		row("信新買", "", "100", ""),
		row("", "08/25 09:01:23", "", "530.5"),
		row("ソニーグループ 6758 東証", "", "", ""),
		row("信返売", "", "100", ""),
		row("", "08/25 09:31:00", "", "534"),
	}

	records := ParseOrderTable(table, spec, zap.New(core))
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1: %+v", len(records), records)
	}
	if logs.Len() == 0 {
		t.Error("dropping a block should warn")
	}
}

func TestClipboardText(t *testing.T) {
	spec := testSpec(t)
	records := []OrderRecord{{
		EntryDate:  "08/25",
		EntryTime:  "09:01:23",
		Symbol:     "6758",
		Size:       decimal.RequireFromString("100"),
		TradeType:  "long",
		TradeStyle: "day",
		EntryPrice: decimal.RequireFromString("530.5"),
		ExitDate:   "08/25",
		ExitTime:   "09:31:00",
		ExitPrice:  decimal.RequireFromString("534"),
	}}

	got := ClipboardText(records, spec.OutputColumns)
	want := "08/25\t\t\t09:01:23\t6758\t100\tlong\tday\t530.5\t\t\t08/25\t09:31:00\t534\n" +
		strings.Repeat("\t", len(spec.OutputColumns)-1) + "\n"
	if got != want {
		t.Errorf("ClipboardText = %q, want %q", got, want)
	}

	// two records paste as exactly two rows, no padding
	two := ClipboardText(append(records, records[0]), spec.OutputColumns)
	if n := strings.Count(two, "\n"); n != 2 {
		t.Errorf("two records render %d lines, want 2", n)
	}
}

func TestSummarize(t *testing.T) {
	records := []OrderRecord{
		{TradeType: "long", Size: decimal.RequireFromString("100"), EntryPrice: decimal.RequireFromString("530.5")},
		{TradeType: "short", Size: decimal.RequireFromString("200"), EntryPrice: decimal.RequireFromString("500")},
	}
	s := Summarize(records)
	if s.Records != 2 {
		t.Errorf("Records = %d, want 2", s.Records)
	}
	if got := s.LongNotional.Amount(); got != 53050 {
		t.Errorf("long notional = %d, want 53050", got)
	}
	if got := s.ShortNotional.Amount(); got != 100000 {
		t.Errorf("short notional = %d, want 100000", got)
	}
	md := s.Markdown()
	if !strings.Contains(md, "2 round trip(s)") {
		t.Errorf("Markdown missing record count:\n%s", md)
	}
}
