package peripheral

import (
	"errors"
	"testing"
)

const pageFixture = `<html><body>
<table>
  <tr><th>other</th></tr>
  <tr><td>nothing of interest</td></tr>
</table>
<table>
  <tr><td>
    <table>
      <tr><th> Service </th><th>Window</th></tr>
      <tr><td>HYPER 2</td><td>  01:00  </td></tr>
    </table>
  </td></tr>
</table>
<table>
  <tr><td>HYPER 2</td><td>second match</td></tr>
</table>
</body></html>`

func TestExtractTables(t *testing.T) {
	tables, err := ExtractTables(pageFixture, "HYPER 2")
	if err != nil {
		t.Fatalf("ExtractTables: %v", err)
	}
	// the outer wrapper table also contains the match but only the
	// innermost one and the flat one should be kept
	if len(tables) != 2 {
		t.Fatalf("got %d tables, want 2: %v", len(tables), tables)
	}
	if got := tables[0].Cell(0, 0); got != "Service" {
		t.Errorf("header cell = %q, want trimmed %q", got, "Service")
	}
	if got := tables[0].Cell(1, 1); got != "01:00" {
		t.Errorf("cell = %q, want trimmed %q", got, "01:00")
	}
	if got := tables[1].Cell(0, 1); got != "second match" {
		t.Errorf("cell = %q, want %q", got, "second match")
	}
}

func TestExtractTablesNoMatch(t *testing.T) {
	_, err := ExtractTables(pageFixture, "no such text")
	var derr *DataFormatError
	if !errors.As(err, &derr) {
		t.Fatalf("ExtractTables = %v, want a *DataFormatError", err)
	}
}

func TestCellOutOfRange(t *testing.T) {
	table := Table{{"a", "b"}}
	tests := []struct {
		row, col int
		want     string
	}{
		{0, 0, "a"},
		{0, 1, "b"},
		{0, 2, ""},
		{1, 0, ""},
		{-1, 0, ""},
		{0, -1, ""},
	}
	for _, tt := range tests {
		if got := table.Cell(tt.row, tt.col); got != tt.want {
			t.Errorf("Cell(%d, %d) = %q, want %q", tt.row, tt.col, got, tt.want)
		}
	}
}
