package peripheral

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Table is a scraped HTML table: rows of trimmed cell texts.
type Table [][]string

// ExtractTables pulls every <table> whose text contains match out of an HTML
// document. It is the moral equivalent of reading tables off a page with a
// match filter, and the only structure the scraping actions rely on.
func ExtractTables(html, match string) ([]Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &DataFormatError{Source: "scraped page", Err: err}
	}

	var tables []Table
	doc.Find("table").Each(func(_ int, sel *goquery.Selection) {
		if match != "" && !strings.Contains(sel.Text(), match) {
			return
		}
		// nested tables also contain the match; keep only the innermost ones
		if sel.Find("table").Length() > 0 {
			return
		}
		var t Table
		sel.Find("tr").Each(func(_ int, row *goquery.Selection) {
			var cells []string
			row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			if len(cells) > 0 {
				t = append(t, cells)
			}
		})
		if len(t) > 0 {
			tables = append(tables, t)
		}
	})

	if len(tables) == 0 {
		return nil, &DataFormatError{
			Source: "scraped page",
			Err:    fmt.Errorf("no table matching %q", match),
		}
	}
	return tables, nil
}

// Cell returns the cell at (row, col), or "" when out of range.
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t) {
		return ""
	}
	if col < 0 || col >= len(t[row]) {
		return ""
	}
	return t[row][col]
}
