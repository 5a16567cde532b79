package peripheral

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// yahooHeader is the fixed header of the Yahoo Finance portfolio import
// format. Only the Symbol column is filled; the rest is left for the site.
var yahooHeader = []string{
	"Symbol", "Current Price", "Date", "Time", "Change", "Open",
	"High", "Low", "Volume", "Trade Date", "Purchase Price",
	"Quantity", "Commission", "High Limit", "Low Limit", "Comment",
}

// yahooMarketSuffix maps the application's market codes to Yahoo Finance
// ticker suffixes. Nagoya-only listings do not really exist on Yahoo but
// the mapping is kept for completeness.
var yahooMarketSuffix = map[string]string{
	"TKY": ".T",
	"SPR": ".S",
	"NGY": ".N",
	"FKO": ".F",
}

// YahooSymbol returns the Yahoo Finance ticker for a watchlist entry, and
// whether the entry is exportable at all (stocks on a known market).
func YahooSymbol(e WatchlistEntry) (string, bool) {
	if e.Kind != "ST" {
		return "", false
	}
	suffix, ok := yahooMarketSuffix[e.Market]
	if !ok {
		return "", false
	}
	return e.Symbol + suffix, true
}

// WriteYahooCSV writes one watchlist in the Yahoo Finance import format.
// Entries are written in reverse order, matching how the application stores
// them. Entries with an unknown market code are dropped with a warning;
// non-stock rows are simply not exportable and skipped.
func WriteYahooCSV(w io.Writer, entries []WatchlistEntry, log *zap.Logger) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(yahooHeader); err != nil {
		return err
	}
	row := make([]string, len(yahooHeader))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		symbol, ok := YahooSymbol(e)
		if !ok {
			if e.Kind == "ST" {
				log.Warn("dropping entry with unknown market code",
					zap.String("symbol", e.Symbol), zap.String("market", e.Market))
			}
			continue
		}
		row[0] = symbol
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportYahooCSV writes one CSV file per watchlist into dir and returns the
// watchlist names in order of first appearance. The browser import script
// later walks the same names.
func ExportYahooCSV(dir string, entries []WatchlistEntry, log *zap.Logger) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var names []string
	byList := map[string][]WatchlistEntry{}
	for _, e := range entries {
		if _, ok := byList[e.List]; !ok {
			names = append(names, e.List)
		}
		byList[e.List] = append(byList[e.List], e)
	}

	for _, name := range names {
		path := filepath.Join(dir, name+".csv")
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("cannot create %q: %w", path, err)
		}
		if err := WriteYahooCSV(f, byList[name], log); err != nil {
			f.Close()
			return nil, fmt.Errorf("cannot write %q: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
		log.Info("exported watchlist", zap.String("list", name), zap.String("file", path))
	}
	return names, nil
}
