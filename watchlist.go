package peripheral

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/PaesslerAG/jsonpath"
	"go.uber.org/zap"
)

// WatchlistEntry is one row of a watchlist in the trading application's
// portfolio file.
type WatchlistEntry struct {
	Symbol string // security code, e.g. "6758"
	Market string // market code, e.g. "TKY"
	Kind   string // security kind, "ST" for stocks
	List   string // watchlist name the entry belongs to
}

// ReadWatchlists parses the trading application's portfolio JSON file into
// watchlist entries. The file format belongs to the application, not to this
// tool, so the extraction is tolerant: rows missing a field are dropped with
// a warning, only a missing file or an unrecognizable document is fatal.
func ReadWatchlists(path string, log *zap.Logger) ([]WatchlistEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DataFormatError{Source: path, Err: err}
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &DataFormatError{Source: path, Err: err}
	}

	lists, err := jsonpath.Get("$.list", doc)
	if err != nil {
		return nil, &DataFormatError{Source: path, Err: fmt.Errorf("no watchlists found: %w", err)}
	}
	items, ok := lists.([]interface{})
	if !ok {
		return nil, &DataFormatError{Source: path, Err: fmt.Errorf("watchlist container is not a list")}
	}

	var entries []WatchlistEntry
	for i, item := range items {
		list, ok := item.(map[string]interface{})
		if !ok {
			log.Warn("skipping malformed watchlist", zap.Int("index", i))
			continue
		}
		name, _ := list["listName"].(string)
		if name == "" {
			log.Warn("skipping watchlist without a name", zap.Int("index", i))
			continue
		}
		rows, _ := list["secList"].([]interface{})
		for j, row := range rows {
			sec, ok := row.(map[string]interface{})
			if !ok {
				log.Warn("skipping malformed watchlist row",
					zap.String("list", name), zap.Int("row", j))
				continue
			}
			code, _ := sec["secCd"].(string)
			if code == "" {
				log.Warn("skipping watchlist row without a security code",
					zap.String("list", name), zap.Int("row", j))
				continue
			}
			market, _ := sec["marketCd"].(string)
			kind, _ := sec["secKbn"].(string)
			entries = append(entries, WatchlistEntry{
				Symbol: code,
				Market: market,
				Kind:   kind,
				List:   name,
			})
		}
	}
	return entries, nil
}
