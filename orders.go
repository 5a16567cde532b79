package peripheral

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderRecord is one round trip scraped from the brokerage's order-status
// page, in the shape the operator pastes into a trade journal.
type OrderRecord struct {
	EntryDate  string
	EntryTime  string
	Symbol     string
	Size       decimal.Decimal
	TradeType  string // "long" or "short"
	TradeStyle string // always "day" on this page
	EntryPrice decimal.Decimal
	ExitDate   string
	ExitTime   string
	ExitPrice  decimal.Decimal
}

// OrderStatusSpec describes the layout of the scraped order-status table.
// Every piece of it comes from the order_status configuration section, so
// the operator can track site changes without a new build.
type OrderStatusSpec struct {
	TableIdentifier   string
	SymbolRegex       *regexp.Regexp
	SymbolReplacement string
	MarginTrading     string
	BuyingOnMargin    string
	ExecutionColumn   int
	Execution         string
	DatetimeColumn    int
	DatetimePattern   *regexp.Regexp
	DateReplacement   string
	TimeReplacement   string
	SizeColumn        int
	PriceColumn       int
	OutputColumns     []string
}

// OrderStatusSpecFromConfig builds the table spec from the order_status
// section.
func OrderStatusSpecFromConfig(c *Config) (*OrderStatusSpec, error) {
	s := &OrderStatusSpec{
		TableIdentifier:   c.Get(SectionOrderStatus, "table_identifier"),
		SymbolReplacement: c.Get(SectionOrderStatus, "symbol_replacement"),
		MarginTrading:     c.Get(SectionOrderStatus, "margin_trading"),
		BuyingOnMargin:    c.Get(SectionOrderStatus, "buying_on_margin"),
		Execution:         c.Get(SectionOrderStatus, "execution"),
		DateReplacement:   c.Get(SectionOrderStatus, "date_replacement"),
		TimeReplacement:   c.Get(SectionOrderStatus, "time_replacement"),
	}

	var err error
	if s.SymbolRegex, err = regexp.Compile(c.Get(SectionOrderStatus, "symbol_regex")); err != nil {
		return nil, &ConfigError{Path: SectionOrderStatus + ".symbol_regex", Err: err}
	}
	if s.DatetimePattern, err = regexp.Compile(c.Get(SectionOrderStatus, "datetime_pattern")); err != nil {
		return nil, &ConfigError{Path: SectionOrderStatus + ".datetime_pattern", Err: err}
	}
	if s.ExecutionColumn, err = c.GetInt(SectionOrderStatus, "execution_column"); err != nil {
		return nil, err
	}
	if s.DatetimeColumn, err = c.GetInt(SectionOrderStatus, "datetime_column"); err != nil {
		return nil, err
	}
	if s.SizeColumn, err = c.GetInt(SectionOrderStatus, "size_column"); err != nil {
		return nil, err
	}
	if s.PriceColumn, err = c.GetInt(SectionOrderStatus, "price_column"); err != nil {
		return nil, err
	}
	s.OutputColumns = strings.Split(c.Get(SectionOrderStatus, "output_columns"), ",")
	return s, nil
}

// fill is one partial execution: a quantity at a price.
type fill struct {
	size  decimal.Decimal
	price decimal.Decimal
}

// ParseOrderTable walks the scraped order-status table and reconstructs the
// round trips.
//
// The page lays an order out as three rows (symbol, order kind, datetime and
// price) followed by one row per partial execution. A margin order opens a
// position; the matching non-margin order closes it and completes the
// record. When an order filled in several executions, the volume-weighted
// average price replaces the displayed order price.
//
// Rows that cannot be parsed are dropped with a warning; only an empty or
// structurally alien table is fatal to the caller.
func ParseOrderTable(t Table, spec *OrderStatusSpec, log *zap.Logger) []OrderRecord {
	var records []OrderRecord
	var cur OrderRecord
	var group []fill

	i := 0
	for i < len(t) {
		if t.Cell(i, spec.ExecutionColumn) == spec.Execution {
			if len(group) == 0 && i > 0 {
				if f, ok := fillAt(t, i-1, spec, log); ok {
					group = append(group, f)
				}
			}
			if f, ok := fillAt(t, i, spec, log); ok {
				group = append(group, f)
			}
			groupEnds := i+1 == len(t) || t.Cell(i+1, spec.ExecutionColumn) != spec.Execution
			if groupEnds && len(group) > 0 {
				avg := averagePrice(group)
				kind := t.Cell(i-len(group), spec.ExecutionColumn)
				if strings.Contains(kind, spec.MarginTrading) {
					cur.EntryPrice = avg
				} else if len(records) > 0 {
					records[len(records)-1].ExitPrice = avg
				}
				group = group[:0]
			}
			i++
			continue
		}

		if i+2 >= len(t) {
			log.Warn("dropping truncated order block", zap.Int("row", i))
			break
		}

		symbol := spec.SymbolRegex.ReplaceAllString(t.Cell(i, spec.ExecutionColumn), spec.SymbolReplacement)
		kind := t.Cell(i+1, spec.ExecutionColumn)
		datetime := t.Cell(i+2, spec.DatetimeColumn)
		date := spec.DatetimePattern.ReplaceAllString(datetime, spec.DateReplacement)
		clock := spec.DatetimePattern.ReplaceAllString(datetime, spec.TimeReplacement)

		size, err := decimal.NewFromString(t.Cell(i+1, spec.SizeColumn))
		if err != nil {
			log.Warn("dropping order block with unreadable size",
				zap.Int("row", i), zap.String("size", t.Cell(i+1, spec.SizeColumn)))
			i += 3
			continue
		}
		price, err := decimal.NewFromString(t.Cell(i+2, spec.PriceColumn))
		if err != nil {
			log.Warn("dropping order block with unreadable price",
				zap.Int("row", i), zap.String("price", t.Cell(i+2, spec.PriceColumn)))
			i += 3
			continue
		}

		cur.Symbol = symbol
		cur.Size = size
		cur.TradeStyle = "day"
		if strings.Contains(kind, spec.MarginTrading) {
			cur.EntryDate = date
			cur.EntryTime = clock
			cur.EntryPrice = price
			if strings.Contains(kind, spec.BuyingOnMargin) {
				cur.TradeType = "long"
			} else {
				cur.TradeType = "short"
			}
		} else {
			cur.ExitDate = date
			cur.ExitTime = clock
			cur.ExitPrice = price
			records = append(records, cur)
		}
		i += 3
	}
	return records
}

func fillAt(t Table, row int, spec *OrderStatusSpec, log *zap.Logger) (fill, bool) {
	size, err := decimal.NewFromString(t.Cell(row, spec.SizeColumn))
	if err != nil {
		log.Warn("dropping execution with unreadable size", zap.Int("row", row))
		return fill{}, false
	}
	price, err := decimal.NewFromString(t.Cell(row, spec.PriceColumn))
	if err != nil {
		log.Warn("dropping execution with unreadable price", zap.Int("row", row))
		return fill{}, false
	}
	return fill{size: size, price: price}, true
}

// averagePrice is the volume-weighted average price of a group of fills.
func averagePrice(group []fill) decimal.Decimal {
	var notional, volume decimal.Decimal
	for _, f := range group {
		notional = notional.Add(f.size.Mul(f.price))
		volume = volume.Add(f.size)
	}
	if volume.IsZero() {
		return decimal.Zero
	}
	return notional.Div(volume)
}

// ClipboardText renders the records as tab-separated rows in the configured
// column order, ready to paste into a spreadsheet trade journal. Column
// names that match no record field produce an empty cell. A single record is
// padded with an empty second row so a paste always spans two journal rows.
func ClipboardText(records []OrderRecord, columns []string) string {
	var b strings.Builder
	writeRow := func(r *OrderRecord) {
		for i, col := range columns {
			if i > 0 {
				b.WriteByte('\t')
			}
			if r != nil {
				b.WriteString(orderField(*r, col))
			}
		}
		b.WriteByte('\n')
	}
	for i := range records {
		writeRow(&records[i])
	}
	if len(records) == 1 {
		writeRow(nil)
	}
	return b.String()
}

func orderField(r OrderRecord, column string) string {
	switch column {
	case "entry_date":
		return r.EntryDate
	case "entry_time":
		return r.EntryTime
	case "symbol":
		return r.Symbol
	case "size":
		return r.Size.String()
	case "trade_type":
		return r.TradeType
	case "trade_style":
		return r.TradeStyle
	case "entry_price":
		return r.EntryPrice.String()
	case "exit_date":
		return r.ExitDate
	case "exit_time":
		return r.ExitTime
	case "exit_price":
		return r.ExitPrice.String()
	}
	return ""
}

// OrdersSummary aggregates the scraped round trips for the console report.
type OrdersSummary struct {
	Records       int
	LongNotional  *money.Money
	ShortNotional *money.Money
}

// Summarize totals the entry notionals per side, in yen.
func Summarize(records []OrderRecord) OrdersSummary {
	long := decimal.Zero
	short := decimal.Zero
	for _, r := range records {
		notional := r.EntryPrice.Mul(r.Size)
		if r.TradeType == "short" {
			short = short.Add(notional)
		} else {
			long = long.Add(notional)
		}
	}
	return OrdersSummary{
		Records:       len(records),
		LongNotional:  money.New(long.Round(0).IntPart(), money.JPY),
		ShortNotional: money.New(short.Round(0).IntPart(), money.JPY),
	}
}

// Markdown renders the summary as a small markdown report.
func (s OrdersSummary) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Order Status\n\n")
	fmt.Fprintf(&b, "%d round trip(s) copied to the clipboard.\n\n", s.Records)
	fmt.Fprintf(&b, "| Side | Entry Notional |\n|---|---|\n")
	fmt.Fprintf(&b, "| long | %s |\n", s.LongNotional.Display())
	fmt.Fprintf(&b, "| short | %s |\n", s.ShortNotional.Display())
	return b.String()
}
