package peripheral

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// MaintenanceWindow is one published time window during which the
// brokerage's systems are unavailable.
type MaintenanceWindow struct {
	Service string
	Start   time.Time
	End     time.Time
}

// The published page formats a window as "M/D（w）HH:MM〜HH:MM" or
// "M/D（w）HH:MM〜M/D（w）HH:MM", without a year.
var (
	maintDatetimePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})（.）(\d{1,2}:\d{2})$`)
	maintTimePattern     = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
)

const maintRangeSeparator = "〜"

// MaintenanceRanges locates the row for service in the scraped schedule
// table and returns the raw window strings found under the timeHeader
// column.
func MaintenanceRanges(t Table, service, timeHeader string) ([]string, error) {
	if len(t) == 0 {
		return nil, &DataFormatError{Source: "maintenance schedule", Err: fmt.Errorf("empty table")}
	}
	column := -1
	for i, cell := range t[0] {
		if strings.Contains(cell, timeHeader) {
			column = i
		}
	}
	if column < 0 {
		return nil, &DataFormatError{
			Source: "maintenance schedule",
			Err:    fmt.Errorf("no %q column", timeHeader),
		}
	}
	for _, row := range t[1:] {
		if len(row) == 0 || !strings.Contains(row[0], service) {
			continue
		}
		if column >= len(row) {
			break
		}
		return strings.Fields(row[column]), nil
	}
	return nil, &DataFormatError{
		Source: "maintenance schedule",
		Err:    fmt.Errorf("no row for service %q", service),
	}
}

// ParseMaintenanceWindows converts raw window strings into absolute time
// windows. The page omits the year, so each window is anchored to the year
// of now, rolling over to the next year when the start would otherwise lie
// in the past. Windows that do not parse are dropped with a warning.
func ParseMaintenanceWindows(ranges []string, service string, now time.Time, loc *time.Location, log *zap.Logger) []MaintenanceWindow {
	var windows []MaintenanceWindow
	for _, r := range ranges {
		parts := strings.Split(r, maintRangeSeparator)
		if len(parts) != 2 {
			log.Warn("dropping unrecognized maintenance window", zap.String("window", r))
			continue
		}
		start, ok := parseMaintDatetime(parts[0], now.Year(), loc)
		if !ok {
			log.Warn("dropping maintenance window with unreadable start", zap.String("window", r))
			continue
		}
		if start.Before(now) {
			// the date may not exist next year (Feb 29)
			start, ok = parseMaintDatetime(parts[0], now.Year()+1, loc)
			if !ok {
				log.Warn("dropping maintenance window with unreadable start", zap.String("window", r))
				continue
			}
		}

		var end time.Time
		if maintTimePattern.MatchString(parts[1]) {
			// same-day end, only a clock time is given
			clock, err := time.Parse("15:04", parts[1])
			if err != nil {
				log.Warn("dropping maintenance window with unreadable end", zap.String("window", r))
				continue
			}
			end = time.Date(start.Year(), start.Month(), start.Day(),
				clock.Hour(), clock.Minute(), 0, 0, loc)
		} else {
			end, ok = parseMaintDatetime(parts[1], start.Year(), loc)
			if !ok {
				log.Warn("dropping maintenance window with unreadable end", zap.String("window", r))
				continue
			}
		}
		windows = append(windows, MaintenanceWindow{Service: service, Start: start, End: end})
	}
	return windows
}

func parseMaintDatetime(s string, year int, loc *time.Location) (time.Time, bool) {
	m := maintDatetimePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-1-2 15:04",
		fmt.Sprintf("%d-%s-%s %s", year, m[1], m[2], m[3]), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Key identifies a window across runs: the same published window always
// maps to the same calendar event.
func (w MaintenanceWindow) Key() string {
	return fmt.Sprintf("%s-%s", strings.ReplaceAll(w.Service, " ", "_"),
		w.Start.UTC().Format("20060102T150405Z"))
}

// MaintenanceMarkdown renders the windows as a markdown table for the
// console.
func MaintenanceMarkdown(windows []MaintenanceWindow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Scheduled Maintenance\n\n")
	if len(windows) == 0 {
		fmt.Fprintf(&b, "No upcoming maintenance windows.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "| Service | Start | End |\n|---|---|---|\n")
	for _, w := range windows {
		fmt.Fprintf(&b, "| %s | %s | %s |\n",
			w.Service,
			w.Start.Format("2006-01-02 15:04 MST"),
			w.End.Format("2006-01-02 15:04 MST"))
	}
	return b.String()
}

// MaintenanceMailBody renders the windows as the plain-text body of a
// notification mail.
func MaintenanceMailBody(windows []MaintenanceWindow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Upcoming maintenance windows:\n\n")
	for _, w := range windows {
		fmt.Fprintf(&b, "  %s: %s - %s\n",
			w.Service,
			w.Start.Format(time.RFC1123),
			w.End.Format(time.RFC1123))
	}
	return b.String()
}
