// Package peripheral contains the domain logic of the `tp` command-line
// tool, a personal bridge between the Hyper SBI 2 desktop trading
// application, the brokerage and portfolio websites, and a few consumer
// services (calendar, mail, local encrypted snapshots).
//
// The package is deliberately small and transient: apart from the
// configuration file and snapshot archives on disk, every value it produces
// lives for a single invocation. The main pieces are:
//   - Configuration Store: a sectioned key-value file with defaults,
//     whole-file atomic saves and interactive filling of missing options.
//   - Watchlist Reader: parses the trading application's portfolio JSON
//     into (symbol, list) records.
//   - Data Transforms: pure conversions from scraped tables and watchlists
//     into Yahoo-Finance import CSV, clipboard text, calendar payloads and
//     console summaries.
//
// Browser scripting, archive encryption and the calendar/mail adapters live
// in their own subpackages; this package only defines what flows between
// them.
package peripheral
