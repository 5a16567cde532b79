package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	peripheral "github.com/oyamada/tradeperipheral"
)

type exportCmd struct{}

func (*exportCmd) Name() string { return "export" }
func (*exportCmd) Synopsis() string {
	return "export watchlists as Yahoo Finance import CSV files"
}
func (*exportCmd) Usage() string {
	return `tp export

  Reads the application's portfolio file and writes one CSV file per
  watchlist into the configured CSV directory, in the Yahoo Finance
  portfolio import format.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {}

func (c *exportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := newLogger()
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	names, err := exportWatchlists(cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	for _, name := range names {
		fmt.Printf("Exported watchlist %q\n", name)
	}
	return subcommands.ExitSuccess
}

// exportWatchlists reads the portfolio file and writes the per-list CSVs,
// returning the watchlist names. The publish command reuses it so the CSVs
// the browser imports are always fresh.
func exportWatchlists(cfg *peripheral.Config, log *zap.Logger) ([]string, error) {
	portfolio := cfg.Get(peripheral.SectionGeneral, peripheral.OptPortfolio)
	if portfolio == "" {
		return nil, fmt.Errorf("no portfolio file configured and none discovered; run 'tp config'")
	}
	entries, err := peripheral.ReadWatchlists(portfolio, log)
	if err != nil {
		return nil, err
	}
	return peripheral.ExportYahooCSV(
		cfg.Get(peripheral.SectionGeneral, peripheral.OptCSVDir), entries, log)
}
