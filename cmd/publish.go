package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	peripheral "github.com/oyamada/tradeperipheral"
)

type publishCmd struct{}

func (*publishCmd) Name() string { return "publish" }
func (*publishCmd) Synopsis() string {
	return "publish watchlists as portfolios on Yahoo Finance"
}
func (*publishCmd) Usage() string {
	return `tp publish

  Exports the watchlists as CSV files and then drives the browser through
  the Yahoo Finance portfolio import flow once per watchlist, replacing any
  portfolio of the same name. The browser session reuses the configured
  profile, so the operator must already be signed in there.
`
}

func (c *publishCmd) SetFlags(f *flag.FlagSet) {}

func (c *publishCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
		// the script reads the current watchlist name through its
		// ${variables:watchlist} placeholders; this never hits the disk
		cfg.Set(peripheral.SectionVariables, "watchlist", name)
		if _, err := runAction(ctx, cfg, log, "export_to_yahoo_finance"); err != nil {
			fmt.Fprintf(os.Stderr, "publishing %q: %v\n", name, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Published watchlist %q\n", name)
	}
	return subcommands.ExitSuccess
}
