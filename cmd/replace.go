package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type replaceCmd struct{}

func (*replaceCmd) Name() string { return "replace" }
func (*replaceCmd) Synopsis() string {
	return "replace the brokerage website watchlists from the desktop application"
}
func (*replaceCmd) Usage() string {
	return `tp replace

  Drives the browser through the brokerage's watchlist replacement flow,
  overwriting the website watchlists with the desktop application's ones.
  The whole sequence either completes or fails as a unit; a failed step
  leaves the site flow wherever it was.
`
}

func (c *replaceCmd) SetFlags(f *flag.FlagSet) {}

func (c *replaceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := newLogger()
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if _, err := runAction(ctx, cfg, log, "replace_sbi_securities"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Println("Watchlists replaced on the brokerage website.")
	return subcommands.ExitSuccess
}
