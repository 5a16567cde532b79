package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/google/subcommands"

	peripheral "github.com/oyamada/tradeperipheral"
)

type ordersCmd struct{}

func (*ordersCmd) Name() string { return "orders" }
func (*ordersCmd) Synopsis() string {
	return "scrape today's order status and copy it to the clipboard"
}
func (*ordersCmd) Usage() string {
	return `tp orders

  Drives the browser to the brokerage's order inquiry page, reconstructs
  the round trips from the order table, copies them to the clipboard as
  tab-separated journal rows and prints a notional summary.
`
}

func (c *ordersCmd) SetFlags(f *flag.FlagSet) {}

func (c *ordersCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := newLogger()
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	spec, err := peripheral.OrderStatusSpecFromConfig(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	res, err := runAction(ctx, cfg, log, "get_order_status")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	tables, err := peripheral.ExtractTables(res.HTML, spec.TableIdentifier)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	// the page nests a summary table before the actual order table
	table := tables[0]
	if len(tables) > 1 {
		table = tables[1]
	}

	records := peripheral.ParseOrderTable(table, spec, log)
	if len(records) == 0 {
		fmt.Println("No completed round trips found.")
		return subcommands.ExitSuccess
	}

	if err := clipboard.WriteAll(peripheral.ClipboardText(records, spec.OutputColumns)); err != nil {
		fmt.Fprintf(os.Stderr, "cannot write to the clipboard: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(peripheral.Summarize(records).Markdown())
	return subcommands.ExitSuccess
}
