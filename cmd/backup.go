package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	peripheral "github.com/oyamada/tradeperipheral"
)

type backupCmd struct {
	keep int
}

func (*backupCmd) Name() string { return "backup" }
func (*backupCmd) Synopsis() string {
	return "backup the trading application's portfolio file"
}
func (*backupCmd) Usage() string {
	return `tp backup [-keep <n>]

  Copies the application's portfolio.json into the configured backup
  directory under a timestamped name. With -keep, only the n most recent
  copies are retained.
`
}

func (c *backupCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.keep, "keep", 0, "Number of backups to retain (0 keeps everything).")
}

func (c *backupCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	portfolio := cfg.Get(peripheral.SectionGeneral, peripheral.OptPortfolio)
	if portfolio == "" {
		fmt.Fprintln(os.Stderr, "no portfolio file configured and none discovered; run 'tp config'")
		return subcommands.ExitFailure
	}

	dest, err := peripheral.BackupFile(portfolio,
		cfg.Get(peripheral.SectionGeneral, peripheral.OptBackupDir), c.keep)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Backed up %s to %s\n", portfolio, dest)
	return subcommands.ExitSuccess
}
