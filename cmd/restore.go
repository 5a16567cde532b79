package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/oyamada/tradeperipheral/archive"
)

type restoreCmd struct {
	dest string
}

func (*restoreCmd) Name() string { return "restore" }
func (*restoreCmd) Synopsis() string {
	return "restore a snapshot archive into a directory"
}
func (*restoreCmd) Usage() string {
	return `tp restore [-d <directory>] <archive>

  Decrypts and unpacks a snapshot archive. The destination defaults to the
  current directory; restoring never writes outside of it.
`
}

func (c *restoreCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dest, "d", ".", "Directory to restore into.")
}

func (c *restoreCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "expected exactly one archive path")
		return subcommands.ExitUsageError
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	passphrase, err := passphraseFor(cfg, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	manifest, err := archive.Restore(f.Arg(0), c.dest, passphrase)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Restored snapshot %s (%d file(s), taken %s) into %s\n",
		manifest.ID, manifest.Files,
		manifest.CreatedAt.Local().Format("2006-01-02 15:04"), c.dest)
	return subcommands.ExitSuccess
}
