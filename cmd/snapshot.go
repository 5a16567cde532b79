package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/google/subcommands"

	peripheral "github.com/oyamada/tradeperipheral"
	"github.com/oyamada/tradeperipheral/archive"
)

type snapshotCmd struct {
	output string
}

func (*snapshotCmd) Name() string { return "snapshot" }
func (*snapshotCmd) Synopsis() string {
	return "archive the application data directory to an encrypted snapshot"
}
func (*snapshotCmd) Usage() string {
	return `tp snapshot [-o <archive>]

  Archives the configured application data directory into a compressed,
  passphrase-encrypted snapshot file. An existing archive at the target
  path is never overwritten silently: the command asks first.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Archive path. Defaults to a timestamped file in the snapshot directory.")
}

func (c *snapshotCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := newLogger()
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	dest := c.output
	if dest == "" {
		dest = filepath.Join(
			cfg.Get(peripheral.SectionArchive, peripheral.OptSnapshotDir),
			fmt.Sprintf("snapshot-%s.tpss", time.Now().Format("20060102-150405")))
	}

	passphrase, err := passphraseFor(cfg, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	opts := archive.Options{Passphrase: passphrase}
	srcDir := cfg.Get(peripheral.SectionArchive, peripheral.OptDataDir)
	manifest, err := archive.Snapshot(srcDir, dest, opts, log)

	var exists *archive.ExistsError
	if errors.As(err, &exists) {
		overwrite := false
		confirm := huh.NewConfirm().
			Title(fmt.Sprintf("Archive %s already exists. Overwrite?", exists.Path)).
			Value(&overwrite)
		if err := confirm.Run(); err != nil || !overwrite {
			fmt.Fprintln(os.Stderr, "snapshot aborted, existing archive kept")
			return subcommands.ExitFailure
		}
		opts.Overwrite = true
		manifest, err = archive.Snapshot(srcDir, dest, opts, log)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Snapshot %s: %d file(s) from %s written to %s\n",
		manifest.ID, manifest.Files, manifest.Source, dest)
	return subcommands.ExitSuccess
}

// passphraseFor resolves the archive passphrase: from the configured
// environment variable when set, interactively otherwise. When creating a
// snapshot an empty passphrase is allowed and means no encryption.
func passphraseFor(cfg *peripheral.Config, creating bool) (string, error) {
	env := cfg.Get(peripheral.SectionArchive, peripheral.OptPassphraseEnv)
	if env != "" {
		if p, ok := os.LookupEnv(env); ok {
			return p, nil
		}
	}

	title := "Archive passphrase"
	if creating {
		title = "Archive passphrase (empty for no encryption)"
	}
	var passphrase string
	input := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&passphrase)
	if err := input.Run(); err != nil {
		return "", err
	}
	return passphrase, nil
}
