package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/google/subcommands"

	peripheral "github.com/oyamada/tradeperipheral"
)

// configBackups is how many superseded configuration files are kept around.
const configBackups = 8

type configCmd struct {
	get string
	set string
}

func (*configCmd) Name() string     { return "config" }
func (*configCmd) Synopsis() string { return "inspect or edit the configuration" }
func (*configCmd) Usage() string {
	return `tp config [-get <section.option>] [-set <section.option>=<value>]

  Without flags, walks a section interactively. -get prints a single value,
  -set stores one. The previous configuration file is backed up before any
  save, and a save that changes nothing leaves the file untouched.
`
}

func (c *configCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.get, "get", "", "Print the value of section.option.")
	f.StringVar(&c.set, "set", "", "Store section.option=value.")
}

func (c *configCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	switch {
	case c.get != "":
		section, option, ok := splitKey(c.get)
		if !ok {
			fmt.Fprintf(os.Stderr, "-get wants section.option, got %q\n", c.get)
			return subcommands.ExitUsageError
		}
		v, ok := cfg.Lookup(section, option)
		if !ok {
			fmt.Fprintf(os.Stderr, "no option %s.%s\n", section, option)
			return subcommands.ExitFailure
		}
		fmt.Println(v)
		return subcommands.ExitSuccess

	case c.set != "":
		key, value, found := strings.Cut(c.set, "=")
		section, option, ok := splitKey(key)
		if !found || !ok {
			fmt.Fprintf(os.Stderr, "-set wants section.option=value, got %q\n", c.set)
			return subcommands.ExitUsageError
		}
		if !cfg.Set(section, option, value) {
			fmt.Printf("%s.%s already set, nothing to save.\n", section, option)
			return subcommands.ExitSuccess
		}
		return saveConfig(cfg)

	default:
		changed, err := editInteractively(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		if !changed {
			fmt.Println("Nothing changed.")
			return subcommands.ExitSuccess
		}
		return saveConfig(cfg)
	}
}

func splitKey(key string) (section, option string, ok bool) {
	section, option, ok = strings.Cut(key, ".")
	return section, option, ok && section != "" && option != ""
}

// saveConfig backs up the current file, then writes the store.
func saveConfig(cfg *peripheral.Config) subcommands.ExitStatus {
	if _, err := os.Stat(cfg.Path()); err == nil {
		backupDir := filepath.Join(filepath.Dir(cfg.Path()), "backups")
		if _, err := peripheral.BackupFile(cfg.Path(), backupDir, configBackups); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}
	if err := cfg.Save(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Saved %s\n", cfg.Path())
	return subcommands.ExitSuccess
}

// editInteractively walks the operator through one section's options and
// reports whether any value changed.
func editInteractively(cfg *peripheral.Config) (bool, error) {
	sections := cfg.Sections()
	var section string
	pick := huh.NewSelect[string]().
		Title("Section").
		Options(huh.NewOptions(sections...)...).
		Value(&section)
	if err := pick.Run(); err != nil {
		return false, err
	}

	changed := false
	for _, option := range cfg.Options(section) {
		value := cfg.Get(section, option)
		var err error
		if strings.Contains(value, "\n") {
			// multi-line values (the action scripts) get the large editor
			text := huh.NewText().
				Title(fmt.Sprintf("%s.%s", section, option)).
				Value(&value)
			err = text.Run()
		} else {
			input := huh.NewInput().
				Title(fmt.Sprintf("%s.%s", section, option)).
				Suggestions(peripheral.Candidates(section, option)).
				Value(&value)
			err = input.Run()
		}
		if err != nil {
			return false, err
		}
		if cfg.Set(section, option, value) {
			changed = true
		}
	}
	return changed, nil
}
