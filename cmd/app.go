// Package cmd implements the CLI application bridging the desktop trading
// application with the brokerage website and a few consumer services.
// A main package registers Commands and executes the user-selected one.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"net/http"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	peripheral "github.com/oyamada/tradeperipheral"
	"github.com/oyamada/tradeperipheral/browser"
	"github.com/oyamada/tradeperipheral/gcal"
	"github.com/oyamada/tradeperipheral/gmail"
	"github.com/oyamada/tradeperipheral/googleauth"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to
// use global variables.

var (
	configFile = flag.String("config-file", peripheral.DefaultConfigPath(), "Path to the configuration file")
	Verbose    = flag.Bool("v", false, "Verbose diagnostics")
)

// Commands lists every action of the tool. Each one is independent: it
// reads the configuration, performs its fixed sequence, and exits.
var Commands = []subcommands.Command{
	&backupCmd{},
	&exportCmd{},
	&publishCmd{},
	&replaceCmd{},
	&ordersCmd{},
	&scheduleCmd{},
	&snapshotCmd{},
	&restoreCmd{},
	&configCmd{},
	&authorizeCmd{},
	&topicCmd{},
}

// loadConfig opens the configuration store every action starts from.
func loadConfig() (*peripheral.Config, error) {
	return peripheral.LoadConfig(*configFile)
}

// newLogger builds the diagnostics logger: chatty in verbose mode, warnings
// only otherwise.
func newLogger() *zap.Logger {
	if *Verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return zap.NewNop()
		}
		return logger
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// browserOptions assembles the session options from the general section.
func browserOptions(cfg *peripheral.Config) (browser.Options, error) {
	wait, err := cfg.GetDuration(peripheral.SectionGeneral, peripheral.OptWait)
	if err != nil {
		return browser.Options{}, err
	}
	return browser.Options{
		Headless:         cfg.GetBool(peripheral.SectionGeneral, peripheral.OptHeadless),
		UserDataDir:      cfg.Get(peripheral.SectionGeneral, peripheral.OptUserDataDir),
		ProfileDirectory: cfg.Get(peripheral.SectionGeneral, peripheral.OptProfileDir),
		Wait:             wait,
	}, nil
}

// runAction loads a named script from the actions section, expands its
// placeholders against the configuration, and replays it in the browser.
func runAction(ctx context.Context, cfg *peripheral.Config, log *zap.Logger, action string) (*browser.Result, error) {
	raw, ok := cfg.Lookup(peripheral.SectionActions, action)
	if !ok {
		return nil, fmt.Errorf("no %q script in the %s section", action, peripheral.SectionActions)
	}
	script, err := browser.ParseScript([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("action %q: %w", action, err)
	}
	script, err = script.Expand(cfg.Lookup)
	if err != nil {
		return nil, fmt.Errorf("action %q: %w", action, err)
	}
	opts, err := browserOptions(cfg)
	if err != nil {
		return nil, err
	}
	return browser.Run(ctx, opts, script, log)
}

// googleScopes is the full set of scopes the tool ever needs. Authorizing
// them together keeps one cached token valid for every action.
var googleScopes = []string{gcal.Scope, gmail.Scope}

// googleClient returns the authorized HTTP client for the consumer APIs.
func googleClient(ctx context.Context, cfg *peripheral.Config) (*http.Client, error) {
	return googleauth.Client(ctx,
		cfg.Get(peripheral.SectionGoogle, peripheral.OptCredentials),
		cfg.Get(peripheral.SectionGoogle, peripheral.OptToken),
		googleScopes...)
}
