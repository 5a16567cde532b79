package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/google/subcommands"

	peripheral "github.com/oyamada/tradeperipheral"
	"github.com/oyamada/tradeperipheral/googleauth"
)

type authorizeCmd struct{}

func (*authorizeCmd) Name() string     { return "authorize" }
func (*authorizeCmd) Synopsis() string { return "authorize calendar and mail access" }
func (*authorizeCmd) Usage() string {
	return `tp authorize

  Prints the consent URL, waits for the pasted authorization code and
  caches the resulting token. Run it once, and again whenever a scheduled
  action reports that the authorization expired.
`
}

func (c *authorizeCmd) SetFlags(f *flag.FlagSet) {}

func (c *authorizeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	credentials := cfg.Get(peripheral.SectionGoogle, peripheral.OptCredentials)
	token := cfg.Get(peripheral.SectionGoogle, peripheral.OptToken)

	url, err := googleauth.AuthURL(credentials, googleScopes...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Open this URL in a browser and approve the access:\n\n  %s\n\n", url)

	var code string
	input := huh.NewInput().
		Title("Authorization code").
		Value(&code)
	if err := input.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if err := googleauth.Exchange(ctx, credentials, token, code, googleScopes...); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Token cached at %s\n", token)
	return subcommands.ExitSuccess
}
