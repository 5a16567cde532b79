package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"

	"github.com/oyamada/tradeperipheral/cmd"
)

func main() {
	name := path.Base(os.Args[0])

	// shell completion: when invoked by the shell's completion hook this
	// prints the candidates and exits.
	sub := map[string]*complete.Command{}
	for _, c := range cmd.Commands {
		sub[c.Name()] = &complete.Command{}
	}
	completion := &complete.Command{Sub: sub}
	completion.Complete(name)

	commander := subcommands.NewCommander(flag.CommandLine, name)

	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
