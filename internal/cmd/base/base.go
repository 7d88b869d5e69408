// Package base carries the pieces shared by every CLI command.
package base

import (
	"flag"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command is embedded by all CLI commands.
type Command struct {
	// UI is the command line UI.
	UI cli.Ui

	// Log is the process logger.
	Log hclog.Logger
}

// NewCommand returns a base command for embedding.
func NewCommand(log hclog.Logger, ui cli.Ui) *Command {
	return &Command{Log: log, UI: ui}
}

// FlagSet wraps flag.FlagSet with help rendering.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet creates a named flag set.
func NewFlagSet(name string) *FlagSet {
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	return &FlagSet{FlagSet: f}
}

// Help renders the defined flags as an indented usage block.
func (f *FlagSet) Help() string {
	var b strings.Builder
	b.WriteString("Options:\n")
	f.VisitAll(func(fl *flag.Flag) {
		b.WriteString("  -" + fl.Name)
		if fl.DefValue != "" && fl.DefValue != "false" {
			b.WriteString("=" + fl.DefValue)
		}
		b.WriteString("\n      " + fl.Usage + "\n")
	})
	return b.String()
}
