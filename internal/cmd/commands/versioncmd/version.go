// Package versioncmd implements the command that prints the build version.
package versioncmd

import (
	"github.com/docworks-io/docvault/internal/cmd/base"
	"github.com/docworks-io/docvault/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return "Usage: docvault version"
}

func (c *Command) Run(args []string) int {
	c.UI.Output(version.Version)
	return 0
}
