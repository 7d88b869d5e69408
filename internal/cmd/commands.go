package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/docworks-io/docvault/internal/cmd/base"
	"github.com/docworks-io/docvault/internal/cmd/commands/migrate"
	"github.com/docworks-io/docvault/internal/cmd/commands/server"
	"github.com/docworks-io/docvault/internal/cmd/commands/versioncmd"
)

// Commands is the mapping of all available CLI commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	baseCommand := base.NewCommand(log, ui)

	Commands = map[string]cli.CommandFactory{
		"server": func() (cli.Command, error) {
			return &server.Command{Command: baseCommand}, nil
		},
		"migrate": func() (cli.Command, error) {
			return &migrate.Command{Command: baseCommand}, nil
		},
		"version": func() (cli.Command, error) {
			return &versioncmd.Command{Command: baseCommand}, nil
		},
	}
}
