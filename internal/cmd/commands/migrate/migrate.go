// Package migrate implements the command that applies the database schema.
package migrate

import (
	"fmt"

	"github.com/docworks-io/docvault/internal/cmd/base"
	"github.com/docworks-io/docvault/internal/config"
	"github.com/docworks-io/docvault/pkg/database"
)

type Command struct {
	*base.Command

	flagConfig string
}

func (c *Command) Synopsis() string {
	return "Create or update the database schema"
}

func (c *Command) Help() string {
	return `Usage: docvault migrate [options]

  Creates or updates the database schema for every registered model. Safe
  to run repeatedly; existing data is preserved.

` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet("migrate")
	f.StringVar(&c.flagConfig, "config", "", "Path to the HCL config file")
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg := config.Default()
	if c.flagConfig != "" {
		var err error
		cfg, err = config.Load(c.flagConfig)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error loading config: %v", err))
			return 1
		}
	}

	db, err := database.Connect(cfg.DatabaseSettings(), c.Log)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error connecting to database: %v", err))
		return 1
	}
	if err := database.Migrate(db); err != nil {
		c.UI.Error(fmt.Sprintf("error migrating database: %v", err))
		return 1
	}

	c.UI.Info("database schema is up to date")
	return 0
}
