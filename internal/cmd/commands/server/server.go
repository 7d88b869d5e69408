// Package server implements the command that runs the API server.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"

	"github.com/docworks-io/docvault/internal/api"
	"github.com/docworks-io/docvault/internal/cmd/base"
	"github.com/docworks-io/docvault/internal/config"
	"github.com/docworks-io/docvault/internal/server"
	"github.com/docworks-io/docvault/pkg/database"
)

type Command struct {
	*base.Command

	flagConfig string
	flagAddr   string
}

func (c *Command) Synopsis() string {
	return "Run the API server"
}

func (c *Command) Help() string {
	return `Usage: docvault server [options]

  Runs the document control API server. Without a config file the server
  uses an embedded SQLite database under .docvault/ and listens on
  localhost:8000.

` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet("server")
	f.StringVar(&c.flagConfig, "config", "", "Path to the HCL config file")
	f.StringVar(&c.flagAddr, "addr", "", "Listen address override")
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg, err := c.loadConfig()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	if c.flagAddr != "" {
		cfg.Server.Addr = c.flagAddr
	}
	c.Log.SetLevel(hclog.LevelFromString(cfg.LogLevel))

	db, err := database.Connect(cfg.DatabaseSettings(), c.Log)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error connecting to database: %v", err))
		return 1
	}
	if err := database.Migrate(db); err != nil {
		c.UI.Error(fmt.Sprintf("error migrating database: %v", err))
		return 1
	}

	srv := server.New(cfg, db, c.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c.UI.Info(fmt.Sprintf("docvault server listening on %s", cfg.Server.Addr))
	if err := srv.Run(ctx, api.NewRouter(srv)); err != nil {
		c.UI.Error(fmt.Sprintf("server error: %v", err))
		return 1
	}
	return 0
}

func (c *Command) loadConfig() (*config.Config, error) {
	if c.flagConfig == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(c.flagConfig)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return cfg, nil
}
