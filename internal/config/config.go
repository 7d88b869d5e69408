// Package config loads the HCL server configuration. A missing file yields
// the zero-config defaults: SQLite under .docvault/ and a listener on
// localhost:8000.
package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/docworks-io/docvault/internal/notify"
	"github.com/docworks-io/docvault/pkg/database"
)

// Config is the top-level configuration.
type Config struct {
	// LogLevel sets the application log verbosity (trace, debug, info, warn,
	// error).
	LogLevel string `hcl:"log_level,optional"`

	Server        *ServerConfig   `hcl:"server,block"`
	Database      *DatabaseConfig `hcl:"database,block"`
	Auth          *AuthConfig     `hcl:"auth,block"`
	Notifications *notify.Config  `hcl:"notifications,block"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `hcl:"addr,optional"`
}

// DatabaseConfig configures storage. Driver selects postgres or sqlite.
type DatabaseConfig struct {
	Driver string `hcl:"driver,optional"`

	Host     string `hcl:"host,optional"`
	Port     int    `hcl:"port,optional"`
	User     string `hcl:"user,optional"`
	Password string `hcl:"password,optional"`
	DBName   string `hcl:"dbname,optional"`
	SSLMode  string `hcl:"sslmode,optional"`

	Path string `hcl:"path,optional"`

	MaxIdleConns       int `hcl:"max_idle_conns,optional"`
	MaxOpenConns       int `hcl:"max_open_conns,optional"`
	ConnMaxLifetimeSec int `hcl:"conn_max_lifetime_seconds,optional"`
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	// JWTSecret is the shared HS256 signing secret of the identity service.
	JWTSecret string `hcl:"jwt_secret"`
}

// Default returns the zero-config defaults used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server:   &ServerConfig{Addr: "127.0.0.1:8000"},
		Database: &DatabaseConfig{
			Driver: database.DriverSQLite,
			Path:   ".docvault/docvault.db",
		},
		Auth: &AuthConfig{JWTSecret: "dev-only-secret"},
	}
}

// Load parses the HCL file at path and fills unset fields with defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := hclsimple.DecodeFile(path, nil, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
	}

	def := Default()
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.Server == nil {
		cfg.Server = def.Server
	} else if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Database == nil {
		cfg.Database = def.Database
	}
	if cfg.Auth == nil {
		cfg.Auth = def.Auth
	}
	return cfg, nil
}

// DatabaseSettings maps the config onto the storage layer's settings.
func (c *Config) DatabaseSettings() database.Config {
	d := c.Database
	if d == nil {
		d = Default().Database
	}
	return database.Config{
		Driver:          d.Driver,
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		DBName:          d.DBName,
		SSLMode:         d.SSLMode,
		Path:            d.Path,
		MaxIdleConns:    d.MaxIdleConns,
		MaxOpenConns:    d.MaxOpenConns,
		ConnMaxLifetime: time.Duration(d.ConnMaxLifetimeSec) * time.Second,
	}
}
