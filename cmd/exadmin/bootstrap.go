package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/peterbourgon/ff/v3"
	_ "modernc.org/sqlite"

	"github.com/matthewbaird/exadmin/internal/config"
	"github.com/matthewbaird/exadmin/internal/detail"
	"github.com/matthewbaird/exadmin/internal/library"
	"github.com/matthewbaird/exadmin/internal/meta"
	"github.com/matthewbaird/exadmin/internal/store"
	"github.com/matthewbaird/exadmin/internal/tmpl"
)

// envPrefix prefixes the environment variables mirroring flags.
const envPrefix = "EXADMIN"

func ffOptions() []ff.Option {
	return []ff.Option{ff.WithEnvVarPrefix(envPrefix)}
}

// rootConfig holds the flags every subcommand shares.
type rootConfig struct {
	DatabaseURL string
	ConfigPath  string
	Templates   string
	LogLevel    string
	LogFormat   string

	stderr io.Writer
}

func (c *rootConfig) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.DatabaseURL, "database-url", "file:exadmin.db?_pragma=foreign_keys(1)", "SQLite data source name")
	fs.StringVar(&c.ConfigPath, "config", "", "admin configuration file (CUE); built-in defaults when empty")
	fs.StringVar(&c.Templates, "templates", "", "directory of templates overriding the built-in ones")
	fs.StringVar(&c.LogLevel, "log-level", "info", "log level: debug, info, warn or error")
	fs.StringVar(&c.LogFormat, "log-format", "text", "log format: text or json")
}

func (c *rootConfig) logger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid -log-level %q", c.LogLevel)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(c.LogFormat) {
	case "text":
		return slog.New(slog.NewTextHandler(c.stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(c.stderr, opts)), nil
	}
	return nil, fmt.Errorf("invalid -log-format %q", c.LogFormat)
}

// app is the wired set of collaborators shared by subcommands.
type app struct {
	logger   *slog.Logger
	db       *sql.DB
	store    *store.SQLStore
	registry *meta.Registry
	config    *config.Holder
	templates *tmpl.Renderer
	site      *detail.Site
}

func (a *app) Close() error {
	return a.db.Close()
}

// bootstrap opens the database, creates missing tables, loads and
// validates the admin configuration and builds the site.
func (c *rootConfig) bootstrap(ctx context.Context) (*app, error) {
	logger, err := c.logger()
	if err != nil {
		return nil, err
	}

	reg := meta.NewRegistry()
	if err := reg.Register(library.Schemas()...); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Enable foreign keys explicitly, SQLite has them off by default.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	st := store.NewSQLStore(entsql.OpenDB(dialect.SQLite, db))
	if err := st.Migrate(ctx, reg.Models()...); err != nil {
		db.Close()
		return nil, fmt.Errorf("running schema migration: %w", err)
	}
	logger.Debug("database migrated", "models", len(reg.Models()))

	conf := config.Default()
	if c.ConfigPath != "" {
		if conf, err = config.Load(c.ConfigPath); err != nil {
			db.Close()
			return nil, err
		}
	}
	holder := config.NewHolder(conf)
	templates := tmpl.New(c.Templates)

	site := detail.NewSite(detail.Options{
		Registry:  reg,
		Store:     st,
		Config:    holder,
		Templates: templates,
		Logger:    logger,
	})
	if err := library.Register(site); err != nil {
		db.Close()
		return nil, err
	}
	if err := conf.Validate(site.Known); err != nil {
		db.Close()
		return nil, err
	}

	return &app{
		logger:   logger,
		db:       db,
		store:    st,
		registry: reg,
		config:    holder,
		templates: templates,
		site:      site,
	}, nil
}

var errUsage = errors.New("invalid usage")
