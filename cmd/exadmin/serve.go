package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/matthewbaird/exadmin/internal/auth"
	"github.com/matthewbaird/exadmin/internal/config"
	"github.com/matthewbaird/exadmin/internal/server"
)

func serveCommand(_, stderr io.Writer) *ffcli.Command {
	fs := flag.NewFlagSet("exadmin serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	root := &rootConfig{stderr: stderr}
	root.registerFlags(fs)
	addr := fs.String("addr", ":8080", "listen address")
	secret := fs.String("secret", "", "HMAC key for session tokens (required)")
	watch := fs.Bool("watch", false, "reload -config when the file changes")
	secure := fs.Bool("secure-cookies", false, "mark cookies HTTPS-only")

	return &ffcli.Command{
		Name:       "serve",
		ShortUsage: "exadmin serve [flags]",
		ShortHelp:  "Run the admin HTTP server.",
		FlagSet:    fs,
		Options:    ffOptions(),
		Exec: func(ctx context.Context, args []string) error {
			if *secret == "" {
				return fmt.Errorf("%w: -secret is required", errUsage)
			}
			tokens, err := auth.NewTokens([]byte(*secret))
			if err != nil {
				return err
			}
			a, err := root.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if *watch && root.ConfigPath != "" {
				w := a.configWatcher(root.ConfigPath)
				go func() {
					if err := w.Run(ctx); err != nil {
						a.logger.Error("config watcher stopped", "error", err)
					}
				}()
			}

			return server.Run(ctx, server.Config{
				Addr:          *addr,
				Prefix:        a.config.Load().Site.Prefix,
				Site:          a.site,
				Tokens:        tokens,
				Users:         a.config,
				DB:            a.db,
				Logger:        a.logger,
				SecureCookies: *secure,
			})
		},
	}
}

// configWatcher reloads path into the app's config holder. Each successful
// reload also drops cached templates so override files edited alongside
// the config are re-read.
func (a *app) configWatcher(path string) *config.Watcher {
	return &config.Watcher{
		Path:     path,
		Holder:   a.config,
		Validate: func(c *config.Config) error { return c.Validate(a.site.Known) },
		OnReload: func(*config.Config) { a.templates.Flush() },
		Logger:   a.logger,
	}
}
