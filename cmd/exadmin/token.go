package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/matthewbaird/exadmin/internal/auth"
	"github.com/matthewbaird/exadmin/internal/config"
)

func tokenCommand(stdout, stderr io.Writer) *ffcli.Command {
	fs := flag.NewFlagSet("exadmin token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "admin configuration file (CUE); the user must exist in it when set")
	user := fs.String("user", "", "username to issue the token for (required)")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	secret := fs.String("secret", "", "HMAC key for session tokens (required)")

	return &ffcli.Command{
		Name:       "token",
		ShortUsage: "exadmin token -user <name> [flags]",
		ShortHelp:  "Mint a session token for a configured user.",
		LongHelp: `Print a signed session token. Send it as "Authorization: Bearer <token>"
or store it in the exadmin_session cookie.`,
		FlagSet: fs,
		Options: ffOptions(),
		Exec: func(_ context.Context, args []string) error {
			if *user == "" || *secret == "" {
				return fmt.Errorf("%w: -user and -secret are required", errUsage)
			}
			if *configPath != "" {
				conf, err := config.Load(*configPath)
				if err != nil {
					return err
				}
				if _, ok := conf.User(*user); !ok {
					return fmt.Errorf("user %q is not defined in %s", *user, *configPath)
				}
			}
			tokens, err := auth.NewTokens([]byte(*secret))
			if err != nil {
				return err
			}
			raw, err := tokens.Issue(*user, *ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, raw)
			return nil
		},
	}
}
