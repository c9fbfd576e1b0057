package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/matthewbaird/exadmin/internal/store"
)

func seedCommand(stdout, stderr io.Writer) *ffcli.Command {
	fs := flag.NewFlagSet("exadmin seed", flag.ContinueOnError)
	fs.SetOutput(stderr)
	root := &rootConfig{stderr: stderr}
	root.registerFlags(fs)
	fixtures := fs.String("fixtures", "", "YAML fixture file to load (required)")

	return &ffcli.Command{
		Name:       "seed",
		ShortUsage: "exadmin seed -fixtures <file.yaml> [flags]",
		ShortHelp:  "Create tables and load fixture records.",
		FlagSet:    fs,
		Options:    ffOptions(),
		Exec: func(ctx context.Context, args []string) error {
			if *fixtures == "" {
				return fmt.Errorf("%w: -fixtures is required", errUsage)
			}
			a, err := root.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(*fixtures)
			if err != nil {
				return err
			}
			defer f.Close()

			n, err := store.LoadFixtures(ctx, f, a.registry, a.store)
			if err != nil {
				return err
			}
			a.logger.Info("fixtures loaded", "file", *fixtures, "records", n)
			fmt.Fprintf(stdout, "loaded %d records\n", n)
			return nil
		},
	}
}
