package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/matthewbaird/exadmin/internal/auth"
	"github.com/matthewbaird/exadmin/internal/i18n"
)

func showCommand(stdout, stderr io.Writer) *ffcli.Command {
	fs := flag.NewFlagSet("exadmin show", flag.ContinueOnError)
	fs.SetOutput(stderr)
	root := &rootConfig{stderr: stderr}
	root.registerFlags(fs)
	lang := fs.String("lang", "en", "language of labels and markers (Accept-Language syntax)")

	return &ffcli.Command{
		Name:       "show",
		ShortUsage: "exadmin show [flags] <app.model> <object_id>",
		ShortHelp:  "Print the detail layout of one record.",
		LongHelp: `Print a record the way its detail page lays it out, one row per
field, grouped by fieldset. The record is read with superuser rights.`,
		FlagSet: fs,
		Options: ffOptions(),
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("%w: show takes <app.model> <object_id>", errUsage)
			}
			app, model, ok := strings.Cut(args[0], ".")
			if !ok {
				return fmt.Errorf("%w: model must be written app.model, got %q", errUsage, args[0])
			}
			a, err := root.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx = auth.NewContext(ctx, &auth.User{Username: "cli", Active: true, Superuser: true})
			ctx = i18n.NewContext(ctx, i18n.NewPrinter(i18n.Match(*lang)))
			v, err := a.site.View(ctx, app, model, args[1])
			if err != nil {
				return err
			}

			fmt.Fprintln(stdout, v.Object().String())
			table := tablewriter.NewWriter(stdout)
			table.Header("Section", "Field", "Value")
			for _, row := range v.Rows() {
				if err := table.Append([]string{row.Section, row.Label, row.Value}); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}
