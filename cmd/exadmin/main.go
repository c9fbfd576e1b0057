// Command exadmin serves read-only admin detail pages for the library
// models and provides maintenance subcommands.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v3/ffcli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "exadmin: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := rootCommand(stdout, stderr)
	return root.ParseAndRun(ctx, args)
}

func rootCommand(stdout, stderr io.Writer) *ffcli.Command {
	fs := flag.NewFlagSet("exadmin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	return &ffcli.Command{
		Name:       "exadmin",
		ShortUsage: "exadmin <subcommand> [flags]",
		ShortHelp:  "Read-only admin detail pages.",
		LongHelp: `Serve and inspect admin detail pages of the library models.

Every flag can also be set through the environment with the EXADMIN_
prefix, e.g. EXADMIN_DATABASE_URL or EXADMIN_SECRET.

Examples:
  exadmin seed -fixtures examples/library/fixtures.yaml
  exadmin token -user alice -ttl 8h
  exadmin serve -config examples/library/admin.cue -watch
  exadmin show library.book 5f0c3a52-6a9b-4f57-9a43-1f4e6bb4b0de`,
		FlagSet: fs,
		Subcommands: []*ffcli.Command{
			serveCommand(stdout, stderr),
			seedCommand(stdout, stderr),
			showCommand(stdout, stderr),
			tokenCommand(stdout, stderr),
		},
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
	}
}
