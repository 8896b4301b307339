// Command feedmail polls a feed once and emails every article that was not
// present in the previous run to the subscriber list.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"feedmail/internal/domain/entity"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the CLI and returns the process exit status.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{}
	}
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "feedmail: %v\n", err)
		if errors.Is(err, entity.ErrMissingConfig) || errors.Is(err, entity.ErrInvalidConfig) {
			return 1
		}
		return 2
	}
	return 0
}

type rootOptions struct {
	dryRun  bool
	envFile string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "feedmail",
		Short: "Email new feed articles to subscribers",
		Long: `feedmail polls one RSS/Atom feed, compares it with the snapshot of the
previous run, and emails every new article to the subscriber list.

It is meant to be started by an external scheduler. Configuration comes from
the environment (optionally a .env file); every variable is also accepted with
an INPUT_ prefix.

Example usage:
  feedmail                 # same as feedmail run
  feedmail run --dry-run   # log what would be written and sent
  feedmail preview --index 0 --out preview.html
  feedmail check           # probe feed, subscribers, template and state`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeedmail(cmd.Context(), opts, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, "log state writes and emails without performing them")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(newRunCmd(opts, stderr))
	root.AddCommand(newPreviewCmd(opts, stdout, stderr))
	root.AddCommand(newCheckCmd(opts, stdout, stderr))
	return root
}
