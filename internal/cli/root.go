// Package cli is the jobs-scraper command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sqanatoliy/jobs-scraper/config"
	"github.com/sqanatoliy/jobs-scraper/logger"
	apperrors "github.com/sqanatoliy/jobs-scraper/pkg/errors"
)

// NewRootCommand builds the command tree. cfg is loaded lazily before a
// subcommand runs, so -h never touches the environment.
func NewRootCommand() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "jobs-scraper",
		Short:         "Poll job sites and announce new postings on Telegram",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfg != nil {
				return nil
			}
			loaded := config.LoadConfig()
			if err := loaded.Validate(); err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	getConfig := func() *config.Config { return cfg }
	root.AddCommand(
		newRunCommand(getConfig),
		newListCommand(getConfig),
		newScheduleCommand(getConfig),
	)
	return root
}

// Execute runs the command line and exits 1 when a command fails. Commands
// only fail on configuration mistakes or an unusable store; recovered run
// failures are logged and exit 0.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, NewRootCommand(), os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, root *cobra.Command, args []string, out io.Writer) error {
	root.SetArgs(args)
	root.SetOut(out)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	if apperrors.IsConfiguration(err) {
		logger.LogError("cli", err, "Invalid configuration")
	} else {
		logger.LogError("cli", err, "Command failed")
	}
	fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	return err
}
