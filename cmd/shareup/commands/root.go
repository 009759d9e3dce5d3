// Package commands implements the shareup command line.
package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Jessiellen/shareup-app/internal/printer"
)

type globalOptions struct {
	envFile string
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "shareup",
		Short: "ShareUp appointment request service",
		Long: `shareup runs the ShareUp appointment service: users send each other
appointment requests, answer them, and manage the resulting appointments.

Configuration is read from SHAREUP_* environment variables, optionally
preloaded from a dotenv file.`,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newSweepCmd(opts),
		newSeedCmd(opts),
		newTokenCmd(opts),
	)
	return root
}

// Execute runs the command line until it finishes or the process is
// interrupted. Errors are printed before they are returned.
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd(version)
	err := root.ExecuteContext(ctx)
	if err != nil {
		report(printer.New(root.OutOrStdout(), root.ErrOrStderr()), err)
	}
	return err
}

func report(p *printer.Printer, err error) {
	var cfgErr *configError
	switch {
	case errors.As(err, &cfgErr):
		_ = p.Error("Configuration is incomplete", cfgErr.Error(),
			"export the variables listed above",
			"add them to "+cfgErr.file,
		)
	default:
		_ = p.Error("shareup failed", err.Error())
	}
}
