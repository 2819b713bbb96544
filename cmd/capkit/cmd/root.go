// Package cmd implements the capkit command line.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel string
	logger   *slog.Logger
}

// NewRootCmd builds the capkit command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "capkit",
		Short: "Capability registry demo",
		Long: `capkit binds capability contracts to interchangeable implementations.

The built-in demo registers five example capability sets:
  storage    - local and cloud file storage
  deeplink   - home, profile and settings screens
  equipment  - phones and radios (phone, radio include equipment)
  animal     - cats and dogs built on a shared base
  network    - data fetching, paired with database`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
				return fmt.Errorf("invalid --log-level: %w", err)
			}
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newListCmd(opts),
		newSchemaCmd(opts),
		newValidateCmd(opts),
		newRunCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
