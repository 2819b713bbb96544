package cmd

import (
	"fmt"
	"io"

	"github.com/reglet-dev/capkit/manifest"
	"github.com/reglet-dev/capkit/schema"
	"github.com/spf13/cobra"
)

func newSchemaCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema [kind]",
		Short: "Print a JSON schema, or list the available kinds",
		Long: `Print the JSON schema for a kind. Kinds are "manifest" and one per
capability, describing calls to that capability.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDemo(io.Discard, opts.logger, nil)
			if err != nil {
				return err
			}
			schemas := schema.NewRegistry()
			if err := schemas.Register(schema.ManifestKind, manifest.Document{}); err != nil {
				return err
			}
			if err := schemas.RegisterRegistry(d.registry); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, kind := range schemas.List() {
					fmt.Fprintln(out, kind)
				}
				return nil
			}
			s, ok := schemas.GetSchema(args[0])
			if !ok {
				return fmt.Errorf("unknown schema kind %q", args[0])
			}
			fmt.Fprintln(out, s)
			return nil
		},
	}
}
