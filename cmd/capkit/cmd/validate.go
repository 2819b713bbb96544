package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/reglet-dev/capkit/manifest"
	"github.com/reglet-dev/capkit/schema"
	"github.com/reglet-dev/capkit/validation"
	"github.com/spf13/cobra"
)

var errInvalidDocument = errors.New("document is invalid")

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a manifest, or a capability call with --kind",
		Long: `Validate a manifest against the manifest schema. With --kind set to a
capability name, validate a call document ({operation, args}) against that
capability's contract instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind == schema.ManifestKind {
				return validateManifest(cmd, args[0])
			}
			return validateCall(cmd, opts, kind, args[0])
		},
	}
	cmd.Flags().StringVar(&kind, "kind", schema.ManifestKind, "Schema kind: manifest or a capability name")
	return cmd
}

func validateManifest(cmd *cobra.Command, path string) error {
	v, err := validation.NewManifestValidator()
	if err != nil {
		return err
	}
	res, err := v.ValidateManifestFile(path)
	if err != nil {
		return err
	}
	return report(cmd, path, res)
}

func validateCall(cmd *cobra.Command, opts *rootOptions, kind, path string) error {
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

	res, err := validation.NewSchemaValidator(schemas).ValidateFile(kind, path)
	if err != nil {
		return err
	}
	return report(cmd, path, res)
}

func report(cmd *cobra.Command, path string, res *validation.ValidationResult) error {
	if !res.Valid {
		for _, e := range res.Errors {
			fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render(e))
		}
		return fmt.Errorf("%s: %w", path, errInvalidDocument)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", path)
	return nil
}
