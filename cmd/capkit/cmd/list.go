package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List capabilities and their implementations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := newDemo(io.Discard, opts.logger, nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range d.registry.Capabilities() {
				c, _ := d.registry.Capability(name)
				header := c.Name
				if c.Version != "" {
					header += "@" + c.Version
				}
				fmt.Fprintln(out, titleStyle.Render(header)+" "+mutedStyle.Render(strings.Join(c.Operations, ", ")))

				impls, err := d.registry.Implementations(name)
				if err != nil {
					return err
				}
				for _, impl := range impls {
					line := impl.ID
					if impl.Version != "" {
						line += "@" + impl.Version
					}
					if impl.Origin != name {
						line += mutedStyle.Render(" (via " + impl.Origin + ")")
					}
					fmt.Fprintln(out, implStyle.Render(line))
				}
			}
			return nil
		},
	}
}
