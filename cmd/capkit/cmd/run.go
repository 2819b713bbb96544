package cmd

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/reglet-dev/capkit/compose"
	"github.com/reglet-dev/capkit/lockfile"
	"github.com/reglet-dev/capkit/manifest"
	"github.com/reglet-dev/capkit/metrics"
	"github.com/reglet-dev/capkit/prompt"
	"github.com/spf13/cobra"
)

type runOptions struct {
	lockPath   string
	writeLock  bool
	showMetric bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run <manifest>",
		Short: "Compose the manifest's bindings and run the demo handlers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManifest(cmd, root, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.lockPath, "lock", "", "Lockfile pinning resolved bindings")
	cmd.Flags().BoolVar(&opts.writeLock, "write-lock", false, "Write the resolved bindings to --lock")
	cmd.Flags().BoolVar(&opts.showMetric, "metrics", false, "Print invocation counts after the run")
	return cmd
}

func runManifest(cmd *cobra.Command, root *rootOptions, opts *runOptions, path string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	logger := root.logger

	if err := validateManifest(cmd, path); err != nil {
		return err
	}
	doc, err := manifest.Load(path)
	if err != nil {
		return err
	}

	collector := metrics.New()
	promReg := prometheus.NewRegistry()
	collector.MustRegister(promReg)

	d, err := newDemo(out, logger, collector)
	if err != nil {
		return err
	}

	// Capabilities the demo already provides must match the manifest's contract.
	if err := manifest.Reconcile(d.registry, doc); err != nil {
		return err
	}
	d.registry.Seal()

	repo := lockfile.NewRepository()
	var lock *lockfile.Lockfile
	if opts.lockPath != "" {
		lock, err = repo.Load(ctx, opts.lockPath)
		if err != nil {
			return err
		}
	}

	composer := compose.New(d.registry,
		compose.WithLockfile(lock),
		compose.WithPrompter(prompt.NewTerminalPrompter(prompt.WithOutput(cmd.ErrOrStderr()))),
		compose.WithMetrics(collector),
		compose.WithLogger(logger),
	)
	asm, err := composer.Compose(ctx, doc)
	if err != nil {
		return err
	}

	if err := d.exercise(ctx, asm); err != nil {
		return err
	}

	if opts.writeLock {
		if opts.lockPath == "" {
			return fmt.Errorf("--write-lock requires --lock")
		}
		if err := repo.Save(ctx, asm.Lockfile(), opts.lockPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", opts.lockPath)
	}

	if opts.showMetric {
		return printInvocations(cmd, promReg)
	}
	return nil
}

func printInvocations(cmd *cobra.Command, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, f := range families {
		if f.GetName() != "capkit_invocation_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			fmt.Fprintf(out, "%s.%s [%s]: %.0f\n",
				labels["capability"], labels["operation"], labels["implementation"], m.GetCounter().GetValue())
		}
	}
	return nil
}

