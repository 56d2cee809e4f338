package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd mirrors how cargo invokes plugins: `cargo set-registry ...` runs
// this binary with "set-registry" as its first argument.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cargo",
		Short:         "Cargo subcommands for editing workspace manifests",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().String("color", "auto", "Coloring: auto, always, never")

	cmd.AddCommand(
		newSetRegistryCmd(),
	)

	return cmd
}
