package main

import (
	"fmt"
	"os"

	"github.com/fbkclanna/cargo-set-registry/internal/config"
	"github.com/fbkclanna/cargo-set-registry/internal/metadata"
	"github.com/fbkclanna/cargo-set-registry/internal/report"
	"github.com/fbkclanna/cargo-set-registry/internal/ui"
	"github.com/fbkclanna/cargo-set-registry/internal/update"
	"github.com/spf13/cobra"
)

func newSetRegistryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-registry <REGISTRY>",
		Short: "Change a package's registry in the local manifest files (i.e. Cargo.toml)",
		Args:  cobra.ExactArgs(1),
		RunE:  runSetRegistry,
	}
	cmd.Flags().String("manifest-path", "", "Path to the manifest to upgrade")
	cmd.Flags().StringSliceP("package", "p", nil, "Package id of the crate to change the registry of")
	cmd.Flags().Bool("dry-run", false, "Print changes to be made without making them")
	cmd.Flags().StringSlice("exclude", nil, "Exclude a crate from the modification")
	cmd.Flags().Bool("locked", false, "Require Cargo.toml to be up to date")
	cmd.Flags().String("report", "", "Write a YAML report of the changes to this path")
	return cmd
}

func runSetRegistry(cmd *cobra.Command, args []string) error {
	manifestPath, _ := cmd.Flags().GetString("manifest-path")
	pkgids, _ := cmd.Flags().GetStringSlice("package")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	locked, _ := cmd.Flags().GetBool("locked")
	reportPath, _ := cmd.Flags().GetString("report")

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}
	cfg, err := config.Load(wd, cmd.Flags())
	if err != nil {
		return err
	}

	opts := update.Options{
		Registry:     args[0],
		ManifestPath: manifestPath,
		Packages:     pkgids,
		Exclude:      exclude,
		DryRun:       dryRun,
		Locked:       locked,
	}
	sh := ui.NewShell(cmd.ErrOrStderr(), cfg.Color)
	sum, err := update.Run(metadata.Resolver{Cargo: cfg.Cargo}, opts, sh)
	if err != nil {
		return err
	}

	if reportPath != "" {
		if err := report.Save(reportPath, report.New(opts, sum, version)); err != nil {
			return err
		}
	}
	return nil
}
