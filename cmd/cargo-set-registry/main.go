package main

import (
	"os"

	"github.com/fbkclanna/cargo-set-registry/internal/ui"
)

// Set via -ldflags at build time.
var version = "dev"

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		ui.NewShell(os.Stderr, ui.ColorAuto).Error(err)
		os.Exit(1)
	}
}
