// Package config gathers the settings cargo-set-registry shares with cargo
// itself: which cargo binary to run and whether to color output.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fbkclanna/cargo-set-registry/internal/metadata"
	"github.com/fbkclanna/cargo-set-registry/internal/ui"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the resolved settings.
type Config struct {
	Cargo string
	Color ui.ColorChoice
}

// Load resolves settings from, in order of precedence, the --color flag,
// the CARGO and CARGO_TERM_COLOR environment variables, and [term] color in
// .cargo/config.toml under dir or CARGO_HOME.
func Load(dir string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault("cargo", metadata.DefaultCargo)
	v.SetDefault("term.color", string(ui.ColorAuto))

	if err := v.BindEnv("cargo", "CARGO"); err != nil {
		return nil, fmt.Errorf("binding CARGO: %w", err)
	}
	if err := v.BindEnv("term.color", "CARGO_TERM_COLOR"); err != nil {
		return nil, fmt.Errorf("binding CARGO_TERM_COLOR: %w", err)
	}
	if flags != nil {
		if f := flags.Lookup("color"); f != nil {
			if err := v.BindPFlag("term.color", f); err != nil {
				return nil, fmt.Errorf("binding --color: %w", err)
			}
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(filepath.Join(dir, ".cargo"))
	if home := cargoHome(); home != "" {
		v.AddConfigPath(home)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading cargo config: %w", err)
		}
	}

	color, err := ui.ParseColorChoice(v.GetString("term.color"))
	if err != nil {
		return nil, err
	}
	return &Config{Cargo: v.GetString("cargo"), Color: color}, nil
}

func cargoHome() string {
	if h := os.Getenv("CARGO_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cargo")
}
