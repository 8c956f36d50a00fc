// Package config loads regtab CLI configuration from a yaml file,
// environment variables, and command-line flags.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Default configuration values.
const (
	DefaultFormat = "text"
)

// Input describes where the dataset comes from.
type Input struct {
	// Kind is csv, duckdb, sqlite, or postgres. Empty means infer from Path.
	Kind string `koanf:"kind"`
	// Path is a file path (csv, parquet, database file) or a postgres DSN.
	Path string `koanf:"path"`
	// Table names the table to read for database inputs.
	Table string `koanf:"table"`
}

// Model is one model specification from the config file.
type Model struct {
	Dep          string   `koanf:"dep"`
	Regressors   []string `koanf:"regressors"`
	FixedEffects []string `koanf:"fixed_effects"`
	Clusters     []string `koanf:"clusters"`
}

// Config holds all CLI configuration options.
type Config struct {
	Input   Input   `koanf:"input"`
	Models  []Model `koanf:"models"`
	By      string  `koanf:"by"`
	Format  string  `koanf:"format"`
	Verbose bool    `koanf:"verbose"`
}

// findConfigFile finds the config file to use.
// Priority: explicit path > regtab.yaml > regtab.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"regtab.yaml", "regtab.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load reads configuration with the usual precedence:
// flags > env vars (REGTAB_ prefix) > config file > defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"format":  DefaultFormat,
		"verbose": false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// REGTAB_INPUT_PATH -> input.path
	if err := k.Load(env.Provider("REGTAB_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "REGTAB_")), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			switch f.Name {
			case "input":
				return "input.path", posflag.FlagVal(flags, f)
			case "kind":
				return "input.kind", posflag.FlagVal(flags, f)
			case "table":
				return "input.table", posflag.FlagVal(flags, f)
			}
			return f.Name, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}
