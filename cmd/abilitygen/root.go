package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cory-johannsen/abilitygen/internal/ability"
	"github.com/cory-johannsen/abilitygen/internal/config"
	"github.com/cory-johannsen/abilitygen/internal/observability"
)

// app carries the loaded configuration and logger to subcommands.
type app struct {
	v          *viper.Viper
	configPath string
	cfg        config.Config
	logger     *zap.Logger
}

// flagBindings maps persistent flag names to configuration keys.
var flagBindings = map[string]string{
	"output":           "output.path",
	"language":         "source.language",
	"base-url":         "source.base_url",
	"catalog":          "catalog.path",
	"seed-flavor-text": "descriptions.seed_from_flavor_text",
	"log-level":        "logging.level",
	"log-format":       "logging.format",
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:   "abilitygen",
		Short: "Generate the ability configuration document",
		Long: `abilitygen merges the PokeAPI ability tables, the curated effect catalog and the
effect text of the previous document into assets/pokemon/abilities.json.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
		RunE:              a.runGenerate,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to an optional YAML configuration file")
	flags.String("output", "", "document path (output.path)")
	flags.String("language", "", "BCP 47 tag selecting localized names (source.language)")
	flags.String("base-url", "", "reference table base URL (source.base_url)")
	flags.String("catalog", "", "catalog overlay YAML (catalog.path)")
	flags.Bool("seed-flavor-text", false, "fill empty effect text from flavor text")
	flags.String("log-level", "", "debug, info, warn or error (logging.level)")
	flags.String("log-format", "", "console or json (logging.format)")
	for name, key := range flagBindings {
		// Only flags set on the command line override lower layers.
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}

	root.AddCommand(
		newGenerateCmd(a),
		newSchemaCmd(a),
		newCatalogCmd(a),
		newPublishCmd(a),
	)
	return root
}

// load reads the config file, applies flag and environment overrides, and
// builds the logger.
func (a *app) load(*cobra.Command, []string) error {
	if a.configPath != "" {
		a.v.SetConfigFile(a.configPath)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	cfg, err := config.LoadFromViper(a.v)
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// catalog returns the embedded catalog overlaid with catalog.path when set.
func (a *app) catalog() (*ability.Registry, error) {
	base := ability.DefaultCatalog()
	if a.cfg.Catalog.Path == "" {
		return base, nil
	}
	extra, err := ability.LoadCatalogFile(a.cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	merged := ability.Overlay(base, extra)
	a.logger.Info("catalog overlay applied",
		zap.String("path", a.cfg.Catalog.Path),
		zap.Int("overlay_entries", extra.Len()),
		zap.String("version", merged.Version()),
	)
	return merged, nil
}
