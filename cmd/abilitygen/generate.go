package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/abilitygen/internal/generator"
	"github.com/cory-johannsen/abilitygen/internal/reference"
	"github.com/cory-johannsen/abilitygen/internal/reference/pokeapi"
)

func newGenerateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Rebuild the abilities document (default command)",
		Args:  cobra.NoArgs,
		RunE:  a.runGenerate,
	}
}

func (a *app) runGenerate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lang, err := a.cfg.Language()
	if err != nil {
		return err
	}
	catalog, err := a.catalog()
	if err != nil {
		return err
	}

	client := pokeapi.NewClient(pokeapi.Options{
		BaseURL:   a.cfg.Source.BaseURL,
		Timeout:   a.cfg.Source.Timeout,
		UserAgent: a.cfg.Source.UserAgent,
	})
	gen := generator.New(
		reference.NewSource(client, a.logger),
		catalog,
		generator.Config{
			Language:           lang,
			OutputPath:         a.cfg.Output.Path,
			Version:            a.cfg.Output.Version,
			SeedFromFlavorText: a.cfg.Descriptions.SeedFromFlavorText,
		},
		a.logger,
	)
	summary, err := gen.Run(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("generation complete",
		zap.String("run_id", summary.RunID),
		zap.Int("total", summary.Total),
		zap.Int("configured", summary.Configured),
		zap.Int("not_implemented", summary.Total-summary.Configured),
		zap.String("catalog_version", catalog.Version()),
	)
	return nil
}
