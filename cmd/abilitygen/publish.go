package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/abilitygen/internal/document"
	"github.com/cory-johannsen/abilitygen/internal/observability"
	"github.com/cory-johannsen/abilitygen/internal/storage/postgres"
)

func newPublishCmd(a *app) *cobra.Command {
	var migrateFirst bool
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Mirror the abilities document into PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			start := time.Now()
			log, _ := observability.WithRun(a.logger)

			doc, err := document.Read(a.cfg.Output.Path)
			if err != nil {
				return err
			}

			if migrateFirst {
				if err := postgres.Migrate(a.cfg.Database.DSN()); err != nil {
					return err
				}
				log.Info("migrations applied")
			}

			pool, err := postgres.NewPool(ctx, a.cfg.Database)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer pool.Close()
			if err := pool.Ready(ctx); err != nil {
				if errors.Is(err, postgres.ErrSchemaMissing) {
					return fmt.Errorf("%w (pass --migrate)", err)
				}
				return err
			}

			repo := postgres.NewAbilityRepository(pool.DB())
			if err := repo.ReplaceAll(ctx, doc.Version, doc.Abilities); err != nil {
				return fmt.Errorf("publishing abilities: %w", err)
			}

			counts, err := repo.CountByTrigger(ctx)
			if err != nil {
				return err
			}
			fields := []zap.Field{
				zap.String("path", a.cfg.Output.Path),
				zap.String("version", doc.Version),
				zap.Int("total", doc.Total),
				zap.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
			}
			for kind, n := range counts {
				fields = append(fields, zap.Int("trigger."+string(kind), n))
			}
			log.Info("abilities published", fields...)
			return nil
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply schema migrations before publishing")
	return cmd
}
