package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/abilitygen/internal/document"
)

func newSchemaCmd(a *app) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Write a JSON Schema for the abilities document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if outPath == "" {
				return fmt.Errorf("--out is required")
			}
			if err := document.WriteSchema(outPath); err != nil {
				return fmt.Errorf("failed to write schema: %w", err)
			}
			a.logger.Info("schema written", zap.String("path", outPath))
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "assets/pokemon/abilities.schema.json", "path to write the JSON schema")
	return cmd
}
