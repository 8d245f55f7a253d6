package generator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/abilitygen/internal/ability"
	"github.com/cory-johannsen/abilitygen/internal/document"
	"github.com/cory-johannsen/abilitygen/internal/observability"
	"github.com/cory-johannsen/abilitygen/internal/reference"
)

// Reference supplies the remote lookups.
type Reference interface {
	Identifiers(ctx context.Context) (map[int]string, error)
	LocalizedNames(ctx context.Context, lang reference.Language) (map[int]string, error)
	FlavorTexts(ctx context.Context, lang reference.Language) (map[int]string, error)
}

// Config controls one generation run.
type Config struct {
	Language reference.Language
	// OutputPath is both the prior document read for effect text and the
	// destination of the new document.
	OutputPath string
	Version    string
	// SeedFromFlavorText fills empty effect text from the flavor text table.
	SeedFromFlavorText bool
}

// Summary reports the outcome of a run.
type Summary struct {
	RunID      string
	Total      int
	Configured int
	Seeded     int
	Path       string
}

// Generator runs the fetch, load, merge and write sequence.
type Generator struct {
	ref     Reference
	catalog ability.Catalog
	cfg     Config
	logger  *zap.Logger
}

// New constructs a Generator.
//
// Precondition: ref, catalog and logger must be non-nil; cfg.OutputPath must
// be non-empty.
// Postcondition: returns a non-nil Generator.
func New(ref Reference, catalog ability.Catalog, cfg Config, logger *zap.Logger) *Generator {
	if cfg.Version == "" {
		cfg.Version = document.DefaultVersion
	}
	return &Generator{ref: ref, catalog: catalog, cfg: cfg, logger: logger}
}

// Run performs one full rebuild of the document.
//
// Postcondition: on error the document at cfg.OutputPath is untouched.
func (g *Generator) Run(ctx context.Context) (Summary, error) {
	overall := time.Now()
	log, runID := observability.WithRun(g.logger)
	log.Info("generating abilities",
		zap.String("language", g.cfg.Language.String()),
		zap.String("output", g.cfg.OutputPath),
	)

	identifiers, err := g.ref.Identifiers(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("fetching identifiers: %w", err)
	}
	log.Info("identifiers loaded", zap.Int("count", len(identifiers)))

	names, err := g.ref.LocalizedNames(ctx, g.cfg.Language)
	if err != nil {
		return Summary{}, fmt.Errorf("fetching localized names: %w", err)
	}
	log.Info("localized names loaded", zap.Int("count", len(names)))

	effects, err := document.LoadEffects(g.cfg.OutputPath)
	if err != nil {
		return Summary{}, fmt.Errorf("loading effect text: %w", err)
	}
	log.Info("effect text loaded", zap.Int("count", len(effects)))

	seeded := 0
	if g.cfg.SeedFromFlavorText {
		flavor, err := g.ref.FlavorTexts(ctx, g.cfg.Language)
		if err != nil {
			return Summary{}, fmt.Errorf("fetching flavor text: %w", err)
		}
		seeded = SeedEffects(effects, names, flavor)
		log.Info("effect text seeded from flavor text", zap.Int("seeded", seeded))
	}

	records := Merge(Inputs{Identifiers: identifiers, Names: names, Effects: effects}, g.catalog)
	configured := 0
	for _, r := range records {
		if r.Params.Kind() != ability.KindNotImplemented {
			configured++
		}
	}

	doc := document.NewDocument(g.cfg.Version, records)
	if err := document.Write(g.cfg.OutputPath, doc); err != nil {
		return Summary{}, fmt.Errorf("writing document: %w", err)
	}

	log.Info("abilities written",
		zap.String("path", g.cfg.OutputPath),
		zap.Int("total", doc.Total),
		zap.Int("configured", configured),
		zap.Duration("elapsed", time.Since(overall).Round(time.Millisecond)),
	)
	return Summary{
		RunID:      runID,
		Total:      doc.Total,
		Configured: configured,
		Seeded:     seeded,
		Path:       g.cfg.OutputPath,
	}, nil
}
