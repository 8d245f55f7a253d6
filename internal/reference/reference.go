// Package reference reads the remote ability reference tables: canonical
// identifiers, localized names, and flavor text.
package reference

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrTransport marks a failure to fetch a remote table. It is always fatal.
var ErrTransport = errors.New("reference transport failure")

// Remote table names.
const (
	TableAbilities         = "abilities.csv"
	TableAbilityNames      = "ability_names.csv"
	TableAbilityFlavorText = "ability_flavor_text.csv"
)

// Fetcher retrieves one delimited table as rows of columns, with the header
// row already discarded.
type Fetcher interface {
	Fetch(ctx context.Context, table string) ([][]string, error)
}

// Source turns fetched tables into id-keyed lookups.
type Source struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// NewSource constructs a Source backed by fetcher.
//
// Precondition: fetcher and logger must be non-nil.
func NewSource(fetcher Fetcher, logger *zap.Logger) *Source {
	return &Source{fetcher: fetcher, logger: logger}
}

// Identifiers returns id -> canonical identifier. Rows with fewer than two
// columns or a non-positive id are skipped.
func (s *Source) Identifiers(ctx context.Context) (map[int]string, error) {
	rows, err := s.fetch(ctx, TableAbilities)
	if err != nil {
		return nil, err
	}
	out, skipped := ParseIdentifiers(rows)
	s.logParsed(TableAbilities, len(out), skipped)
	return out, nil
}

// LocalizedNames returns id -> name for rows whose language column equals
// lang.ID. Rows with fewer than three columns are skipped.
func (s *Source) LocalizedNames(ctx context.Context, lang Language) (map[int]string, error) {
	rows, err := s.fetch(ctx, TableAbilityNames)
	if err != nil {
		return nil, err
	}
	out, skipped := ParseLocalizedNames(rows, lang.ID)
	s.logParsed(TableAbilityNames, len(out), skipped)
	return out, nil
}

// FlavorTexts returns id -> the flavor text of the newest version group in
// lang, with newlines removed.
func (s *Source) FlavorTexts(ctx context.Context, lang Language) (map[int]string, error) {
	rows, err := s.fetch(ctx, TableAbilityFlavorText)
	if err != nil {
		return nil, err
	}
	out, skipped := ParseFlavorTexts(rows, lang.ID)
	s.logParsed(TableAbilityFlavorText, len(out), skipped)
	return out, nil
}

func (s *Source) fetch(ctx context.Context, table string) ([][]string, error) {
	start := time.Now()
	rows, err := s.fetcher.Fetch(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", table, err)
	}
	s.logger.Info("fetched table",
		zap.String("table", table),
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rows, nil
}

func (s *Source) logParsed(table string, kept, skipped int) {
	s.logger.Debug("parsed table",
		zap.String("table", table),
		zap.Int("kept", kept),
		zap.Int("skipped", skipped),
	)
}

// ParseIdentifiers maps column 0 (id) to column 1 (identifier).
//
// Postcondition: returns the lookup and the number of skipped rows.
func ParseIdentifiers(rows [][]string) (map[int]string, int) {
	out := make(map[int]string, len(rows))
	skipped := 0
	for _, row := range rows {
		if len(row) < 2 {
			skipped++
			continue
		}
		id, ok := parseID(row[0])
		if !ok {
			skipped++
			continue
		}
		out[id] = row[1]
	}
	return out, skipped
}

// ParseLocalizedNames maps column 0 (id) to column 2 (name) for rows whose
// column 1 equals languageID.
//
// Postcondition: returns the lookup and the number of malformed rows.
// Rows in other languages are filtered, not counted as skipped.
func ParseLocalizedNames(rows [][]string, languageID int) (map[int]string, int) {
	out := make(map[int]string)
	skipped := 0
	for _, row := range rows {
		if len(row) < 3 {
			skipped++
			continue
		}
		id, ok := parseID(row[0])
		if !ok {
			skipped++
			continue
		}
		lang, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			skipped++
			continue
		}
		if lang != languageID {
			continue
		}
		out[id] = row[2]
	}
	return out, skipped
}

// ParseFlavorTexts reads ability_id, version_group_id, language_id,
// flavor_text rows. For each id the highest version group wins.
func ParseFlavorTexts(rows [][]string, languageID int) (map[int]string, int) {
	out := make(map[int]string)
	latest := make(map[int]int)
	skipped := 0
	for _, row := range rows {
		if len(row) < 4 {
			skipped++
			continue
		}
		id, ok := parseID(row[0])
		if !ok {
			skipped++
			continue
		}
		group, err1 := strconv.Atoi(strings.TrimSpace(row[1]))
		lang, err2 := strconv.Atoi(strings.TrimSpace(row[2]))
		if err1 != nil || err2 != nil {
			skipped++
			continue
		}
		if lang != languageID {
			continue
		}
		if prev, seen := latest[id]; seen && group < prev {
			continue
		}
		latest[id] = group
		out[id] = strings.ReplaceAll(row[3], "\n", "")
	}
	return out, skipped
}

func parseID(s string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
