// Package generator merges the reference tables, the prior document and the
// effect catalog into the abilities document.
package generator

import (
	"sort"

	"github.com/cory-johannsen/abilitygen/internal/ability"
)

// Inputs holds the id-keyed lookups a merge consumes.
type Inputs struct {
	// Identifiers maps id to canonical identifier.
	Identifiers map[int]string
	// Names maps id to localized name. Its key set is the emitted universe.
	Names map[int]string
	// Effects maps id to effect text carried over from the prior document.
	Effects map[int]string
}

// Merge builds one record per id of in.Names, ascending by id.
//
// Precondition: catalog must be non-nil.
// Postcondition: the returned ids equal the key set of in.Names, each once,
// strictly ascending. The result depends only on in and catalog.
func Merge(in Inputs, catalog ability.Catalog) []ability.Ability {
	ids := make([]int, 0, len(in.Names))
	for id := range in.Names {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]ability.Ability, 0, len(ids))
	for _, id := range ids {
		identifier, ok := in.Identifiers[id]
		if !ok {
			identifier = ability.UnknownIdentifier(id)
		}
		d, _ := catalog.Lookup(id)
		out = append(out, ability.Ability{
			ID:         id,
			Identifier: identifier,
			VarName:    ability.VarName(identifier),
			Name:       in.Names[id],
			Effect:     in.Effects[id],
			Params:     ability.NewParams(d),
		})
	}
	return out
}

// SeedEffects fills empty entries of effects for ids in universe from
// fallback. It returns the number of ids seeded.
func SeedEffects(effects map[int]string, universe map[int]string, fallback map[int]string) int {
	seeded := 0
	for id := range universe {
		if effects[id] != "" {
			continue
		}
		text, ok := fallback[id]
		if !ok || text == "" {
			continue
		}
		effects[id] = text
		seeded++
	}
	return seeded
}
