package generator_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/abilitygen/internal/ability"
	"github.com/cory-johannsen/abilitygen/internal/document"
	"github.com/cory-johannsen/abilitygen/internal/generator"
	"github.com/cory-johannsen/abilitygen/internal/reference"
)

type fakeReference struct {
	identifiers map[int]string
	names       map[int]string
	flavor      map[int]string
	err         error
	flavorCalls int
}

func (f *fakeReference) Identifiers(context.Context) (map[int]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identifiers, nil
}

func (f *fakeReference) LocalizedNames(context.Context, reference.Language) (map[int]string, error) {
	return f.names, nil
}

func (f *fakeReference) FlavorTexts(context.Context, reference.Language) (map[int]string, error) {
	f.flavorCalls++
	return f.flavor, nil
}

func zhHans(t *testing.T) reference.Language {
	t.Helper()
	lang, err := reference.ParseLanguage(reference.DefaultLanguage)
	require.NoError(t, err)
	return lang
}

func writePrior(t *testing.T, path string, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestMerge_EndToEndRecord(t *testing.T) {
	catalog := ability.NewRegistry("test")
	catalog.Register(1, ability.OnAttack{FlinchChance: 0.1})

	records := generator.Merge(generator.Inputs{
		Identifiers: map[int]string{1: "stench"},
		Names:       map[int]string{1: "恶臭"},
		Effects:     map[int]string{1: "造成伤害时…"},
	}, catalog)
	require.Len(t, records, 1)

	data, err := json.Marshal(records[0])
	require.NoError(t, err)
	assert.Equal(t,
		`{"id":1,"identifier":"stench","var_name":"AbilityStench","name":"恶臭","effect":"造成伤害时…","params":{"trigger":"on_attack","flinch_chance":0.1}}`,
		string(data))
}

func TestMerge_Fallbacks(t *testing.T) {
	records := generator.Merge(generator.Inputs{
		Identifiers: map[int]string{18: "flash-fire", 999: "not-named"},
		Names:       map[int]string{18: "引火", 300: "无名"},
	}, ability.NewRegistry("empty"))
	require.Len(t, records, 2)

	assert.Equal(t, "AbilityFlashFire", records[0].VarName)
	assert.Equal(t, "", records[0].Effect)

	assert.Equal(t, 300, records[1].ID)
	assert.Equal(t, "unknown_300", records[1].Identifier)
	assert.Equal(t, "AbilityUnknown_300", records[1].VarName)

	data, err := json.Marshal(records[1].Params)
	require.NoError(t, err)
	assert.Equal(t, `{"trigger":"not_implemented"}`, string(data))
}

func TestMerge_Properties(t *testing.T) {
	catalog := ability.DefaultCatalog()
	rapid.Check(t, func(t *rapid.T) {
		names := rapid.MapOf(rapid.IntRange(1, 400), rapid.StringN(1, 6, -1)).Draw(t, "names")
		identifiers := rapid.MapOf(rapid.IntRange(1, 400), rapid.StringMatching(`[a-z]{1,6}(-[a-z]{1,6})?`)).Draw(t, "identifiers")
		effects := rapid.MapOf(rapid.IntRange(1, 400), rapid.String()).Draw(t, "effects")

		in := generator.Inputs{Identifiers: identifiers, Names: names, Effects: effects}
		records := generator.Merge(in, catalog)

		require.Len(t, records, len(names))
		for i, r := range records {
			if i > 0 {
				assert.Less(t, records[i-1].ID, r.ID, "ids must strictly ascend")
			}
			_, named := names[r.ID]
			assert.True(t, named, "id %d outside the name universe", r.ID)
			assert.Equal(t, names[r.ID], r.Name)
			assert.Equal(t, effects[r.ID], r.Effect)
			if _, curated := catalog.Lookup(r.ID); !curated {
				assert.Equal(t, ability.KindNotImplemented, r.Params.Kind())
			}
		}
		assert.Equal(t, records, generator.Merge(in, catalog), "merge must be deterministic")
	})
}

func TestSeedEffects(t *testing.T) {
	effects := map[int]string{1: "kept", 2: ""}
	seeded := generator.SeedEffects(effects,
		map[int]string{1: "a", 2: "b", 3: "c", 4: "d"},
		map[int]string{1: "flavor-1", 2: "flavor-2", 3: "flavor-3", 5: "flavor-5"},
	)
	assert.Equal(t, 2, seeded)
	assert.Equal(t, map[int]string{1: "kept", 2: "flavor-2", 3: "flavor-3"}, effects)
}

func TestRun_WritesDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets", "pokemon", "abilities.json")
	writePrior(t, path, `{"version":"1.0.0","total":1,"abilities":[{"id":1,"effect":"造成伤害时…"}]}`)

	ref := &fakeReference{
		identifiers: map[int]string{1: "stench", 22: "intimidate"},
		names:       map[int]string{1: "恶臭", 22: "威吓", 4: "战斗盔甲"},
	}
	g := generator.New(ref, ability.DefaultCatalog(), generator.Config{Language: zhHans(t), OutputPath: path}, zaptest.NewLogger(t))

	summary, err := g.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Configured)
	assert.Equal(t, path, summary.Path)
	assert.NotEmpty(t, summary.RunID)
	assert.Zero(t, ref.flavorCalls, "flavor text is only fetched when seeding is enabled")

	doc, err := document.Read(path)
	require.NoError(t, err)
	assert.Equal(t, document.DefaultVersion, doc.Version)
	require.Len(t, doc.Abilities, 3)
	assert.Equal(t, []int{1, 4, 22}, []int{doc.Abilities[0].ID, doc.Abilities[1].ID, doc.Abilities[2].ID})
	assert.Equal(t, "造成伤害时…", doc.Abilities[0].Effect)
	assert.Equal(t, "unknown_4", doc.Abilities[1].Identifier)
	assert.Equal(t, "", doc.Abilities[1].Effect)
	assert.Equal(t, ability.KindOnSwitchIn, doc.Abilities[2].Params.Kind())
}

func TestRun_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abilities.json")
	writePrior(t, path, `{"version":"1.0.0","total":2,"abilities":[
  {"id":1,"effect":"造成伤害时…有时会使对手畏缩。"},
  {"id":2,"effect":"出场时降下雨来。\n<天气>&\"雨\""}
]}`)

	ref := &fakeReference{
		identifiers: map[int]string{1: "stench", 2: "drizzle", 3: "speed-boost"},
		names:       map[int]string{1: "恶臭", 2: "降雨", 3: "加速"},
	}
	g := generator.New(ref, ability.DefaultCatalog(), generator.Config{Language: zhHans(t), OutputPath: path}, zaptest.NewLogger(t))

	_, err := g.Run(context.Background())
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = g.Run(context.Background())
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Contains(t, string(first), `"effect": "造成伤害时…有时会使对手畏缩。"`)
	assert.Contains(t, string(first), `"effect": "出场时降下雨来。\n<天气>&\"雨\""`)

	effects, err := document.LoadEffects(path)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{
		1: "造成伤害时…有时会使对手畏缩。",
		2: "出场时降下雨来。\n<天气>&\"雨\"",
		3: "",
	}, effects)
}

func TestRun_MalformedPriorDocumentIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abilities.json")
	prior := `{"version":"1.0.0","total":1,"abilities":[{"id":1}]}`
	writePrior(t, path, prior)

	ref := &fakeReference{
		identifiers: map[int]string{1: "stench"},
		names:       map[int]string{1: "恶臭"},
	}
	g := generator.New(ref, ability.DefaultCatalog(), generator.Config{Language: zhHans(t), OutputPath: path}, zaptest.NewLogger(t))

	_, err := g.Run(context.Background())
	require.ErrorIs(t, err, document.ErrMalformedDocument)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, prior, string(got))
}

func TestRun_SeedsFromFlavorText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abilities.json")
	writePrior(t, path, `{"version":"1.0.0","total":1,"abilities":[{"id":1,"effect":"手写的"}]}`)

	ref := &fakeReference{
		identifiers: map[int]string{1: "stench", 2: "drizzle"},
		names:       map[int]string{1: "恶臭", 2: "降雨"},
		flavor:      map[int]string{1: "官方1", 2: "官方2"},
	}
	cfg := generator.Config{Language: zhHans(t), OutputPath: path, SeedFromFlavorText: true}
	summary, err := generator.New(ref, ability.DefaultCatalog(), cfg, zaptest.NewLogger(t)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Seeded)

	effects, err := document.LoadEffects(path)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "手写的", 2: "官方2"}, effects)
}

func TestRun_TransportFailureLeavesDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abilities.json")
	prior := `{"version":"1.0.0","total":0,"abilities":[]}`
	writePrior(t, path, prior)

	ref := &fakeReference{err: fmt.Errorf("%w: timeout", reference.ErrTransport)}
	g := generator.New(ref, ability.DefaultCatalog(), generator.Config{Language: zhHans(t), OutputPath: path}, zaptest.NewLogger(t))

	_, err := g.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, reference.ErrTransport))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, prior, string(got))
}

func TestRun_MissingPriorDocumentIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abilities.json")
	ref := &fakeReference{
		identifiers: map[int]string{1: "stench"},
		names:       map[int]string{1: "恶臭"},
	}
	g := generator.New(ref, ability.DefaultCatalog(), generator.Config{Language: zhHans(t), OutputPath: path}, zaptest.NewLogger(t))

	_, err := g.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, document.ErrMissingDocument)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no document may be written")
}
