package ability_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/abilitygen/internal/ability"
)

func TestDefaultCatalog_Curated(t *testing.T) {
	reg := ability.DefaultCatalog()
	assert.Equal(t, "1.0.0", reg.Version())
	assert.Equal(t, 42, reg.Len())

	d, ok := reg.Lookup(22)
	require.True(t, ok)
	assert.Equal(t, ability.OnSwitchIn{Stat: ability.StatAttack, Stages: -1, Target: ability.TargetOpponent}, d)

	d, ok = reg.Lookup(1)
	require.True(t, ok)
	data, err := json.Marshal(ability.NewParams(d))
	require.NoError(t, err)
	assert.Equal(t, `{"trigger":"on_attack","flinch_chance":0.1}`, string(data))

	_, ok = reg.Lookup(4)
	assert.False(t, ok, "battle-armor is not curated")
}

func TestDefaultCatalog_EntriesValidate(t *testing.T) {
	reg := ability.DefaultCatalog()
	for _, id := range reg.IDs() {
		d, _ := reg.Lookup(id)
		assert.NoError(t, d.Validate(), "ability %d", id)
		assert.NotEqual(t, ability.KindNotImplemented, d.Kind(), "ability %d", id)
	}
}

func TestDefaultCatalog_LoadsEnumValues(t *testing.T) {
	var reg *ability.Registry
	require.NotPanics(t, func() { reg = ability.DefaultCatalog() })

	d, ok := reg.Lookup(3)
	require.True(t, ok)
	assert.Equal(t, ability.TurnEnd{Stat: ability.StatSpeed, Stages: 1}, d)
	assert.NoError(t, d.Validate())
}

func TestDefaultCatalog_ReturnsCopy(t *testing.T) {
	reg := ability.DefaultCatalog()
	reg.Register(9999, ability.OnKO{Stat: ability.StatSpeed, Stages: 1})

	_, ok := ability.DefaultCatalog().Lookup(9999)
	assert.False(t, ok, "mutating a returned catalog must not leak into the default")
}

func TestRegistry_IDsAscending(t *testing.T) {
	reg := ability.NewRegistry("test")
	for _, id := range []int{30, 2, 17} {
		reg.Register(id, ability.NotImplemented{})
	}
	assert.Equal(t, []int{2, 17, 30}, reg.IDs())
}

func TestOverlay_ReplacesByID(t *testing.T) {
	base := ability.NewRegistry("1.0.0")
	base.Register(1, ability.OnAttack{FlinchChance: 0.1})
	base.Register(3, ability.TurnEnd{Stat: ability.StatSpeed, Stages: 1})

	extra := ability.NewRegistry("local")
	extra.Register(3, ability.TurnEnd{Stat: ability.StatSpeed, Stages: 2})
	extra.Register(5, ability.Immunity{Status: ability.StatusSleep})

	out := ability.Overlay(base, extra)
	assert.Equal(t, "1.0.0+local", out.Version())
	assert.Equal(t, []int{1, 3, 5}, out.IDs())

	d, _ := out.Lookup(3)
	assert.Equal(t, ability.TurnEnd{Stat: ability.StatSpeed, Stages: 2}, d)
	d, _ = base.Lookup(3)
	assert.Equal(t, ability.TurnEnd{Stat: ability.StatSpeed, Stages: 1}, d, "base must be untouched")
}

func TestLoadCatalog_Valid(t *testing.T) {
	reg, err := ability.LoadCatalog(strings.NewReader(`
version: "local-1"
abilities:
  - id: 7
    trigger: immunity
    status: paralysis
  - id: 15
    trigger: immunity
    status: sleep
`))
	require.NoError(t, err)
	assert.Equal(t, "local-1", reg.Version())
	assert.Equal(t, []int{7, 15}, reg.IDs())

	d, ok := reg.Lookup(7)
	require.True(t, ok)
	assert.Equal(t, ability.Immunity{Status: ability.StatusParalysis}, d)
}

func TestLoadCatalog_Empty(t *testing.T) {
	reg, err := ability.LoadCatalog(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
}

func TestLoadCatalog_Rejects(t *testing.T) {
	cases := map[string]string{
		"foreign attribute": `
abilities:
  - id: 3
    trigger: turn_end
    stat: speed
    stages: 1
    chance: 0.5
`,
		"unknown trigger": `
abilities:
  - id: 3
    trigger: on_full_moon
`,
		"missing trigger": `
abilities:
  - id: 3
    stat: speed
`,
		"missing id": `
abilities:
  - trigger: immunity
    status: poison
`,
		"duplicate id": `
abilities:
  - id: 17
    trigger: immunity
    status: poison
  - id: 17
    trigger: immunity
    status: burn
`,
		"out of range stages": `
abilities:
  - id: 153
    trigger: on_ko
    stat: attack
    stages: 9
`,
		"unknown top-level key": `
revision: 2
abilities: []
`,
		"entry is not a mapping": `
abilities:
  - 17
`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ability.LoadCatalog(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extra.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: "2"
abilities:
  - id: 5
    trigger: immunity
    damage_types: [direct]
`), 0644))

	reg, err := ability.LoadCatalogFile(path)
	require.NoError(t, err)
	d, ok := reg.Lookup(5)
	require.True(t, ok)
	assert.Equal(t, ability.KindImmunity, d.Kind())

	_, err = ability.LoadCatalogFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
