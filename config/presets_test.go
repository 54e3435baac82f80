package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frizinak/labcalc/mix"
)

func TestLoadPresetsMissing(t *testing.T) {
	l, err := LoadPresets(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, l)
}

func TestPresetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "presets.yaml")
	spec := mix.ReactionSpec{VolumePerReaction: 20, ReactionCount: 50}
	components := []mix.Component{
		{Name: "Primer", Stock: 10, Final: 0.5, Dilution: math.NaN()},
		{Name: "", Stock: 10, Final: math.NaN(), Dilution: 10},
	}

	require.NoError(t, SavePresets(path, []Preset{
		NewPreset("pcr", spec, components, "Water"),
		NewPreset("old", spec, nil, ""),
		NewPreset("pcr", mix.ReactionSpec{VolumePerReaction: 25, ReactionCount: 8}, components, " TE "),
	}))

	l, err := LoadPresets(path)
	require.NoError(t, err)
	require.Len(t, l, 2)
	assert.Equal(t, "pcr", l[0].Name)
	assert.Equal(t, "old", l[1].Name)

	p, ok := FindPreset(l, "pcr")
	require.True(t, ok)
	assert.Equal(t, mix.ReactionSpec{VolumePerReaction: 25, ReactionCount: 8}, p.Spec())
	assert.Equal(t, "TE", p.Buffer)

	got := p.Mix()
	require.Len(t, got, 2)
	assert.Equal(t, "Primer", got[0].Name)
	assert.Equal(t, 0.5, got[0].Final)
	assert.True(t, math.IsNaN(got[0].Dilution))
	assert.Equal(t, mix.DefaultComponentName, got[1].Name)
	assert.True(t, math.IsNaN(got[1].Final))
	assert.Equal(t, 10.0, got[1].Dilution)

	r, err := mix.Compute(p.Spec(), p.Mix(), p.Buffer)
	require.NoError(t, err)
	assert.Equal(t, "TE", r.Buffer().Label)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadPresetsInvalid(t *testing.T) {
	dir := t.TempDir()

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("presets:\n  - name: a\n  - name: a\n"), 0644))
	_, err := LoadPresets(dup)
	assert.ErrorContains(t, err, "duplicate preset 'a'")

	unnamed := filepath.Join(dir, "unnamed.yaml")
	require.NoError(t, os.WriteFile(unnamed, []byte("presets:\n  - reactions: 2\n"), 0644))
	_, err = LoadPresets(unnamed)
	assert.ErrorContains(t, err, "without a name")

	garbage := filepath.Join(dir, "garbage.yaml")
	require.NoError(t, os.WriteFile(garbage, []byte("presets: [\n"), 0644))
	_, err = LoadPresets(garbage)
	assert.Error(t, err)
}

func TestRemovePreset(t *testing.T) {
	l := []Preset{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	out, ok := RemovePreset(l, "b")
	require.True(t, ok)
	assert.Equal(t, []Preset{{Name: "a"}, {Name: "c"}}, out)
	assert.Equal(t, "b", l[1].Name)

	_, ok = RemovePreset(l, "x")
	assert.False(t, ok)
}
