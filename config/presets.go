package config

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/frizinak/labcalc/mix"
)

// PresetComponent mirrors mix.Component. Nil fields were left blank.
type PresetComponent struct {
	Name     string   `yaml:"name"`
	Stock    *float64 `yaml:"stock,omitempty"`
	Final    *float64 `yaml:"final,omitempty"`
	Dilution *float64 `yaml:"dilution,omitempty"`
}

// Preset is a saved master mix recipe.
type Preset struct {
	Name              string            `yaml:"name"`
	VolumePerReaction float64           `yaml:"volume_per_reaction"`
	ReactionCount     float64           `yaml:"reactions"`
	Buffer            string            `yaml:"buffer,omitempty"`
	Components        []PresetComponent `yaml:"components"`
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

func value(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func ptr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (p Preset) Spec() mix.ReactionSpec {
	return mix.ReactionSpec{VolumePerReaction: p.VolumePerReaction, ReactionCount: p.ReactionCount}
}

func (p Preset) Mix() []mix.Component {
	l := make([]mix.Component, len(p.Components))
	for i, c := range p.Components {
		l[i] = mix.Component{
			Name:     c.Name,
			Stock:    value(c.Stock),
			Final:    value(c.Final),
			Dilution: value(c.Dilution),
		}
	}
	return l
}

func NewPreset(name string, spec mix.ReactionSpec, components []mix.Component, buffer string) Preset {
	p := Preset{
		Name:              name,
		VolumePerReaction: spec.VolumePerReaction,
		ReactionCount:     spec.ReactionCount,
		Buffer:            strings.TrimSpace(buffer),
		Components:        make([]PresetComponent, len(components)),
	}
	for i, c := range components {
		p.Components[i] = PresetComponent{
			Name:     c.Label(),
			Stock:    ptr(c.Stock),
			Final:    ptr(c.Final),
			Dilution: ptr(c.Dilution),
		}
	}
	return p
}

func PresetPath() (string, error) {
	return ConfigDir("presets.yaml")
}

// LoadPresets reads the presets at path, a missing file holds no presets.
func LoadPresets(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Preset{}, nil
		}
		return nil, err
	}

	var f presetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	uniq := make(map[string]struct{}, len(f.Presets))
	for _, p := range f.Presets {
		if p.Name == "" {
			return nil, fmt.Errorf("parsing %s: preset without a name", path)
		}
		if _, ok := uniq[p.Name]; ok {
			return nil, fmt.Errorf("parsing %s: duplicate preset '%s'", path, p.Name)
		}
		uniq[p.Name] = struct{}{}
	}
	if f.Presets == nil {
		f.Presets = []Preset{}
	}

	return f.Presets, nil
}

// SavePresets writes presets to path. When names repeat the last one wins,
// keeping the position of its first occurrence.
func SavePresets(path string, presets []Preset) error {
	clean := make([]Preset, 0, len(presets))
	index := make(map[string]int, len(presets))
	for _, p := range presets {
		if i, ok := index[p.Name]; ok {
			clean[i] = p
			continue
		}
		index[p.Name] = len(clean)
		clean = append(clean, p)
	}

	buf := bytes.NewBuffer(nil)
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	if err := enc.Encode(presetFile{Presets: clean}); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := tmpFile(path)
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}

func FindPreset(presets []Preset, name string) (Preset, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

func RemovePreset(presets []Preset, name string) ([]Preset, bool) {
	for i, p := range presets {
		if p.Name == name {
			return append(presets[:i:i], presets[i+1:]...), true
		}
	}
	return presets, false
}
