package config

import (
	"fmt"
	"sort"
)

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
)

// DifficultySettings holds the enemy tuning and XP scaling for one preset.
type DifficultySettings struct {
	EnemySpeed   float64 `yaml:"enemy_speed"`
	EnemyHealth  float64 `yaml:"enemy_health"`
	EnemyDamage  float64 `yaml:"enemy_damage"`
	XPMultiplier float64 `yaml:"xp_multiplier"`
}

// DifficultyConfig defines the available presets and the one a session starts with.
type DifficultyConfig struct {
	Default DifficultyPreset                        `yaml:"default"`
	Presets map[DifficultyPreset]DifficultySettings `yaml:"presets"`
}

// Preset looks up the settings for a preset name.
func (d DifficultyConfig) Preset(name DifficultyPreset) (DifficultySettings, error) {
	s, ok := d.Presets[name]
	if !ok {
		return DifficultySettings{}, fmt.Errorf("config: unknown difficulty %q", name)
	}
	return s, nil
}

// Names returns the configured preset names, sorted.
func (d DifficultyConfig) Names() []DifficultyPreset {
	names := make([]DifficultyPreset, 0, len(d.Presets))
	for name := range d.Presets {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return names[i] < names[j]
	})
	return names
}

// ParseDifficulty validates a user-supplied preset name.
func ParseDifficulty(s string) (DifficultyPreset, error) {
	switch p := DifficultyPreset(s); p {
	case DifficultyEasy, DifficultyNormal, DifficultyHard:
		return p, nil
	default:
		return "", fmt.Errorf("config: unknown difficulty %q (want easy, normal or hard)", s)
	}
}
