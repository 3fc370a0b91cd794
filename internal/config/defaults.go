package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/bulletverse.yaml
var defaultYAML []byte

// DefaultYAML returns the embedded default configuration document.
func DefaultYAML() []byte {
	return defaultYAML
}

// Default returns the built-in configuration.
// Mirrors defaults/bulletverse.yaml and is used if the embedded copy fails to parse.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address:           ":5555",
			TickInterval:      10 * time.Millisecond,
			AcceptPoll:        500 * time.Millisecond,
			HandshakeTimeout:  5 * time.Second,
			WriteTimeout:      2 * time.Second,
			MaxFrameSize:      1 << 20,
			CompressThreshold: 8192,
			HandshakeRate:     2,
			HandshakeBurst:    5,
		},
		World: WorldConfig{
			Width:             1920,
			Height:            1080,
			NumEnemies:        6,
			EnemyFireRate:     80,
			PlayerBulletSpeed: 7,
			EnemyBulletSpeed:  5,
			EngagementRadius:  400,
			MaxInaccuracy:     0.2,
			InaccuracyScale:   2000,
			WanderChance:      0.01,
			WanderSpread:      0.5,
			RetargetChance:    0.05,
			TurnRate:          0.1,
			BoundaryMargin:    20,
			SpawnMargin:       50,
			EnemyBaseSize:     20,
			PlayerRadius:      20,
			PlayerMaxHealth:   100,
		},
		Powerups: PowerupConfig{
			SpawnInterval:   10 * time.Second,
			Lifetime:        30 * time.Second,
			MaxActive:       5,
			PickupRadius:    25,
			DropChance:      0.1,
			HealthAmount:    25,
			ShieldAmount:    30,
			ShieldDuration:  10 * time.Second,
			SpeedMultiplier: 1.5,
			SpeedDuration:   5 * time.Second,
			DamageBonus:     5,
			DamageDuration:  8 * time.Second,
			XPAmount:        30,
			Weights: map[string]float64{
				"health": 0.25,
				"shield": 0.2,
				"speed":  0.2,
				"damage": 0.2,
				"xp":     0.15,
			},
		},
		Progression: ProgressionConfig{
			BaseKillXP:       10,
			InitialThreshold: 100,
			ThresholdGrowth:  1.5,
			CascadeLevelUps:  true,
		},
		Difficulty: DifficultyConfig{
			Default: DifficultyNormal,
			Presets: map[DifficultyPreset]DifficultySettings{
				DifficultyEasy:   {EnemySpeed: 1.5, EnemyHealth: 25, EnemyDamage: 8, XPMultiplier: 1.2},
				DifficultyNormal: {EnemySpeed: 2, EnemyHealth: 30, EnemyDamage: 10, XPMultiplier: 1.0},
				DifficultyHard:   {EnemySpeed: 2.5, EnemyHealth: 40, EnemyDamage: 15, XPMultiplier: 0.8},
			},
		},
		Storage: StorageConfig{
			DBPath: "~/.bulletverse/sessions.db",
		},
	}
}
