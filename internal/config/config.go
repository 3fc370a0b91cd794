// Package config provides YAML-based configuration loading and difficulty
// presets for the simulation server.
package config

import (
	"fmt"
	"time"
)

// Config contains the complete configuration of a server process.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	World       WorldConfig       `yaml:"world"`
	Powerups    PowerupConfig     `yaml:"powerups"`
	Progression ProgressionConfig `yaml:"progression"`
	Difficulty  DifficultyConfig  `yaml:"difficulty"`
	Storage     StorageConfig     `yaml:"storage"`
}

// ServerConfig defines network and loop timing parameters.
type ServerConfig struct {
	Address           string        `yaml:"address"`      // TCP bind address (host:port)
	HTTPAddress       string        `yaml:"http_address"` // Status API + WebSocket endpoint, empty disables
	TickInterval      time.Duration `yaml:"tick_interval"`
	AcceptPoll        time.Duration `yaml:"accept_poll"` // Accept deadline so the loop can observe shutdown
	HandshakeTimeout  time.Duration `yaml:"handshake_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	MaxFrameSize      int           `yaml:"max_frame_size"`      // Bytes; larger frames are a protocol violation
	CompressThreshold int           `yaml:"compress_threshold"`  // Bodies above this are LZ4-compressed, 0 disables
	HandshakeRate     float64       `yaml:"handshake_rate"`      // WebSocket upgrades per second per IP
	HandshakeBurst    int           `yaml:"handshake_burst"`
}

// WorldConfig defines play field and entity simulation parameters.
type WorldConfig struct {
	Width             float64 `yaml:"width"`
	Height            float64 `yaml:"height"`
	NumEnemies        int     `yaml:"num_enemies"`
	EnemyFireRate     float64 `yaml:"enemy_fire_rate"` // Ticks between enemy shots
	PlayerBulletSpeed float64 `yaml:"player_bullet_speed"`
	EnemyBulletSpeed  float64 `yaml:"enemy_bullet_speed"`
	EngagementRadius  float64 `yaml:"engagement_radius"`
	MaxInaccuracy     float64 `yaml:"max_inaccuracy"`
	InaccuracyScale   float64 `yaml:"inaccuracy_scale"`
	WanderChance      float64 `yaml:"wander_chance"`
	WanderSpread      float64 `yaml:"wander_spread"`
	RetargetChance    float64 `yaml:"retarget_chance"`
	TurnRate          float64 `yaml:"turn_rate"`
	BoundaryMargin    float64 `yaml:"boundary_margin"`
	SpawnMargin       float64 `yaml:"spawn_margin"`
	EnemyBaseSize     float64 `yaml:"enemy_base_size"`
	PlayerRadius      float64 `yaml:"player_radius"`
	PlayerMaxHealth   float64 `yaml:"player_max_health"`
}

// PowerupConfig defines powerup lifecycle and effect parameters.
type PowerupConfig struct {
	SpawnInterval   time.Duration      `yaml:"spawn_interval"`
	Lifetime        time.Duration      `yaml:"lifetime"`
	MaxActive       int                `yaml:"max_active"`
	PickupRadius    float64            `yaml:"pickup_radius"`
	DropChance      float64            `yaml:"drop_chance"`
	HealthAmount    float64            `yaml:"health_amount"`
	ShieldAmount    float64            `yaml:"shield_amount"`
	ShieldDuration  time.Duration      `yaml:"shield_duration"`
	SpeedMultiplier float64            `yaml:"speed_multiplier"`
	SpeedDuration   time.Duration      `yaml:"speed_duration"`
	DamageBonus     float64            `yaml:"damage_bonus"`
	DamageDuration  time.Duration      `yaml:"damage_duration"`
	XPAmount        float64            `yaml:"xp_amount"`
	Weights         map[string]float64 `yaml:"weights"` // Spawn weight per powerup kind
}

// ProgressionConfig defines XP and leveling rules.
type ProgressionConfig struct {
	BaseKillXP       float64 `yaml:"base_kill_xp"`
	InitialThreshold float64 `yaml:"initial_threshold"`
	ThresholdGrowth  float64 `yaml:"threshold_growth"`
	CascadeLevelUps  bool    `yaml:"cascade_level_ups"` // false applies one level-up per XP grant
}

// StorageConfig defines where session history is persisted.
type StorageConfig struct {
	DBPath string `yaml:"db_path"` // Empty disables persistence
}

// Validate reports the first nonsensical value in the configuration.
func (c Config) Validate() error {
	switch {
	case c.Server.TickInterval <= 0:
		return fmt.Errorf("config: server.tick_interval must be positive")
	case c.Server.AcceptPoll <= 0:
		return fmt.Errorf("config: server.accept_poll must be positive")
	case c.Server.HandshakeTimeout <= 0:
		return fmt.Errorf("config: server.handshake_timeout must be positive")
	case c.Server.WriteTimeout <= 0:
		return fmt.Errorf("config: server.write_timeout must be positive")
	case c.Server.MaxFrameSize <= 0:
		return fmt.Errorf("config: server.max_frame_size must be positive")
	case c.World.Width <= 2*c.World.SpawnMargin || c.World.Height <= 2*c.World.SpawnMargin:
		return fmt.Errorf("config: world is %gx%g, too small for spawn margin %g",
			c.World.Width, c.World.Height, c.World.SpawnMargin)
	case c.World.NumEnemies < 0:
		return fmt.Errorf("config: world.num_enemies must not be negative")
	case c.World.EnemyFireRate <= 0:
		return fmt.Errorf("config: world.enemy_fire_rate must be positive")
	case c.World.InaccuracyScale <= 0:
		return fmt.Errorf("config: world.inaccuracy_scale must be positive")
	case !(c.Progression.ThresholdGrowth > 1):
		return fmt.Errorf("config: progression.threshold_growth must be greater than 1")
	case c.Progression.InitialThreshold <= 0:
		return fmt.Errorf("config: progression.initial_threshold must be positive")
	}

	if _, err := c.Difficulty.Preset(c.Difficulty.Default); err != nil {
		return err
	}
	return nil
}
