package world

import (
	"time"

	"github.com/vovakirdan/bulletverse/internal/core"
)

// PlayerID uniquely identifies a connected player.
type PlayerID string

// EnemyOwner tags bullets fired by enemies.
// It is reserved and can never be used as a player identifier.
const EnemyOwner PlayerID = "enemy"

// Player is the authoritative record of one connected player.
// Clients replace it wholesale on every update; the resolver mutates it
// for damage, pickups and kill rewards.
type Player struct {
	Pos           core.Vec2 `msgpack:"pos"`
	Angle         float64   `msgpack:"angle"`
	Health        float64   `msgpack:"health"`
	MaxHealth     float64   `msgpack:"max_health"`
	Shield        float64   `msgpack:"shield"`
	Level         int       `msgpack:"level"`
	XP            float64   `msgpack:"xp"`
	XPToNextLevel float64   `msgpack:"xp_to_next_level"`
	UpgradePoints int       `msgpack:"upgrade_points"`
	Shielded      Effect    `msgpack:"shield_effect"`
	SpeedBoost    Effect    `msgpack:"speed_boost"`
	DamageBoost   Effect    `msgpack:"damage_boost"`
}

// EnemyKind is the behavioral type of an enemy.
// It only drives cosmetics on the client; simulation treats all kinds alike.
type EnemyKind string

const (
	EnemyNormal EnemyKind = "normal"
	EnemyFast   EnemyKind = "fast"
	EnemyTank   EnemyKind = "tank"
)

var enemyKinds = [...]EnemyKind{EnemyNormal, EnemyFast, EnemyTank}

// Enemy is a simulated hostile.
type Enemy struct {
	Pos       core.Vec2 `msgpack:"pos"`
	Angle     float64   `msgpack:"angle"`
	Speed     float64   `msgpack:"speed"`
	Health    float64   `msgpack:"health"`
	MaxHealth float64   `msgpack:"max_health"`
	FireTimer float64   `msgpack:"fire_timer"` // Ticks until the next shot
	Kind      EnemyKind `msgpack:"type"`
	Size      float64   `msgpack:"size"` // Collision radius
}

// Bullet is a projectile in flight.
type Bullet struct {
	Pos         core.Vec2 `msgpack:"pos"`
	Angle       float64   `msgpack:"angle"`
	Penetration int       `msgpack:"penetration"` // Remaining enemy hits
	Damage      float64   `msgpack:"damage"`
	Owner       PlayerID  `msgpack:"owner"`
}

// FromEnemy reports whether the bullet was fired by an enemy.
func (b Bullet) FromEnemy() bool {
	return b.Owner == EnemyOwner
}

// Shot is a bullet freshly fired by a client, sent as
// [x, y, angle, penetration, damage].
type Shot struct {
	_msgpack    struct{} `msgpack:",as_array"`
	X           float64
	Y           float64
	Angle       float64
	Penetration int
	Damage      float64
}

// PowerupKind identifies a powerup effect.
type PowerupKind string

const (
	PowerupHealth PowerupKind = "health"
	PowerupShield PowerupKind = "shield"
	PowerupSpeed  PowerupKind = "speed"
	PowerupDamage PowerupKind = "damage"
	PowerupXP     PowerupKind = "xp"
)

// PowerupKinds lists every kind in spawn-table order.
var PowerupKinds = [...]PowerupKind{PowerupHealth, PowerupShield, PowerupSpeed, PowerupDamage, PowerupXP}

// Powerup is a collectible lying on the field.
type Powerup struct {
	Pos       core.Vec2   `msgpack:"pos"`
	Kind      PowerupKind `msgpack:"type"`
	CreatedAt time.Time   `msgpack:"creation_time"`
}
