package world

// EventKind classifies an outcome produced by the resolver.
type EventKind uint8

const (
	EventKill EventKind = iota
	EventPlayerHit
	EventPowerupSpawned
	EventPowerupPickup
	EventPowerupExpired
	EventLevelUp
)

func (k EventKind) String() string {
	switch k {
	case EventKill:
		return "kill"
	case EventPlayerHit:
		return "player_hit"
	case EventPowerupSpawned:
		return "powerup_spawned"
	case EventPowerupPickup:
		return "powerup_pickup"
	case EventPowerupExpired:
		return "powerup_expired"
	case EventLevelUp:
		return "level_up"
	default:
		return "unknown"
	}
}

// Event records one resolution outcome during a tick.
type Event struct {
	Kind    EventKind
	Player  PlayerID    // Empty for events without a player
	Amount  float64     // XP awarded, damage taken
	Powerup PowerupKind // For powerup events
	Level   int         // New level for EventLevelUp
}
