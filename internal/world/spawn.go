package world

import (
	"math"

	"github.com/vovakirdan/bulletverse/internal/core"
)

// uniform returns a value in [lo, hi).
func (w *World) uniform(lo, hi float64) float64 {
	return lo + w.rng.Float64()*(hi-lo)
}

// randomFieldPos picks a point at least SpawnMargin away from every edge.
func (w *World) randomFieldPos() core.Vec2 {
	m := w.cfg.World.SpawnMargin
	return core.V(w.uniform(m, w.bounds.W-m), w.uniform(m, w.bounds.H-m))
}

// spawnEnemy creates an enemy seeded from the active difficulty preset.
func (w *World) spawnEnemy() Enemy {
	rate := w.cfg.World.EnemyFireRate
	return Enemy{
		Pos:       w.randomFieldPos(),
		Angle:     w.uniform(0, 2*math.Pi),
		Speed:     w.settings.EnemySpeed * w.uniform(0.8, 1.2),
		Health:    w.settings.EnemyHealth,
		MaxHealth: w.settings.EnemyHealth,
		FireTimer: float64(w.rng.Intn(int(rate) + 1)),
		Kind:      enemyKinds[w.rng.Intn(len(enemyKinds))],
		Size:      w.uniform(0.8, 1.2) * w.cfg.World.EnemyBaseSize,
	}
}

// addPowerup places a powerup unless the field is at capacity.
// Reports whether it was added.
func (w *World) addPowerup(pos core.Vec2, kind PowerupKind) bool {
	if len(w.state.Powerups) >= w.cfg.Powerups.MaxActive {
		return false
	}
	w.state.Powerups = append(w.state.Powerups, Powerup{
		Pos:       pos,
		Kind:      kind,
		CreatedAt: w.now,
	})
	w.emit(Event{Kind: EventPowerupSpawned, Powerup: kind})
	return true
}

// weightedPowerupKind draws a kind from the configured spawn weights.
// Falls back to a uniform draw if no weight is positive.
func (w *World) weightedPowerupKind() PowerupKind {
	var total float64
	for _, k := range PowerupKinds {
		total += max(0, w.cfg.Powerups.Weights[string(k)])
	}
	if total <= 0 {
		return w.randomPowerupKind()
	}

	r := w.rng.Float64() * total
	for _, k := range PowerupKinds {
		r -= max(0, w.cfg.Powerups.Weights[string(k)])
		if r < 0 {
			return k
		}
	}
	return PowerupKinds[len(PowerupKinds)-1]
}

func (w *World) randomPowerupKind() PowerupKind {
	return PowerupKinds[w.rng.Intn(len(PowerupKinds))]
}
