package world

import (
	"math"
	"time"

	"github.com/vovakirdan/bulletverse/internal/core"
)

// Tick advances the world by one step at time now and returns the events it
// produced: effect expiry, powerup lifecycle, enemies, bullets with combat,
// then powerup pickups.
func (w *World) Tick(now time.Time) []Event {
	w.now = now
	w.state.TickTimestamp = now

	w.expireEffects()
	w.updatePowerups()
	w.AdvanceEnemies()
	w.AdvanceBullets()
	w.resolvePickups()

	return w.drainEvents()
}

// AdvanceEnemies moves, steers and fires every enemy once.
func (w *World) AdvanceEnemies() {
	cfg := w.cfg.World
	ids := w.sortedPlayerIDs()

	for i := range w.state.Enemies {
		e := &w.state.Enemies[i]

		e.Pos = e.Pos.Step(e.Angle, e.Speed)

		if e.Pos.X <= cfg.BoundaryMargin || e.Pos.X >= w.bounds.W-cfg.BoundaryMargin {
			e.Angle = math.Pi - e.Angle
		}
		if e.Pos.Y <= cfg.BoundaryMargin || e.Pos.Y >= w.bounds.H-cfg.BoundaryMargin {
			e.Angle = -e.Angle
		}

		if w.rng.Float64() < cfg.WanderChance {
			e.Angle += w.uniform(-cfg.WanderSpread, cfg.WanderSpread)
		}

		if len(ids) > 0 && w.rng.Float64() < cfg.RetargetChance {
			if target, _, ok := w.nearestPlayer(ids, e.Pos); ok {
				delta := core.WrapAngle(e.Pos.AngleTo(target.Pos) - e.Angle)
				e.Angle += delta * cfg.TurnRate
			}
		}

		e.FireTimer--
		if e.FireTimer > 0 {
			continue
		}
		e.FireTimer = cfg.EnemyFireRate * w.uniform(0.8, 1.2)

		target, dist, ok := w.nearestPlayer(ids, e.Pos)
		if !ok || dist >= cfg.EngagementRadius {
			continue
		}
		inaccuracy := math.Min(cfg.MaxInaccuracy, dist/cfg.InaccuracyScale)
		w.state.Bullets = append(w.state.Bullets, Bullet{
			Pos:         e.Pos,
			Angle:       e.Pos.AngleTo(target.Pos) + w.uniform(-inaccuracy, inaccuracy),
			Penetration: 1,
			Damage:      w.settings.EnemyDamage,
			Owner:       EnemyOwner,
		})
	}
}

// AdvanceBullets moves every bullet, drops those leaving the field and
// resolves hits against the category opposing each bullet's owner.
func (w *World) AdvanceBullets() {
	ids := w.sortedPlayerIDs()
	kept := w.state.Bullets[:0]

	for _, b := range w.state.Bullets {
		speed := w.cfg.World.PlayerBulletSpeed
		if b.FromEnemy() {
			speed = w.cfg.World.EnemyBulletSpeed
		}
		b.Pos = b.Pos.Step(b.Angle, speed)

		if !w.bounds.Contains(b.Pos) {
			continue
		}

		if b.FromEnemy() {
			if w.hitPlayer(ids, &b) {
				continue
			}
		} else if w.hitEnemy(&b) && b.Penetration <= 0 {
			continue
		}

		kept = append(kept, b)
	}

	clear(w.state.Bullets[len(kept):])
	w.state.Bullets = kept
}
