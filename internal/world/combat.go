package world

import "github.com/vovakirdan/bulletverse/internal/core"

// hitEnemy applies b to the first enemy it overlaps. A bullet hits at most
// one enemy per tick. Reports whether a hit happened.
func (w *World) hitEnemy(b *Bullet) bool {
	for i := range w.state.Enemies {
		e := &w.state.Enemies[i]
		if b.Pos.Dist(e.Pos) >= e.Size {
			continue
		}

		e.Health -= b.Damage
		b.Penetration--

		if e.Health <= 0 {
			w.killEnemy(i, b.Owner)
		}
		return true
	}
	return false
}

// killEnemy replaces the enemy at index i in place, maybe drops a powerup
// where it died, and rewards the owner if it is a connected player.
func (w *World) killEnemy(i int, owner PlayerID) {
	pos := w.state.Enemies[i].Pos

	if w.rng.Float64() < w.cfg.Powerups.DropChance {
		w.addPowerup(pos, w.randomPowerupKind())
	}

	w.state.Enemies[i] = w.spawnEnemy()

	p, ok := w.state.Players[owner]
	if !ok {
		return
	}
	xp := w.cfg.Progression.BaseKillXP * w.settings.XPMultiplier
	w.emit(Event{Kind: EventKill, Player: owner, Amount: xp})
	w.grantXP(owner, p, xp)
}

// hitPlayer applies an enemy bullet to the first player it overlaps,
// visiting players in ascending id order. Reports whether it was consumed.
func (w *World) hitPlayer(ids []PlayerID, b *Bullet) bool {
	for _, id := range ids {
		p := w.state.Players[id]
		if b.Pos.Dist(p.Pos) >= w.cfg.World.PlayerRadius {
			continue
		}
		ApplyDamage(p, b.Damage)
		w.emit(Event{Kind: EventPlayerHit, Player: id, Amount: b.Damage})
		return true
	}
	return false
}

// ApplyDamage subtracts damage from the shield first and carries any excess
// into health. The shield never goes below zero.
func ApplyDamage(p *Player, damage float64) {
	if p.Shield <= 0 {
		p.Health -= damage
		return
	}
	p.Shield -= damage
	if p.Shield < 0 {
		p.Health += p.Shield
		p.Shield = 0
	}
}

// resolvePickups hands each powerup to the first player in range.
// Players are visited in ascending id order.
func (w *World) resolvePickups() {
	if len(w.state.Powerups) == 0 || len(w.state.Players) == 0 {
		return
	}
	ids := w.sortedPlayerIDs()
	radius := w.cfg.Powerups.PickupRadius

	kept := w.state.Powerups[:0]
	for _, pu := range w.state.Powerups {
		taken := false
		for _, id := range ids {
			p := w.state.Players[id]
			if pu.Pos.Dist(p.Pos) >= radius {
				continue
			}
			w.applyPowerup(id, p, pu.Kind)
			w.emit(Event{Kind: EventPowerupPickup, Player: id, Powerup: pu.Kind})
			taken = true
			break
		}
		if !taken {
			kept = append(kept, pu)
		}
	}
	clear(w.state.Powerups[len(kept):])
	w.state.Powerups = kept
}

// applyPowerup applies the effect of kind to p.
func (w *World) applyPowerup(id PlayerID, p *Player, kind PowerupKind) {
	cfg := w.cfg.Powerups
	switch kind {
	case PowerupHealth:
		maxHealth := p.MaxHealth
		if maxHealth <= 0 {
			maxHealth = w.cfg.World.PlayerMaxHealth
		}
		p.Health = core.ClampF(p.Health+cfg.HealthAmount, 0, maxHealth)
	case PowerupShield:
		p.Shield = cfg.ShieldAmount
		p.Shielded = Activate(w.now, cfg.ShieldDuration, cfg.ShieldAmount)
	case PowerupSpeed:
		p.SpeedBoost = Activate(w.now, cfg.SpeedDuration, cfg.SpeedMultiplier)
	case PowerupDamage:
		p.DamageBoost = Activate(w.now, cfg.DamageDuration, cfg.DamageBonus)
	case PowerupXP:
		w.grantXP(id, p, cfg.XPAmount)
	}
}
