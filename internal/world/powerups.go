package world

// updatePowerups spawns on the periodic interval and removes powerups that
// outlived their lifetime. Runs before pickups, so an expired powerup can
// never also be collected.
func (w *World) updatePowerups() {
	cfg := w.cfg.Powerups

	if w.now.Sub(w.lastSpawn) > cfg.SpawnInterval {
		w.addPowerup(w.randomFieldPos(), w.weightedPowerupKind())
		w.lastSpawn = w.now
	}

	kept := w.state.Powerups[:0]
	for _, pu := range w.state.Powerups {
		if w.now.Sub(pu.CreatedAt) > cfg.Lifetime {
			w.emit(Event{Kind: EventPowerupExpired, Powerup: pu.Kind})
			continue
		}
		kept = append(kept, pu)
	}
	clear(w.state.Powerups[len(kept):])
	w.state.Powerups = kept
}

// expireEffects ends timed effects whose time is up. An expiring shield
// takes any remaining shield value with it.
func (w *World) expireEffects() {
	for _, p := range w.state.Players {
		if p.Shielded.Expired(w.now) {
			p.Shielded = Effect{}
			p.Shield = 0
		}
		if p.SpeedBoost.Expired(w.now) {
			p.SpeedBoost = Effect{}
		}
		if p.DamageBoost.Expired(w.now) {
			p.DamageBoost = Effect{}
		}
	}
}
