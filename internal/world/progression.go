package world

import (
	"math"

	"github.com/vovakirdan/bulletverse/internal/config"
	"github.com/vovakirdan/bulletverse/internal/core"
)

// maxLevelUpsPerGrant bounds the level-up loop for absurd XP amounts.
const maxLevelUpsPerGrant = 1000

// ApplyXP adds amount to p and performs level-ups. Each level-up subtracts
// the threshold, grows it by rules.ThresholdGrowth (rounded down, never
// below 1) and grants one upgrade point. With rules.CascadeLevelUps unset at
// most one level is gained per call. Non-finite XP is discarded. Returns the
// number of levels gained.
func ApplyXP(p *Player, amount float64, rules config.ProgressionConfig) int {
	if p.Level < 1 {
		p.Level = 1
	}
	if !core.Finite(p.XPToNextLevel) || p.XPToNextLevel < 1 {
		p.XPToNextLevel = math.Max(1, rules.InitialThreshold)
	}
	if !core.Finite(p.XP) || p.XP < 0 {
		p.XP = 0
	}
	if !core.Finite(amount) {
		return 0
	}

	p.XP += amount
	if !core.Finite(p.XP) {
		p.XP = 0
		return 0
	}

	gained := 0
	for p.XP >= p.XPToNextLevel && gained < maxLevelUpsPerGrant {
		p.Level++
		p.XP -= p.XPToNextLevel
		p.XPToNextLevel = math.Max(1, math.Floor(p.XPToNextLevel*rules.ThresholdGrowth))
		p.UpgradePoints++
		gained++

		if !rules.CascadeLevelUps {
			break
		}
	}
	return gained
}

func (w *World) grantXP(id PlayerID, p *Player, amount float64) {
	levels := ApplyXP(p, amount, w.cfg.Progression)
	for i := levels - 1; i >= 0; i-- {
		w.emit(Event{Kind: EventLevelUp, Player: id, Level: p.Level - i})
	}
}
