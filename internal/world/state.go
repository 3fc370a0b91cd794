// Package world holds the authoritative game state and advances it one tick
// at a time. A World is not safe for concurrent use; the owner serializes
// access.
package world

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/vovakirdan/bulletverse/internal/config"
	"github.com/vovakirdan/bulletverse/internal/core"
)

// State is the canonical record of every simulated entity in a session.
type State struct {
	Players       map[PlayerID]*Player `msgpack:"players"`
	Enemies       []Enemy              `msgpack:"enemies"`
	Bullets       []Bullet             `msgpack:"bullets"`
	Powerups      []Powerup            `msgpack:"powerups"`
	TickTimestamp time.Time            `msgpack:"send_time"`
}

// Clone returns a deep copy of the state.
func (s *State) Clone() State {
	out := State{
		Players:       make(map[PlayerID]*Player, len(s.Players)),
		Enemies:       append([]Enemy(nil), s.Enemies...),
		Bullets:       append([]Bullet(nil), s.Bullets...),
		Powerups:      append([]Powerup(nil), s.Powerups...),
		TickTimestamp: s.TickTimestamp,
	}
	for id, p := range s.Players {
		cp := *p
		out.Players[id] = &cp
	}
	return out
}

// Counts summarizes entity totals.
type Counts struct {
	Players  int `json:"players"`
	Enemies  int `json:"enemies"`
	Bullets  int `json:"bullets"`
	Powerups int `json:"powerups"`
}

// World owns a State and the rules that advance it.
type World struct {
	cfg        config.Config
	bounds     core.Bounds
	difficulty config.DifficultyPreset
	settings   config.DifficultySettings
	rng        *rand.Rand

	state     State
	now       time.Time
	lastSpawn time.Time // Last periodic powerup spawn
	events    []Event
}

// New creates a world populated with the configured number of enemies.
func New(cfg config.Config, rng *rand.Rand, now time.Time) (*World, error) {
	settings, err := cfg.Difficulty.Preset(cfg.Difficulty.Default)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(now.UnixNano())) //nolint:gosec // gameplay randomness
	}

	w := &World{
		cfg:        cfg,
		bounds:     core.Bounds{W: cfg.World.Width, H: cfg.World.Height},
		difficulty: cfg.Difficulty.Default,
		settings:   settings,
		rng:        rng,
		state: State{
			Players: make(map[PlayerID]*Player),
		},
	}
	w.Reset(now)
	return w, nil
}

// Reset respawns every enemy and clears bullets and powerups.
// Connected players are kept.
func (w *World) Reset(now time.Time) {
	w.now = now
	w.lastSpawn = now
	w.state.Enemies = make([]Enemy, 0, w.cfg.World.NumEnemies)
	for range w.cfg.World.NumEnemies {
		w.state.Enemies = append(w.state.Enemies, w.spawnEnemy())
	}
	w.state.Bullets = nil
	w.state.Powerups = nil
	w.state.TickTimestamp = now
	w.events = nil
}

// SetDifficulty switches presets. Enemies already on the field keep their
// stats; replacements and enemy fire use the new preset.
func (w *World) SetDifficulty(preset config.DifficultyPreset) error {
	settings, err := w.cfg.Difficulty.Preset(preset)
	if err != nil {
		return err
	}
	w.difficulty = preset
	w.settings = settings
	return nil
}

// Difficulty returns the active preset name.
func (w *World) Difficulty() config.DifficultyPreset {
	return w.difficulty
}

// State exposes the live state. Callers must not retain it past their
// exclusive access to the world.
func (w *World) State() *State {
	return &w.state
}

// Snapshot returns a deep copy of the current state.
func (w *World) Snapshot() State {
	return w.state.Clone()
}

// Counts returns entity totals.
func (w *World) Counts() Counts {
	return Counts{
		Players:  len(w.state.Players),
		Enemies:  len(w.state.Enemies),
		Bullets:  len(w.state.Bullets),
		Powerups: len(w.state.Powerups),
	}
}

// NewPlayer returns the record a player starts with before its first update.
func (w *World) NewPlayer() Player {
	return Player{
		Pos:           w.bounds.Center(),
		Health:        w.cfg.World.PlayerMaxHealth,
		MaxHealth:     w.cfg.World.PlayerMaxHealth,
		Level:         1,
		XPToNextLevel: w.cfg.Progression.InitialThreshold,
	}
}

// AddPlayer registers id with a fresh player record if it is not present.
func (w *World) AddPlayer(id PlayerID) {
	if _, ok := w.state.Players[id]; ok {
		return
	}
	p := w.NewPlayer()
	w.state.Players[id] = &p
}

// RemovePlayer drops id from the world. Bullets it fired stay in flight.
func (w *World) RemovePlayer(id PlayerID) {
	delete(w.state.Players, id)
}

// Player returns a copy of the record for id.
func (w *World) Player(id PlayerID) (Player, bool) {
	p, ok := w.state.Players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// Merge replaces the record for id with p and appends its new shots,
// tagged with id, in the order given. Client values the simulation cannot
// work with are repaired first. Shots without penetration or with
// non-finite fields are dropped.
func (w *World) Merge(id PlayerID, p Player, shots []Shot, now time.Time) {
	w.sanitize(id, &p)
	w.state.Players[id] = &p

	for _, s := range shots {
		if s.Penetration < 1 || !validShot(s) {
			continue
		}
		w.state.Bullets = append(w.state.Bullets, Bullet{
			Pos:         core.V(s.X, s.Y),
			Angle:       s.Angle,
			Penetration: s.Penetration,
			Damage:      s.Damage,
			Owner:       id,
		})
	}
	w.state.TickTimestamp = now
}

// sanitize repairs a client-supplied record: non-finite or out of range
// values fall back to the previous record or the defaults of a new player.
func (w *World) sanitize(id PlayerID, p *Player) {
	fresh := w.NewPlayer()
	prev := &fresh
	if old, ok := w.state.Players[id]; ok {
		prev = old
	}

	if !p.Pos.Finite() {
		p.Pos = prev.Pos
	}
	p.Pos = w.bounds.Clamp(p.Pos)
	if !core.Finite(p.Angle) {
		p.Angle = 0
	}

	if !core.Finite(p.MaxHealth) || p.MaxHealth <= 0 {
		p.MaxHealth = w.cfg.World.PlayerMaxHealth
	}
	if !core.Finite(p.Health) {
		p.Health = prev.Health
	}
	p.Health = core.ClampF(p.Health, 0, p.MaxHealth)
	if !core.Finite(p.Shield) {
		p.Shield = 0
	}
	p.Shield = math.Max(0, p.Shield)

	if p.Level < 1 {
		p.Level = 1
	}
	if !core.Finite(p.XP) || p.XP < 0 {
		p.XP = 0
	}
	if !core.Finite(p.XPToNextLevel) || p.XPToNextLevel < w.cfg.Progression.InitialThreshold {
		p.XPToNextLevel = w.cfg.Progression.InitialThreshold
	}
	if p.UpgradePoints < 0 {
		p.UpgradePoints = 0
	}
}

func validShot(s Shot) bool {
	return core.Finite(s.X) && core.Finite(s.Y) && core.Finite(s.Angle) && core.Finite(s.Damage)
}

// sortedPlayerIDs returns player identifiers in ascending order.
// Every "first match" rule iterates in this order.
func (w *World) sortedPlayerIDs() []PlayerID {
	ids := make([]PlayerID, 0, len(w.state.Players))
	for id := range w.state.Players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}

// nearestPlayer returns the closest player to pos. Ties go to the lowest id.
func (w *World) nearestPlayer(ids []PlayerID, pos core.Vec2) (*Player, float64, bool) {
	var (
		best     *Player
		bestDist float64
	)
	for _, id := range ids {
		p := w.state.Players[id]
		d := pos.Dist(p.Pos)
		if best == nil || d < bestDist {
			best, bestDist = p, d
		}
	}
	return best, bestDist, best != nil
}

func (w *World) emit(e Event) {
	w.events = append(w.events, e)
}

// drainEvents returns and clears pending events.
func (w *World) drainEvents() []Event {
	out := w.events
	w.events = nil
	return out
}
