package main

import (
	"math/rand"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/bulletverse/internal/config"
	"github.com/vovakirdan/bulletverse/internal/core"
	"github.com/vovakirdan/bulletverse/internal/protocol"
	"github.com/vovakirdan/bulletverse/internal/world"
)

func TestDialAddress(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{":5555", "localhost:5555"},
		{"127.0.0.1:5555", "127.0.0.1:5555"},
		{"ws://localhost:8080/ws", "ws://localhost:8080/ws"},
	}
	for _, tc := range tests {
		if got := dialAddress(tc.in); got != tc.want {
			t.Errorf("dialAddress(%q) = %q, expected %q", tc.in, got, tc.want)
		}
	}
}

func TestNearestEnemy(t *testing.T) {
	if _, ok := nearestEnemy(core.V(0, 0), nil); ok {
		t.Error("nearestEnemy() found a target among no enemies")
	}

	enemies := []world.Enemy{{Pos: core.V(50, 0)}, {Pos: core.V(10, 10)}, {Pos: core.V(-30, 0)}}
	got, ok := nearestEnemy(core.V(0, 0), enemies)
	if !ok || got != core.V(10, 10) {
		t.Errorf("nearestEnemy() = %v, %v, expected (10,10), true", got, ok)
	}
}

func TestBotCarriesServerState(t *testing.T) {
	b := &bot{
		id:     "bot-1",
		cfg:    config.Default(),
		rng:    rand.New(rand.NewSource(1)),
		logger: log.Default(),
	}

	var snap protocol.Snapshot
	snap.Players = map[world.PlayerID]*world.Player{
		"bot-1": {Health: 80, MaxHealth: 100, Level: 3, XP: 12},
	}

	u := b.next(snap)
	if u.Level != 3 || u.XP != 12 || u.Health != 80 {
		t.Errorf("next() = level %d xp %v health %v, expected 3 12 80", u.Level, u.XP, u.Health)
	}
	if len(u.NewBullets) != 0 {
		t.Errorf("next() fired %d bullets with no enemies, expected 0", len(u.NewBullets))
	}

	bounds := core.Bounds{W: b.cfg.World.Width, H: b.cfg.World.Height}
	if !bounds.Contains(u.Pos) {
		t.Errorf("next() position %v outside the field", u.Pos)
	}
}

func TestBotWithoutSnapshot(t *testing.T) {
	b := &bot{id: "bot-1", cfg: config.Default(), rng: rand.New(rand.NewSource(1)), logger: log.Default()}

	u := b.next(protocol.Snapshot{})
	if u.Health != b.cfg.World.PlayerMaxHealth || u.MaxHealth != b.cfg.World.PlayerMaxHealth {
		t.Errorf("next() health = %v/%v, expected full health", u.Health, u.MaxHealth)
	}
}
