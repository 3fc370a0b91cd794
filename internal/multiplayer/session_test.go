package multiplayer

import (
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/bulletverse/internal/world"
)

func TestSessionRegistry(t *testing.T) {
	r := NewSessionRegistry()
	now := time.Now()

	alice := newSession("alice", nil, now)
	if err := r.Register(alice); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(newSession("alice", nil, now)); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Register() duplicate = %v, expected %v", err, ErrDuplicateID)
	}
	if got := r.Count(); got != 1 {
		t.Errorf("Count() = %d, expected 1", got)
	}

	stale := newSession("alice", nil, now)
	if r.Unregister("alice", stale) {
		t.Error("Unregister() removed a session it does not own")
	}
	if !r.Unregister("alice", alice) {
		t.Error("Unregister() = false for the registered session")
	}
	if _, ok := r.Get("alice"); ok {
		t.Error("Get() found alice after Unregister")
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	a := newSession("alice", nil, time.Now())
	b := newSession("alice", nil, time.Now())
	if a.ID() == b.ID() {
		t.Errorf("session ids collide: %q", a.ID())
	}
	if a.State() != SessionConnecting {
		t.Errorf("State() = %v, expected %v", a.State(), SessionConnecting)
	}
}

func TestSessionRecordsEvents(t *testing.T) {
	s := newSession("alice", nil, time.Now())
	for _, e := range []world.Event{
		{Kind: world.EventKill, Player: "alice"},
		{Kind: world.EventKill, Player: "alice"},
		{Kind: world.EventPlayerHit, Player: "alice"},
		{Kind: world.EventPowerupPickup, Player: "alice"},
		{Kind: world.EventLevelUp, Player: "alice", Level: 2},
	} {
		s.record(e)
	}

	if s.kills != 2 || s.hitsTaken != 1 || s.powerups != 1 {
		t.Errorf("counters = kills %d hits %d powerups %d, expected 2 1 1", s.kills, s.hitsTaken, s.powerups)
	}
}

func TestSessionObserve(t *testing.T) {
	s := newSession("alice", nil, time.Now())
	now := time.Now()

	s.observe(time.Time{}, now)
	if !s.lastSendTime.IsZero() {
		t.Error("observe() stored a zero send time")
	}

	s.observe(now.Add(-20*time.Millisecond), now)
	if s.lastDelayMillis != 20 {
		t.Errorf("lastDelayMillis = %v, expected 20", s.lastDelayMillis)
	}
}

func TestStateAndReasonNames(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{SessionConnecting.String(), "connecting"},
		{SessionActive.String(), "active"},
		{SessionDisconnected.String(), "disconnected"},
		{EndClientClosed.String(), "client_closed"},
		{EndProtocol.String(), "protocol_error"},
		{EndRejected.String(), "rejected"},
		{EndServerShutdown.String(), "server_shutdown"},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("String() = %q, expected %q", tc.got, tc.want)
		}
	}
}
