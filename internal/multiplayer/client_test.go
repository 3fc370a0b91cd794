package multiplayer

import (
	"context"
	"testing"
	"time"

	"github.com/vovakirdan/bulletverse/internal/core"
	"github.com/vovakirdan/bulletverse/internal/protocol"
	"github.com/vovakirdan/bulletverse/internal/world"
)

func newTestClient(t *testing.T, id world.PlayerID) *Client {
	t.Helper()
	opts := []ClientOption{WithClientLogger(quietLogger())}
	if id != "" {
		opts = append(opts, WithClientID(id))
	}
	c := NewClient(testConfig().Server, opts...)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientRoundTrip(t *testing.T) {
	s := startServer(t)
	c := newTestClient(t, "bob")

	if err := c.Connect(context.Background(), s.Addr().String()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !c.Connected() {
		t.Fatal("Connected() = false after Connect")
	}
	eventually(t, "initial snapshot", func() bool { return c.Received() >= 1 })

	err := c.Send(protocol.PlayerUpdate{
		Player: world.Player{Pos: core.V(500, 500), Health: 100, MaxHealth: 100},
		NewBullets: []world.Shot{
			{X: 500, Y: 500, Angle: 0, Penetration: 1, Damage: 10},
			{X: 500, Y: 500, Angle: 1, Penetration: 1, Damage: 10},
			{X: 500, Y: 500, Angle: 2, Penetration: 1, Damage: 10},
		},
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	eventually(t, "reply snapshot", func() bool { return c.Received() >= 2 })

	snap, ok := c.Snapshot()
	if !ok {
		t.Fatal("Snapshot() = false after replies")
	}
	owned := 0
	for _, b := range snap.Bullets {
		if b.Owner == "bob" {
			owned++
		}
	}
	if owned != 3 {
		t.Errorf("bullets owned by bob = %d, expected 3", owned)
	}
	if !snap.HasTiming() {
		t.Error("reply snapshot has no echo")
	}
	if l := c.Latency(); l < 0 || l > 2000 {
		t.Errorf("Latency() = %v ms, expected a small non-negative value", l)
	}
}

func TestClientGeneratesID(t *testing.T) {
	a := newTestClient(t, "")
	b := newTestClient(t, "")
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("generated ids %q and %q, expected distinct non-empty", a.ID(), b.ID())
	}
}

func TestClientSendWhileDisconnected(t *testing.T) {
	c := newTestClient(t, "bob")
	if err := c.Send(protocol.PlayerUpdate{}); err != nil {
		t.Errorf("Send() while disconnected = %v, expected nil", err)
	}
	if c.Connected() {
		t.Error("Connected() = true without Connect")
	}
	if _, ok := c.Snapshot(); ok {
		t.Error("Snapshot() = true without any data")
	}
}

func TestClientConnectFails(t *testing.T) {
	c := newTestClient(t, "bob")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := c.Connect(ctx, "127.0.0.1:1"); err == nil {
		t.Fatal("Connect() to a closed port = nil error")
	}
	if c.Connected() {
		t.Error("Connected() = true after a failed Connect")
	}
}

func TestClientNoticesServerShutdown(t *testing.T) {
	s := startServer(t)
	c := newTestClient(t, "bob")
	if err := c.Connect(context.Background(), s.Addr().String()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	eventually(t, "initial snapshot", func() bool { return c.Received() >= 1 })

	s.Close()

	eventually(t, "client to notice", func() bool { return !c.Connected() })
	if err := c.Send(protocol.PlayerUpdate{}); err != nil {
		t.Errorf("Send() after disconnect = %v, expected nil", err)
	}
}

func TestClientCloseIsIdempotent(t *testing.T) {
	s := startServer(t)
	c := newTestClient(t, "bob")
	if err := c.Connect(context.Background(), s.Addr().String()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if c.Connected() {
		t.Error("Connected() = true after Close")
	}
	if err := c.Connect(context.Background(), s.Addr().String()); err != ErrClientClosed {
		t.Errorf("Connect() after Close = %v, expected %v", err, ErrClientClosed)
	}
	eventually(t, "server to drop bob", func() bool { return s.Stats().Sessions == 0 })
}
