// Package protocol defines the messages exchanged between the simulation
// server and its clients, their payload codec and the stream framing.
package protocol

import (
	"time"

	"github.com/vovakirdan/bulletverse/internal/world"
)

// PlayerUpdate is sent by a client after every local frame. It carries the
// client's full player record plus the bullets fired since the last update.
type PlayerUpdate struct {
	world.Player

	NewBullets []world.Shot `msgpack:"new_bullets"`
	SendTime   time.Time    `msgpack:"send_time"`
}

// Shots returns the bullets carried by the update.
func (u *PlayerUpdate) Shots() []world.Shot {
	return u.NewBullets
}

// Snapshot is the full world state as sent to one recipient.
// The embedded state's TickTimestamp is the server time of the snapshot.
type Snapshot struct {
	world.State

	EchoSendTime    time.Time `msgpack:"last_send_time"` // Recipient's latest SendTime
	LastDelayMillis float64   `msgpack:"last_ping"`      // Server-observed one-way delay
}

// ServerTime returns the server timestamp of the snapshot.
func (s *Snapshot) ServerTime() time.Time {
	return s.TickTimestamp
}

// HasTiming reports whether both the server time and the echoed send time
// are present, which is what latency measurement needs.
func (s *Snapshot) HasTiming() bool {
	return !s.TickTimestamp.IsZero() && !s.EchoSendTime.IsZero()
}
