// Package multiplayer runs the authoritative synchronization server, tracks
// connected sessions and provides the matching client.
package multiplayer

import (
	"time"

	"github.com/vovakirdan/bulletverse/internal/config"
	"github.com/vovakirdan/bulletverse/internal/world"
)

// SessionID uniquely identifies one connection, even when a player
// reconnects under the same player identifier.
type SessionID string

// SessionState is the lifecycle stage of a connection.
type SessionState int

const (
	// SessionConnecting: accepted, handshake not yet complete.
	SessionConnecting SessionState = iota
	// SessionActive: registered and exchanging updates.
	SessionActive
	// SessionDisconnected: terminal; the player has been removed.
	SessionDisconnected
)

// String returns a human-readable name for the state.
func (s SessionState) String() string {
	switch s {
	case SessionConnecting:
		return "connecting"
	case SessionActive:
		return "active"
	case SessionDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// EndReason describes why a session ended.
type EndReason int

const (
	EndClientClosed EndReason = iota // Peer closed or reset the connection
	EndTimeout                       // Handshake or write deadline exceeded
	EndProtocol                      // Malformed frame or payload
	EndRejected                      // Handshake refused
	EndServerShutdown                // Server closed
)

func (r EndReason) String() string {
	switch r {
	case EndClientClosed:
		return "client_closed"
	case EndTimeout:
		return "timeout"
	case EndProtocol:
		return "protocol_error"
	case EndRejected:
		return "rejected"
	case EndServerShutdown:
		return "server_shutdown"
	default:
		return "unknown"
	}
}

// SessionSummary is handed to the SessionRecorder when a session ends.
type SessionSummary struct {
	SessionID         SessionID
	PlayerID          world.PlayerID
	Difficulty        config.DifficultyPreset
	Level             int
	XP                float64
	Kills             int
	HitsTaken         int
	PowerupsCollected int
	StartedAt         time.Time
	EndedAt           time.Time
	EndReason         EndReason
}

// Duration returns how long the session lasted.
func (s SessionSummary) Duration() time.Duration {
	return s.EndedAt.Sub(s.StartedAt)
}

// SessionRecorder persists finished sessions.
// This allows the server to save history without depending on the storage package.
type SessionRecorder interface {
	SaveSessionSummary(summary SessionSummary) error
}

// SessionInfo is a point-in-time view of one session.
type SessionInfo struct {
	SessionID         SessionID      `json:"session_id"`
	PlayerID          world.PlayerID `json:"player_id"`
	State             string         `json:"state"`
	RemoteAddr        string         `json:"remote_addr"`
	ConnectedAt       time.Time      `json:"connected_at"`
	LastDelayMillis   float64        `json:"last_delay_ms"`
	Kills             int            `json:"kills"`
	HitsTaken         int            `json:"hits_taken"`
	PowerupsCollected int            `json:"powerups_collected"`
}

// Stats summarizes the server.
type Stats struct {
	Uptime     time.Duration           `json:"uptime"`
	Ticks      uint64                  `json:"ticks"`
	Sessions   int                     `json:"sessions"`
	Difficulty config.DifficultyPreset `json:"difficulty"`
	World      world.Counts            `json:"world"`
}
