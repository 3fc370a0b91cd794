package multiplayer

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/bulletverse/internal/transport"
	"github.com/vovakirdan/bulletverse/internal/world"
)

// Session is the server-side record of one connected player.
type Session struct {
	id        SessionID
	player    world.PlayerID
	conn      transport.Conn
	state     SessionState
	startedAt time.Time

	lastSendTime    time.Time
	lastDelayMillis float64

	kills     int
	hitsTaken int
	powerups  int
}

func newSession(player world.PlayerID, conn transport.Conn, now time.Time) *Session {
	return &Session{
		id:        SessionID(uuid.NewString()),
		player:    player,
		conn:      conn,
		state:     SessionConnecting,
		startedAt: now,
	}
}

// ID returns the connection identifier.
func (s *Session) ID() SessionID {
	return s.id
}

// Player returns the player identifier sent in the handshake.
func (s *Session) Player() world.PlayerID {
	return s.player
}

// State returns the lifecycle state.
func (s *Session) State() SessionState {
	return s.state
}

// observe records the send time of an inbound update and the one-way delay
// the server saw for it.
func (s *Session) observe(sendTime, now time.Time) {
	if sendTime.IsZero() {
		return
	}
	s.lastSendTime = sendTime
	s.lastDelayMillis = float64(now.Sub(sendTime)) / float64(time.Millisecond)
}

// record folds a resolver event into the session counters.
func (s *Session) record(e world.Event) {
	switch e.Kind {
	case world.EventKill:
		s.kills++
	case world.EventPlayerHit:
		s.hitsTaken++
	case world.EventPowerupPickup:
		s.powerups++
	}
}

func (s *Session) info() SessionInfo {
	info := SessionInfo{
		SessionID:         s.id,
		PlayerID:          s.player,
		State:             s.state.String(),
		ConnectedAt:       s.startedAt,
		LastDelayMillis:   s.lastDelayMillis,
		Kills:             s.kills,
		HitsTaken:         s.hitsTaken,
		PowerupsCollected: s.powerups,
	}
	if addr := s.conn.RemoteAddr(); addr != nil {
		info.RemoteAddr = addr.String()
	}
	return info
}

// SessionRegistry maps player identifiers to their live session.
// It is not safe for concurrent use; the Server guards it with the same lock
// as the world so registration and player insertion happen together.
type SessionRegistry struct {
	sessions map[world.PlayerID]*Session
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[world.PlayerID]*Session),
	}
}

// Register adds s. Fails with ErrDuplicateID if its player is present.
func (r *SessionRegistry) Register(s *Session) error {
	if _, exists := r.sessions[s.player]; exists {
		return ErrDuplicateID
	}
	r.sessions[s.player] = s
	return nil
}

// Unregister removes the session for id if it is s.
// Reports whether anything was removed.
func (r *SessionRegistry) Unregister(id world.PlayerID, s *Session) bool {
	if cur, ok := r.sessions[id]; !ok || cur != s {
		return false
	}
	delete(r.sessions, id)
	return true
}

// Get retrieves the session for a player.
func (r *SessionRegistry) Get(id world.PlayerID) (*Session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

// Count returns the number of registered sessions.
func (r *SessionRegistry) Count() int {
	return len(r.sessions)
}

// All returns every session ordered by player identifier.
func (r *SessionRegistry) All() []*Session {
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].player < out[j].player
	})
	return out
}
