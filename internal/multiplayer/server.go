package multiplayer

import (
	"errors"
	"math/rand"
	"net"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/bulletverse/internal/config"
	"github.com/vovakirdan/bulletverse/internal/protocol"
	"github.com/vovakirdan/bulletverse/internal/transport"
	"github.com/vovakirdan/bulletverse/internal/world"
)

// MaxIDLength bounds the handshake identifier.
const MaxIDLength = 64

// Server owns the world and every session connected to it. A single lock
// guards both, so a tick never observes a half-registered player and a
// merge never races the simulation.
type Server struct {
	cfg      config.Config
	logger   *log.Logger
	recorder SessionRecorder // Optional, can be nil
	clock    func() time.Time
	rng      *rand.Rand
	codec    *protocol.Codec

	mu        sync.Mutex
	world     *world.World
	sessions  *SessionRegistry
	conns     map[transport.Conn]struct{} // Every open connection, registered or not
	ticks     uint64
	startedAt time.Time
	listener  *net.TCPListener
	closed    bool

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to the charmbracelet default logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRecorder sets where finished sessions are saved.
func WithRecorder(r SessionRecorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithRand seeds the simulation, for reproducible runs.
func WithRand(r *rand.Rand) Option {
	return func(s *Server) { s.rng = r }
}

// WithClock replaces the source of simulation time.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) { s.clock = clock }
}

// New creates a server with a freshly populated world. It does not listen
// until Start is called.
func New(cfg config.Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		logger:   log.Default(),
		clock:    time.Now,
		codec:    protocol.NewCodec(cfg.Server.CompressThreshold),
		sessions: NewSessionRegistry(),
		conns:    make(map[transport.Conn]struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.startedAt = s.clock()
	w, err := world.New(cfg, s.rng, s.startedAt)
	if err != nil {
		return nil, err
	}
	s.world = w
	return s, nil
}

// Start binds addr (the configured address if empty) and starts the accept
// and tick loops.
func (s *Server) Start(addr string) error {
	if addr == "" {
		addr = s.cfg.Server.Address
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrServerClosed
	}
	if s.listener != nil {
		return ErrAlreadyStarted
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return &ConnectionError{Op: "listen", Err: err}
	}
	s.listener = ln.(*net.TCPListener)

	s.wg.Add(2)
	go s.acceptLoop(s.listener)
	go s.tickLoop()

	s.logger.Info("server listening",
		"addr", ln.Addr().String(),
		"tick", s.cfg.Server.TickInterval,
		"difficulty", s.world.Difficulty())
	return nil
}

// Addr returns the bound TCP address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) acceptLoop(ln *net.TCPListener) {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		default:
		}

		_ = ln.SetDeadline(time.Now().Add(s.cfg.Server.AcceptPoll))
		raw, err := ln.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if s.isClosed() {
				return
			}
			s.logger.Error("accept failed", "err", err)
			continue
		}

		conn := transport.NewStreamConn(raw, s.cfg.Server.MaxFrameSize)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			_ = s.serve(conn)
		}()
	}
}

func (s *Server) tickLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Server.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.done:
			return
		}
	}
}

func (s *Server) tick() {
	now := s.clock()

	s.mu.Lock()
	events := s.world.Tick(now)
	s.ticks++
	for _, e := range events {
		if sess, ok := s.sessions.Get(e.Player); ok {
			sess.record(e)
		}
	}
	s.mu.Unlock()

	for _, e := range events {
		switch e.Kind {
		case world.EventLevelUp:
			s.logger.Info("level up", "player", e.Player, "level", e.Level)
		case world.EventPowerupSpawned, world.EventPowerupExpired:
			s.logger.Debug(e.Kind.String(), "powerup", e.Powerup)
		default:
			s.logger.Debug(e.Kind.String(), "player", e.Player, "amount", e.Amount, "powerup", e.Powerup)
		}
	}
}

// ServeConn runs the session protocol on an established connection and
// blocks until the session ends. The connection is closed on return.
func (s *Server) ServeConn(c transport.Conn) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = c.Close()
		return ErrServerClosed
	}
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	return s.serve(c)
}

func (s *Server) serve(c transport.Conn) error {
	if !s.track(c) {
		_ = c.Close()
		return ErrServerClosed
	}
	defer s.untrack(c)
	defer c.Close()

	sess, payload, err := s.handshake(c)
	if err != nil {
		s.reject(c, err)
		return err
	}

	reason, err := s.pump(sess, payload)
	s.disconnect(sess, reason)
	return err
}

// handshake reads the player identifier, registers the session and
// returns the initial snapshot to send.
func (s *Server) handshake(c transport.Conn) (*Session, []byte, error) {
	_ = c.SetReadDeadline(time.Now().Add(s.cfg.Server.HandshakeTimeout))
	frame, err := c.ReadMessage()
	if err != nil {
		if isProtocolViolation(err) {
			return nil, nil, &ProtocolError{Err: err}
		}
		return nil, nil, &ConnectionError{Op: "handshake", Err: err}
	}
	_ = c.SetReadDeadline(time.Time{})

	id := world.PlayerID(frame)
	if err := validateID(id); err != nil {
		return nil, nil, &ProtocolError{Err: err}
	}

	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := newSession(id, c, now)
	if err := s.sessions.Register(sess); err != nil {
		return nil, nil, &ProtocolError{ID: id, Err: err}
	}
	s.world.AddPlayer(id)
	sess.state = SessionActive

	payload, err := s.encodeSnapshotLocked(sess)
	if err != nil {
		s.sessions.Unregister(id, sess)
		s.world.RemovePlayer(id)
		return nil, nil, &ProtocolError{ID: id, Err: err}
	}

	s.logger.Info("player connected", "player", id, "session", sess.id, "remote", remoteAddr(c))
	return sess, payload, nil
}

// pump sends the initial snapshot, then answers every inbound update with
// a full snapshot until the connection fails.
func (s *Server) pump(sess *Session, initial []byte) (EndReason, error) {
	if err := s.write(sess, initial); err != nil {
		return s.reasonFor(err), err
	}

	for {
		frame, err := sess.conn.ReadMessage()
		if err != nil {
			if isProtocolViolation(err) {
				return EndProtocol, &ProtocolError{ID: sess.player, Err: err}
			}
			return s.reasonFor(err), &ConnectionError{Op: "read", ID: sess.player, Err: err}
		}

		var update protocol.PlayerUpdate
		if err := s.codec.Decode(frame, &update); err != nil {
			return EndProtocol, &ProtocolError{ID: sess.player, Err: err}
		}

		payload, err := s.apply(sess, &update)
		if err != nil {
			return EndProtocol, &ProtocolError{ID: sess.player, Err: err}
		}
		if err := s.write(sess, payload); err != nil {
			return s.reasonFor(err), err
		}
	}
}

// apply merges an update into the world and encodes the reply under the
// same critical section.
func (s *Server) apply(sess *Session, update *protocol.PlayerUpdate) ([]byte, error) {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.world.Merge(sess.player, update.Player, update.Shots(), now)
	sess.observe(update.SendTime, now)
	return s.encodeSnapshotLocked(sess)
}

func (s *Server) encodeSnapshotLocked(sess *Session) ([]byte, error) {
	snap := protocol.Snapshot{
		State:           *s.world.State(),
		EchoSendTime:    sess.lastSendTime,
		LastDelayMillis: sess.lastDelayMillis,
	}
	return s.codec.Encode(&snap)
}

func (s *Server) write(sess *Session, payload []byte) error {
	_ = sess.conn.SetWriteDeadline(time.Now().Add(s.cfg.Server.WriteTimeout))
	if err := sess.conn.WriteMessage(payload); err != nil {
		return &ConnectionError{Op: "write", ID: sess.player, Err: err}
	}
	return nil
}

// disconnect removes the session and its player, then hands a summary to
// the recorder in the background.
func (s *Server) disconnect(sess *Session, reason EndReason) {
	now := s.clock()

	s.mu.Lock()
	p, _ := s.world.Player(sess.player)
	if s.sessions.Unregister(sess.player, sess) {
		s.world.RemovePlayer(sess.player)
	}
	sess.state = SessionDisconnected

	summary := SessionSummary{
		SessionID:         sess.id,
		PlayerID:          sess.player,
		Difficulty:        s.world.Difficulty(),
		Level:             p.Level,
		XP:                p.XP,
		Kills:             sess.kills,
		HitsTaken:         sess.hitsTaken,
		PowerupsCollected: sess.powerups,
		StartedAt:         sess.startedAt,
		EndedAt:           now,
		EndReason:         reason,
	}
	s.recordLocked(summary)
	s.mu.Unlock()

	s.logger.Info("player disconnected",
		"player", sess.player,
		"reason", reason,
		"duration", summary.Duration().Round(time.Millisecond),
		"kills", summary.Kills)
}

// reject logs a failed handshake. A refused identifier is also recorded
// with EndRejected when it is well-formed enough to store.
func (s *Server) reject(c transport.Conn, err error) {
	if !errors.Is(err, ErrDuplicateID) && !errors.Is(err, ErrInvalidID) {
		s.logger.Warn("handshake failed", "remote", remoteAddr(c), "err", err)
		return
	}
	s.logger.Warn("handshake rejected", "remote", remoteAddr(c), "reason", EndRejected, "err", err)

	var pe *ProtocolError
	if !errors.As(err, &pe) || pe.ID == "" {
		return
	}

	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordLocked(SessionSummary{
		SessionID:  newSession(pe.ID, c, now).id,
		PlayerID:   pe.ID,
		Difficulty: s.world.Difficulty(),
		Level:      1,
		StartedAt:  now,
		EndedAt:    now,
		EndReason:  EndRejected,
	})
}

// recordLocked hands summary to the recorder in the background.
// The caller holds s.mu and a reference on s.wg.
func (s *Server) recordLocked(summary SessionSummary) {
	recorder := s.recorder
	if recorder == nil {
		return
	}
	s.wg.Add(1)
	// Best effort save, don't block the handler
	go func() {
		defer s.wg.Done()
		if err := recorder.SaveSessionSummary(summary); err != nil {
			s.logger.Warn("cannot record session", "player", summary.PlayerID, "err", err)
		}
	}()
}

// Close stops both loops, closes the listener and every connection, and
// waits for all goroutines. Safe to call multiple times.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		s.closed = true
		ln := s.listener
		conns := make([]transport.Conn, 0, len(s.conns))
		for c := range s.conns {
			conns = append(conns, c)
		}
		s.mu.Unlock()

		if ln != nil {
			_ = ln.Close()
		}
		for _, c := range conns {
			_ = c.Close()
		}
		s.wg.Wait()
		s.logger.Info("server stopped")
	})
	return nil
}

// Reset respawns enemies and clears bullets and powerups. Connected
// players keep their records.
func (s *Server) Reset() {
	s.mu.Lock()
	s.world.Reset(s.clock())
	s.mu.Unlock()
	s.logger.Info("world reset")
}

// SetDifficulty switches the preset used for new enemies and enemy fire.
func (s *Server) SetDifficulty(preset config.DifficultyPreset) error {
	s.mu.Lock()
	err := s.world.SetDifficulty(preset)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.logger.Info("difficulty changed", "difficulty", preset)
	return nil
}

// Snapshot returns a deep copy of the world state.
func (s *Server) Snapshot() world.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.Snapshot()
}

// Stats summarizes the server.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Uptime:     s.clock().Sub(s.startedAt),
		Ticks:      s.ticks,
		Sessions:   s.sessions.Count(),
		Difficulty: s.world.Difficulty(),
		World:      s.world.Counts(),
	}
}

// Sessions lists connected sessions ordered by player identifier.
func (s *Server) Sessions() []SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.sessions.All()
	out := make([]SessionInfo, 0, len(all))
	for _, sess := range all {
		out = append(out, sess.info())
	}
	return out
}

func (s *Server) track(c transport.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c transport.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func (s *Server) isClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Server) reasonFor(err error) EndReason {
	if s.isClosed() {
		return EndServerShutdown
	}
	var ne net.Error
	switch {
	case isProtocolViolation(err):
		return EndProtocol
	case errors.As(err, &ne) && ne.Timeout():
		return EndTimeout
	default:
		return EndClientClosed
	}
}

func isProtocolViolation(err error) bool {
	return errors.Is(err, protocol.ErrFrameTooLarge) ||
		errors.Is(err, protocol.ErrEmptyPayload) ||
		errors.Is(err, protocol.ErrUnknownFlag)
}

func validateID(id world.PlayerID) error {
	switch {
	case id == "", id == world.EnemyOwner, len(id) > MaxIDLength, !utf8.ValidString(string(id)):
		return ErrInvalidID
	}
	return nil
}

func remoteAddr(c transport.Conn) string {
	if addr := c.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
