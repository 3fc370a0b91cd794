package multiplayer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/bulletverse/internal/config"
	"github.com/vovakirdan/bulletverse/internal/protocol"
	"github.com/vovakirdan/bulletverse/internal/transport"
	"github.com/vovakirdan/bulletverse/internal/world"
)

// ErrClientClosed is returned by Connect after Close.
var ErrClientClosed = errors.New("multiplayer: client closed")

// Client keeps a persistent connection to a server and caches the most
// recent snapshot it received.
type Client struct {
	id     world.PlayerID
	cfg    config.ServerConfig
	codec  *protocol.Codec
	logger *log.Logger
	clock  func() time.Time

	mu       sync.Mutex
	conn     transport.Conn
	snapshot protocol.Snapshot
	hasSnap  bool
	latency  float64 // Milliseconds
	received uint64

	connected atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientID overrides the generated player identifier.
func WithClientID(id world.PlayerID) ClientOption {
	return func(c *Client) { c.id = id }
}

// WithClientLogger sets the logger.
func WithClientLogger(l *log.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithClientClock replaces the clock used for send times and latency.
func WithClientClock(clock func() time.Time) ClientOption {
	return func(c *Client) { c.clock = clock }
}

// NewClient creates a disconnected client with a random identifier.
func NewClient(cfg config.ServerConfig, opts ...ClientOption) *Client {
	c := &Client{
		id:     world.PlayerID(uuid.NewString()),
		cfg:    cfg,
		codec:  protocol.NewCodec(cfg.CompressThreshold),
		logger: log.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the player identifier sent in the handshake.
func (c *Client) ID() world.PlayerID {
	return c.id
}

// Connected reports whether the connection is usable.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Connect dials addr (host:port or a ws:// URL), sends the identifier and
// starts receiving snapshots.
func (c *Client) Connect(ctx context.Context, addr string) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if c.Connected() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
	defer cancel()

	conn, err := transport.Dial(ctx, addr, c.cfg.MaxFrameSize)
	if err != nil {
		return &ConnectionError{Op: "dial", ID: c.id, Err: err}
	}

	_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := conn.WriteMessage([]byte(c.id)); err != nil {
		_ = conn.Close()
		return &ConnectionError{Op: "handshake", ID: c.id, Err: err}
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.connected.Store(true)

	c.wg.Add(1)
	go c.receiveLoop(conn)

	c.logger.Debug("connected", "addr", addr, "id", c.id)
	return nil
}

// Send stamps the update with the current time and sends it. It does
// nothing while disconnected. A failed write disconnects the client.
func (c *Client) Send(update protocol.PlayerUpdate) error {
	if !c.Connected() {
		return nil
	}

	update.SendTime = c.clock()
	payload, err := c.codec.Encode(&update)
	if err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := conn.WriteMessage(payload); err != nil {
		c.drop(conn)
		return &ConnectionError{Op: "write", ID: c.id, Err: err}
	}
	return nil
}

func (c *Client) receiveLoop(conn transport.Conn) {
	defer c.wg.Done()
	defer c.drop(conn)

	for {
		frame, err := conn.ReadMessage()
		if err != nil {
			if !c.closed.Load() {
				c.logger.Warn("connection lost", "id", c.id, "err", err)
			}
			return
		}

		var snap protocol.Snapshot
		if err := c.codec.Decode(frame, &snap); err != nil {
			c.logger.Warn("dropping malformed snapshot", "err", err)
			continue
		}
		now := c.clock()

		c.mu.Lock()
		c.snapshot = snap
		c.hasSnap = true
		c.received++
		if snap.HasTiming() {
			c.latency = float64(now.Sub(snap.EchoSendTime)) / float64(time.Millisecond)
		}
		c.mu.Unlock()
	}
}

// drop marks the client disconnected and closes conn if it is current.
func (c *Client) drop(conn transport.Conn) {
	c.mu.Lock()
	current := c.conn == conn
	c.mu.Unlock()
	if current {
		c.connected.Store(false)
	}
	_ = conn.Close()
}

// Snapshot returns the most recent snapshot. The returned state is shared
// and must not be modified.
func (c *Client) Snapshot() (protocol.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot, c.hasSnap
}

// Latency returns the last measured round trip in milliseconds.
func (c *Client) Latency() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latency
}

// Received returns how many snapshots have arrived.
func (c *Client) Received() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.received
}

// Close disconnects and waits for the receive loop. Safe to call multiple
// times.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.connected.Store(false)

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		c.wg.Wait()
	})
	return nil
}
