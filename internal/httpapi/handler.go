// Package httpapi exposes server status, session history and a WebSocket
// entry point over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/bulletverse/internal/config"
	"github.com/vovakirdan/bulletverse/internal/multiplayer"
	"github.com/vovakirdan/bulletverse/internal/storage"
	"github.com/vovakirdan/bulletverse/internal/transport"
)

const defaultListLimit = 20

// History is the read side of the session store.
type History interface {
	RecentSessions(limit int) ([]storage.SessionRecord, error)
	PlayerHistory(playerID string, limit int) ([]storage.SessionRecord, error)
	GetPlayerStats(playerID string) (*storage.PlayerStats, error)
}

// Handler serves the HTTP API for one simulation server.
type Handler struct {
	srv      *multiplayer.Server
	history  History // Optional, can be nil
	logger   *log.Logger
	maxFrame int
	limiter  *ipLimiter
	upgrader websocket.Upgrader
	router   *mux.Router
}

// Option configures a Handler.
type Option func(*Handler)

// WithHistory enables the history endpoints.
func WithHistory(h History) Option {
	return func(x *Handler) { x.history = h }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(x *Handler) { x.logger = l }
}

// New builds the router for srv.
func New(srv *multiplayer.Server, cfg config.ServerConfig, opts ...Option) *Handler {
	h := &Handler{
		srv:      srv,
		logger:   log.Default(),
		maxFrame: cfg.MaxFrameSize,
		limiter:  newIPLimiter(cfg.HandshakeRate, cfg.HandshakeBurst),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/ws", h.limiter.middleware(http.HandlerFunc(h.serveWS)))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", h.status).Methods(http.MethodGet)
	api.HandleFunc("/sessions", h.sessions).Methods(http.MethodGet)
	api.HandleFunc("/history", h.recent).Methods(http.MethodGet)
	api.HandleFunc("/players/{id}/sessions", h.playerSessions).Methods(http.MethodGet)
	api.HandleFunc("/players/{id}/stats", h.playerStats).Methods(http.MethodGet)
	h.router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	multiplayer.Stats
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	stats := h.srv.Stats()
	writeJSON(w, http.StatusOK, statusResponse{Stats: stats, UptimeSeconds: stats.Uptime.Seconds()})
}

// sessions lists the live sessions.
func (h *Handler) sessions(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}
	live := h.srv.Sessions()
	if len(live) > limit {
		live = live[:limit]
	}
	writeJSON(w, http.StatusOK, live)
}

// recent lists stored sessions, newest first.
func (h *Handler) recent(w http.ResponseWriter, r *http.Request) {
	if !h.hasHistory(w) {
		return
	}
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}
	records, err := h.history.RecentSessions(limit)
	if err != nil {
		h.fail(w, "recent sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(records))
}

func (h *Handler) playerSessions(w http.ResponseWriter, r *http.Request) {
	if !h.hasHistory(w) {
		return
	}
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}
	records, err := h.history.PlayerHistory(mux.Vars(r)["id"], limit)
	if err != nil {
		h.fail(w, "player history", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(records))
}

func (h *Handler) playerStats(w http.ResponseWriter, r *http.Request) {
	if !h.hasHistory(w) {
		return
	}
	stats, err := h.history.GetPlayerStats(mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, "player stats", err)
		return
	}
	if stats.Sessions == 0 {
		writeError(w, http.StatusNotFound, "no sessions for player")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// serveWS upgrades the request and runs a session on it until it ends.
func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	err = h.srv.ServeConn(transport.NewWebSocketConn(ws, h.maxFrame))
	if err != nil && !errors.Is(err, multiplayer.ErrServerClosed) {
		h.logger.Debug("websocket session ended", "remote", r.RemoteAddr, "err", err)
	}
}

func (h *Handler) hasHistory(w http.ResponseWriter) bool {
	if h.history == nil {
		writeError(w, http.StatusServiceUnavailable, "session history is disabled")
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, what string, err error) {
	h.logger.Error("request failed", "op", what, "err", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// limitParam parses ?limit=N, writing a 400 on garbage.
func limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultListLimit, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return n, true
}

func nonNil(records []storage.SessionRecord) []storage.SessionRecord {
	if records == nil {
		return []storage.SessionRecord{}
	}
	return records
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
