// Package storage provides SQLite-based persistence for finished sessions.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/bulletverse/internal/multiplayer"
)

// Store manages the SQLite database connection for session history.
type Store struct {
	db *sql.DB
}

// SessionRecord is one finished session.
type SessionRecord struct {
	ID                int64     `json:"id"`
	SessionID         string    `json:"session_id"`
	PlayerID          string    `json:"player_id"`
	Difficulty        string    `json:"difficulty"`
	Level             int       `json:"level"`
	XP                float64   `json:"xp"`
	Kills             int       `json:"kills"`
	HitsTaken         int       `json:"hits_taken"`
	PowerupsCollected int       `json:"powerups_collected"`
	EndReason         string    `json:"end_reason"`
	Duration          int64     `json:"duration_ms"` // Milliseconds
	StartedAt         time.Time `json:"started_at"`
	EndedAt           time.Time `json:"ended_at"`
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL UNIQUE,
			player_id TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			level INTEGER NOT NULL DEFAULT 1,
			xp REAL NOT NULL DEFAULT 0,
			kills INTEGER NOT NULL DEFAULT 0,
			hits_taken INTEGER NOT NULL DEFAULT 0,
			powerups INTEGER NOT NULL DEFAULT 0,
			end_reason TEXT NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_player ON sessions(player_id);
		CREATE INDEX IF NOT EXISTS idx_sessions_ended ON sessions(ended_at DESC);
		CREATE INDEX IF NOT EXISTS idx_sessions_level ON sessions(level DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveSession records a finished session.
// Returns the ID of the inserted record.
func (s *Store) SaveSession(r SessionRecord) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO sessions
		 (session_id, player_id, difficulty, level, xp, kills, hits_taken, powerups, end_reason, duration_ms, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID,
		r.PlayerID,
		r.Difficulty,
		r.Level,
		r.XP,
		r.Kills,
		r.HitsTaken,
		r.PowerupsCollected,
		r.EndReason,
		r.Duration,
		formatTime(r.StartedAt),
		formatTime(r.EndedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

const sessionColumns = `id, session_id, player_id, difficulty, level, xp, kills, hits_taken,
	powerups, end_reason, duration_ms, started_at, ended_at`

// SessionByID retrieves a session by its connection identifier.
// Returns nil if it does not exist.
func (s *Store) SessionByID(sessionID string) (*SessionRecord, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`,
		sessionID,
	)

	r, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query session: %w", err)
	}
	return &r, nil
}

// RecentSessions retrieves the most recently finished sessions.
func (s *Store) RecentSessions(limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.querySessions(
		`SELECT `+sessionColumns+` FROM sessions
		 ORDER BY ended_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
}

// PlayerHistory retrieves the sessions of one player, most recent first.
func (s *Store) PlayerHistory(playerID string, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.querySessions(
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE player_id = ?
		 ORDER BY ended_at DESC, id DESC
		 LIMIT ?`,
		playerID, limit,
	)
}

// TopLevels retrieves the sessions that reached the highest levels.
// Ties are broken by XP.
func (s *Store) TopLevels(limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.querySessions(
		`SELECT `+sessionColumns+` FROM sessions
		 ORDER BY level DESC, xp DESC, id ASC
		 LIMIT ?`,
		limit,
	)
}

// DeletePlayerHistory removes every session of one player.
// Returns the number of deleted rows.
func (s *Store) DeletePlayerHistory(playerID string) (int64, error) {
	res, err := s.db.Exec("DELETE FROM sessions WHERE player_id = ?", playerID)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot delete history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot count deleted rows: %w", err)
	}
	return n, nil
}

func (s *Store) querySessions(query string, args ...any) ([]SessionRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		r, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (SessionRecord, error) {
	var r SessionRecord
	var startedAt, endedAt string

	err := sc.Scan(
		&r.ID,
		&r.SessionID,
		&r.PlayerID,
		&r.Difficulty,
		&r.Level,
		&r.XP,
		&r.Kills,
		&r.HitsTaken,
		&r.PowerupsCollected,
		&r.EndReason,
		&r.Duration,
		&startedAt,
		&endedAt,
	)
	if err != nil {
		return r, err
	}

	r.StartedAt = parseTime(startedAt)
	r.EndedAt = parseTime(endedAt)
	return r, nil
}

// SaveSessionSummary implements multiplayer.SessionRecorder.
// This adapter allows the server to save sessions without direct storage dependency.
func (s *Store) SaveSessionSummary(sum multiplayer.SessionSummary) error {
	_, err := s.SaveSession(SessionRecord{
		SessionID:         string(sum.SessionID),
		PlayerID:          string(sum.PlayerID),
		Difficulty:        string(sum.Difficulty),
		Level:             sum.Level,
		XP:                sum.XP,
		Kills:             sum.Kills,
		HitsTaken:         sum.HitsTaken,
		PowerupsCollected: sum.PowerupsCollected,
		EndReason:         sum.EndReason.String(),
		Duration:          sum.Duration().Milliseconds(),
		StartedAt:         sum.StartedAt,
		EndedAt:           sum.EndedAt,
	})
	return err
}

// Ensure Store implements SessionRecorder
var _ multiplayer.SessionRecorder = (*Store)(nil)

// PlayerStats contains aggregated statistics for one player.
type PlayerStats struct {
	PlayerID     string        `json:"player_id"`
	Sessions     int           `json:"sessions"`
	BestLevel    int           `json:"best_level"`
	TotalKills   int           `json:"total_kills"`
	TotalPickups int           `json:"total_powerups"`
	PlayTime     time.Duration `json:"play_time"`
	LastPlayed   time.Time     `json:"last_played"`
}

// GetPlayerStats retrieves aggregated statistics for one player.
func (s *Store) GetPlayerStats(playerID string) (*PlayerStats, error) {
	stats := &PlayerStats{PlayerID: playerID}

	var playMillis int64
	var lastPlayed sql.NullString
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(MAX(level), 0), COALESCE(SUM(kills), 0),
		        COALESCE(SUM(powerups), 0), COALESCE(SUM(duration_ms), 0), MAX(ended_at)
		 FROM sessions WHERE player_id = ?`,
		playerID,
	).Scan(&stats.Sessions, &stats.BestLevel, &stats.TotalKills, &stats.TotalPickups, &playMillis, &lastPlayed)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get player stats: %w", err)
	}

	stats.PlayTime = time.Duration(playMillis) * time.Millisecond
	if lastPlayed.Valid {
		stats.LastPlayed = parseTime(lastPlayed.String)
	}
	return stats, nil
}

// GetAllPlayersStats retrieves statistics for every player with history.
func (s *Store) GetAllPlayersStats() (map[string]*PlayerStats, error) {
	rows, err := s.db.Query(
		`SELECT player_id, COUNT(*), MAX(level), SUM(kills), SUM(powerups), SUM(duration_ms), MAX(ended_at)
		 FROM sessions
		 GROUP BY player_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get all players stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*PlayerStats)
	for rows.Next() {
		var ps PlayerStats
		var playMillis int64
		var lastPlayed string
		if err := rows.Scan(&ps.PlayerID, &ps.Sessions, &ps.BestLevel, &ps.TotalKills, &ps.TotalPickups, &playMillis, &lastPlayed); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		ps.PlayTime = time.Duration(playMillis) * time.Millisecond
		ps.LastPlayed = parseTime(lastPlayed)
		stats[ps.PlayerID] = &ps
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return stats, nil
}

// storedTimeLayout has a fixed width so stored timestamps sort as text.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

// parseTime accepts the stored RFC 3339 form and SQLite's own DATETIME form.
func parseTime(v string) time.Time {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
		return t
	}
	return time.Time{}
}
