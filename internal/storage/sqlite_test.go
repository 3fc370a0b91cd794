package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/bulletverse/internal/config"
	"github.com/vovakirdan/bulletverse/internal/multiplayer"
)

var base = time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func record(session, player string, level int, xp float64, ended time.Time) SessionRecord {
	return SessionRecord{
		SessionID:  session,
		PlayerID:   player,
		Difficulty: "normal",
		Level:      level,
		XP:         xp,
		Kills:      level * 3,
		EndReason:  "client_closed",
		Duration:   60_000,
		StartedAt:  ended.Add(-time.Minute),
		EndedAt:    ended,
	}
}

func TestStoreOpenClose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := store.SaveSession(record("s1", "alice", 2, 10, base)); err != nil {
		t.Fatalf("SaveSession() failed: %v", err)
	}
	store.Close()

	store, err = Open(dbPath)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer store.Close()

	got, err := store.SessionByID("s1")
	if err != nil || got == nil {
		t.Fatalf("SessionByID() = %v, %v, expected the saved record", got, err)
	}
}

func TestStoreSaveAndRetrieve(t *testing.T) {
	store := openTestStore(t)

	want := record("s1", "alice", 4, 37.5, base)
	want.HitsTaken = 6
	want.PowerupsCollected = 2

	id, err := store.SaveSession(want)
	if err != nil {
		t.Fatalf("SaveSession() failed: %v", err)
	}
	if id <= 0 {
		t.Errorf("SaveSession() id = %d, expected positive", id)
	}

	got, err := store.SessionByID("s1")
	if err != nil {
		t.Fatalf("SessionByID() failed: %v", err)
	}
	if got == nil {
		t.Fatal("SessionByID() = nil, expected a record")
	}
	if got.PlayerID != "alice" || got.Level != 4 || got.XP != 37.5 || got.HitsTaken != 6 || got.PowerupsCollected != 2 {
		t.Errorf("SessionByID() = %+v, expected %+v", got, want)
	}
	if !got.EndedAt.Equal(base) || !got.StartedAt.Equal(base.Add(-time.Minute)) {
		t.Errorf("times = %v..%v, expected %v..%v", got.StartedAt, got.EndedAt, want.StartedAt, want.EndedAt)
	}

	missing, err := store.SessionByID("nope")
	if err != nil || missing != nil {
		t.Errorf("SessionByID(nope) = %v, %v, expected nil, nil", missing, err)
	}
}

func TestStoreRejectsDuplicateSession(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.SaveSession(record("s1", "alice", 1, 0, base)); err != nil {
		t.Fatalf("SaveSession() failed: %v", err)
	}
	if _, err := store.SaveSession(record("s1", "alice", 1, 0, base)); err == nil {
		t.Error("SaveSession() with a duplicate session id succeeded")
	}
}

func TestRecentSessionsOrder(t *testing.T) {
	store := openTestStore(t)

	// Sub-second differences must sort correctly
	ends := []time.Duration{0, 500 * time.Millisecond, 2 * time.Second, 1500 * time.Millisecond}
	for i, d := range ends {
		if _, err := store.SaveSession(record(string(rune('a'+i)), "alice", 1, 0, base.Add(d))); err != nil {
			t.Fatalf("SaveSession() failed: %v", err)
		}
	}

	recent, err := store.RecentSessions(3)
	if err != nil {
		t.Fatalf("RecentSessions() failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("len(RecentSessions(3)) = %d, expected 3", len(recent))
	}
	for i, want := range []string{"c", "d", "b"} {
		if recent[i].SessionID != want {
			t.Errorf("RecentSessions()[%d] = %s, expected %s", i, recent[i].SessionID, want)
		}
	}
}

func TestPlayerHistory(t *testing.T) {
	store := openTestStore(t)

	store.SaveSession(record("a1", "alice", 1, 0, base))
	store.SaveSession(record("b1", "bob", 2, 0, base.Add(time.Minute)))
	store.SaveSession(record("a2", "alice", 3, 0, base.Add(2*time.Minute)))

	history, err := store.PlayerHistory("alice", 0)
	if err != nil {
		t.Fatalf("PlayerHistory() failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("len(PlayerHistory(alice)) = %d, expected 2", len(history))
	}
	if history[0].SessionID != "a2" || history[1].SessionID != "a1" {
		t.Errorf("PlayerHistory() order = %s, %s, expected a2, a1", history[0].SessionID, history[1].SessionID)
	}

	none, err := store.PlayerHistory("carol", 10)
	if err != nil {
		t.Fatalf("PlayerHistory(carol) failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("PlayerHistory(carol) = %d records, expected 0", len(none))
	}
}

func TestTopLevels(t *testing.T) {
	store := openTestStore(t)

	store.SaveSession(record("s1", "alice", 3, 10, base))
	store.SaveSession(record("s2", "bob", 5, 0, base))
	store.SaveSession(record("s3", "carol", 3, 40, base))

	top, err := store.TopLevels(10)
	if err != nil {
		t.Fatalf("TopLevels() failed: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("len(TopLevels()) = %d, expected 3", len(top))
	}
	for i, want := range []string{"bob", "carol", "alice"} {
		if top[i].PlayerID != want {
			t.Errorf("TopLevels()[%d] = %s, expected %s", i, top[i].PlayerID, want)
		}
	}
}

func TestPlayerStats(t *testing.T) {
	store := openTestStore(t)

	store.SaveSession(record("a1", "alice", 2, 0, base))
	store.SaveSession(record("a2", "alice", 4, 0, base.Add(time.Hour)))
	store.SaveSession(record("b1", "bob", 1, 0, base))

	stats, err := store.GetPlayerStats("alice")
	if err != nil {
		t.Fatalf("GetPlayerStats() failed: %v", err)
	}
	if stats.Sessions != 2 || stats.BestLevel != 4 || stats.TotalKills != 18 {
		t.Errorf("GetPlayerStats() = %+v, expected 2 sessions, best 4, 18 kills", stats)
	}
	if stats.PlayTime != 2*time.Minute {
		t.Errorf("PlayTime = %v, expected 2m", stats.PlayTime)
	}
	if !stats.LastPlayed.Equal(base.Add(time.Hour)) {
		t.Errorf("LastPlayed = %v, expected %v", stats.LastPlayed, base.Add(time.Hour))
	}

	empty, err := store.GetPlayerStats("nobody")
	if err != nil {
		t.Fatalf("GetPlayerStats(nobody) failed: %v", err)
	}
	if empty.Sessions != 0 || !empty.LastPlayed.IsZero() {
		t.Errorf("GetPlayerStats(nobody) = %+v, expected empty", empty)
	}

	all, err := store.GetAllPlayersStats()
	if err != nil {
		t.Fatalf("GetAllPlayersStats() failed: %v", err)
	}
	if len(all) != 2 || all["bob"].Sessions != 1 {
		t.Errorf("GetAllPlayersStats() = %v, expected alice and bob", all)
	}
}

func TestDeletePlayerHistory(t *testing.T) {
	store := openTestStore(t)

	store.SaveSession(record("a1", "alice", 1, 0, base))
	store.SaveSession(record("a2", "alice", 1, 0, base))
	store.SaveSession(record("b1", "bob", 1, 0, base))

	n, err := store.DeletePlayerHistory("alice")
	if err != nil {
		t.Fatalf("DeletePlayerHistory() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("DeletePlayerHistory() = %d, expected 2", n)
	}

	rest, _ := store.RecentSessions(10)
	if len(rest) != 1 || rest[0].PlayerID != "bob" {
		t.Errorf("remaining sessions = %+v, expected only bob", rest)
	}
}

func TestSaveSessionSummary(t *testing.T) {
	store := openTestStore(t)

	sum := multiplayer.SessionSummary{
		SessionID:         "4b6f",
		PlayerID:          "alice",
		Difficulty:        config.DifficultyHard,
		Level:             3,
		XP:                12,
		Kills:             9,
		HitsTaken:         4,
		PowerupsCollected: 1,
		StartedAt:         base,
		EndedAt:           base.Add(90 * time.Second),
		EndReason:         multiplayer.EndProtocol,
	}
	if err := store.SaveSessionSummary(sum); err != nil {
		t.Fatalf("SaveSessionSummary() failed: %v", err)
	}

	got, err := store.SessionByID("4b6f")
	if err != nil || got == nil {
		t.Fatalf("SessionByID() = %v, %v", got, err)
	}
	if got.Difficulty != "hard" || got.EndReason != "protocol_error" || got.Duration != 90_000 || got.Kills != 9 {
		t.Errorf("stored summary = %+v", got)
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-01T18:00:00.250000000Z", base.Add(250 * time.Millisecond)},
		{"2024-03-01 18:00:00", base},
		{"garbage", time.Time{}},
	}
	for _, tc := range tests {
		if got := parseTime(tc.in); !got.Equal(tc.want) {
			t.Errorf("parseTime(%q) = %v, expected %v", tc.in, got, tc.want)
		}
	}
}
