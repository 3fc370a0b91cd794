package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/bulletverse/internal/storage"
)

var (
	flagHistoryDB     string
	flagHistoryPlayer string
	flagHistoryLimit  int
	flagHistoryTop    bool
	flagHistoryStats  bool
	flagHistoryForget bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show stored session history",
	Long: `Display finished sessions recorded by 'bulletverse serve'.

Examples:
  bulletverse history                    # Most recent sessions
  bulletverse history --player alice     # One player's sessions and totals
  bulletverse history --top              # Highest levels reached
  bulletverse history --stats            # Totals for every player
  bulletverse history --player alice --forget`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&flagHistoryDB, "db", "", "Path to session history database, defaults to config")
	historyCmd.Flags().StringVar(&flagHistoryPlayer, "player", "", "Only show this player")
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "Maximum number of sessions")
	historyCmd.Flags().BoolVar(&flagHistoryTop, "top", false, "Show the highest levels reached")
	historyCmd.Flags().BoolVar(&flagHistoryStats, "stats", false, "Show totals for every player")
	historyCmd.Flags().BoolVar(&flagHistoryForget, "forget", false, "Delete the history of --player")
}

func runHistory(_ *cobra.Command, _ []string) error {
	dbPath := flagHistoryDB
	if dbPath == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dbPath = cfg.Storage.DBPath
	}
	if dbPath == "" {
		return fmt.Errorf("no session database configured, pass --db")
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	switch {
	case flagHistoryForget:
		if flagHistoryPlayer == "" {
			return fmt.Errorf("--forget requires --player")
		}
		n, err := store.DeletePlayerHistory(flagHistoryPlayer)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d sessions of %s\n", n, flagHistoryPlayer)
		return nil
	case flagHistoryStats:
		return printAllStats(store)
	case flagHistoryTop:
		records, err := store.TopLevels(flagHistoryLimit)
		if err != nil {
			return err
		}
		fmt.Println("Top Levels")
		fmt.Println()
		printSessions(records)
		return nil
	case flagHistoryPlayer != "":
		return printPlayer(store, flagHistoryPlayer)
	}

	records, err := store.RecentSessions(flagHistoryLimit)
	if err != nil {
		return err
	}
	fmt.Println("Recent Sessions")
	fmt.Println()
	printSessions(records)
	return nil
}

func printPlayer(store *storage.Store, playerID string) error {
	records, err := store.PlayerHistory(playerID, flagHistoryLimit)
	if err != nil {
		return err
	}
	stats, err := store.GetPlayerStats(playerID)
	if err != nil {
		return err
	}

	fmt.Printf("Sessions - %s\n", playerID)
	fmt.Println()
	printSessions(records)
	if stats.Sessions == 0 {
		return nil
	}

	fmt.Println()
	fmt.Printf("Sessions: %d  Best level: %d  Kills: %d  Powerups: %d  Play time: %s\n",
		stats.Sessions, stats.BestLevel, stats.TotalKills, stats.TotalPickups,
		stats.PlayTime.Round(time.Second))
	return nil
}

func printAllStats(store *storage.Store) error {
	all, err := store.GetAllPlayersStats()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Println("No sessions recorded yet.")
		return nil
	}

	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Printf("  %-20s  %-8s  %-5s  %-6s  %-10s  %s\n", "Player", "Sessions", "Best", "Kills", "Play time", "Last played")
	fmt.Printf("  %-20s  %-8s  %-5s  %-6s  %-10s  %s\n", "------", "--------", "----", "-----", "---------", "-----------")
	for _, id := range ids {
		s := all[id]
		fmt.Printf("  %-20s  %-8d  %-5d  %-6d  %-10s  %s\n",
			id, s.Sessions, s.BestLevel, s.TotalKills,
			s.PlayTime.Round(time.Second), s.LastPlayed.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func printSessions(records []storage.SessionRecord) {
	if len(records) == 0 {
		fmt.Println("No sessions recorded yet.")
		return
	}

	fmt.Printf("  %-20s  %-7s  %-5s  %-5s  %-5s  %-9s  %-15s  %s\n", "Player", "Diff", "Level", "Kills", "Hits", "Duration", "Ended", "Date")
	fmt.Printf("  %-20s  %-7s  %-5s  %-5s  %-5s  %-9s  %-15s  %s\n", "------", "----", "-----", "-----", "----", "--------", "-----", "----")
	for _, r := range records {
		d := (time.Duration(r.Duration) * time.Millisecond).Round(time.Second)
		fmt.Printf("  %-20s  %-7s  %-5d  %-5d  %-5d  %-9s  %-15s  %s\n",
			r.PlayerID, r.Difficulty, r.Level, r.Kills, r.HitsTaken, d, r.EndReason,
			r.EndedAt.Local().Format("2006-01-02 15:04"))
	}
}
