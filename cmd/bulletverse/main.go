// bulletverse runs and inspects the authoritative multiplayer simulation server.
//
// Usage:
//
//	bulletverse serve           - Run the simulation server
//	bulletverse bot             - Connect headless bot players to a server
//	bulletverse history         - Show stored session history
//	bulletverse config          - Print the effective configuration
//
// Global flags:
//
//	--config <path>     - Configuration file (default: search order)
//	--env <path>        - .env file with BULLETVERSE_* overrides
//	--log-level <level> - debug, info, warn or error
//	--seed <value>      - RNG seed for reproducible simulation
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/bulletverse/internal/config"
)

var (
	// Global flags
	flagConfig   string
	flagEnvFile  string
	flagLogLevel string
	flagSeed     int64
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bulletverse",
	Short: "Bulletverse - authoritative multiplayer shooter server",
	Long: `Bulletverse runs the shared world of a top-down multiplayer shooter.
Clients send their own state and new bullets; the server simulates enemies,
bullets, powerups and progression and streams snapshots back.

Available commands:
  serve    - Run the simulation server
  bot      - Connect headless bot players
  history  - Show stored session history
  config   - Print the effective configuration

Examples:
  bulletverse serve
  bulletverse serve --addr :6000 --http :8080 --difficulty hard
  bulletverse bot --addr localhost:5555 --count 4
  bulletverse history --player alice
  bulletverse config > bulletverse.yaml`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env", ".env", "Path to .env file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}

// newLogger builds the process logger from --log-level.
func newLogger(prefix string) (*log.Logger, error) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", flagLogLevel, err)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           level,
	}), nil
}

// loadConfig applies the .env file and then loads the configuration.
func loadConfig() (config.Config, error) {
	if err := config.LoadDotEnv(flagEnvFile); err != nil {
		return config.Config{}, err
	}
	return config.Load(flagConfig)
}
