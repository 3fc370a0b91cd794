package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/bulletverse/internal/config"
	"github.com/vovakirdan/bulletverse/internal/httpapi"
	"github.com/vovakirdan/bulletverse/internal/multiplayer"
	"github.com/vovakirdan/bulletverse/internal/storage"
)

var (
	flagAddr       string
	flagHTTPAddr   string
	flagDBPath     string
	flagDifficulty string
	flagNoHistory  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulation server",
	Long: `Start the authoritative simulation server and block until SIGINT or SIGTERM.

Clients connect over TCP with length-prefixed frames. When an HTTP address
is set, the same sessions are also reachable over WebSocket at /ws, next to
a JSON status API.

Finished sessions are recorded in a SQLite database unless --no-history is set.

Examples:
  bulletverse serve                          # Listen on the configured address
  bulletverse serve --addr :6000             # Listen on port 6000
  bulletverse serve --http :8080             # Also serve /ws and /api
  bulletverse serve --difficulty hard        # Start on the hard preset
  bulletverse serve --db ./sessions.db       # Use specific database`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "TCP address (host:port), overrides config")
	serveCmd.Flags().StringVar(&flagHTTPAddr, "http", "", "HTTP address for /ws and /api, overrides config")
	serveCmd.Flags().StringVar(&flagDBPath, "db", "", "Path to session history database, overrides config")
	serveCmd.Flags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset (easy, normal, hard)")
	serveCmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "Do not record finished sessions")
}

func runServe(_ *cobra.Command, _ []string) error {
	logger, err := newLogger("bulletverse")
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyServeFlags(&cfg); err != nil {
		return err
	}

	opts := []multiplayer.Option{multiplayer.WithLogger(logger)}
	if flagSeed != 0 {
		opts = append(opts, multiplayer.WithRand(rand.New(rand.NewSource(flagSeed))))
	}

	var store *storage.Store
	if cfg.Storage.DBPath != "" {
		store, err = storage.Open(cfg.Storage.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, multiplayer.WithRecorder(store))
		logger.Info("recording sessions", "db", cfg.Storage.DBPath)
	}

	srv, err := multiplayer.New(cfg, opts...)
	if err != nil {
		return err
	}
	if err := srv.Start(""); err != nil {
		return err
	}

	var httpSrv *http.Server
	if cfg.Server.HTTPAddress != "" {
		apiOpts := []httpapi.Option{httpapi.WithLogger(logger)}
		if store != nil {
			apiOpts = append(apiOpts, httpapi.WithHistory(store))
		}
		httpSrv = &http.Server{
			Addr:              cfg.Server.HTTPAddress,
			Handler:           httpapi.New(srv, cfg.Server, apiOpts...),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("http listening", "addr", cfg.Server.HTTPAddress)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "err", err)
			}
		}()
	}

	fmt.Printf("Bulletverse listening on %s\n", srv.Addr())
	fmt.Println("Press Ctrl+C to stop")

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	logger.Info("shutting down")
	if httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			logger.Error("http shutdown", "err", err)
		}
	}
	return srv.Close()
}

func applyServeFlags(cfg *config.Config) error {
	if flagAddr != "" {
		cfg.Server.Address = flagAddr
	}
	if flagHTTPAddr != "" {
		cfg.Server.HTTPAddress = flagHTTPAddr
	}
	if flagDBPath != "" {
		cfg.Storage.DBPath = flagDBPath
	}
	if flagNoHistory {
		cfg.Storage.DBPath = ""
	}
	if flagDifficulty != "" {
		preset, err := config.ParseDifficulty(flagDifficulty)
		if err != nil {
			return err
		}
		cfg.Difficulty.Default = preset
	}
	return cfg.Validate()
}
