package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/vovakirdan/bulletverse/internal/config"
	"github.com/vovakirdan/bulletverse/internal/core"
	"github.com/vovakirdan/bulletverse/internal/multiplayer"
	"github.com/vovakirdan/bulletverse/internal/protocol"
	"github.com/vovakirdan/bulletverse/internal/world"
)

var (
	flagBotAddr     string
	flagBotCount    int
	flagBotRate     float64
	flagBotDuration time.Duration
	flagBotName     string
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Connect headless bot players to a server",
	Long: `Connect one or more bot players that circle the field and shoot at the
nearest enemy. Useful for load testing and for keeping a world busy.

The address may be a TCP host:port or a ws:// URL pointing at /ws.

Examples:
  bulletverse bot                                 # One bot against the configured address
  bulletverse bot --count 8 --rate 30             # Eight bots sending 30 updates/s each
  bulletverse bot --addr ws://localhost:8080/ws   # Connect over WebSocket
  bulletverse bot --duration 1m                   # Stop after one minute`,
	RunE: runBot,
}

func init() {
	botCmd.Flags().StringVar(&flagBotAddr, "addr", "", "Server address (host:port or ws:// URL), defaults to config")
	botCmd.Flags().IntVar(&flagBotCount, "count", 1, "Number of bots")
	botCmd.Flags().Float64Var(&flagBotRate, "rate", 20, "Updates per second per bot")
	botCmd.Flags().DurationVar(&flagBotDuration, "duration", 0, "Stop after this long (0 = until interrupted)")
	botCmd.Flags().StringVar(&flagBotName, "name", "bot", "Player id prefix")
}

func runBot(_ *cobra.Command, _ []string) error {
	logger, err := newLogger("bot")
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagBotCount < 1 {
		return fmt.Errorf("--count must be at least 1")
	}
	if flagBotRate <= 0 {
		return fmt.Errorf("--rate must be positive")
	}

	addr := flagBotAddr
	if addr == "" {
		addr = dialAddress(cfg.Server.Address)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if flagBotDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flagBotDuration)
		defer cancel()
	}

	seed := flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var wg sync.WaitGroup
	for i := range flagBotCount {
		id := world.PlayerID(fmt.Sprintf("%s-%d", flagBotName, i+1))
		b := &bot{
			id:     id,
			cfg:    cfg,
			rng:    rand.New(rand.NewSource(seed + int64(i))),
			logger: logger.With("bot", id),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := b.run(ctx, addr); err != nil {
				b.logger.Error("bot stopped", "err", err)
			}
		}()
	}
	wg.Wait()
	return nil
}

// dialAddress turns a listen address like ":5555" into something dialable.
func dialAddress(listen string) string {
	if len(listen) > 0 && listen[0] == ':' {
		return "localhost" + listen
	}
	return listen
}

type bot struct {
	id     world.PlayerID
	cfg    config.Config
	rng    *rand.Rand
	logger *log.Logger

	orbit float64 // Radians around the field center
}

func (b *bot) run(ctx context.Context, addr string) error {
	client := multiplayer.NewClient(b.cfg.Server,
		multiplayer.WithClientID(b.id),
		multiplayer.WithClientLogger(b.logger))
	defer client.Close()

	if err := client.Connect(ctx, addr); err != nil {
		return err
	}
	b.logger.Info("connected", "addr", addr)

	limiter := rate.NewLimiter(rate.Limit(flagBotRate), 1)
	report := time.NewTicker(5 * time.Second)
	defer report.Stop()

	b.orbit = b.rng.Float64() * 2 * math.Pi
	for client.Connected() {
		if err := limiter.Wait(ctx); err != nil {
			// Context done
			return nil
		}

		snap, _ := client.Snapshot()
		if err := client.Send(b.next(snap)); err != nil {
			return err
		}

		select {
		case <-report.C:
			b.logger.Info("status", "latency_ms", client.Latency(), "snapshots", client.Received())
		default:
		}
	}
	b.logger.Warn("disconnected")
	return nil
}

// next builds the bot's update from the latest snapshot. The server's view
// of the bot is carried forward so granted XP and effects are not undone.
func (b *bot) next(snap protocol.Snapshot) protocol.PlayerUpdate {
	bounds := core.Bounds{W: b.cfg.World.Width, H: b.cfg.World.Height}
	center := bounds.Center()
	radius := math.Min(bounds.W, bounds.H) / 3

	var self world.Player
	if p, ok := snap.Players[b.id]; ok && p != nil {
		self = *p
	} else {
		self = world.Player{Health: b.cfg.World.PlayerMaxHealth, MaxHealth: b.cfg.World.PlayerMaxHealth}
	}

	b.orbit = core.WrapAngle(b.orbit + 0.02)
	self.Pos = center.Step(b.orbit, radius)

	update := protocol.PlayerUpdate{Player: self}
	target, ok := nearestEnemy(self.Pos, snap.Enemies)
	if !ok {
		self.Angle = b.orbit
		update.Player = self
		return update
	}

	self.Angle = self.Pos.AngleTo(target)
	update.Player = self
	if b.rng.Float64() < 0.25 {
		update.NewBullets = []world.Shot{{
			X:           self.Pos.X,
			Y:           self.Pos.Y,
			Angle:       self.Angle,
			Penetration: 1,
			Damage:      10,
		}}
	}
	return update
}

func nearestEnemy(from core.Vec2, enemies []world.Enemy) (core.Vec2, bool) {
	best := math.Inf(1)
	var target core.Vec2
	for _, e := range enemies {
		if d := from.Dist(e.Pos); d < best {
			best = d
			target = e.Pos
		}
	}
	return target, !math.IsInf(best, 1)
}
