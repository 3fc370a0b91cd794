package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestEmbeddedDefaultsMatchHardcoded(t *testing.T) {
	cfg := Default()
	if err := yaml.Unmarshal(DefaultYAML(), &cfg); err != nil {
		t.Fatalf("embedded YAML does not parse: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("embedded defaults drifted from Default():\n got  %+v\n want %+v", cfg, Default())
	}
}

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v, expected nil", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero tick", func(c *Config) { c.Server.TickInterval = 0 }, "tick_interval"},
		{"zero frame", func(c *Config) { c.Server.MaxFrameSize = 0 }, "max_frame_size"},
		{"tiny field", func(c *Config) { c.World.Width = 80 }, "too small"},
		{"negative enemies", func(c *Config) { c.World.NumEnemies = -1 }, "num_enemies"},
		{"no fire rate", func(c *Config) { c.World.EnemyFireRate = 0 }, "enemy_fire_rate"},
		{"zero accept poll", func(c *Config) { c.Server.AcceptPoll = 0 }, "accept_poll"},
		{"negative accept poll", func(c *Config) { c.Server.AcceptPoll = -time.Second }, "accept_poll"},
		{"zero handshake timeout", func(c *Config) { c.Server.HandshakeTimeout = 0 }, "handshake_timeout"},
		{"zero write timeout", func(c *Config) { c.Server.WriteTimeout = 0 }, "write_timeout"},
		{"shrinking threshold", func(c *Config) { c.Progression.ThresholdGrowth = 0.5 }, "threshold_growth"},
		{"flat threshold", func(c *Config) { c.Progression.ThresholdGrowth = 1 }, "threshold_growth"},
		{"unknown default", func(c *Config) { c.Difficulty.Default = "nightmare" }, "unknown difficulty"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Validate() = %q, expected mention of %q", err, tc.want)
			}
		})
	}
}

func TestLoadCustomPathKeepsUnsetDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	doc := `
server:
  address: "127.0.0.1:7000"
  tick_interval: 20ms
world:
  num_enemies: 3
difficulty:
  default: hard
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Address != "127.0.0.1:7000" {
		t.Errorf("Address = %q, expected %q", cfg.Server.Address, "127.0.0.1:7000")
	}
	if cfg.Server.TickInterval != 20*time.Millisecond {
		t.Errorf("TickInterval = %v, expected 20ms", cfg.Server.TickInterval)
	}
	if cfg.World.NumEnemies != 3 {
		t.Errorf("NumEnemies = %d, expected 3", cfg.World.NumEnemies)
	}
	if cfg.Difficulty.Default != DifficultyHard {
		t.Errorf("Difficulty.Default = %q, expected hard", cfg.Difficulty.Default)
	}
	// Untouched sections keep defaults
	if cfg.Powerups.Lifetime != 30*time.Second {
		t.Errorf("Powerups.Lifetime = %v, expected 30s", cfg.Powerups.Lifetime)
	}
	if cfg.World.Width != 1920 {
		t.Errorf("World.Width = %v, expected 1920", cfg.World.Width)
	}
}

func TestLoadMissingCustomPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() of missing file should fail")
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() of malformed YAML should fail")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAddress, ":6000")
	t.Setenv(EnvHTTPAddress, ":8080")
	t.Setenv(EnvDBPath, "/tmp/x.db")
	t.Setenv(EnvDifficulty, "easy")

	cfg := Default()
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("ApplyEnv() failed: %v", err)
	}
	if cfg.Server.Address != ":6000" || cfg.Server.HTTPAddress != ":8080" {
		t.Errorf("addresses = %q/%q, expected :6000/:8080", cfg.Server.Address, cfg.Server.HTTPAddress)
	}
	if cfg.Storage.DBPath != "/tmp/x.db" {
		t.Errorf("DBPath = %q, expected /tmp/x.db", cfg.Storage.DBPath)
	}
	if cfg.Difficulty.Default != DifficultyEasy {
		t.Errorf("Difficulty.Default = %q, expected easy", cfg.Difficulty.Default)
	}
}

func TestApplyEnvRejectsBadDifficulty(t *testing.T) {
	t.Setenv(EnvDifficulty, "impossible")
	cfg := Default()
	if err := ApplyEnv(&cfg); err == nil {
		t.Error("ApplyEnv() should reject unknown difficulty")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("BULLETVERSE_TEST_DOTENV=loaded\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("BULLETVERSE_TEST_DOTENV") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() failed: %v", err)
	}
	if got := os.Getenv("BULLETVERSE_TEST_DOTENV"); got != "loaded" {
		t.Errorf("BULLETVERSE_TEST_DOTENV = %q, expected %q", got, "loaded")
	}

	// Missing file is fine
	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("LoadDotEnv() of missing file = %v, expected nil", err)
	}
}

func TestDifficultyPresets(t *testing.T) {
	d := Default().Difficulty

	names := d.Names()
	want := []DifficultyPreset{DifficultyEasy, DifficultyHard, DifficultyNormal}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Names() = %v, expected %v", names, want)
	}

	normal, err := d.Preset(DifficultyNormal)
	if err != nil {
		t.Fatalf("Preset(normal) failed: %v", err)
	}
	if normal.XPMultiplier != 1.0 || normal.EnemyDamage != 10 {
		t.Errorf("normal = %+v, expected xp 1.0 damage 10", normal)
	}

	if _, err := d.Preset("nope"); err == nil {
		t.Error("Preset(nope) should fail")
	}
}

func TestParseDifficulty(t *testing.T) {
	for _, s := range []string{"easy", "normal", "hard"} {
		if p, err := ParseDifficulty(s); err != nil || string(p) != s {
			t.Errorf("ParseDifficulty(%q) = %q, %v", s, p, err)
		}
	}
	if _, err := ParseDifficulty("Normal"); err == nil {
		t.Error("ParseDifficulty is case sensitive")
	}
}

func TestMarshalRoundTrips(t *testing.T) {
	data, err := Marshal(Default())
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	cfg := Default()
	cfg.Server.Address = "changed"
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if cfg.Server.Address != ":5555" {
		t.Errorf("Address = %q after round trip, expected :5555", cfg.Server.Address)
	}
}
