// File: utils/config.go
package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// EnvPrefix namespaces environment overrides.
const EnvPrefix = "BOMBGRID_"

// Config holds all configurable game and server parameters.
type Config struct {
	// Server
	ListenAddr       string        `yaml:"listenAddr" json:"listenAddr"`
	AllowedOrigins   []string      `yaml:"allowedOrigins" json:"allowedOrigins"`
	ReadTimeout      time.Duration `yaml:"readTimeout" json:"readTimeout"`           // Idle time before a silent client is dropped
	SessionSendQueue int           `yaml:"sessionSendQueue" json:"sessionSendQueue"` // Per-session outbox size (drop-oldest)

	// Grid
	GridWidth    int     `yaml:"gridWidth" json:"gridWidth"`       // Columns, odd so the border lands on a pillar row
	GridHeight   int     `yaml:"gridHeight" json:"gridHeight"`     // Rows, odd for the same reason
	CrateDensity float64 `yaml:"crateDensity" json:"crateDensity"` // Chance an interior non-pillar cell starts as a crate

	// Timing
	TickPeriod        time.Duration `yaml:"tickPeriod" json:"tickPeriod"`
	BombFuse          time.Duration `yaml:"bombFuse" json:"bombFuse"`
	ExplosionDuration time.Duration `yaml:"explosionDuration" json:"explosionDuration"`
	RespawnDelay      time.Duration `yaml:"respawnDelay" json:"respawnDelay"`
	MoveCooldown      time.Duration `yaml:"moveCooldown" json:"moveCooldown"`

	// Player defaults
	DefaultFirePower int `yaml:"defaultFirePower" json:"defaultFirePower"`
	DefaultMaxBombs  int `yaml:"defaultMaxBombs" json:"defaultMaxBombs"`

	// Power-ups revealed by destroyed crates
	PowerupFireChance float64 `yaml:"powerupFireChance" json:"powerupFireChance"`
	PowerupBombChance float64 `yaml:"powerupBombChance" json:"powerupBombChance"`

	// Crate refill maintenance
	CrateRefillInterval time.Duration `yaml:"crateRefillInterval" json:"crateRefillInterval"`
	CrateLowWater       float64       `yaml:"crateLowWater" json:"crateLowWater"`   // Fraction of all cells
	CrateHighWater      float64       `yaml:"crateHighWater" json:"crateHighWater"` // Fraction of all cells

	// Limits
	SpawnAttempts       int `yaml:"spawnAttempts" json:"spawnAttempts"`             // Random samples before falling back to a full scan
	ActionQueueCapacity int `yaml:"actionQueueCapacity" json:"actionQueueCapacity"` // Pending player intents per tick

	IncludeScores bool `yaml:"includeScores" json:"includeScores"` // Attach the scoreboard to every diff
}

// DefaultConfig returns a Config struct with default values.
func DefaultConfig() Config {
	return Config{
		ListenAddr:       ":4000",
		AllowedOrigins:   []string{"*"},
		ReadTimeout:      90 * time.Second,
		SessionSendQueue: 64,

		GridWidth:    31,
		GridHeight:   25,
		CrateDensity: 0.5,

		TickPeriod:        50 * time.Millisecond,
		BombFuse:          2 * time.Second,
		ExplosionDuration: 500 * time.Millisecond,
		RespawnDelay:      5 * time.Second,
		MoveCooldown:      100 * time.Millisecond,

		DefaultFirePower: 2,
		DefaultMaxBombs:  1,

		PowerupFireChance: 0.10,
		PowerupBombChance: 0.10,

		CrateRefillInterval: 20 * time.Second,
		CrateLowWater:       0.10,
		CrateHighWater:      0.20,

		SpawnAttempts:       4096,
		ActionQueueCapacity: 4096,

		IncludeScores: true,
	}
}

// LoadConfig builds a Config from defaults, an optional YAML file, an
// optional .env file in the working directory and BOMBGRID_* variables,
// in that order of precedence (later wins).
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q: %v", ErrInvalidConfig, EnvPrefix, key, v, err)
		}
		*dst = n
		return nil
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q: %v", ErrInvalidConfig, EnvPrefix, key, v, err)
		}
		*dst = d
		return nil
	}

	str("LISTEN_ADDR", &c.ListenAddr)
	if v, ok := lookup(EnvPrefix + "ALLOWED_ORIGINS"); ok && v != "" {
		origins := []string{}
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.AllowedOrigins = origins
	}

	for _, step := range []error{
		num("GRID_WIDTH", &c.GridWidth),
		num("GRID_HEIGHT", &c.GridHeight),
		num("SESSION_SEND_QUEUE", &c.SessionSendQueue),
		num("ACTION_QUEUE_CAPACITY", &c.ActionQueueCapacity),
		dur("TICK_PERIOD", &c.TickPeriod),
		dur("BOMB_FUSE", &c.BombFuse),
		dur("EXPLOSION_DURATION", &c.ExplosionDuration),
		dur("RESPAWN_DELAY", &c.RespawnDelay),
		dur("MOVE_COOLDOWN", &c.MoveCooldown),
		dur("CRATE_REFILL_INTERVAL", &c.CrateRefillInterval),
		dur("READ_TIMEOUT", &c.ReadTimeout),
	} {
		if step != nil {
			return step
		}
	}
	return nil
}

// Validate checks the invariants the simulation relies on.
func (c Config) Validate() error {
	var problems []string
	if c.GridWidth < 5 || c.GridHeight < 5 {
		problems = append(problems, "grid must be at least 5x5")
	}
	if c.GridWidth%2 == 0 || c.GridHeight%2 == 0 {
		problems = append(problems, "grid dimensions must be odd")
	}
	durations := []struct {
		name  string
		value time.Duration
	}{
		{"tickPeriod", c.TickPeriod},
		{"bombFuse", c.BombFuse},
		{"explosionDuration", c.ExplosionDuration},
		{"respawnDelay", c.RespawnDelay},
	}
	for _, d := range durations {
		if d.value <= 0 {
			problems = append(problems, d.name+" must be positive")
		}
	}
	if c.MoveCooldown < 0 {
		problems = append(problems, "moveCooldown must not be negative")
	}
	if c.DefaultFirePower < 1 || c.DefaultMaxBombs < 1 {
		problems = append(problems, "defaultFirePower and defaultMaxBombs must be >= 1")
	}
	probabilities := []struct {
		name  string
		value float64
	}{
		{"crateDensity", c.CrateDensity},
		{"powerupFireChance", c.PowerupFireChance},
		{"powerupBombChance", c.PowerupBombChance},
		{"crateLowWater", c.CrateLowWater},
		{"crateHighWater", c.CrateHighWater},
	}
	for _, p := range probabilities {
		if p.value < 0 || p.value > 1 {
			problems = append(problems, p.name+" must be within [0,1]")
		}
	}
	if c.PowerupFireChance+c.PowerupBombChance > 1 {
		problems = append(problems, "powerup chances must sum to at most 1")
	}
	if c.CrateLowWater > c.CrateHighWater {
		problems = append(problems, "crateLowWater must not exceed crateHighWater")
	}
	if c.SpawnAttempts < 1 || c.ActionQueueCapacity < 1 || c.SessionSendQueue < 1 {
		problems = append(problems, "spawnAttempts, actionQueueCapacity and sessionSendQueue must be >= 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
