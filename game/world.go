package game

import (
	"log/slog"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/lguibr/bombgrid/utils"
)

// World is the single owned aggregate of simulation state. Only Step mutates
// it, and Step is only ever called from the game actor's goroutine.
type World struct {
	cfg    utils.Config
	grid   *Grid
	rng    *rand.Rand
	logger *slog.Logger

	players    map[string]*Player
	bombs      []*BombRecord
	explosions map[Position]*ExplosionRecord
	nextBombID BombID

	respawner  Respawner
	diff       *diffTracker
	lastRefill time.Time
	tick       uint64
}

// WorldOption customises a World at construction time.
type WorldOption func(*World)

// WithGrid replaces the generated map.
func WithGrid(g *Grid) WorldOption {
	return func(w *World) { w.grid = g }
}

// WithRand sets the random source used for generation, spawns and reveals.
func WithRand(rng *rand.Rand) WorldOption {
	return func(w *World) { w.rng = rng }
}

// WithRespawner sets where eliminations are scheduled.
func WithRespawner(r Respawner) WorldOption {
	return func(w *World) { w.respawner = r }
}

// WithWorldLogger sets the logger for dropped or rejected events.
func WithWorldLogger(logger *slog.Logger) WorldOption {
	return func(w *World) { w.logger = logger }
}

// NewWorld builds a world from cfg. Without WithRand the world draws from a
// crypto-seeded source; without WithGrid the map is generated from cfg.
func NewWorld(cfg utils.Config, opts ...WorldOption) *World {
	w := &World{
		cfg:        cfg,
		players:    make(map[string]*Player),
		explosions: make(map[Position]*ExplosionRecord),
		diff:       newDiffTracker(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.rng == nil {
		w.rng = utils.NewCryptoRand()
	}
	if w.grid == nil {
		w.grid = GenerateGrid(cfg.GridWidth, cfg.GridHeight, cfg.CrateDensity, w.rng)
	}
	if w.respawner == nil {
		w.respawner = discardRespawner{}
	}
	return w
}

type discardRespawner struct{}

func (discardRespawner) Schedule(string, int) {}

// Grid exposes the map for read-only inspection.
func (w *World) Grid() *Grid { return w.grid }

// Tick returns how many steps have run.
func (w *World) Tick() uint64 { return w.tick }

// Player returns the player with id, if present.
func (w *World) Player(id string) (*Player, bool) {
	p, ok := w.players[id]
	return p, ok
}

// PlayerCount returns the roster size.
func (w *World) PlayerCount() int { return len(w.players) }

// Bombs returns the live bomb records in placement order.
func (w *World) Bombs() []BombRecord {
	out := make([]BombRecord, len(w.bombs))
	for i, b := range w.bombs {
		out[i] = *b
	}
	return out
}

// ExplosionAt returns the record burning at p, if any.
func (w *World) ExplosionAt(p Position) (ExplosionRecord, bool) {
	ex, ok := w.explosions[p]
	if !ok {
		return ExplosionRecord{}, false
	}
	return *ex, true
}

func (w *World) bombAt(p Position) *BombRecord {
	for _, b := range w.bombs {
		if b.Pos == p {
			return b
		}
	}
	return nil
}

func (w *World) livingPlayerAt(p Position) bool {
	for _, pl := range w.players {
		if pl.Alive && pl.Pos == p {
			return true
		}
	}
	return false
}

func (w *World) findSpawn() (Position, error) {
	return w.grid.FindFree(w.rng, w.cfg.SpawnAttempts, w.livingPlayerAt)
}

func (w *World) sortedPlayers() []*Player {
	out := make([]*Player, 0, len(w.players))
	for _, p := range w.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) scores() map[string]Score {
	out := make(map[string]Score, len(w.players))
	for id, p := range w.players {
		out[id] = p.Score()
	}
	return out
}
