package game

import (
	"sync"
	"time"

	"github.com/lguibr/bombgrid/utils"
)

var t0 = time.Unix(1_700_000_000, 0)

// testConfig is a small open board with no cooldown and no refill.
func testConfig() utils.Config {
	cfg := utils.DefaultConfig()
	cfg.GridWidth, cfg.GridHeight = 9, 9
	cfg.CrateDensity = 0
	cfg.MoveCooldown = 0
	cfg.CrateRefillInterval = 0
	return cfg
}

type respawnCall struct {
	playerID string
	epoch    int
}

type recordingRespawner struct {
	calls      []respawnCall
	onSchedule func(playerID string, epoch int)
}

func (r *recordingRespawner) Schedule(playerID string, epoch int) {
	r.calls = append(r.calls, respawnCall{playerID: playerID, epoch: epoch})
	if r.onSchedule != nil {
		r.onSchedule(playerID, epoch)
	}
}

func newTestWorld(cfg utils.Config) (*World, *recordingRespawner) {
	r := &recordingRespawner{}
	rng := utils.NewSeededRand(1)
	w := NewWorld(cfg,
		WithRand(rng),
		WithRespawner(r),
		WithGrid(GenerateGrid(cfg.GridWidth, cfg.GridHeight, cfg.CrateDensity, rng)),
	)
	return w, r
}

// placePlayer puts a living player on the board without going through join.
func placePlayer(w *World, id string, x, y int) *Player {
	p := &Player{
		ID:        id,
		Color:     "#ffffff",
		Pos:       Position{X: x, Y: y},
		Alive:     true,
		FirePower: w.cfg.DefaultFirePower,
		MaxBombs:  w.cfg.DefaultMaxBombs,
	}
	w.players[id] = p
	return p
}

// plantBomb adds a live bomb owned by ownerID.
func plantBomb(w *World, ownerID string, x, y int, detonateAt time.Time) *BombRecord {
	w.nextBombID++
	power := w.cfg.DefaultFirePower
	if owner, ok := w.players[ownerID]; ok {
		owner.ActiveBombs++
		power = owner.FirePower
	}
	b := &BombRecord{ID: w.nextBombID, Pos: Position{X: x, Y: y}, OwnerID: ownerID, FirePower: power, DetonateAt: detonateAt}
	w.grid.SetCell(x, y, Bomb)
	w.bombs = append(w.bombs, b)
	return b
}

// settle clears the dirty sets left by test setup.
func settle(w *World) {
	w.grid.TakeChanged()
	w.diff.reset()
}

func cellsOf(d *DiffMessage) map[Position]Cell {
	out := make(map[Position]Cell)
	if d == nil {
		return out
	}
	for _, c := range d.UpdatedCells {
		out[Position{X: c.X, Y: c.Y}] = c.Value
	}
	return out
}

// fakeSession records payloads. When overflow is set, Send reports a drop.
type fakeSession struct {
	id string

	mu       sync.Mutex
	payloads [][]byte
	closed   bool
	overflow bool
}

func newFakeSession(id string) *fakeSession { return &fakeSession{id: id} }

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Send(payload []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, payload)
	return !s.overflow
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSession) setOverflow(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overflow = v
}

func (s *fakeSession) sent() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.payloads))
	copy(out, s.payloads)
	return out
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
