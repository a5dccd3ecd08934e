// File: game/grid.go
package game

import (
	"errors"
	"math/rand/v2"
)

// ErrNoFreeSpawn is returned when no interior tile can host a player.
var ErrNoFreeSpawn = errors.New("no free spawn tile")

// Grid is the tile map. Cells are stored row-major; every write through
// SetCell that changes a tile is remembered until TakeChanged.
type Grid struct {
	Width   int
	Height  int
	cells   []Cell
	changed map[Position]struct{}
}

// NewGrid returns a width x height grid of Empty cells.
func NewGrid(width, height int) *Grid {
	return &Grid{
		Width:   width,
		Height:  height,
		cells:   make([]Cell, width*height),
		changed: make(map[Position]struct{}),
	}
}

// GenerateGrid builds the static map: walls on the border and on every
// even/even pillar, every other cell a crate with probability crateDensity.
func GenerateGrid(width, height int, crateDensity float64, rng *rand.Rand) *Grid {
	g := NewGrid(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			switch {
			case g.IsPermanentWall(x, y):
				g.cells[g.index(x, y)] = Wall
			case rng.Float64() < crateDensity:
				g.cells[g.index(x, y)] = Crate
			}
		}
	}
	return g
}

func (g *Grid) index(x, y int) int { return y*g.Width + x }

// InBounds reports whether (x, y) lies on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// IsPermanentWall reports whether (x, y) is a border or pillar tile.
func (g *Grid) IsPermanentWall(x, y int) bool {
	border := x == 0 || y == 0 || x == g.Width-1 || y == g.Height-1
	pillar := x%2 == 0 && y%2 == 0
	return border || pillar
}

// At returns the cell at (x, y); out-of-bounds tiles read as Wall.
func (g *Grid) At(x, y int) Cell {
	if !g.InBounds(x, y) {
		return Wall
	}
	return g.cells[g.index(x, y)]
}

// SetCell writes value at (x, y). Writing the current value is a no-op;
// any other write is recorded as changed. Permanent walls never change.
func (g *Grid) SetCell(x, y int, value Cell) bool {
	if !g.InBounds(x, y) || g.IsPermanentWall(x, y) {
		return false
	}
	i := g.index(x, y)
	if g.cells[i] == value {
		return false
	}
	g.cells[i] = value
	g.changed[Position{X: x, Y: y}] = struct{}{}
	return true
}

// HasChanges reports whether any cell changed since the last TakeChanged.
func (g *Grid) HasChanges() bool { return len(g.changed) > 0 }

// TakeChanged returns the changed positions and clears the set.
func (g *Grid) TakeChanged() []Position {
	out := make([]Position, 0, len(g.changed))
	for p := range g.changed {
		out = append(out, p)
	}
	clear(g.changed)
	return out
}

// Count returns how many cells currently hold value.
func (g *Grid) Count(value Cell) int {
	n := 0
	for _, c := range g.cells {
		if c == value {
			n++
		}
	}
	return n
}

// Rows returns a copy of the grid as rows (rows[y][x]).
func (g *Grid) Rows() [][]Cell {
	rows := make([][]Cell, g.Height)
	for y := range rows {
		rows[y] = make([]Cell, g.Width)
		copy(rows[y], g.cells[g.index(0, y):g.index(0, y)+g.Width])
	}
	return rows
}

// FindFree samples interior non-pillar tiles uniformly until it finds one
// that is Empty and not rejected by occupied. After maxAttempts samples it
// falls back to a scan over every candidate so a crowded board still
// answers, and returns ErrNoFreeSpawn only when no tile qualifies.
func (g *Grid) FindFree(rng *rand.Rand, maxAttempts int, occupied func(Position) bool) (Position, error) {
	free := func(p Position) bool {
		return !g.IsPermanentWall(p.X, p.Y) && g.At(p.X, p.Y) == Empty && (occupied == nil || !occupied(p))
	}
	if g.Width > 2 && g.Height > 2 {
		for i := 0; i < maxAttempts; i++ {
			p := Position{X: 1 + rng.IntN(g.Width-2), Y: 1 + rng.IntN(g.Height-2)}
			if free(p) {
				return p, nil
			}
		}
	}

	var candidates []Position
	for y := 1; y < g.Height-1; y++ {
		for x := 1; x < g.Width-1; x++ {
			if p := (Position{X: x, Y: y}); free(p) {
				candidates = append(candidates, p)
			}
		}
	}
	if len(candidates) == 0 {
		return Position{}, ErrNoFreeSpawn
	}
	return candidates[rng.IntN(len(candidates))], nil
}
