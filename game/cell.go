package game

import "fmt"

// Cell is the displayed state of one grid tile. The numeric values are part of
// the wire format and match the clients' enum. It is an int so that a row
// encodes as a JSON array rather than base64.
type Cell int

const (
	Empty Cell = iota
	Wall
	Crate
	Bomb
	Explosion
	PowerupFire
	PowerupBomb
)

var cellNames = [...]string{"empty", "wall", "crate", "bomb", "explosion", "powerupFire", "powerupBomb"}

func (c Cell) String() string {
	if c >= 0 && int(c) < len(cellNames) {
		return cellNames[c]
	}
	return fmt.Sprintf("cell(%d)", int(c))
}

// IsPowerup reports whether stepping on the cell grants an upgrade.
func (c Cell) IsPowerup() bool { return c == PowerupFire || c == PowerupBomb }

// Blocks reports whether a player cannot walk into the cell.
func (c Cell) Blocks() bool { return c == Wall || c == Crate || c == Bomb }

// Position is a grid coordinate; x grows to the right and y downwards.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p shifted by (dx, dy).
func (p Position) Add(dx, dy int) Position { return Position{X: p.X + dx, Y: p.Y + dy} }

// directions are the four axis-aligned blast and movement steps.
var directions = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
