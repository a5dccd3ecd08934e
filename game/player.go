package game

import "time"

// Player is one participant in the world. Only the tick engine mutates it.
type Player struct {
	ID      string
	Session Session // Network handle; nil for players created in tests
	Color   string
	Pos     Position
	Alive   bool

	FirePower   int
	MaxBombs    int
	ActiveBombs int

	Kills   int
	Deaths  int
	Assists int

	LastMoveAt time.Time
}

// PlayerState is the per-player entry of init and diff messages.
type PlayerState struct {
	ID    string `json:"id"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`
	Alive bool   `json:"alive"`
}

// Score is one scoreboard row.
type Score struct {
	Kills   int `json:"kills"`
	Deaths  int `json:"deaths"`
	Assists int `json:"assists"`
}

// Snapshot returns the wire view of the player.
func (p *Player) Snapshot() PlayerState {
	return PlayerState{ID: p.ID, X: p.Pos.X, Y: p.Pos.Y, Color: p.Color, Alive: p.Alive}
}

// Score returns the player's scoreboard row.
func (p *Player) Score() Score {
	return Score{Kills: p.Kills, Deaths: p.Deaths, Assists: p.Assists}
}
