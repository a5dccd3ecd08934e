package game

import (
	"encoding/json"
	"fmt"
	"sort"
)

// View is a client-side replica rebuilt from one init and the diffs that
// follow it.
type View struct {
	PlayerID string
	Tick     uint64
	Width    int
	Height   int
	Grid     [][]Cell
	Players  map[string]PlayerState
	Scores   map[string]Score
}

// Apply decodes a server frame and folds it into the view.
func (v *View) Apply(raw []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	switch head.Type {
	case MessageTypeInit, MessageTypeState:
		var m InitMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("decode %s: %w", head.Type, err)
		}
		v.ApplyInit(&m)
	case MessageTypeDiff:
		var m DiffMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("decode diff: %w", err)
		}
		v.ApplyDiff(&m)
	default:
		return fmt.Errorf("unknown frame type %q", head.Type)
	}
	return nil
}

// ApplyInit replaces the whole view.
func (v *View) ApplyInit(m *InitMessage) {
	if m.PlayerID != "" {
		v.PlayerID = m.PlayerID
	}
	v.Tick = m.Tick
	v.Width, v.Height = m.Width, m.Height
	v.Grid = make([][]Cell, len(m.Grid))
	for y, row := range m.Grid {
		v.Grid[y] = append([]Cell(nil), row...)
	}
	v.Players = make(map[string]PlayerState, len(m.Players))
	for _, p := range m.Players {
		v.Players[p.ID] = p
	}
	v.Scores = make(map[string]Score, len(m.Scores))
	for id, s := range m.Scores {
		v.Scores[id] = s
	}
}

// ApplyDiff patches the view. Diffs older than the current view are ignored.
// Departed players are dropped whether or not the diff carries scores.
func (v *View) ApplyDiff(m *DiffMessage) {
	if v.Grid == nil || m.Tick <= v.Tick {
		return
	}
	v.Tick = m.Tick
	for _, c := range m.UpdatedCells {
		if c.Y >= 0 && c.Y < len(v.Grid) && c.X >= 0 && c.X < len(v.Grid[c.Y]) {
			v.Grid[c.Y][c.X] = c.Value
		}
	}
	for _, p := range m.UpdatedPlayers {
		v.Players[p.ID] = p
	}
	for _, id := range m.Departed {
		delete(v.Players, id)
		delete(v.Scores, id)
	}
	if m.Scores != nil {
		v.Scores = m.Scores
	}
}

// At returns the cell at (x, y); outside the view reads as Wall.
func (v *View) At(x, y int) Cell {
	if y < 0 || y >= len(v.Grid) || x < 0 || x >= len(v.Grid[y]) {
		return Wall
	}
	return v.Grid[y][x]
}

// Self returns the state of the player this view belongs to.
func (v *View) Self() (PlayerState, bool) {
	p, ok := v.Players[v.PlayerID]
	return p, ok
}

// State converts the view back into a full-state message.
func (v *View) State() *InitMessage {
	players := make([]PlayerState, 0, len(v.Players))
	for _, p := range v.Players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return &InitMessage{
		Type:     MessageTypeState,
		PlayerID: v.PlayerID,
		Tick:     v.Tick,
		Width:    v.Width,
		Height:   v.Height,
		Grid:     v.Grid,
		Players:  players,
		Scores:   v.Scores,
	}
}
