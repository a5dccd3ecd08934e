package game

import "sort"

// CellUpdate is one changed tile in a diff.
type CellUpdate struct {
	X     int  `json:"x"`
	Y     int  `json:"y"`
	Value Cell `json:"value"`
}

// InitMessage is the full state sent to a session on join or resync. The
// same shape, with Type "state", backs the HTTP snapshot.
type InitMessage struct {
	Type     string           `json:"type"`
	PlayerID string           `json:"playerId,omitempty"`
	Tick     uint64           `json:"tick"`
	Width    int              `json:"width"`
	Height   int              `json:"height"`
	Grid     [][]Cell         `json:"grid"`
	Players  []PlayerState    `json:"players"`
	Scores   map[string]Score `json:"scores"`
}

// DiffMessage carries only what changed since the previous diff.
type DiffMessage struct {
	Type           string           `json:"type"`
	Tick           uint64           `json:"tick"`
	UpdatedCells   []CellUpdate     `json:"updatedCells"`
	UpdatedPlayers []PlayerState    `json:"updatedPlayers"`
	Departed       []string         `json:"departed,omitempty"` // Ids that left; also listed dead in UpdatedPlayers
	Scores         map[string]Score `json:"scores,omitempty"`
}

const (
	MessageTypeInit  = "init"
	MessageTypeDiff  = "diff"
	MessageTypeState = "state"
)

// diffTracker holds the dirty player set. Dirty cells live on the grid.
type diffTracker struct {
	players  map[string]struct{}
	departed map[string]PlayerState
}

func newDiffTracker() *diffTracker {
	return &diffTracker{
		players:  make(map[string]struct{}),
		departed: make(map[string]PlayerState),
	}
}

func (d *diffTracker) markPlayer(id string) { d.players[id] = struct{}{} }

func (d *diffTracker) markDeparted(state PlayerState) {
	delete(d.players, state.ID)
	d.departed[state.ID] = state
}

func (d *diffTracker) empty() bool { return len(d.players) == 0 && len(d.departed) == 0 }

func (d *diffTracker) reset() {
	clear(d.players)
	clear(d.departed)
}

// flushDiff builds the tick's diff and clears both dirty sets. Cells are
// ordered by (y, x), players by id.
func (w *World) flushDiff() *DiffMessage {
	if !w.grid.HasChanges() && w.diff.empty() {
		return nil
	}

	changed := w.grid.TakeChanged()
	sort.Slice(changed, func(i, j int) bool {
		if changed[i].Y != changed[j].Y {
			return changed[i].Y < changed[j].Y
		}
		return changed[i].X < changed[j].X
	})
	cells := make([]CellUpdate, 0, len(changed))
	for _, p := range changed {
		cells = append(cells, CellUpdate{X: p.X, Y: p.Y, Value: w.grid.At(p.X, p.Y)})
	}

	players := make([]PlayerState, 0, len(w.diff.players)+len(w.diff.departed))
	for id := range w.diff.players {
		if p, ok := w.players[id]; ok {
			players = append(players, p.Snapshot())
		}
	}
	var departed []string
	for id, state := range w.diff.departed {
		players = append(players, state)
		departed = append(departed, id)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	sort.Strings(departed)
	w.diff.reset()

	msg := &DiffMessage{
		Type:           MessageTypeDiff,
		Tick:           w.tick,
		UpdatedCells:   cells,
		UpdatedPlayers: players,
		Departed:       departed,
	}
	if w.cfg.IncludeScores {
		msg.Scores = w.scores()
	}
	return msg
}

// InitFor returns the full state addressed to playerID, or nil when the
// player is no longer in the roster.
func (w *World) InitFor(playerID string) *InitMessage {
	if _, ok := w.players[playerID]; !ok {
		return nil
	}
	msg := w.fullState(MessageTypeInit)
	msg.PlayerID = playerID
	return msg
}

// Snapshot returns the full state without an addressee.
func (w *World) Snapshot() *InitMessage {
	return w.fullState(MessageTypeState)
}

func (w *World) fullState(kind string) *InitMessage {
	sorted := w.sortedPlayers()
	players := make([]PlayerState, len(sorted))
	for i, p := range sorted {
		players[i] = p.Snapshot()
	}
	return &InitMessage{
		Type:    kind,
		Tick:    w.tick,
		Width:   w.grid.Width,
		Height:  w.grid.Height,
		Grid:    w.grid.Rows(),
		Players: players,
		Scores:  w.scores(),
	}
}
