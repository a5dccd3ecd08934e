package game

// Action is an intent applied by the tick engine. Client intents come from
// the network layer; system actions are generated by the server itself.
type Action interface {
	system() bool
}

// JoinAction adds a player bound to Session.
type JoinAction struct {
	PlayerID string
	Color    string
	Session  Session
}

// LeaveAction removes a player whose session ended.
type LeaveAction struct {
	PlayerID string
}

// MoveAction asks to step the player by (DX, DY).
type MoveAction struct {
	PlayerID string
	DX, DY   int
}

// PlaceBombAction asks to drop a bomb on the player's tile.
type PlaceBombAction struct {
	PlayerID string
}

// RespawnAction revives a player eliminated for the Epoch-th time.
type RespawnAction struct {
	PlayerID string
	Epoch    int
}

// DetonateAction forces a live bomb's fuse to expire on this tick.
type DetonateAction struct {
	BombID BombID
}

func (JoinAction) system() bool      { return false }
func (MoveAction) system() bool      { return false }
func (PlaceBombAction) system() bool { return false }
func (LeaveAction) system() bool     { return true }
func (RespawnAction) system() bool   { return true }
func (DetonateAction) system() bool  { return true }
