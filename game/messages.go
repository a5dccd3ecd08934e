// File: game/messages.go
package game

// --- Client -> Server ---

// ClientMessage is every frame a client may send. Fields not used by Type
// are ignored.
type ClientMessage struct {
	Type  string `json:"type"` // "join", "move" or "bomb"
	Color string `json:"color,omitempty"`
	DX    *int   `json:"dx,omitempty"`
	DY    *int   `json:"dy,omitempty"`
}

const (
	ClientJoin = "join"
	ClientMove = "move"
	ClientBomb = "bomb"
)

// Action converts a decoded frame into the intent of playerID. It reports
// false for frames that carry no valid intent.
func (m ClientMessage) Action(playerID string) (Action, bool) {
	switch m.Type {
	case ClientMove:
		if m.DX == nil || m.DY == nil {
			return nil, false
		}
		return MoveAction{PlayerID: playerID, DX: *m.DX, DY: *m.DY}, true
	case ClientBomb:
		return PlaceBombAction{PlayerID: playerID}, true
	default:
		return nil, false
	}
}

// --- Internal Actor Messages ---

// GameTick drives one simulation step.
type GameTick struct{}

// ResyncSession asks the game actor for a fresh init for a session whose
// outbox overflowed.
type ResyncSession struct {
	PlayerID string
}

// AddSession registers a session with the broadcaster.
type AddSession struct {
	Session Session
}

// RemoveSession unregisters and closes a session.
type RemoveSession struct {
	PlayerID string
}

// SendToSession delivers payload to a single session.
type SendToSession struct {
	PlayerID string
	Payload  []byte
}

// BroadcastPayload delivers payload to every registered session.
type BroadcastPayload struct {
	Payload []byte
}
