package game

// Session is the network handle of one connected player. Implementations
// must never block the caller.
type Session interface {
	// ID returns the identity allocated on join; it equals the player id.
	ID() string
	// Send queues payload for delivery. It returns false when an older
	// queued message had to be discarded to make room.
	Send(payload []byte) bool
	// Close ends the session. It is safe to call more than once.
	Close() error
}
