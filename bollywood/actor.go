package bollywood

// Actor is the interface that defines actor behavior.
// Actors process messages sequentially received from their mailbox.
type Actor interface {
	// Receive processes incoming messages. The context exposes the engine,
	// the actor's own PID, the sender and the message itself.
	Receive(ctx Context)
}
