package bollywood

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Engine manages the lifecycle and message dispatching for actors.
type Engine struct {
	pidCounter uint64
	actors     map[string]*process
	mu         sync.RWMutex // Protects the actors map
	stopping   atomic.Bool
	logger     *slog.Logger
}

// EngineOption customises an Engine at construction time.
type EngineOption func(*Engine)

// WithLogger sets the logger used for runtime diagnostics.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a new actor engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		actors: make(map[string]*process),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Logger returns the engine's logger so actors can share it.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

func (e *Engine) nextPID() *PID {
	id := atomic.AddUint64(&e.pidCounter, 1)
	return &PID{ID: fmt.Sprintf("actor-%d", id)}
}

// Spawn creates and starts a new actor based on the provided Props.
// It returns nil when the engine is shutting down.
func (e *Engine) Spawn(props *Props) *PID {
	if e.stopping.Load() {
		e.logger.Warn("engine is stopping, cannot spawn new actors")
		return nil
	}

	pid := e.nextPID()
	proc := newProcess(e, pid, props)

	e.mu.Lock()
	e.actors[pid.ID] = proc
	e.mu.Unlock()

	// The process delivers Started itself before reading its mailbox.
	go proc.run()

	return pid
}

// Send delivers a message to the actor identified by the PID.
// sender can be nil if the message originates from outside the actor system.
// Send never blocks: a full mailbox drops the message.
func (e *Engine) Send(pid *PID, message interface{}, sender *PID) {
	if pid == nil {
		return
	}
	if e.stopping.Load() && !isSystemMessage(message) {
		return
	}

	e.mu.RLock()
	proc, ok := e.actors[pid.ID]
	e.mu.RUnlock()

	if !ok {
		e.logger.Debug("actor not found, dropping message", "actor", pid.ID, "type", fmt.Sprintf("%T", message))
		return
	}
	proc.sendMessage(message, sender)
}

// Stop requests an actor to stop. The actor processes Stopping, then
// Stopped once its goroutine exits. The stop channel is closed as well so
// the actor terminates even when its mailbox is full.
func (e *Engine) Stop(pid *PID) {
	if pid == nil {
		return
	}
	e.mu.RLock()
	proc, ok := e.actors[pid.ID]
	e.mu.RUnlock()

	if ok {
		proc.sendMessage(Stopping{}, nil)
		proc.signalStop()
	}
}

// Alive reports whether the actor is still registered with the engine.
func (e *Engine) Alive(pid *PID) bool {
	if pid == nil {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.actors[pid.ID]
	return ok
}

// remove is called by the process once it has fully stopped.
func (e *Engine) remove(pid *PID) {
	e.mu.Lock()
	delete(e.actors, pid.ID)
	e.mu.Unlock()
}

// Shutdown stops all actors and waits up to timeout for them to terminate.
func (e *Engine) Shutdown(timeout time.Duration) {
	if !e.stopping.CompareAndSwap(false, true) {
		e.logger.Warn("engine already shutting down")
		return
	}

	e.mu.RLock()
	pidsToStop := make([]*PID, 0, len(e.actors))
	for _, proc := range e.actors {
		pidsToStop = append(pidsToStop, proc.pid)
	}
	e.mu.RUnlock()

	e.logger.Info("engine shutdown initiated", "actors", len(pidsToStop))
	for _, pid := range pidsToStop {
		e.Stop(pid)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		e.mu.RLock()
		remaining := len(e.actors)
		e.mu.RUnlock()
		if remaining == 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	e.mu.Lock()
	if remaining := len(e.actors); remaining > 0 {
		ids := make([]string, 0, remaining)
		for id := range e.actors {
			ids = append(ids, id)
		}
		e.logger.Warn("engine shutdown timeout", "remaining", ids)
		e.actors = make(map[string]*process)
	}
	e.mu.Unlock()

	e.logger.Info("engine shutdown complete")
}
