package bollywood

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// process is the running instance of an actor: its mailbox and run loop.
type process struct {
	engine   *Engine
	pid      *PID
	actor    Actor
	mailbox  chan *messageEnvelope
	props    *Props
	stopCh   chan struct{}
	stopOnce sync.Once
	stopped  atomic.Bool
}

func newProcess(engine *Engine, pid *PID, props *Props) *process {
	return &process{
		engine:  engine,
		pid:     pid,
		props:   props,
		mailbox: make(chan *messageEnvelope, props.mailboxSize),
		stopCh:  make(chan struct{}),
	}
}

func (p *process) signalStop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

// sendMessage enqueues without blocking. User messages to a stopped actor
// and messages that do not fit in the mailbox are dropped.
func (p *process) sendMessage(message interface{}, sender *PID) {
	if p.stopped.Load() && !isSystemMessage(message) {
		return
	}

	envelope := &messageEnvelope{
		Sender:  sender,
		Message: message,
	}

	select {
	case p.mailbox <- envelope:
	default:
		if !p.engine.stopping.Load() {
			p.engine.logger.Warn("mailbox full, dropping message", "actor", p.pid.ID, "type", fmt.Sprintf("%T", message))
		}
	}
}

func (p *process) run() {
	var stoppingInvoked bool

	defer func() {
		p.stopped.Store(true)
		defer func() {
			if r := recover(); r != nil {
				p.engine.logger.Error("actor panicked during Stopped", "actor", p.pid.ID, "panic", r)
			}
			p.engine.remove(p.pid)
		}()
		if p.actor != nil {
			if !stoppingInvoked {
				p.invokeReceive(Stopping{}, nil)
			}
			p.invokeReceive(Stopped{}, nil)
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			p.engine.logger.Error("actor panicked", "actor", p.pid.ID, "panic", r, "stack", string(debug.Stack()))
			p.signalStop()
		}
	}()

	p.actor = p.props.Produce()
	if p.actor == nil {
		panic(fmt.Sprintf("actor %s producer returned nil actor", p.pid.ID))
	}
	p.invokeReceive(Started{}, nil)

	for {
		select {
		case <-p.stopCh:
			if p.stopped.CompareAndSwap(false, true) && !stoppingInvoked {
				p.invokeReceive(Stopping{}, nil)
				stoppingInvoked = true
			}
			return

		case envelope := <-p.mailbox:
			switch msg := envelope.Message.(type) {
			case Started, Stopped:
				// Delivered by the run loop itself.
			case Stopping:
				if p.stopped.CompareAndSwap(false, true) {
					p.invokeReceive(msg, envelope.Sender)
					stoppingInvoked = true
				}
				p.signalStop()
			default:
				if p.stopped.Load() {
					continue
				}
				p.invokeReceive(envelope.Message, envelope.Sender)
			}
		}
	}
}

// invokeReceive calls the actor's Receive method, recovering from panics so a
// single bad message never kills the actor.
func (p *process) invokeReceive(msg interface{}, sender *PID) {
	ctx := &context{
		engine:  p.engine,
		self:    p.pid,
		sender:  sender,
		message: msg,
	}

	defer func() {
		if r := recover(); r != nil {
			p.engine.logger.Error("actor panicked during Receive",
				"actor", p.pid.ID,
				"type", fmt.Sprintf("%T", msg),
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	p.actor.Receive(ctx)
}
