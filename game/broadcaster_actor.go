// File: game/broadcaster_actor.go
package game

import (
	"fmt"
	"log/slog"

	"github.com/lguibr/bombgrid/bollywood"
)

// BroadcasterActor fans payloads out to the registered sessions. Sessions
// queue without blocking, so a slow client never stalls the tick.
type BroadcasterActor struct {
	sessions     map[string]Session
	resyncing    map[string]bool
	selfPID      *bollywood.PID
	gameActorPID *bollywood.PID
	logger       *slog.Logger
}

// NewBroadcasterProducer creates a producer for BroadcasterActor.
func NewBroadcasterProducer(gameActorPID *bollywood.PID, logger *slog.Logger) bollywood.Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return func() bollywood.Actor {
		return &BroadcasterActor{
			sessions:     make(map[string]Session),
			resyncing:    make(map[string]bool),
			gameActorPID: gameActorPID,
			logger:       logger.With("actor", "broadcaster"),
		}
	}
}

// Receive handles messages for the BroadcasterActor.
func (a *BroadcasterActor) Receive(ctx bollywood.Context) {
	switch msg := ctx.Message().(type) {
	case bollywood.Started:
		a.selfPID = ctx.Self()

	case AddSession:
		if msg.Session != nil {
			a.sessions[msg.Session.ID()] = msg.Session
		}

	case RemoveSession:
		if s, ok := a.sessions[msg.PlayerID]; ok {
			delete(a.sessions, msg.PlayerID)
			delete(a.resyncing, msg.PlayerID)
			_ = s.Close()
		}

	case SendToSession:
		// An init supersedes anything older it may push out of the outbox.
		if s, ok := a.sessions[msg.PlayerID]; ok {
			s.Send(msg.Payload)
			delete(a.resyncing, msg.PlayerID)
		}

	case BroadcastPayload:
		a.broadcast(ctx, msg.Payload)

	case bollywood.Stopping:
		a.logger.Info("closing sessions", "sessions", len(a.sessions))
		for id, s := range a.sessions {
			_ = s.Close()
			delete(a.sessions, id)
		}

	case bollywood.Stopped:

	default:
		a.logger.Warn("unknown message", "type", fmt.Sprintf("%T", msg))
	}
}

// broadcast sends payload everywhere. A session that had to discard a queued
// diff has lost sync and is sent a fresh init once.
func (a *BroadcasterActor) broadcast(ctx bollywood.Context, payload []byte) {
	for id, s := range a.sessions {
		if s.Send(payload) || a.resyncing[id] {
			continue
		}
		a.resyncing[id] = true
		a.logger.Debug("session overflowed, requesting resync", "player", id)
		if a.gameActorPID != nil {
			ctx.Engine().Send(a.gameActorPID, ResyncSession{PlayerID: id}, a.selfPID)
		}
	}
}
