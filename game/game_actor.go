// File: game/game_actor.go
package game

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/lguibr/bombgrid/bollywood"
	"github.com/lguibr/bombgrid/utils"
)

// GameActor owns the World. It drains the action queue once per GameTick and
// hands the results to its BroadcasterActor.
type GameActor struct {
	cfg       utils.Config
	world     *World
	queue     *ActionQueue
	respawns  *RespawnScheduler
	snapshots *Snapshots
	engine    *bollywood.Engine
	logger    *slog.Logger
	clock     func() time.Time

	selfPID        *bollywood.PID
	broadcasterPID *bollywood.PID
	manualTicks    bool
	ticker         *time.Ticker
	stopTickerCh   chan struct{}
}

// GameActorArgs wires a GameActor. Engine, Config and Queue are required.
type GameActorArgs struct {
	Engine    *bollywood.Engine
	Config    utils.Config
	Queue     *ActionQueue
	Snapshots *Snapshots
	Logger    *slog.Logger

	Rand   *rand.Rand
	Grid   *Grid
	Timers TimerFunc
	Clock  func() time.Time

	// Broadcaster, when set, replaces the broadcaster spawned on start.
	Broadcaster *bollywood.PID
	// ManualTicks disables the internal ticker; ticks arrive as *GameTick.
	ManualTicks bool
}

// NewGameActorProducer creates a producer for the GameActor.
func NewGameActorProducer(args GameActorArgs) bollywood.Producer {
	return func() bollywood.Actor {
		logger := args.Logger
		if logger == nil {
			logger = args.Engine.Logger()
		}
		logger = logger.With("actor", "game")
		clock := args.Clock
		if clock == nil {
			clock = time.Now
		}
		snapshots := args.Snapshots
		if snapshots == nil {
			snapshots = &Snapshots{}
		}

		respawns := NewRespawnScheduler(args.Queue, args.Config.RespawnDelay, args.Timers, logger)
		opts := []WorldOption{WithRespawner(respawns), WithWorldLogger(logger)}
		if args.Rand != nil {
			opts = append(opts, WithRand(args.Rand))
		}
		if args.Grid != nil {
			opts = append(opts, WithGrid(args.Grid))
		}

		a := &GameActor{
			cfg:            args.Config,
			world:          NewWorld(args.Config, opts...),
			queue:          args.Queue,
			respawns:       respawns,
			snapshots:      snapshots,
			engine:         args.Engine,
			logger:         logger,
			clock:          clock,
			broadcasterPID: args.Broadcaster,
			manualTicks:    args.ManualTicks,
			stopTickerCh:   make(chan struct{}),
		}
		a.publishSnapshot()
		return a
	}
}

// Receive is the main message handler for the GameActor.
func (a *GameActor) Receive(ctx bollywood.Context) {
	switch m := ctx.Message().(type) {
	case bollywood.Started:
		a.selfPID = ctx.Self()
		if a.broadcasterPID == nil {
			a.broadcasterPID = a.engine.Spawn(bollywood.NewProps(NewBroadcasterProducer(a.selfPID, a.logger)))
		}
		if !a.manualTicks {
			a.ticker = time.NewTicker(a.cfg.TickPeriod)
			go a.runTickerLoop(a.selfPID, a.ticker.C)
		}
		a.logger.Info("game started", "width", a.world.grid.Width, "height", a.world.grid.Height, "tick_period", a.cfg.TickPeriod)

	case *GameTick:
		a.step(a.clock())

	case ResyncSession:
		a.sendInit(m.PlayerID)

	case bollywood.Stopping:
		a.stopTicker()
		a.respawns.Stop()
		if a.broadcasterPID != nil {
			a.engine.Stop(a.broadcasterPID)
		}
		a.logger.Info("game stopping", "tick", a.world.Tick(), "players", a.world.PlayerCount())

	case bollywood.Stopped:

	default:
		a.logger.Warn("unknown message", "type", fmt.Sprintf("%T", m))
	}
}

// runTickerLoop sends GameTick messages to the actor's own mailbox at
// regular intervals.
func (a *GameActor) runTickerLoop(self *bollywood.PID, ticks <-chan time.Time) {
	for {
		select {
		case <-a.stopTickerCh:
			return
		case <-ticks:
			a.engine.Send(self, &GameTick{}, nil)
		}
	}
}

func (a *GameActor) stopTicker() {
	if a.ticker != nil {
		a.ticker.Stop()
	}
	select {
	case <-a.stopTickerCh:
	default:
		close(a.stopTickerCh)
	}
}

func (a *GameActor) step(now time.Time) {
	res := a.world.Step(now, a.queue.Drain())

	for _, r := range res.Rejected {
		if r.Session != nil {
			_ = r.Session.Close()
		}
	}
	for _, j := range res.Joined {
		if j.Session == nil {
			continue
		}
		a.engine.Send(a.broadcasterPID, AddSession{Session: j.Session}, a.selfPID)
		a.sendInit(j.PlayerID)
	}
	for _, id := range res.Left {
		a.engine.Send(a.broadcasterPID, RemoveSession{PlayerID: id}, a.selfPID)
	}
	if res.Diff == nil {
		return
	}

	payload, err := json.Marshal(res.Diff)
	if err != nil {
		a.logger.Error("encode diff", "tick", res.Tick, "err", err)
		return
	}
	a.engine.Send(a.broadcasterPID, BroadcastPayload{Payload: payload}, a.selfPID)
	a.publishSnapshot()
}

func (a *GameActor) sendInit(playerID string) {
	init := a.world.InitFor(playerID)
	if init == nil {
		return
	}
	payload, err := json.Marshal(init)
	if err != nil {
		a.logger.Error("encode init", "player", playerID, "err", err)
		return
	}
	a.engine.Send(a.broadcasterPID, SendToSession{PlayerID: playerID, Payload: payload}, a.selfPID)
}

func (a *GameActor) publishSnapshot() {
	if err := a.snapshots.Store(a.world.Snapshot()); err != nil {
		a.logger.Error("encode snapshot", "err", err)
	}
}
