package game

import (
	"fmt"
	"time"

	"github.com/lguibr/bombgrid/utils"
)

// apply runs one action. A panicking handler is logged and dropped so the
// rest of the tick proceeds.
func (w *World) apply(now time.Time, action Action, res *StepResult) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("action dropped", "tick", w.tick, "action", fmt.Sprintf("%T", action), "err", r)
		}
	}()

	switch a := action.(type) {
	case JoinAction:
		w.join(a, res)
	case LeaveAction:
		w.leave(a, res)
	case MoveAction:
		w.move(now, a)
	case PlaceBombAction:
		w.placeBomb(now, a)
	case RespawnAction:
		w.respawn(a)
	case DetonateAction:
		w.forceDetonate(now, a)
	default:
		w.logger.Warn("unknown action", "tick", w.tick, "action", fmt.Sprintf("%T", action))
	}
}

func (w *World) join(a JoinAction, res *StepResult) {
	if _, exists := w.players[a.PlayerID]; exists || a.PlayerID == "" {
		return
	}
	pos, err := w.findSpawn()
	if err != nil {
		w.logger.Warn("join rejected", "player", a.PlayerID, "err", err)
		res.Rejected = append(res.Rejected, Rejection{PlayerID: a.PlayerID, Session: a.Session, Err: err})
		return
	}
	p := &Player{
		ID:        a.PlayerID,
		Session:   a.Session,
		Color:     utils.NormalizeColor(a.Color, w.rng),
		Pos:       pos,
		Alive:     true,
		FirePower: w.cfg.DefaultFirePower,
		MaxBombs:  w.cfg.DefaultMaxBombs,
	}
	w.players[p.ID] = p
	w.diff.markPlayer(p.ID)
	res.Joined = append(res.Joined, Joined{PlayerID: p.ID, Session: a.Session})
	w.logger.Info("player joined", "player", p.ID, "x", pos.X, "y", pos.Y)
}

func (w *World) leave(a LeaveAction, res *StepResult) {
	p, ok := w.players[a.PlayerID]
	if !ok {
		return
	}
	delete(w.players, a.PlayerID)
	departed := p.Snapshot()
	departed.Alive = false
	w.diff.markDeparted(departed)
	res.Left = append(res.Left, a.PlayerID)
	w.logger.Info("player left", "player", a.PlayerID)
}

func (w *World) move(now time.Time, a MoveAction) {
	p, ok := w.players[a.PlayerID]
	if !ok || !p.Alive {
		return
	}
	if utils.Abs(a.DX)+utils.Abs(a.DY) != 1 {
		return
	}
	target := p.Pos.Add(a.DX, a.DY)
	if !w.grid.InBounds(target.X, target.Y) {
		return
	}
	if !p.LastMoveAt.IsZero() && now.Sub(p.LastMoveAt) < w.cfg.MoveCooldown {
		return
	}
	cell := w.grid.At(target.X, target.Y)
	if cell.Blocks() {
		return
	}

	switch cell {
	case PowerupFire:
		p.FirePower++
		w.grid.SetCell(target.X, target.Y, Empty)
	case PowerupBomb:
		p.MaxBombs++
		w.grid.SetCell(target.X, target.Y, Empty)
	}
	p.Pos = target
	p.LastMoveAt = now
	w.diff.markPlayer(p.ID)
}

func (w *World) placeBomb(now time.Time, a PlaceBombAction) {
	p, ok := w.players[a.PlayerID]
	if !ok || !p.Alive || p.ActiveBombs >= p.MaxBombs {
		return
	}
	if w.grid.At(p.Pos.X, p.Pos.Y) != Empty {
		return
	}
	w.grid.SetCell(p.Pos.X, p.Pos.Y, Bomb)
	w.nextBombID++
	w.bombs = append(w.bombs, &BombRecord{
		ID:         w.nextBombID,
		Pos:        p.Pos,
		OwnerID:    p.ID,
		FirePower:  p.FirePower,
		DetonateAt: now.Add(w.cfg.BombFuse),
	})
	p.ActiveBombs++
}

// respawn applies only to the elimination it was scheduled for. With no free
// tile the attempt is rescheduled.
func (w *World) respawn(a RespawnAction) {
	p, ok := w.players[a.PlayerID]
	if !ok || p.Alive || p.Deaths != a.Epoch {
		return
	}
	pos, err := w.findSpawn()
	if err != nil {
		w.logger.Warn("respawn deferred", "player", p.ID, "err", err)
		w.respawner.Schedule(p.ID, a.Epoch)
		return
	}
	p.Pos = pos
	p.Alive = true
	w.diff.markPlayer(p.ID)
}

func (w *World) forceDetonate(now time.Time, a DetonateAction) {
	for _, b := range w.bombs {
		if b.ID == a.BombID {
			if b.DetonateAt.After(now) {
				b.DetonateAt = now
			}
			return
		}
	}
}
