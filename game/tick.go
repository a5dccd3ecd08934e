package game

import "time"

// Joined reports a player admitted this tick; its session is owed an init.
type Joined struct {
	PlayerID string
	Session  Session
}

// Rejection reports a join that could not be placed.
type Rejection struct {
	PlayerID string
	Session  Session
	Err      error
}

// StepResult is what one tick hands back to the network side.
type StepResult struct {
	Tick     uint64
	Joined   []Joined
	Rejected []Rejection
	Left     []string
	Diff     *DiffMessage // nil when nothing changed
}

// Step advances the world by one tick at now: apply actions in arrival
// order, detonate expired bombs, clear expired explosions, refill crates,
// then flush the diff.
func (w *World) Step(now time.Time, actions []Action) StepResult {
	w.tick++
	res := StepResult{Tick: w.tick}

	for _, action := range actions {
		w.apply(now, action, &res)
	}
	w.detonateExpired(now)
	w.clearExpired(now)
	w.refillCrates(now)

	res.Diff = w.flushDiff()
	return res
}

// refillCrates tops crates back up to the high-water mark once the count has
// fallen below the low-water mark and the refill interval has elapsed.
func (w *World) refillCrates(now time.Time) {
	if w.cfg.CrateRefillInterval <= 0 {
		return
	}
	if w.lastRefill.IsZero() {
		w.lastRefill = now
		return
	}
	if now.Sub(w.lastRefill) < w.cfg.CrateRefillInterval {
		return
	}
	w.lastRefill = now

	total := float64(w.grid.Width * w.grid.Height)
	count := w.grid.Count(Crate)
	if float64(count) >= total*w.cfg.CrateLowWater {
		return
	}
	target := int(total * w.cfg.CrateHighWater)
	added := 0
	for count < target {
		pos, err := w.findSpawn()
		if err != nil {
			break
		}
		w.grid.SetCell(pos.X, pos.Y, Crate)
		count++
		added++
	}
	w.logger.Debug("crates refilled", "tick", w.tick, "added", added, "crates", count)
}
