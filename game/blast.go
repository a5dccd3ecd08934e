package game

import "time"

// detonateExpired resolves every bomb whose fuse has run out, including those
// whose fuse a blast cut short earlier in the same pass. Each pass takes the
// oldest expired bomb, so resolution order follows placement order.
func (w *World) detonateExpired(now time.Time) {
	for {
		idx := -1
		for i, b := range w.bombs {
			if !b.DetonateAt.After(now) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}
		b := w.bombs[idx]
		w.bombs = append(w.bombs[:idx], w.bombs[idx+1:]...)
		w.detonate(now, b)
	}
}

// detonate blasts the origin, then casts a ray in each axis direction. A ray
// stops before a Wall and after the first Crate or Bomb it consumes.
func (w *World) detonate(now time.Time, b *BombRecord) {
	owner := w.players[b.OwnerID]
	power := b.FirePower
	if owner != nil {
		if owner.ActiveBombs > 0 {
			owner.ActiveBombs--
		}
		power = owner.FirePower
	}

	w.blastTile(now, b.Pos, owner)
	for _, d := range directions {
		for step := 1; step <= power; step++ {
			p := b.Pos.Add(d[0]*step, d[1]*step)
			prior := w.grid.At(p.X, p.Y)
			if prior == Wall {
				break
			}
			stops := prior == Crate || prior == Bomb || w.bombAt(p) != nil
			w.blastTile(now, p, owner)
			if stops {
				break
			}
		}
	}
}

// blastTile triggers any bomb on p, decides the reveal, burns the tile and
// eliminates the living players standing on it.
func (w *World) blastTile(now time.Time, p Position, owner *Player) {
	if other := w.bombAt(p); other != nil && other.DetonateAt.After(now) {
		other.DetonateAt = now
	}

	clearAt := now.Add(w.cfg.ExplosionDuration)
	if ex, burning := w.explosions[p]; burning {
		if clearAt.After(ex.ClearAt) {
			ex.ClearAt = clearAt
		}
	} else {
		reveal := Empty
		if w.grid.At(p.X, p.Y) == Crate {
			reveal = w.rollReveal()
		}
		w.explosions[p] = &ExplosionRecord{Pos: p, Reveal: reveal, ClearAt: clearAt}
	}
	w.grid.SetCell(p.X, p.Y, Explosion)

	for _, victim := range w.players {
		if victim.Alive && victim.Pos == p {
			w.eliminate(victim, owner)
		}
	}
}

// rollReveal draws once: the fire chance, then the bomb chance, else Empty.
func (w *World) rollReveal() Cell {
	r := w.rng.Float64()
	switch {
	case r < w.cfg.PowerupFireChance:
		return PowerupFire
	case r < w.cfg.PowerupFireChance+w.cfg.PowerupBombChance:
		return PowerupBomb
	default:
		return Empty
	}
}

func (w *World) eliminate(victim, owner *Player) {
	victim.Alive = false
	victim.Deaths++
	w.diff.markPlayer(victim.ID)
	if owner != nil && owner != victim {
		owner.Kills++
		w.diff.markPlayer(owner.ID)
	}
	w.logger.Debug("player eliminated", "tick", w.tick, "player", victim.ID, "deaths", victim.Deaths)
	w.respawner.Schedule(victim.ID, victim.Deaths)
}

// clearExpired restores every burnt-out tile to its reveal value.
func (w *World) clearExpired(now time.Time) {
	for pos, ex := range w.explosions {
		if ex.ClearAt.After(now) {
			continue
		}
		w.grid.SetCell(pos.X, pos.Y, ex.Reveal)
		delete(w.explosions, pos)
	}
}
