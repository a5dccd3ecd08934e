package game

import "time"

// BombID identifies a placed bomb for the lifetime of the world.
type BombID uint64

// BombRecord drives one bomb's fuse. The owner is referenced by id only, so a
// departed owner leaves the bomb live without keeping the player around.
type BombRecord struct {
	ID         BombID
	Pos        Position
	OwnerID    string
	FirePower  int // Owner's fire power at placement, used once the owner has left
	DetonateAt time.Time
}

// ExplosionRecord keeps a burning tile until ClearAt, then restores Reveal.
type ExplosionRecord struct {
	Pos     Position
	Reveal  Cell
	ClearAt time.Time
}
