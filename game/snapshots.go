package game

import (
	"encoding/json"
	"sync/atomic"
)

// Snapshot is the published full state plus its encoded form.
type Snapshot struct {
	State *InitMessage
	JSON  []byte
}

// Snapshots publishes the latest world state to HTTP readers without
// touching the world itself.
type Snapshots struct {
	current atomic.Pointer[Snapshot]
}

// Store encodes and publishes state.
func (s *Snapshots) Store(state *InitMessage) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.current.Store(&Snapshot{State: state, JSON: data})
	return nil
}

// Load returns the latest snapshot, or nil before the first Store.
func (s *Snapshots) Load() *Snapshot {
	return s.current.Load()
}
