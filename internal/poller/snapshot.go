package poller

import (
	"karolbroda.com/lyrsync/internal/event"
	"karolbroda.com/lyrsync/internal/track"
)

// PlayerState is one player's state as captured during a single poll tick.
// Owned by the collector; everything downstream reads copies.
type PlayerState struct {
	Status     event.PlaybackStatus
	Track      *track.Info
	PositionMs int64
}

// Snapshot is the complete set of visible, non-blacklisted players at one
// tick. Order records discovery order so "first playing player" style
// decisions stay deterministic across runs of the same sequence.
type Snapshot struct {
	Players map[string]PlayerState
	Order   []string
}

func NewSnapshot() Snapshot {
	return Snapshot{Players: make(map[string]PlayerState)}
}

func (s Snapshot) Contains(identity string) bool {
	_, ok := s.Players[identity]
	return ok
}

func (s Snapshot) Empty() bool {
	return len(s.Players) == 0
}

func (s *Snapshot) add(identity string, state PlayerState) {
	if _, ok := s.Players[identity]; ok {
		return
	}
	s.Players[identity] = state
	s.Order = append(s.Order, identity)
}

// classify splits the snapshot into status buckets, preserving discovery order.
func (s Snapshot) classify() (playing, paused []string) {
	for _, identity := range s.Order {
		switch s.Players[identity].Status {
		case event.StatusPlaying:
			playing = append(playing, identity)
		case event.StatusPaused:
			paused = append(paused, identity)
		}
	}
	return playing, paused
}
