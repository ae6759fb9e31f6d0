package event

import "karolbroda.com/lyrsync/internal/track"

// PlaybackStatus is a player's reported transport state. StatusUnknown means
// the player did not answer the status query this tick.
type PlaybackStatus int

const (
	StatusUnknown PlaybackStatus = iota
	StatusPlaying
	StatusPaused
	StatusStopped
)

func (s PlaybackStatus) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Type discriminates the Event union.
type Type int

const (
	PlayerAppeared Type = iota
	PlayerDisappeared
	TrackChanged
	PlaybackStatusChanged
	PositionChanged
	ActivePlayerChanged
	NoPlayersAvailable
)

func (t Type) String() string {
	switch t {
	case PlayerAppeared:
		return "player_appeared"
	case PlayerDisappeared:
		return "player_disappeared"
	case TrackChanged:
		return "track_changed"
	case PlaybackStatusChanged:
		return "playback_status_changed"
	case PositionChanged:
		return "position_changed"
	case ActivePlayerChanged:
		return "active_player_changed"
	case NoPlayersAvailable:
		return "no_players_available"
	default:
		return "unknown"
	}
}

// Event is one change observed between two snapshots, or an arbiter decision.
// Events are immutable once constructed; Track is shared read-only.
type Event struct {
	Type   Type
	Player string

	// Status is set for PlaybackStatusChanged and ActivePlayerChanged.
	Status PlaybackStatus
	// Track is set for TrackChanged.
	Track *track.Info
	// PositionMs is set for PositionChanged.
	PositionMs int64
}
