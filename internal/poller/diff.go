package poller

import "karolbroda.com/lyrsync/internal/event"

// MinPositionDeltaMs is the forward movement a playing player must report
// between two ticks before a PositionChanged event is emitted. Backward or
// smaller movement emits nothing; the next forward-advancing tick resyncs.
const MinPositionDeltaMs = 500

// Diff compares two consecutive snapshots and returns the ordered change
// events between them. Appearances come first (with synthetic track and
// status events so late-joining consumers catch up immediately), then
// disappearances, then per-player changes. Events for one identity are
// always in this relative order; no ordering holds across identities.
func Diff(prev, cur Snapshot) []event.Event {
	var events []event.Event

	for _, identity := range cur.Order {
		if prev.Contains(identity) {
			continue
		}
		state := cur.Players[identity]

		events = append(events, event.Event{Type: event.PlayerAppeared, Player: identity})
		if state.Track != nil {
			events = append(events, event.Event{Type: event.TrackChanged, Player: identity, Track: state.Track})
		}
		if state.Status != event.StatusUnknown {
			events = append(events, event.Event{Type: event.PlaybackStatusChanged, Player: identity, Status: state.Status})
		}
	}

	for _, identity := range prev.Order {
		if !cur.Contains(identity) {
			events = append(events, event.Event{Type: event.PlayerDisappeared, Player: identity})
		}
	}

	for _, identity := range cur.Order {
		old, ok := prev.Players[identity]
		if !ok {
			continue
		}
		events = append(events, diffPlayer(identity, old, cur.Players[identity])...)
	}

	return events
}

func diffPlayer(identity string, old, cur PlayerState) []event.Event {
	var events []event.Event

	if cur.Track != nil && !cur.Track.IsSameTrack(old.Track) {
		events = append(events, event.Event{Type: event.TrackChanged, Player: identity, Track: cur.Track})
	}

	if cur.Status != event.StatusUnknown && cur.Status != old.Status {
		events = append(events, event.Event{Type: event.PlaybackStatusChanged, Player: identity, Status: cur.Status})
	}

	if cur.Status == event.StatusPlaying && cur.PositionMs > old.PositionMs+MinPositionDeltaMs {
		events = append(events, event.Event{Type: event.PositionChanged, Player: identity, PositionMs: cur.PositionMs})
	}

	return events
}
