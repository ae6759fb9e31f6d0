// Package arbiter decides which single player is "active" from the possibly
// contradictory per-player reports in a snapshot. It owns the active pointer;
// everything else only reads it.
package arbiter

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"karolbroda.com/lyrsync/internal/event"
)

// DefaultRecencyWindow is how long after a position update a non-playing
// status report is still overridden to "playing" for selection purposes.
const DefaultRecencyWindow = 2500 * time.Millisecond

type Arbiter struct {
	logger *zap.Logger

	mu     sync.RWMutex
	active string
	// manual mode never preempts an existing active player; reassignment
	// only happens through Switch or when the active player vanishes.
	manual bool

	// lastPosition records when each identity last advanced its position.
	// Used to treat misreporting players as playing while updates keep
	// arriving; the override lapses naturally once they stop.
	lastPosition map[string]time.Time
	window       time.Duration

	now func() time.Time
}

type Option func(*Arbiter)

// WithClock substitutes the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Arbiter) { a.now = now }
}

func WithRecencyWindow(window time.Duration) Option {
	return func(a *Arbiter) { a.window = window }
}

func New(logger *zap.Logger, manual bool, opts ...Option) *Arbiter {
	a := &Arbiter{
		logger:       logger,
		manual:       manual,
		lastPosition: make(map[string]time.Time),
		window:       DefaultRecencyWindow,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Active returns the current active identity, or "" when none is set.
func (a *Arbiter) Active() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active
}

// Observe feeds diff events into the recency bookkeeping. Position updates
// refresh the identity's playing inference; a disappearance drops it.
func (a *Arbiter) Observe(ev event.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch ev.Type {
	case event.PositionChanged:
		a.lastPosition[ev.Player] = a.now()
	case event.PlayerDisappeared:
		delete(a.lastPosition, ev.Player)
	}
}

// Evaluate recomputes the active pointer for one tick and returns an
// ActivePlayerChanged event when, and only when, the pointer actually moved
// to a different identity. The pointer itself is always brought in line with
// the snapshot: an identity no longer visible is never kept.
func (a *Arbiter) Evaluate(visible, playing, paused []string) *event.Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	effective := a.effectivePlaying(visible, playing)

	chosen := a.active
	switch {
	case a.active != "" && !contains(visible, a.active):
		// active vanished, both modes must replace it
		chosen = selectActive(visible, effective, paused)
	case a.manual:
		if a.active == "" {
			chosen = selectActive(visible, effective, paused)
		}
	default:
		chosen = selectActive(visible, effective, paused)
	}

	if chosen == a.active {
		return nil
	}

	previous := a.active
	a.active = chosen
	if chosen == "" {
		a.logger.Info("active player cleared", zap.String("previous", previous))
		return nil
	}

	status := a.statusReason(chosen, effective, paused)
	a.logger.Info("active player changed",
		zap.String("previous", previous),
		zap.String("active", chosen),
		zap.String("status", status.String()))

	return &event.Event{Type: event.ActivePlayerChanged, Player: chosen, Status: status}
}

// Switch is the explicit user-driven reassignment path. It only accepts
// identities present in the latest snapshot and emits a change event unless
// the identity is already active.
func (a *Arbiter) Switch(identity string, visible, playing, paused []string) *event.Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !contains(visible, identity) {
		a.logger.Warn("switch request for unknown player", zap.String("player", identity))
		return nil
	}
	if identity == a.active {
		return nil
	}

	a.active = identity
	status := a.statusReason(identity, a.effectivePlaying(visible, playing), paused)
	a.logger.Info("active player switched", zap.String("active", identity))

	return &event.Event{Type: event.ActivePlayerChanged, Player: identity, Status: status}
}

// effectivePlaying extends the reported playing list with identities whose
// position advanced within the recency window. The underlying snapshot is
// never rewritten; the override only biases selection.
func (a *Arbiter) effectivePlaying(visible, playing []string) []string {
	cutoff := a.now().Add(-a.window)

	effective := append([]string(nil), playing...)
	for _, identity := range visible {
		if contains(playing, identity) {
			continue
		}
		if last, ok := a.lastPosition[identity]; ok && last.After(cutoff) {
			effective = append(effective, identity)
		}
	}
	return effective
}

func (a *Arbiter) statusReason(identity string, playing, paused []string) event.PlaybackStatus {
	switch {
	case contains(playing, identity):
		return event.StatusPlaying
	case contains(paused, identity):
		return event.StatusPaused
	default:
		return event.StatusStopped
	}
}

// selectActive is the pure priority rule: first playing, else first paused,
// else any visible player, else none.
func selectActive(visible, playing, paused []string) string {
	if len(playing) > 0 {
		return playing[0]
	}
	if len(paused) > 0 {
		return paused[0]
	}
	if len(visible) > 0 {
		return visible[0]
	}
	return ""
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
