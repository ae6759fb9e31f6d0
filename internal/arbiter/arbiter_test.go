package arbiter

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"karolbroda.com/lyrsync/internal/event"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestEvaluatePriority(t *testing.T) {
	tests := []struct {
		name    string
		visible []string
		playing []string
		paused  []string
		want    string
		status  event.PlaybackStatus
	}{
		{
			name:    "playing beats paused",
			visible: []string{"spotify", "mpv"},
			playing: []string{"mpv"},
			paused:  []string{"spotify"},
			want:    "mpv",
			status:  event.StatusPlaying,
		},
		{
			name:    "paused beats stopped",
			visible: []string{"spotify", "mpv"},
			paused:  []string{"mpv"},
			want:    "mpv",
			status:  event.StatusPaused,
		},
		{
			name:    "stopped player still selected",
			visible: []string{"spotify"},
			want:    "spotify",
			status:  event.StatusStopped,
		},
		{
			name:    "first playing in discovery order wins",
			visible: []string{"spotify", "mpv"},
			playing: []string{"spotify", "mpv"},
			want:    "spotify",
			status:  event.StatusPlaying,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(zap.NewNop(), false)
			ev := a.Evaluate(tt.visible, tt.playing, tt.paused)
			if ev == nil {
				t.Fatal("expected an active player change event")
			}
			if ev.Type != event.ActivePlayerChanged {
				t.Fatalf("event type = %v, want ActivePlayerChanged", ev.Type)
			}
			if ev.Player != tt.want {
				t.Errorf("active = %q, want %q", ev.Player, tt.want)
			}
			if ev.Status != tt.status {
				t.Errorf("status = %v, want %v", ev.Status, tt.status)
			}
			if a.Active() != tt.want {
				t.Errorf("Active() = %q, want %q", a.Active(), tt.want)
			}
		})
	}
}

func TestEvaluateEmitsOnlyOnChange(t *testing.T) {
	a := New(zap.NewNop(), false)

	if ev := a.Evaluate([]string{"spotify"}, []string{"spotify"}, nil); ev == nil {
		t.Fatal("first evaluation should emit")
	}
	if ev := a.Evaluate([]string{"spotify"}, []string{"spotify"}, nil); ev != nil {
		t.Fatalf("unchanged evaluation emitted %+v", ev)
	}
}

func TestEvaluateHandoffOnPause(t *testing.T) {
	a := New(zap.NewNop(), false)

	// A playing alone becomes active
	a.Evaluate([]string{"a", "b"}, []string{"a"}, []string{"b"})
	if a.Active() != "a" {
		t.Fatalf("active = %q, want a", a.Active())
	}

	// A pauses while B starts playing: exactly one handoff event to B
	ev := a.Evaluate([]string{"a", "b"}, []string{"b"}, []string{"a"})
	if ev == nil || ev.Player != "b" {
		t.Fatalf("expected handoff to b, got %+v", ev)
	}
	if ev := a.Evaluate([]string{"a", "b"}, []string{"b"}, []string{"a"}); ev != nil {
		t.Fatalf("steady state emitted %+v", ev)
	}
}

func TestEvaluateClearsWhenActiveVanishes(t *testing.T) {
	a := New(zap.NewNop(), false)
	a.Evaluate([]string{"spotify"}, []string{"spotify"}, nil)

	if ev := a.Evaluate(nil, nil, nil); ev != nil {
		t.Fatalf("empty snapshot emitted %+v", ev)
	}
	if a.Active() != "" {
		t.Errorf("Active() = %q, want empty", a.Active())
	}
}

func TestManualModeDoesNotPreempt(t *testing.T) {
	a := New(zap.NewNop(), true)

	// manual mode still picks an initial player when none is set
	ev := a.Evaluate([]string{"spotify"}, nil, []string{"spotify"})
	if ev == nil || ev.Player != "spotify" {
		t.Fatalf("expected initial assignment, got %+v", ev)
	}

	// a better candidate appearing must not steal the slot
	if ev := a.Evaluate([]string{"spotify", "mpv"}, []string{"mpv"}, []string{"spotify"}); ev != nil {
		t.Fatalf("manual mode preempted: %+v", ev)
	}
	if a.Active() != "spotify" {
		t.Errorf("Active() = %q, want spotify", a.Active())
	}

	// but it must reassign when the active player disappears
	ev = a.Evaluate([]string{"mpv"}, []string{"mpv"}, nil)
	if ev == nil || ev.Player != "mpv" {
		t.Fatalf("expected reassignment to mpv, got %+v", ev)
	}
}

func TestRecencyWindowOverridesStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	a := New(zap.NewNop(), false, WithClock(func() time.Time { return clock }))

	// mpv reports Paused but its position keeps advancing
	a.Observe(event.Event{Type: event.PositionChanged, Player: "mpv", PositionMs: 1000})

	ev := a.Evaluate([]string{"spotify", "mpv"}, nil, []string{"spotify", "mpv"})
	if ev == nil || ev.Player != "mpv" {
		t.Fatalf("expected inferred-playing mpv, got %+v", ev)
	}

	// once updates stop past the window the override lapses
	clock = now.Add(DefaultRecencyWindow + time.Second)
	ev = a.Evaluate([]string{"spotify", "mpv"}, nil, []string{"spotify", "mpv"})
	if ev == nil || ev.Player != "spotify" {
		t.Fatalf("expected fallback to spotify, got %+v", ev)
	}
}

func TestSwitch(t *testing.T) {
	a := New(zap.NewNop(), false)
	a.Evaluate([]string{"spotify", "mpv"}, []string{"spotify"}, nil)

	ev := a.Switch("mpv", []string{"spotify", "mpv"}, []string{"spotify"}, nil)
	if ev == nil || ev.Player != "mpv" || ev.Status != event.StatusStopped {
		t.Fatalf("switch event = %+v", ev)
	}
	if a.Active() != "mpv" {
		t.Errorf("Active() = %q, want mpv", a.Active())
	}

	if ev := a.Switch("mpv", []string{"spotify", "mpv"}, nil, nil); ev != nil {
		t.Fatalf("switch to already-active player emitted %+v", ev)
	}
	if ev := a.Switch("ghost", []string{"spotify", "mpv"}, nil, nil); ev != nil {
		t.Fatalf("switch to unknown player emitted %+v", ev)
	}
}

func TestObserveDisappearDropsRecency(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := New(zap.NewNop(), false, WithClock(fixedClock(now)))

	a.Observe(event.Event{Type: event.PositionChanged, Player: "mpv"})
	a.Observe(event.Event{Type: event.PlayerDisappeared, Player: "mpv"})

	ev := a.Evaluate([]string{"spotify", "mpv"}, nil, []string{"spotify", "mpv"})
	if ev == nil || ev.Player != "spotify" {
		t.Fatalf("expected spotify, got %+v", ev)
	}
}
