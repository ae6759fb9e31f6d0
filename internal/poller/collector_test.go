package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"karolbroda.com/lyrsync/internal/arbiter"
	"karolbroda.com/lyrsync/internal/event"
	"karolbroda.com/lyrsync/internal/mpris"
	"karolbroda.com/lyrsync/internal/track"
)

type recordingSink struct {
	mu     sync.Mutex
	events []event.Event
}

func (s *recordingSink) Publish(ev event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) all() []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.Event(nil), s.events...)
}

func (s *recordingSink) types() []event.Type {
	var types []event.Type
	for _, ev := range s.all() {
		types = append(types, ev.Type)
	}
	return types
}

type scriptedDiscovery struct {
	mu    sync.Mutex
	steps [][]mpris.Player
	errs  []error
	calls int
}

func (d *scriptedDiscovery) Players() ([]mpris.Player, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.calls
	d.calls++
	if i < len(d.errs) && d.errs[i] != nil {
		return nil, d.errs[i]
	}
	if i >= len(d.steps) {
		i = len(d.steps) - 1
	}
	return d.steps[i], nil
}

func newTestCollector(discovery mpris.Discovery, blacklist []string) (*Collector, *recordingSink) {
	sink := &recordingSink{}
	arb := arbiter.New(zap.NewNop(), false)
	c := NewCollector(zap.NewNop(), discovery, arb, sink, 10*time.Millisecond, blacklist)
	return c, sink
}

func playingPlayer(identity, title string) mpris.Player {
	return mpris.Player{
		Identity: identity,
		BusName:  "org.mpris.MediaPlayer2." + identity,
		Status:   event.StatusPlaying,
		Track:    &track.Info{Title: title, Artist: "Artist"},
	}
}

func TestCollectorFirstTick(t *testing.T) {
	c, sink := newTestCollector(nil, nil)

	c.processTick(c.buildSnapshot([]mpris.Player{playingPlayer("spotify", "Song")}))

	want := []event.Type{
		event.PlayerAppeared,
		event.TrackChanged,
		event.PlaybackStatusChanged,
		event.ActivePlayerChanged,
	}
	got := sink.types()
	if len(got) != len(want) {
		t.Fatalf("event types = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event types = %v, want %v", got, want)
		}
	}
	if !c.Snapshot().Contains("spotify") {
		t.Error("snapshot missing spotify after tick")
	}
}

func TestCollectorNoPlayersAvailable(t *testing.T) {
	c, sink := newTestCollector(nil, nil)

	c.processTick(c.buildSnapshot([]mpris.Player{playingPlayer("spotify", "Song")}))
	c.processTick(c.buildSnapshot(nil))

	got := sink.types()
	if got[len(got)-1] != event.NoPlayersAvailable {
		t.Fatalf("last event = %v, want NoPlayersAvailable", got[len(got)-1])
	}

	// an empty snapshot after an already-empty one stays silent
	before := len(sink.all())
	c.processTick(c.buildSnapshot(nil))
	if len(sink.all()) != before {
		t.Errorf("repeated empty tick emitted events: %v", sink.types()[before:])
	}
}

func TestCollectorBlacklist(t *testing.T) {
	c, sink := newTestCollector(nil, []string{"firefox", "KDEConnect"})

	c.processTick(c.buildSnapshot([]mpris.Player{
		playingPlayer("spotify", "Song"),
		{Identity: "Firefox", BusName: "org.mpris.MediaPlayer2.firefox.instance_1"},
		{Identity: "media", BusName: "org.mpris.MediaPlayer2.kdeconnect.phone"},
	}))

	snap := c.Snapshot()
	if len(snap.Order) != 1 || snap.Order[0] != "spotify" {
		t.Fatalf("snapshot order = %v, want [spotify]", snap.Order)
	}
	for _, ev := range sink.all() {
		if ev.Player == "Firefox" || ev.Player == "media" {
			t.Errorf("blacklisted player leaked event %+v", ev)
		}
	}
}

func TestCollectorActiveAlwaysInSnapshot(t *testing.T) {
	c, _ := newTestCollector(nil, nil)
	arb := c.arb

	steps := [][]mpris.Player{
		{playingPlayer("a", "One")},
		{playingPlayer("a", "One"), playingPlayer("b", "Two")},
		{playingPlayer("b", "Two")},
		nil,
		{playingPlayer("c", "Three")},
	}
	for _, players := range steps {
		c.processTick(c.buildSnapshot(players))
		if active := arb.Active(); active != "" && !c.Snapshot().Contains(active) {
			t.Fatalf("active %q not in snapshot %v", active, c.Snapshot().Order)
		}
	}
}

func TestCollectorHandleSwitch(t *testing.T) {
	c, sink := newTestCollector(nil, nil)

	c.processTick(c.buildSnapshot([]mpris.Player{
		playingPlayer("spotify", "One"),
		playingPlayer("mpv", "Two"),
	}))
	before := len(sink.all())

	c.handleSwitch("mpv")
	events := sink.all()[before:]
	if len(events) != 1 || events[0].Type != event.ActivePlayerChanged || events[0].Player != "mpv" {
		t.Fatalf("switch events = %+v", events)
	}

	// unknown identities are rejected without output
	before = len(sink.all())
	c.handleSwitch("ghost")
	if len(sink.all()) != before {
		t.Errorf("ghost switch emitted events")
	}
}

func TestCollectorRunRecoversFromFailure(t *testing.T) {
	discovery := &scriptedDiscovery{
		steps: [][]mpris.Player{{playingPlayer("spotify", "Song")}},
		errs:  []error{errors.New("bus gone")},
	}
	c, sink := newTestCollector(discovery, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx)
	}()

	deadline := time.After(2 * time.Second)
	for c.Snapshot().Empty() {
		select {
		case <-deadline:
			t.Fatal("collector never recovered from discovery failure")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	var appeared bool
	for _, ev := range sink.all() {
		if ev.Type == event.PlayerAppeared && ev.Player == "spotify" {
			appeared = true
		}
	}
	if !appeared {
		t.Error("no PlayerAppeared after recovery")
	}
}
