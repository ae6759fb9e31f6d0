package dispatch

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"karolbroda.com/lyrsync/internal/event"
)

func TestDeliverPreservesOrder(t *testing.T) {
	d := New(zap.NewNop(), 16)
	ch := d.Subscribe("lyrics", 16, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	sent := []event.Event{
		{Type: event.PlayerAppeared, Player: "spotify"},
		{Type: event.TrackChanged, Player: "spotify"},
		{Type: event.PlaybackStatusChanged, Player: "spotify", Status: event.StatusPlaying},
		{Type: event.PositionChanged, Player: "spotify", PositionMs: 1000},
	}
	for _, ev := range sent {
		d.Publish(ev)
	}

	for i, want := range sent {
		select {
		case got := <-ch:
			if got.Type != want.Type {
				t.Fatalf("event %d = %v, want %v", i, got.Type, want.Type)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestFilters(t *testing.T) {
	d := New(zap.NewNop(), 16)
	renderer := d.Subscribe("renderer", 16, nil)
	lyrics := d.Subscribe("lyrics", 16, NoPositionUpdates)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Publish(event.Event{Type: event.PositionChanged, Player: "spotify", PositionMs: 500})
	d.Publish(event.Event{Type: event.TrackChanged, Player: "spotify"})

	// renderer sees both
	for _, want := range []event.Type{event.PositionChanged, event.TrackChanged} {
		select {
		case got := <-renderer:
			if got.Type != want {
				t.Fatalf("renderer got %v, want %v", got.Type, want)
			}
		case <-time.After(time.Second):
			t.Fatal("renderer starved")
		}
	}

	// the lyrics consumer only sees the track change
	select {
	case got := <-lyrics:
		if got.Type != event.TrackChanged {
			t.Fatalf("lyrics got %v, want TrackChanged", got.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("lyrics starved")
	}
	select {
	case got := <-lyrics:
		t.Fatalf("lyrics got unexpected %v", got.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSlowConsumerDoesNotStarveOthers(t *testing.T) {
	d := New(zap.NewNop(), 16)
	slow := d.Subscribe("slow", 4, nil)
	fast := d.Subscribe("fast", 16, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	// fewer events than the slow queue holds, so buffering absorbs the lag
	for i := 0; i < 4; i++ {
		d.Publish(event.Event{Type: event.PositionChanged, PositionMs: int64(i)})
	}
	for i := 0; i < 4; i++ {
		select {
		case <-fast:
		case <-time.After(time.Second):
			t.Fatalf("fast consumer blocked on event %d", i)
		}
	}
	for i := 0; i < 4; i++ {
		<-slow
	}
}

func TestUnsubscribeReleasesBlockedDelivery(t *testing.T) {
	d := New(zap.NewNop(), 16)
	dead := d.Subscribe("dead", 1, nil)
	live := d.Subscribe("live", 16, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	// the first event fills the dead consumer's queue; the second wedges
	// delivery on its full channel
	d.Publish(event.Event{Type: event.TrackChanged, Player: "spotify"})
	d.Publish(event.Event{Type: event.PositionChanged, Player: "spotify", PositionMs: 100})

	select {
	case got := <-live:
		if got.Type != event.TrackChanged {
			t.Fatalf("live got %v, want TrackChanged", got.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("live consumer never got the first event")
	}
	select {
	case got := <-live:
		t.Fatalf("live got %v while delivery should be wedged", got.Type)
	case <-time.After(50 * time.Millisecond):
	}

	d.Unsubscribe("dead")

	select {
	case got := <-live:
		if got.Type != event.PositionChanged {
			t.Fatalf("live got %v, want PositionChanged", got.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("live consumer still starved after unsubscribe")
	}

	// later events skip the dead consumer entirely
	d.Publish(event.Event{Type: event.NoPlayersAvailable})
	select {
	case got := <-live:
		if got.Type != event.NoPlayersAvailable {
			t.Fatalf("live got %v, want NoPlayersAvailable", got.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("live consumer starved after dead consumer removed")
	}

	// the dead consumer keeps what it accepted before removal and no more
	if got := <-dead; got.Type != event.TrackChanged {
		t.Fatalf("dead got %v, want TrackChanged", got.Type)
	}
	select {
	case got := <-dead:
		t.Fatalf("dead got unexpected %v", got.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRunClosesConsumersOnCancel(t *testing.T) {
	d := New(zap.NewNop(), 16)
	ch := d.Subscribe("lyrics", 16, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(ctx)
	}()

	cancel()
	<-done

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel, got event")
		}
	case <-time.After(time.Second):
		t.Fatal("consumer channel not closed")
	}
}
