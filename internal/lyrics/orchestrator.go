package lyrics

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"karolbroda.com/lyrsync/internal/event"
	"karolbroda.com/lyrsync/internal/track"
)

// Switcher is the back channel for user-driven player switches. The poll
// loop implements it; the orchestrator never talks to the bus directly.
type Switcher interface {
	RequestSwitch(identity string)
}

type fetchResult struct {
	identity string
	trackKey string
	doc      *Document
}

// Orchestrator owns one lyric document per player and keeps them current
// against the event stream. Fetches run in their own goroutines; a result
// arriving for a track the player has already left is discarded, so the
// last requested track always wins.
type Orchestrator struct {
	logger    *zap.Logger
	providers []Provider
	switcher  Switcher

	results chan fetchResult
	updates chan struct{}

	mu     sync.RWMutex
	active string
	docs   map[string]*Document
	tracks map[string]*track.Info
	// wanted tags the track key each identity last requested lyrics for
	wanted map[string]string
}

func NewOrchestrator(logger *zap.Logger, providers []Provider, switcher Switcher) *Orchestrator {
	return &Orchestrator{
		logger:    logger,
		providers: providers,
		switcher:  switcher,
		results:   make(chan fetchResult, 8),
		updates:   make(chan struct{}, 1),
		docs:      make(map[string]*Document),
		tracks:    make(map[string]*track.Info),
		wanted:    make(map[string]string),
	}
}

// Updates signals whenever the document for the active player may have
// changed. The channel carries no data; readers re-query CurrentLyrics.
func (o *Orchestrator) Updates() <-chan struct{} {
	return o.updates
}

// Run consumes player events until the channel closes or ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context, events <-chan event.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			o.handleEvent(ctx, ev)
		case res := <-o.results:
			o.handleResult(res)
		}
	}
}

func (o *Orchestrator) handleEvent(ctx context.Context, ev event.Event) {
	switch ev.Type {
	case event.TrackChanged:
		o.handleTrackChanged(ctx, ev.Player, ev.Track)
	case event.PlayerDisappeared:
		o.handleDisappeared(ev.Player)
	case event.ActivePlayerChanged:
		o.handleActiveChanged(ctx, ev.Player)
	case event.NoPlayersAvailable:
		o.mu.Lock()
		o.active = ""
		o.mu.Unlock()
		o.notify()
	}
}

func (o *Orchestrator) handleTrackChanged(ctx context.Context, identity string, info *track.Info) {
	if info == nil || !info.IsValid() {
		// nothing identifiable to look up, drop the stale document
		o.mu.Lock()
		delete(o.docs, identity)
		delete(o.wanted, identity)
		o.tracks[identity] = info
		o.mu.Unlock()
		o.notify()
		return
	}

	key := info.Key()

	o.mu.Lock()
	o.tracks[identity] = info
	if o.wanted[identity] == key {
		// same track re-announced, keep whatever we have
		o.mu.Unlock()
		return
	}
	delete(o.docs, identity)
	o.wanted[identity] = key
	o.mu.Unlock()
	o.notify()

	go o.fetch(ctx, identity, key, *info)
}

func (o *Orchestrator) handleDisappeared(identity string) {
	o.mu.Lock()
	delete(o.docs, identity)
	delete(o.tracks, identity)
	delete(o.wanted, identity)
	cleared := o.active == identity
	if cleared {
		o.active = ""
	}
	o.mu.Unlock()
	if cleared {
		o.notify()
	}
}

func (o *Orchestrator) handleActiveChanged(ctx context.Context, identity string) {
	o.mu.Lock()
	o.active = identity
	info := o.tracks[identity]
	_, haveDoc := o.docs[identity]
	pending := info != nil && info.IsValid() && o.wanted[identity] != info.Key()
	o.mu.Unlock()
	o.notify()

	// a player can become active before its first TrackChanged was seen by
	// us, so fill the gap here
	if !haveDoc && pending {
		o.handleTrackChanged(ctx, identity, info)
	}
}

// fetch walks the provider chain in configured order and reports the first
// non-empty document, or nil when every source came up dry.
func (o *Orchestrator) fetch(ctx context.Context, identity, key string, info track.Info) {
	q := Query{
		Title:      info.Title,
		Artist:     info.Artist,
		Album:      info.Album,
		DurationMs: info.LengthMs,
	}

	var doc *Document
	for _, p := range o.providers {
		got, err := p.Fetch(ctx, q)
		switch {
		case err == nil && !got.Empty():
			doc = got
		case err == nil || errors.Is(err, ErrNotFound):
			continue
		case ctx.Err() != nil:
			return
		default:
			o.logger.Warn("lyrics source failed",
				zap.String("source", p.Name()),
				zap.String("title", info.Title),
				zap.Error(err))
			continue
		}
		break
	}

	if doc == nil {
		o.logger.Info("no lyrics found",
			zap.String("title", info.Title),
			zap.String("artist", info.Artist))
	}

	select {
	case o.results <- fetchResult{identity: identity, trackKey: key, doc: doc}:
	case <-ctx.Done():
	}
}

func (o *Orchestrator) handleResult(res fetchResult) {
	o.mu.Lock()
	if o.wanted[res.identity] != res.trackKey {
		o.mu.Unlock()
		o.logger.Debug("discarding stale lyrics result",
			zap.String("player", res.identity))
		return
	}
	if res.doc != nil {
		o.docs[res.identity] = res.doc
	}
	isActive := o.active == res.identity
	o.mu.Unlock()

	if isActive {
		o.notify()
	}
}

func (o *Orchestrator) notify() {
	select {
	case o.updates <- struct{}{}:
	default:
	}
}

// ActivePlayer returns the identity the orchestrator currently renders for.
func (o *Orchestrator) ActivePlayer() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.active
}

// CurrentLyrics returns the active player's document, or nil while none is
// loaded.
func (o *Orchestrator) CurrentLyrics() *Document {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.docs[o.active]
}

// CurrentTrack returns the active player's track, or nil.
func (o *Orchestrator) CurrentTrack() *track.Info {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.tracks[o.active]
}

// TrackFor returns the last known track for any identity, or nil.
func (o *Orchestrator) TrackFor(identity string) *track.Info {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.tracks[identity]
}

// LyricAt resolves the active document's line index for a position, or -1
// when no document is loaded. Positions outside the document's time range
// clamp to the first or last line.
func (o *Orchestrator) LyricAt(positionMs int64) int {
	return o.CurrentLyrics().LineAt(positionMs)
}

// SwitchPlayer forwards a manual switch request to the poll loop. The
// resulting ActivePlayerChanged flows back through the event stream like
// any other change.
func (o *Orchestrator) SwitchPlayer(identity string) {
	if o.switcher != nil {
		o.switcher.RequestSwitch(identity)
	}
}
