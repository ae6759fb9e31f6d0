// Package dispatch fans the collector's event stream out to consumers over
// bounded channels. Delivery blocks rather than drops: a consumer falling
// behind eventually backpressures the whole pipeline instead of silently
// losing track changes.
package dispatch

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"karolbroda.com/lyrsync/internal/event"
)

// Filter reports whether a consumer wants the event at all. A nil filter
// accepts everything.
type Filter func(event.Event) bool

// PositionUpdates limits a consumer to position events and everything that
// is not a position event is dropped. The inverse, for consumers that only
// care about discrete changes, is NoPositionUpdates.
func PositionUpdates(ev event.Event) bool {
	return ev.Type == event.PositionChanged
}

func NoPositionUpdates(ev event.Event) bool {
	return ev.Type != event.PositionChanged
}

type consumer struct {
	name   string
	ch     chan event.Event
	filter Filter
	done   chan struct{}
}

// Distributor owns one inbound queue and any number of consumer queues.
// Events are delivered to consumers in subscription order; each consumer
// sees its accepted events in exactly the inbound order.
type Distributor struct {
	logger *zap.Logger

	in chan event.Event

	mu        sync.Mutex
	consumers []*consumer
	closed    bool
}

func New(logger *zap.Logger, queueLen int) *Distributor {
	return &Distributor{
		logger: logger,
		in:     make(chan event.Event, queueLen),
	}
}

// Subscribe registers a consumer and returns its receive channel. Must be
// called before Run starts delivering, or events published in between will
// miss the new consumer.
func (d *Distributor) Subscribe(name string, queueLen int, filter Filter) <-chan event.Event {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := &consumer{
		name:   name,
		ch:     make(chan event.Event, queueLen),
		filter: filter,
		done:   make(chan struct{}),
	}
	d.consumers = append(d.consumers, c)
	return c.ch
}

// Unsubscribe drops a consumer by name. A delivery currently blocked on
// that consumer's full queue is released immediately and later events skip
// it; the remaining consumers are unaffected. The consumer's channel stays
// open so it can drain whatever was already queued.
func (d *Distributor) Unsubscribe(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, c := range d.consumers {
		if c.name == name {
			d.consumers = append(d.consumers[:i], d.consumers[i+1:]...)
			close(c.done)
			d.logger.Debug("consumer unsubscribed", zap.String("consumer", name))
			return
		}
	}
}

// Publish enqueues an event from the producing side. It blocks when the
// inbound queue is full, which is the mechanism that slows the collector
// down instead of losing events.
func (d *Distributor) Publish(ev event.Event) {
	d.in <- ev
}

// Run delivers inbound events until ctx is cancelled, then closes every
// consumer channel so ranging consumers terminate cleanly.
func (d *Distributor) Run(ctx context.Context) {
	defer d.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.in:
			d.deliver(ctx, ev)
		}
	}
}

func (d *Distributor) deliver(ctx context.Context, ev event.Event) {
	d.mu.Lock()
	consumers := append([]*consumer(nil), d.consumers...)
	d.mu.Unlock()

	for _, c := range consumers {
		if c.filter != nil && !c.filter(ev) {
			continue
		}
		select {
		case c.ch <- ev:
		case <-c.done:
		case <-ctx.Done():
			return
		}
	}
}

func (d *Distributor) closeAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	for _, c := range d.consumers {
		close(c.ch)
	}
	d.logger.Debug("distributor stopped", zap.Int("consumers", len(d.consumers)))
}
