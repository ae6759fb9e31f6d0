package poller

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"karolbroda.com/lyrsync/internal/arbiter"
	"karolbroda.com/lyrsync/internal/event"
	"karolbroda.com/lyrsync/internal/mpris"
)

// backoff bounds for consecutive discovery failures.
const (
	maxBackoff     = 30 * time.Second
	switchQueueLen = 4
)

// Sink receives the ordered event stream produced by the collector.
type Sink interface {
	Publish(event.Event)
}

// Collector polls the bus on a fixed interval, diffs consecutive snapshots
// and feeds the resulting events through the arbiter into the sink. It is
// the only writer of the snapshot; consumers read it through Snapshot().
type Collector struct {
	logger    *zap.Logger
	discovery mpris.Discovery
	arb       *arbiter.Arbiter
	sink      Sink

	interval  time.Duration
	blacklist []string

	switchCh chan string

	mu   sync.RWMutex
	prev Snapshot
}

func NewCollector(logger *zap.Logger, discovery mpris.Discovery, arb *arbiter.Arbiter, sink Sink, interval time.Duration, blacklist []string) *Collector {
	lowered := make([]string, 0, len(blacklist))
	for _, pattern := range blacklist {
		if pattern = strings.ToLower(strings.TrimSpace(pattern)); pattern != "" {
			lowered = append(lowered, pattern)
		}
	}
	return &Collector{
		logger:    logger,
		discovery: discovery,
		arb:       arb,
		sink:      sink,
		interval:  interval,
		blacklist: lowered,
		switchCh:  make(chan string, switchQueueLen),
		prev:      NewSnapshot(),
	}
}

// Snapshot returns the most recent accepted snapshot.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prev
}

// RequestSwitch asks the collector to make identity the active player on its
// next loop iteration. Requests for players not in the current snapshot are
// rejected there, not here.
func (c *Collector) RequestSwitch(identity string) {
	select {
	case c.switchCh <- identity:
	default:
		c.logger.Warn("switch queue full, dropping request", zap.String("player", identity))
	}
}

type queryResult struct {
	players []mpris.Player
	err     error
}

// Run drives the poll loop until ctx is cancelled. Discovery queries execute
// off the loop goroutine so a slow bus never stalls switch handling; ticks
// that fire while a query is in flight are skipped.
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	results := make(chan queryResult, 1)
	inFlight := false
	backoff := c.interval

	// prime the first snapshot immediately instead of waiting one interval
	inFlight = true
	go c.query(results)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if inFlight {
				continue
			}
			inFlight = true
			go c.query(results)
		case res := <-results:
			inFlight = false
			if res.err != nil {
				backoff = min(backoff*2, maxBackoff)
				c.logger.Warn("player discovery failed",
					zap.Error(res.err),
					zap.Duration("retry_in", backoff))
				ticker.Reset(backoff)
				continue
			}
			if backoff != c.interval {
				backoff = c.interval
				ticker.Reset(c.interval)
			}
			c.processTick(c.buildSnapshot(res.players))
		case identity := <-c.switchCh:
			c.handleSwitch(identity)
		}
	}
}

func (c *Collector) query(results chan<- queryResult) {
	players, err := c.discovery.Players()
	results <- queryResult{players: players, err: err}
}

// buildSnapshot turns a discovery result into a snapshot, dropping
// blacklisted players before they ever enter the pipeline.
func (c *Collector) buildSnapshot(players []mpris.Player) Snapshot {
	snap := NewSnapshot()
	for _, p := range players {
		if p.Identity == "" || c.blacklisted(p) {
			continue
		}
		snap.add(p.Identity, PlayerState{
			Status:     p.Status,
			Track:      p.Track,
			PositionMs: p.PositionMs,
		})
	}
	return snap
}

func (c *Collector) blacklisted(p mpris.Player) bool {
	identity := strings.ToLower(p.Identity)
	busName := strings.ToLower(p.BusName)
	for _, pattern := range c.blacklist {
		if strings.Contains(identity, pattern) || strings.Contains(busName, pattern) {
			return true
		}
	}
	return false
}

// processTick is the per-cycle pipeline: diff, arbitrate, publish, commit.
// Events for one tick always reach the sink before the snapshot advances.
func (c *Collector) processTick(snap Snapshot) {
	prev := c.Snapshot()

	for _, ev := range Diff(prev, snap) {
		c.arb.Observe(ev)
		c.sink.Publish(ev)
	}

	playing, paused := snap.classify()
	if ev := c.arb.Evaluate(snap.Order, playing, paused); ev != nil {
		c.sink.Publish(*ev)
	}

	if snap.Empty() && !prev.Empty() {
		c.logger.Info("all players gone")
		c.sink.Publish(event.Event{Type: event.NoPlayersAvailable})
	}

	c.mu.Lock()
	c.prev = snap
	c.mu.Unlock()
}

// handleSwitch validates a manual switch against the snapshot the loop last
// committed, so the arbiter never points at a player that is not there.
func (c *Collector) handleSwitch(identity string) {
	snap := c.Snapshot()
	if !snap.Contains(identity) {
		c.logger.Warn("ignoring switch to absent player", zap.String("player", identity))
		return
	}

	playing, paused := snap.classify()
	if ev := c.arb.Switch(identity, snap.Order, playing, paused); ev != nil {
		c.sink.Publish(*ev)
	}
}
