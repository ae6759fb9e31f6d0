// Package ui is the rendering consumer: a bubbletea program fed by the
// event stream on one side and the lyrics orchestrator on the other.
package ui

import (
	"image"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"karolbroda.com/lyrsync/internal/artwork"
	"karolbroda.com/lyrsync/internal/config"
	"karolbroda.com/lyrsync/internal/event"
	"karolbroda.com/lyrsync/internal/lyrics"
	"karolbroda.com/lyrsync/internal/poller"
	"karolbroda.com/lyrsync/internal/terminal"
	"karolbroda.com/lyrsync/internal/track"
)

// renderTick is the animation frame interval; position extrapolation and
// line selection run on this cadence between player position reports.
const renderTick = 100 * time.Millisecond

// PlayerLister exposes the latest snapshot for the player picker.
type PlayerLister interface {
	Snapshot() poller.Snapshot
}

type TickMsg time.Time

type EventMsg struct {
	Event event.Event
}

type DocUpdatedMsg struct{}

type ArtworkMsg struct {
	TrackKey string
	Image    image.Image
	Palette  *artwork.Palette
	Err      error
}

type Model struct {
	cfg          *config.Config
	orchestrator *lyrics.Orchestrator
	lister       PlayerLister
	events       <-chan event.Event

	// playback view of the active player
	active     string
	status     event.PlaybackStatus
	track      *track.Info
	positionMs int64
	anchoredAt time.Time

	doc          *lyrics.Document
	currentIndex int

	art     image.Image
	palette *artwork.Palette

	syncOffsetMs int64
	hideHeader   bool
	waiting      bool
	quitting     bool
	rgb          bool

	width     int
	height    int
	tickCount int
	animState AnimState
}

func NewModel(cfg *config.Config, orchestrator *lyrics.Orchestrator, lister PlayerLister, events <-chan event.Event) Model {
	return Model{
		cfg:          cfg,
		orchestrator: orchestrator,
		lister:       lister,
		events:       events,
		status:       event.StatusUnknown,
		currentIndex: -1,
		palette:      artwork.DefaultPalette(),
		hideHeader:   cfg.HideHeader,
		waiting:      true,
		rgb:          terminal.DetectCapabilities().SupportsRGB,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.listenForEvents(),
		m.listenForDocUpdates(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(renderTick, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) listenForEvents() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return tea.Quit()
		}
		return EventMsg{Event: ev}
	}
}

func (m Model) listenForDocUpdates() tea.Cmd {
	return func() tea.Msg {
		<-m.orchestrator.Updates()
		return DocUpdatedMsg{}
	}
}

// position extrapolates the active player's position between reports while
// it is playing; a paused player holds still.
func (m Model) position() int64 {
	if m.status != event.StatusPlaying || m.anchoredAt.IsZero() {
		return m.positionMs
	}
	return m.positionMs + time.Since(m.anchoredAt).Milliseconds()
}

// displayPosition shifts the raw position by the configured lead time plus
// the user's manual offset, so lines land on the beat instead of after it.
func (m Model) displayPosition() int64 {
	return m.position() + m.cfg.AdvanceTimeMs + m.syncOffsetMs
}

func (m *Model) anchorPosition(positionMs int64) {
	m.positionMs = positionMs
	m.anchoredAt = time.Now()
}

func (m *Model) resetForNewTrack(info *track.Info) {
	m.track = info
	m.doc = nil
	m.currentIndex = -1
	m.art = nil
	m.palette = artwork.DefaultPalette()
	m.anchorPosition(0)
	m.animState.Reset()
}

// refreshIndex recomputes the focused line, returning whether it moved.
func (m *Model) refreshIndex() bool {
	if m.doc.Empty() {
		return false
	}

	idx := m.doc.LineAt(m.displayPosition())
	if idx == m.currentIndex {
		return false
	}
	m.currentIndex = idx
	m.animState.TargetScrollY = float64(idx)
	return true
}

func (m Model) IsQuitting() bool { return m.quitting }
