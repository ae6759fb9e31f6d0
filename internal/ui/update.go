package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"karolbroda.com/lyrsync/internal/artwork"
	"karolbroda.com/lyrsync/internal/event"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case EventMsg:
		return m.handleEvent(msg.Event)

	case DocUpdatedMsg:
		m.doc = m.orchestrator.CurrentLyrics()
		m.currentIndex = -1
		m.refreshIndex()
		return m, m.listenForDocUpdates()

	case ArtworkMsg:
		return m.handleArtwork(msg)

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "tab", "i":
		m.hideHeader = !m.hideHeader
		return m, nil

	case "p", "n":
		m.cyclePlayer()
		return m, nil

	case "right", "l", "+", "=":
		m.syncOffsetMs += 100
		m.refreshIndex()
		return m, nil

	case "left", "h", "-":
		m.syncOffsetMs -= 100
		m.refreshIndex()
		return m, nil

	case "0":
		m.syncOffsetMs = 0
		m.refreshIndex()
		return m, nil
	}

	return m, nil
}

// cyclePlayer requests a switch to the next visible player. The switch is
// not applied locally; it comes back through the event stream once the
// poll loop has accepted it.
func (m *Model) cyclePlayer() {
	if m.lister == nil {
		return
	}
	order := m.lister.Snapshot().Order
	if len(order) < 2 {
		return
	}

	next := order[0]
	for i, identity := range order {
		if identity == m.active {
			next = order[(i+1)%len(order)]
			break
		}
	}
	if next != m.active {
		m.orchestrator.SwitchPlayer(next)
	}
}

func (m Model) handleEvent(ev event.Event) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.listenForEvents()}

	switch ev.Type {
	case event.ActivePlayerChanged:
		m.active = ev.Player
		m.status = ev.Status
		m.waiting = false
		info := m.orchestrator.TrackFor(ev.Player)
		m.resetForNewTrack(info)
		m.doc = m.orchestrator.CurrentLyrics()
		m.refreshIndex()
		if info != nil && info.ArtworkURL != "" {
			cmds = append(cmds, fetchArtworkCmd(info.Key(), info.ArtworkURL))
		}

	case event.TrackChanged:
		if ev.Player != m.active {
			break
		}
		m.resetForNewTrack(ev.Track)
		if ev.Track != nil && ev.Track.ArtworkURL != "" {
			cmds = append(cmds, fetchArtworkCmd(ev.Track.Key(), ev.Track.ArtworkURL))
		}

	case event.PlaybackStatusChanged:
		if ev.Player != m.active {
			break
		}
		// pin the extrapolated position before the clock stops or starts
		m.anchorPosition(m.position())
		m.status = ev.Status

	case event.PositionChanged:
		if ev.Player != m.active {
			break
		}
		m.anchorPosition(ev.PositionMs)
		m.refreshIndex()

	case event.NoPlayersAvailable:
		m.active = ""
		m.status = event.StatusUnknown
		m.waiting = true
		m.resetForNewTrack(nil)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleArtwork(msg ArtworkMsg) (tea.Model, tea.Cmd) {
	// ignore artwork that finished loading after the track moved on
	if m.track == nil || m.track.Key() != msg.TrackKey {
		return m, nil
	}
	if msg.Err == nil && msg.Image != nil {
		m.art = msg.Image
		if msg.Palette != nil {
			m.palette = msg.Palette
		}
	}
	return m, nil
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	m.tickCount++
	lineChanged := m.refreshIndex()
	m.animState.Update(m.tickCount, lineChanged, 8)
	return m, tickCmd()
}

func fetchArtworkCmd(trackKey, artworkURL string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		img, err := artwork.Fetch(ctx, artworkURL)
		if err != nil {
			return ArtworkMsg{TrackKey: trackKey, Err: err}
		}
		return ArtworkMsg{
			TrackKey: trackKey,
			Image:    img,
			Palette:  artwork.ExtractPalette(img),
		}
	}
}
