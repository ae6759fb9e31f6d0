package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"karolbroda.com/lyrsync/internal/artwork"
	"karolbroda.com/lyrsync/internal/event"
)

func (m Model) View() string {
	width := m.width
	height := m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	if m.quitting {
		return ""
	}

	palette := m.palette
	if palette == nil {
		palette = artwork.DefaultPalette()
	}

	if m.waiting || m.track == nil {
		return m.renderWaitingScreen(palette, width, height)
	}

	return m.renderMainScreen(palette, width, height)
}

func (m Model) renderWaitingScreen(palette *artwork.Palette, width, height int) string {
	lines := make([]string, height)
	centerY := height / 2

	waitText := "waiting for players"
	if !m.waiting {
		waitText = "waiting for track info"
	}

	dimItalic := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim)).Italic(true)
	lines[max(centerY-1, 0)] = centerText(dimItalic.Render(waitText), len(waitText), width)

	pulseChars := []string{"·", "•", "●", "•"}
	pulse := pulseChars[(m.tickCount/4)%len(pulseChars)]
	pulseStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Secondary))
	lines[min(centerY, height-1)] = centerText(pulseStyle.Render(pulse), 1, width)

	return strings.Join(lines, "\n")
}

func (m Model) renderMainScreen(palette *artwork.Palette, width, height int) string {
	var lines []string

	if !m.hideHeader {
		lines = append(lines, m.renderHeader(palette, width)...)
	}

	lyricsHeight := height - len(lines) - 1
	if m.doc.Empty() {
		lines = append(lines, m.renderNoLyrics(palette, lyricsHeight, width)...)
	} else {
		lines = append(lines, m.renderLyricWindow(palette, lyricsHeight, width)...)
	}

	lines = append(lines, m.renderFooter(palette, width))

	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderHeader(palette *artwork.Palette, width int) []string {
	lines := []string{""}

	artWidth, artHeight := 12, 6
	if width < 80 || m.height < 25 {
		artWidth, artHeight = 0, 0
	}

	info := m.renderTrackInfo(palette, width-artWidth-4)

	if artWidth > 0 && m.art != nil {
		artLines := artwork.RenderHalfBlockArt(m.art, artWidth, artHeight)
		for i := 0; i < len(artLines) || i < len(info); i++ {
			var left, right string
			if i < len(artLines) {
				left = artLines[i]
			} else {
				left = strings.Repeat(" ", artWidth)
			}
			if i < len(info) {
				right = info[i]
			}
			lines = append(lines, "  "+left+"  "+right)
		}
	} else {
		for _, line := range info {
			lines = append(lines, "  "+line)
		}
	}

	lines = append(lines, "", m.renderProgress(palette, width), "")
	return lines
}

func (m Model) renderTrackInfo(palette *artwork.Palette, width int) []string {
	var lines []string

	title := m.track.Title
	if title == "" {
		title = "unknown track"
	}
	lines = append(lines, m.gradientText(truncate(title, width), palette.Gradient))

	if m.track.Artist != "" {
		artistStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Secondary))
		lines = append(lines, artistStyle.Render(truncate(m.track.Artist, width)))
	}
	if m.track.Album != "" {
		albumStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim)).Italic(true)
		lines = append(lines, albumStyle.Render(truncate(m.track.Album, width)))
	}

	playerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Accent))
	lines = append(lines, playerStyle.Render(truncate(m.active+" · "+statusGlyph(m.status), width)))

	return lines
}

func statusGlyph(status event.PlaybackStatus) string {
	switch status {
	case event.StatusPlaying:
		return "▶"
	case event.StatusPaused:
		return "⏸"
	case event.StatusStopped:
		return "⏹"
	default:
		return "?"
	}
}

func (m Model) renderProgress(palette *artwork.Palette, width int) string {
	if m.track == nil || m.track.LengthMs == 0 {
		return ""
	}

	barWidth := width - 20
	if barWidth < 20 {
		barWidth = 20
	}

	positionMs := m.position()
	progress := float64(positionMs) / float64(m.track.LengthMs)
	if progress > 1 {
		progress = 1
	}
	if progress < 0 {
		progress = 0
	}
	filled := int(float64(barWidth) * progress)

	filledStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Primary))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim)).Faint(true)

	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		switch {
		case i < filled:
			bar.WriteString(filledStyle.Render("━"))
		case i == filled:
			bar.WriteString(filledStyle.Render("●"))
		default:
			bar.WriteString(emptyStyle.Render("─"))
		}
	}

	timeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim))
	return fmt.Sprintf("  %s  %s  %s",
		timeStyle.Render(formatTime(positionMs)),
		bar.String(),
		timeStyle.Render(formatTime(m.track.LengthMs)))
}

// renderLyricWindow shows the focused line centered with ContextLines of
// past and upcoming lines around it.
func (m Model) renderLyricWindow(palette *artwork.Palette, height, width int) []string {
	contextLines := m.cfg.ContextLines
	if height < 2*contextLines+1 {
		contextLines = max((height-1)/2, 0)
	}

	focus := m.currentIndex
	if focus < 0 {
		focus = 0
	}

	var lines []string
	pad := (height - (2*contextLines + 1)) / 2
	for i := 0; i < pad; i++ {
		lines = append(lines, "")
	}

	pastStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim)).Faint(true)
	futureStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim))

	for offset := -contextLines; offset <= contextLines; offset++ {
		idx := focus + offset
		if idx < 0 || idx >= len(m.doc.Lines) {
			lines = append(lines, "")
			continue
		}

		text := m.doc.Lines[idx].Text
		switch {
		case offset == 0:
			rendered := m.gradientText(text, palette.Gradient)
			if m.animState.GlowIntensity > 0.3 {
				rendered = m.gradientText(text, []string{palette.Accent})
			}
			lines = append(lines, centerText(rendered, len([]rune(text)), width))
		case offset < 0:
			lines = append(lines, centerText(pastStyle.Render(text), len([]rune(text)), width))
		default:
			lines = append(lines, centerText(futureStyle.Render(text), len([]rune(text)), width))
		}
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	return lines[:height]
}

func (m Model) renderNoLyrics(palette *artwork.Palette, height, width int) []string {
	lines := make([]string, height)
	if height <= 0 {
		return nil
	}

	text := "no synced lyrics"
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim)).Italic(true)
	lines[height/2] = centerText(style.Render(text), len(text), width)
	return lines
}

func (m Model) renderFooter(palette *artwork.Palette, width int) string {
	hint := "q quit · p switch player · ←/→ offset"
	if m.syncOffsetMs != 0 {
		hint = fmt.Sprintf("%s · offset %+dms", hint, m.syncOffsetMs)
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim)).Faint(true)
	return centerText(style.Render(hint), len([]rune(hint)), width)
}

// gradientText drops to plain bold when the terminal cannot show truecolor
// ramps.
func (m Model) gradientText(text string, gradient []string) string {
	if !m.rgb {
		return lipgloss.NewStyle().Bold(true).Render(text)
	}
	return artwork.GradientText(text, gradient, true)
}

func centerText(text string, visualWidth, screenWidth int) string {
	padding := (screenWidth - visualWidth) / 2
	if padding < 0 {
		padding = 0
	}
	return strings.Repeat(" ", padding) + text
}

func truncate(s string, width int) string {
	if width <= 3 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}

func formatTime(ms int64) string {
	if ms < 0 {
		return "0:00"
	}
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
