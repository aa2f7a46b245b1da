package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/novastream/novastream-go/internal/domain"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))             // green
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))             // red
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))            // cyan
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))           // light grey
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")) // purple
)

// paletteColors maps the user's palette onto the progress bar accent
var paletteColors = map[domain.Palette]lipgloss.Color{
	domain.PaletteBlueishWhite:  lipgloss.Color("75"),
	domain.PaletteGreenishWhite: lipgloss.Color("114"),
	domain.PaletteDarkPink:      lipgloss.Color("162"),
	domain.PaletteDarkOrange:    lipgloss.Color("166"),
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const barWidth = 30

func FSuccess(text string) string { return successStyle.Render(text) }
func FError(text string) string   { return errorStyle.Render(text) }
func FInfo(text string) string    { return infoStyle.Render(text) }
func FDetail(text string) string  { return detailStyle.Render(text) }
func FHeader(text string) string  { return headerStyle.Render(text) }

// progressView renders one event per UI tick. The spinner advances by the
// event's rate, so it turns faster when the download is fast.
type progressView struct {
	accent  lipgloss.Style
	spinner float64
	last    domain.ProgressEvent
	seen    bool
}

func newProgressView(palette domain.Palette) *progressView {
	color, ok := paletteColors[palette]
	if !ok {
		color = paletteColors[domain.PaletteBlueishWhite]
	}
	return &progressView{accent: lipgloss.NewStyle().Foreground(color)}
}

// update records the event to show, if any, and advances the spinner
func (v *progressView) update(ev domain.ProgressEvent, ok bool) {
	if ok {
		v.last = ev
		v.seen = true
	}
	if v.seen {
		v.spinner += v.last.Rate
	}
}

// line renders the current status without a trailing newline
func (v *progressView) line() string {
	if !v.seen {
		return ""
	}
	ev := v.last

	switch ev.Phase {
	case domain.StateSucceeded:
		return FSuccess("✓ " + ev.Message)
	case domain.StateFailed:
		return FError("✗ " + ev.Message)
	}

	frame := spinnerFrames[int(v.spinner)%len(spinnerFrames)]
	parts := []string{v.accent.Render(frame)}
	if ev.Phase == domain.StateDownloading {
		parts = append(parts, v.accent.Render(progressBar(ev.Percent, barWidth)))
	}
	parts = append(parts, ev.Message)
	if ev.Speed != "" {
		parts = append(parts, FDetail(ev.Speed))
	}
	return strings.Join(parts, " ")
}

// progressBar draws fraction (0..1) as a fixed-width bar
func progressBar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * float64(width))
	return fmt.Sprintf("[%s%s]", strings.Repeat("█", filled), strings.Repeat("░", width-filled))
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
