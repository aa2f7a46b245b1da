package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/novastream/novastream-go/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestProgressBar(t *testing.T) {
	tests := []struct {
		fraction float64
		want     string
	}{
		{0, "[░░░░░░░░░░]"},
		{0.5, "[█████░░░░░]"},
		{1, "[██████████]"},
		{-1, "[░░░░░░░░░░]"},
		{7, "[██████████]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, progressBar(tt.fraction, 10))
	}
}

func TestProgressView(t *testing.T) {
	v := newProgressView(domain.PaletteDarkPink)
	assert.Empty(t, v.line())

	v.update(domain.ProgressEvent{}, false)
	assert.Empty(t, v.line(), "nothing to show before the first event")

	v.update(domain.ProgressEvent{
		Phase:   domain.StateDownloading,
		Percent: 0.42,
		Rate:    1.5,
		Speed:   "1.50MiB/s",
		Message: "Downloading: 42.0%",
	}, true)
	line := v.line()
	assert.Contains(t, line, "Downloading: 42.0%")
	assert.Contains(t, line, "1.50MiB/s")
	assert.Contains(t, line, "█")

	spin := v.spinner
	v.update(domain.ProgressEvent{}, false)
	assert.Equal(t, spin+1.5, v.spinner, "spinner keeps turning at the last rate between events")

	v.update(domain.ProgressEvent{Phase: domain.StateFinalizing, Rate: domain.FinalizingRate, Message: "Finalizing…"}, true)
	assert.Contains(t, v.line(), "Finalizing…")
	assert.NotContains(t, v.line(), "█")

	v.update(domain.ProgressEvent{Phase: domain.StateFailed, Message: "Download error: HTTP Error 404"}, true)
	assert.Contains(t, v.line(), "✗ Download error: HTTP Error 404")
}

func TestNewProgressView_UnknownPalette(t *testing.T) {
	v := newProgressView(domain.Palette("neon"))
	v.update(domain.ProgressEvent{Phase: domain.StateStarting, Message: "Starting…", Rate: domain.DefaultRate}, true)
	assert.Contains(t, v.line(), "Starting…")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcde...", truncate("abcdefghijkl", 8))
	assert.Equal(t, "éééé...", truncate("éééééééééé", 7))
}

func TestPrintSettings(t *testing.T) {
	var buf bytes.Buffer
	printSettings(&buf, domain.DefaultSettings())

	out := buf.String()
	for _, key := range domain.SettingKeys {
		assert.Contains(t, out, key)
	}
	assert.Contains(t, out, "blueish-white")
	assert.Contains(t, out, "128")
}

func TestPrintJobs(t *testing.T) {
	var buf bytes.Buffer
	printJobs(&buf, nil)
	assert.Equal(t, "No downloads yet.\n", buf.String())

	buf.Reset()
	printJobs(&buf, []*domain.Job{{
		ID:        "0123456789abcdef",
		URL:       "https://example.com/watch?v=abc",
		Mode:      domain.ModeAudio,
		Quality:   "best",
		Status:    domain.JobStatusSucceeded,
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local),
	}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[1], "01234...")
	assert.Contains(t, lines[1], "succeeded")
	assert.Contains(t, lines[1], "2026-03-14 09:26:53")
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, &domain.JobStats{Total: 5, Succeeded: 3, Failed: 2})
	assert.Contains(t, buf.String(), "Total:     5")
	assert.Contains(t, buf.String(), "Failed:    2")
}
