package app

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/novastream/novastream-go/internal/domain"
)

// Phase messages shown to the user
const (
	MessageStarting    = "Starting…"
	MessageFinalizing  = "Finalizing…"
	MessageDone        = "Done"
	messageDownloading = "Downloading: %s%%"
	messageEngineError = "Download error: %s"
	messageUnexpected  = "Unexpected error: %s"
)

var (
	ansiEscape     = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)
	nonNumericChar = regexp.MustCompile(`[^\d.]`)
)

// NormalizeProgress converts a raw engine record into a ProgressEvent.
// The second return is false for statuses that carry no transition.
// JobID and Timestamp are left for the caller to fill in.
func NormalizeProgress(raw domain.RawProgress) (domain.ProgressEvent, bool) {
	switch strings.ToLower(strings.TrimSpace(raw.Status)) {
	case domain.RawStatusDownloading:
		pctText := cleanPercent(raw.PercentStr)
		speed := strings.TrimSpace(stripANSI(raw.SpeedStr))
		return domain.ProgressEvent{
			Phase:   domain.StateDownloading,
			Percent: parsePercent(pctText),
			Rate:    parseRate(speed),
			Speed:   speed,
			Message: fmt.Sprintf(messageDownloading, pctText),
		}, true

	case domain.RawStatusFinished:
		return domain.ProgressEvent{
			Phase:   domain.StateFinalizing,
			Rate:    domain.FinalizingRate,
			Message: MessageFinalizing,
		}, true
	}

	return domain.ProgressEvent{}, false
}

func stripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// cleanPercent turns " 42.5%" into "42.5"
func cleanPercent(raw string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(stripANSI(raw)), "%"))
}

// parsePercent maps "42.5" to 0.425, clamped to [0,1]. Malformed input is 0.
func parsePercent(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return clamp(v/100, 0, 1)
}

// parseRate reads a human speed such as "2.50MiB/s" or "512KiB/s" into the
// bounded rate consumers animate with. This is not a throughput measurement.
func parseRate(speed string) float64 {
	var magnitude float64
	switch {
	case strings.Contains(speed, "MiB") || strings.Contains(speed, "MB"):
		v, ok := leadingNumber(speed, "M")
		if !ok {
			return domain.DefaultRate
		}
		magnitude = v
	case strings.Contains(speed, "KiB") || strings.Contains(speed, "KB"):
		v, ok := leadingNumber(speed, "K")
		if !ok {
			return domain.DefaultRate
		}
		magnitude = v / 1024
	default:
		magnitude = domain.DefaultRate
	}
	return clamp(magnitude, domain.MinRate, domain.MaxRate)
}

// leadingNumber parses the digits before the first occurrence of unit
func leadingNumber(s, unit string) (float64, bool) {
	head, _, _ := strings.Cut(s, unit)
	v, err := strconv.ParseFloat(nonNumericChar.ReplaceAllString(head, ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
