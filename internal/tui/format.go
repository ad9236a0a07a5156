package tui

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FormatBPM formats a heart rate rounded to whole beats per minute
func FormatBPM(bpm float64) string {
	return fmt.Sprintf("%.0f bpm", bpm)
}

// FormatHRV formats the mean beat-to-beat interval in seconds
func FormatHRV(seconds float64) string {
	return fmt.Sprintf("%.2f s", seconds)
}

// FormatWatts formats a power value
func FormatWatts(w int) string {
	return humanize.Comma(int64(w)) + " W"
}

// FormatBeats formats a beat count with thousands separators
func FormatBeats(n int) string {
	return humanize.Comma(int64(n))
}

// FormatDuration formats whole seconds as "m:ss (N s)"
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d (%s s)", seconds/60, seconds%60, humanize.Comma(int64(seconds)))
}
