package jellyfin

import (
	"fmt"
	"strconv"
)

// TicksPerSecond is the number of Jellyfin ticks (100ns) in one second.
const TicksPerSecond = 10_000_000

// FormatTicks renders ticks as HH:MM:SS. Zero and negative values render
// as 00:00:00.
func FormatTicks(ticks int64) string {
	if ticks <= 0 {
		return "00:00:00"
	}
	seconds := ticks / TicksPerSecond
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// FormatBool renders b the way binary sensors expect it.
func FormatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

// formatPercent renders a percentage with one decimal place.
func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64)
}
