// Package util holds small formatting helpers shared by the CLI and the
// download progress output.
package util

import (
	"fmt"
	"time"
)

var byteUnits = []string{"KiB", "MiB", "GiB", "TiB"}

// FormatBytes renders n bytes using binary units, e.g. "1.5 MiB".
func FormatBytes(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}

	value := float64(n) / 1024
	unit := 0

	for value >= 1024 && unit < len(byteUnits)-1 {
		value /= 1024
		unit++
	}

	return fmt.Sprintf("%.1f %s", value, byteUnits[unit])
}

// FormatDuration renders d rounded for log output: milliseconds below one
// second, otherwise tenths of a second.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}

	return d.Round(100 * time.Millisecond).String()
}
