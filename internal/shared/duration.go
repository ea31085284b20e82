package shared

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatDuration renders milliseconds as MM:SS, or H:MM:SS from one hour up.
//
// Negative, NaN and infinite values render as "00:00".
func FormatDuration(ms float64) string {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 0 {
		return "00:00"
	}

	total := int64(ms / 1000)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// FormatMillis is [FormatDuration] for integer durations.
func FormatMillis(ms int) string {
	return FormatDuration(float64(ms))
}

// ParseDuration parses MM:SS or H:MM:SS back into milliseconds.
func ParseDuration(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: duration %q", ErrInvalidArgument, s)
	}

	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: duration %q", ErrInvalidArgument, s)
		}
		total = total*60 + n
	}
	return total * 1000, nil
}
