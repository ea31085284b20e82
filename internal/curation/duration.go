package curation

import (
	"encoding/json"
	"math"
	"math/rand/v2"
)

const (
	minPlausibleMS = 30000
	fallbackMinMS  = 180000
	fallbackSpanMS = 60000
)

// fallbackDuration picks a stand-in length in [3:00, 4:00).
var fallbackDuration = func() int {
	return fallbackMinMS + rand.IntN(fallbackSpanMS)
}

// DurationOr returns v as milliseconds when it is a number above 30 seconds, otherwise a
// pseudo-random fallback between three and four minutes.
func DurationOr(v any) int {
	var ms float64
	switch n := v.(type) {
	case float64:
		ms = n
	case float32:
		ms = float64(n)
	case int:
		ms = float64(n)
	case int64:
		ms = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return fallbackDuration()
		}
		ms = f
	default:
		return fallbackDuration()
	}

	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms <= minPlausibleMS {
		return fallbackDuration()
	}
	return int(math.Round(ms))
}
