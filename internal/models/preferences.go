package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/maestro/internal/shared"
)

// Ratio is the instrumental/vocal balance requested from the generator.
type Ratio string

const (
	RatioBalanced           Ratio = "balanced"
	RatioMostlyInstrumental Ratio = "mostly_instrumental"
	RatioMostlyVocal        Ratio = "mostly_vocal"
)

// ParseRatio accepts the three ratio names. An empty string means balanced.
func ParseRatio(s string) (Ratio, error) {
	switch r := Ratio(strings.ToLower(strings.TrimSpace(s))); r {
	case "", RatioBalanced:
		return RatioBalanced, nil
	case RatioMostlyInstrumental, RatioMostlyVocal:
		return r, nil
	default:
		return "", fmt.Errorf("%w: unknown instrumental/vocal ratio %q", shared.ErrInvalidArgument, s)
	}
}

// Preferences is the AI preference bundle stored with a playlist.
type Preferences struct {
	StartYear              *int     `json:"startYear,omitempty"`
	EndYear                *int     `json:"endYear,omitempty"`
	LanguagePreferences    string   `json:"languagePreferences"`
	PreferHiddenGems       bool     `json:"preferHiddenGems"`
	ExcludeKeywords        string   `json:"excludeKeywords"`
	InstrumentalVocalRatio Ratio    `json:"instrumentalVocalRatio"`
	FusionGenres           []string `json:"fusionGenres"`
	StoryNarrative         string   `json:"storyNarrative"`
	VibeArcDescription     string   `json:"vibeArcDescription"`
}

// DefaultPreferences returns a balanced bundle with nothing else set.
func DefaultPreferences() Preferences {
	return Preferences{InstrumentalVocalRatio: RatioBalanced, FusionGenres: []string{}}
}

// Clone returns a deep copy.
func (p Preferences) Clone() Preferences {
	out := p
	if p.StartYear != nil {
		y := *p.StartYear
		out.StartYear = &y
	}
	if p.EndYear != nil {
		y := *p.EndYear
		out.EndYear = &y
	}
	out.FusionGenres = append([]string{}, p.FusionGenres...)
	if out.InstrumentalVocalRatio == "" {
		out.InstrumentalVocalRatio = RatioBalanced
	}
	return out
}

// Year returns a pointer to y, or nil when y is zero.
func Year(y int) *int {
	if y == 0 {
		return nil
	}
	return &y
}
