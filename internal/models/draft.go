package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/maestro/internal/shared"
)

// Draft is the editable playlist document assembled by the wizard.
type Draft struct {
	Theme               string      `json:"theme"`
	OriginalThemePrompt string      `json:"originalThemePrompt"`
	Songs               []Song      `json:"songs"`
	LinerNotes          string      `json:"linerNotes"`
	CoverArtURL         string      `json:"coverArtUrl"`
	Tags                []string    `json:"tags"`
	SeedSongs           []string    `json:"seedSongs"`
	IsPublic            bool        `json:"isPublic"`
	Preferences         Preferences `json:"preferences"`
}

// NewDraft returns a draft with every field at its default.
func NewDraft() Draft {
	return Draft{
		Songs:       []Song{},
		Tags:        []string{},
		SeedSongs:   []string{},
		Preferences: DefaultPreferences(),
	}
}

// Clone returns a deep copy so callers can mutate without sharing slices.
func (d Draft) Clone() Draft {
	out := d
	out.Songs = append([]Song{}, d.Songs...)
	out.Tags = append([]string{}, d.Tags...)
	out.SeedSongs = append([]string{}, d.SeedSongs...)
	out.Preferences = d.Preferences.Clone()
	return out
}

// TotalDurationMS sums the durations of every song.
func (d Draft) TotalDurationMS() int {
	total := 0
	for _, s := range d.Songs {
		total += s.DurationMS
	}
	return total
}

// Validate checks the conditions required before a save: a trimmed theme and at least one song.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Theme) == "" {
		return fmt.Errorf("%w: Please enter a theme.", shared.ErrValidation)
	}
	if len(d.Songs) == 0 {
		return fmt.Errorf("%w: Add at least one song.", shared.ErrValidation)
	}
	return nil
}
