package curation

import (
	"strings"

	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/shared"
)

// FilterResult is the outcome of [Filter].
type FilterResult struct {
	Suggestions []models.Suggestion
	// Received is the number of candidates the API returned before filtering.
	Received int
}

// Empty reports whether the API returned no candidates at all.
func (r FilterResult) Empty() bool { return r.Received == 0 }

// AllFiltered reports whether candidates were returned but every one was dropped.
func (r FilterResult) AllFiltered() bool { return r.Received > 0 && len(r.Suggestions) == 0 }

// Filter drops candidates without a title or artist, candidates already in working and
// candidates naming one of the seed songs. Survivors get a fresh id and a plausible duration.
func Filter(raw []models.RawSuggestion, working []models.Song, seeds []string) FilterResult {
	return filterWith(raw, working, seeds, shared.GenerateID)
}

func filterWith(raw []models.RawSuggestion, working []models.Song, seeds []string, newID func() string) FilterResult {
	exclude := make(map[string]struct{}, len(working)+len(seeds))
	for _, s := range working {
		exclude[s.Key()] = struct{}{}
	}
	for _, seed := range seeds {
		if title, artist, ok := ParseSeed(seed); ok {
			exclude[shared.NormalizeTrackKey(title, artist)] = struct{}{}
		}
	}

	result := FilterResult{Suggestions: []models.Suggestion{}, Received: len(raw)}
	for _, r := range raw {
		title := strings.TrimSpace(r.Title)
		artist := strings.TrimSpace(r.Artist)
		if title == "" || artist == "" {
			continue
		}
		if _, ok := exclude[shared.NormalizeTrackKey(title, artist)]; ok {
			continue
		}

		result.Suggestions = append(result.Suggestions, models.Suggestion{
			ID:         newID(),
			Title:      title,
			Artist:     artist,
			Album:      strings.TrimSpace(r.Album),
			DurationMS: DurationOr(r.DurationMS),
		})
	}
	return result
}

// ParseSeed splits a "Title by Artist" seed on the last literal " by ".
func ParseSeed(seed string) (title, artist string, ok bool) {
	i := strings.LastIndex(seed, " by ")
	if i < 0 {
		return "", "", false
	}
	title = strings.TrimSpace(seed[:i])
	artist = strings.TrimSpace(seed[i+len(" by "):])
	return title, artist, title != "" && artist != ""
}
