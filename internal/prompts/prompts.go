// Package prompts assembles instruction text and response schemas for the generative API.
//
// Assembly is deterministic: the same input always yields byte-identical text, so prompts can
// be asserted on directly in tests.
package prompts

import (
	"fmt"
	"strings"

	"github.com/desertthunder/maestro/internal/models"
)

const (
	suggestionCount = 10
	existingLimit   = 5
	exampleLimit    = 3
	futureSongLimit = 10
)

// Schema is a structured-output schema in the generative API's OpenAPI subset.
type Schema map[string]any

// Prompt is an instruction plus the JSON shape expected back.
//
// A nil Schema means the response is free text.
type Prompt struct {
	Text   string
	Schema Schema
}

// Input is everything the song-ideas prompt may draw on.
type Input struct {
	Theme       string
	SeedSongs   []string
	Preferences models.Preferences
	Existing    []models.Song
}

// HasCreativeInput reports whether there is anything to build a song-ideas prompt from:
// a theme, a seed song, a fusion genre, a narrative or a vibe arc.
func (in Input) HasCreativeInput() bool {
	p := in.Preferences
	return strings.TrimSpace(in.Theme) != "" ||
		hasNonBlank(in.SeedSongs) ||
		hasNonBlank(p.FusionGenres) ||
		strings.TrimSpace(p.StoryNarrative) != "" ||
		strings.TrimSpace(p.VibeArcDescription) != ""
}

var (
	// SuggestionSchema describes {suggestions: [{title, artist, album?, duration_ms}]}.
	SuggestionSchema = Schema{
		"type": "OBJECT",
		"properties": map[string]any{
			"suggestions": map[string]any{
				"type": "ARRAY",
				"items": map[string]any{
					"type": "OBJECT",
					"properties": map[string]any{
						"title":       map[string]any{"type": "STRING"},
						"artist":      map[string]any{"type": "STRING"},
						"album":       map[string]any{"type": "STRING"},
						"duration_ms": map[string]any{"type": "NUMBER"},
					},
					"required": []string{"title", "artist", "duration_ms"},
				},
			},
		},
		"required": []string{"suggestions"},
	}

	// TitlesSchema describes {titles: [string]}.
	TitlesSchema = stringListSchema("titles")

	// FutureIdeasSchema describes {future_ideas: [string]}.
	FutureIdeasSchema = stringListSchema("future_ideas")
)

func stringListSchema(key string) Schema {
	return Schema{
		"type": "OBJECT",
		"properties": map[string]any{
			key: map[string]any{
				"type":  "ARRAY",
				"items": map[string]any{"type": "STRING"},
			},
		},
		"required": []string{key},
	}
}

// SongIdeas builds the song-suggestion prompt.
//
// Clauses are appended in a fixed order and each is omitted when its input is empty or at
// its default.
func SongIdeas(in Input) Prompt {
	p := in.Preferences
	var b strings.Builder

	fmt.Fprintf(&b, "Generate a list of %d song suggestions (title, artist, album, duration_ms) for a music playlist.", suggestionCount)

	if theme := strings.TrimSpace(in.Theme); theme != "" {
		fmt.Fprintf(&b, " The playlist theme is: %q.", theme)
	}

	if seeds := nonBlank(in.SeedSongs); len(seeds) > 0 {
		fmt.Fprintf(&b, " Use these seed songs as inspiration for the sound and mood: %s. Do not include the seed songs themselves in the suggestions.", quoteJoin(seeds))
	}

	if genres := nonBlank(p.FusionGenres); len(genres) > 0 {
		fmt.Fprintf(&b, " Creatively blend these genres: %s.", strings.Join(genres, ", "))
	}

	if narrative := strings.TrimSpace(p.StoryNarrative); narrative != "" {
		fmt.Fprintf(&b, " The playlist should tell this story: %q.", narrative)
	}

	if arc := strings.TrimSpace(p.VibeArcDescription); arc != "" {
		fmt.Fprintf(&b, " Follow this vibe arc from start to finish: %q.", arc)
	}

	if clause := yearClause(p.StartYear, p.EndYear); clause != "" {
		fmt.Fprintf(&b, " Only include songs %s.", clause)
	}

	if p.PreferHiddenGems {
		b.WriteString(" Prefer hidden gems and lesser-known tracks over mainstream hits.")
	}

	if lang := strings.TrimSpace(p.LanguagePreferences); lang != "" {
		fmt.Fprintf(&b, " Language preference: %s.", lang)
	}

	switch p.InstrumentalVocalRatio {
	case models.RatioMostlyInstrumental:
		b.WriteString(" Favor mostly instrumental tracks.")
	case models.RatioMostlyVocal:
		b.WriteString(" Favor mostly vocal tracks.")
	}

	if exclude := strings.TrimSpace(p.ExcludeKeywords); exclude != "" {
		fmt.Fprintf(&b, " Avoid songs related to these keywords: %s.", exclude)
	}

	if len(in.Existing) > 0 {
		n := min(len(in.Existing), existingLimit)
		pairs := make([]string, 0, n)
		for _, s := range in.Existing[:n] {
			pairs = append(pairs, fmt.Sprintf("%q by %s", s.Title, s.Artist))
		}
		fmt.Fprintf(&b, " The playlist already contains: %s. Do not suggest these again.", strings.Join(pairs, "; "))
	}

	b.WriteString(" Provide duration_ms as the track length in milliseconds.")

	return Prompt{Text: b.String(), Schema: SuggestionSchema}
}

// yearClause renders the release-year restriction, or "" when neither bound is set.
func yearClause(start, end *int) string {
	switch {
	case start != nil && end != nil:
		return fmt.Sprintf("released between %d-%d", *start, *end)
	case start != nil:
		return fmt.Sprintf("released from %d onward", *start)
	case end != nil:
		return fmt.Sprintf("released up to %d", *end)
	default:
		return ""
	}
}

// Titles asks for three playlist titles based on the original creative brief.
func Titles(original string) Prompt {
	text := fmt.Sprintf("Based on the theme %q, suggest 3 creative and catchy titles for a music playlist.", strings.TrimSpace(original))
	return Prompt{Text: text, Schema: TitlesSchema}
}

// LinerNotes asks for two or three sentences of free-text liner notes.
//
// original falls back to title when blank. The first three songs are given as examples.
func LinerNotes(title, original string, songs []models.Song) Prompt {
	title = strings.TrimSpace(title)
	original = strings.TrimSpace(original)
	if original == "" {
		original = title
	}

	examples := make([]string, 0, exampleLimit)
	for _, s := range songs[:min(len(songs), exampleLimit)] {
		examples = append(examples, fmt.Sprintf("%q by %s", s.Title, s.Artist))
	}

	text := fmt.Sprintf(
		"Write engaging and thematic liner notes (2-3 sentences) for a playlist titled %q (original theme: %q). It includes songs like %s. Capture the playlist's essence.",
		title, original, strings.Join(examples, ", "),
	)
	return Prompt{Text: text}
}

// FutureIdeas asks for three follow-up playlist themes or artists to explore.
func FutureIdeas(theme string, songs []models.Song) Prompt {
	listed := make([]string, 0, futureSongLimit)
	for _, s := range songs[:min(len(songs), futureSongLimit)] {
		listed = append(listed, s.String())
	}

	text := fmt.Sprintf(
		"A listener built a playlist titled %q containing: %s. Suggest 3 ideas for future playlists, themes or artists they might enjoy exploring next. Keep each idea to one sentence.",
		strings.TrimSpace(theme), strings.Join(listed, "; "),
	)
	return Prompt{Text: text, Schema: FutureIdeasSchema}
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func hasNonBlank(values []string) bool {
	return len(nonBlank(values)) > 0
}

func quoteJoin(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}
