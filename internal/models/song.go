package models

import (
	"fmt"

	"github.com/desertthunder/maestro/internal/shared"
)

// Song is one entry in a playlist.
//
// ID is generated when the song is added, never derived from title or artist, so a confirmed
// duplicate can sit next to the original.
type Song struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	Album        string `json:"album,omitempty"`
	DurationMS   int    `json:"duration_ms"`
	PersonalNote string `json:"personalNote"`
	SpotifyURI   string `json:"spotifyUri,omitempty"`
}

// Key returns the case-insensitive (title, artist) identity used for duplicate detection.
func (s Song) Key() string {
	return shared.NormalizeTrackKey(s.Title, s.Artist)
}

// String renders the song as "Title by Artist".
func (s Song) String() string {
	return fmt.Sprintf("%s by %s", s.Title, s.Artist)
}

// Suggestion is a generative candidate that survived filtering.
//
// Suggestions are transient and live for one wizard session.
type Suggestion struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	DurationMS int    `json:"duration_ms"`
}

// Key returns the case-insensitive (title, artist) identity.
func (s Suggestion) Key() string {
	return shared.NormalizeTrackKey(s.Title, s.Artist)
}

// Song converts the suggestion into a [Song] without an id.
func (s Suggestion) Song() Song {
	return Song{Title: s.Title, Artist: s.Artist, Album: s.Album, DurationMS: s.DurationMS}
}

// RawSuggestion is a candidate exactly as decoded from the generative API.
//
// DurationMS is left untyped because the upstream value may be missing, a string or a float.
type RawSuggestion struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	DurationMS any    `json:"duration_ms"`
}

// Track is a track found on a remote music service.
type Track struct {
	ID         string `json:"id"`
	URI        string `json:"uri"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	DurationMS int    `json:"duration_ms"`
}
