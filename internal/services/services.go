// package services defines the HTTP clients for external APIs
//
// Gemini (generative text) and Spotify (publishing)
package services

import (
	"context"

	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/prompts"
)

// Service defines the interface for music service providers that playlists can be published to.
type Service interface {
	// Authenticate performs OAuth or API key authentication with the service.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// CurrentUserID returns the remote account id of the authenticated user.
	CurrentUserID(ctx context.Context) (string, error)

	// SearchTrack searches for a track by title and artist.
	// Returns the best match or an error wrapping [shared.ErrNotFound] if nothing matches.
	SearchTrack(ctx context.Context, title, artist string) (*models.Track, error)

	// CreatePlaylist creates an empty playlist owned by userID.
	CreatePlaylist(ctx context.Context, userID string, playlist Playlist) (*Playlist, error)

	// AddTracks appends up to [MaxTracksPerRequest] track URIs to a playlist.
	AddTracks(ctx context.Context, playlistID string, uris []string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// Curator is the generative side of the wizard: every method sends one prompt and decodes
// the answer into the shape its call site expects.
type Curator interface {
	SongIdeas(ctx context.Context, p prompts.Prompt) ([]models.RawSuggestion, error)
	Titles(ctx context.Context, p prompts.Prompt) ([]string, error)
	LinerNotes(ctx context.Context, p prompts.Prompt) (string, error)
	FutureIdeas(ctx context.Context, p prompts.Prompt) ([]string, error)
}

// MaxTracksPerRequest is the most URIs a single add-tracks call accepts.
const MaxTracksPerRequest = 100

// Playlist represents a remote music playlist
type Playlist struct {
	ID          string
	Name        string
	Description string
	Public      bool
	URL         string
}
