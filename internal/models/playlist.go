package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/maestro/internal/shared"
)

// Playlist is a persisted [Draft] owned by exactly one user.
type Playlist struct {
	Draft
	timestamps

	id                 string
	sequence           int
	appID              string
	userID             string
	isArchived         bool
	spotifyPlaylistID  string
	spotifyPlaylistURL string
}

// NewPlaylist creates a playlist document for userID under appID from draft.
func NewPlaylist(sequence int, appID, userID string, draft Draft) *Playlist {
	return &Playlist{
		Draft:      draft.Clone(),
		timestamps: newTimestamps(),
		sequence:   sequence,
		appID:      appID,
		userID:     userID,
	}
}

func (p *Playlist) ID() string { return p.id }
func (p *Playlist) SetID(id string) { p.id = id }
func (p *Playlist) Sequence() int { return p.sequence }
func (p *Playlist) SetSequence(sequence int) { p.sequence = sequence }
func (p *Playlist) AppID() string { return p.appID }
func (p *Playlist) UserID() string { return p.userID }
func (p *Playlist) IsArchived() bool { return p.isArchived }
func (p *Playlist) SetArchived(archived bool) { p.isArchived = archived }
func (p *Playlist) SpotifyPlaylistID() string { return p.spotifyPlaylistID }
func (p *Playlist) SpotifyPlaylistURL() string { return p.spotifyPlaylistURL }

// SetSpotify links the document to a remote Spotify playlist.
func (p *Playlist) SetSpotify(id, url string) {
	p.spotifyPlaylistID = id
	p.spotifyPlaylistURL = url
}

// OwnedBy reports whether the document lives in the collection of the given app and user.
func (p *Playlist) OwnedBy(appID, userID string) bool {
	return p.appID == appID && p.userID == userID
}

// Validate checks owner fields and the draft's save conditions.
func (p *Playlist) Validate() error {
	if p.userID == "" {
		return fmt.Errorf("%w: playlist owner is required", shared.ErrValidation)
	}
	if p.appID == "" {
		return fmt.Errorf("%w: app id is required", shared.ErrValidation)
	}
	return p.Draft.Validate()
}

// document is the JSON shape of a persisted playlist.
type document struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Draft
	IsArchived         bool      `json:"isArchived"`
	SpotifyPlaylistID  string    `json:"spotifyPlaylistId,omitempty"`
	SpotifyPlaylistURL string    `json:"spotifyPlaylistUrl,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// MarshalJSON renders the document with its private fields.
func (p *Playlist) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{
		ID:                 p.id,
		UserID:             p.userID,
		Draft:              p.Draft,
		IsArchived:         p.isArchived,
		SpotifyPlaylistID:  p.spotifyPlaylistID,
		SpotifyPlaylistURL: p.spotifyPlaylistURL,
		CreatedAt:          p.createdAt,
		UpdatedAt:          p.updatedAt,
	})
}
