// Package servicetest provides in-memory implementations of [services.Service] and
// [services.Curator] for tests.
package servicetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/prompts"
	"github.com/desertthunder/maestro/internal/services"
	"github.com/desertthunder/maestro/internal/shared"
)

var (
	_ services.Service = (*Service)(nil)
	_ services.Curator = (*Curator)(nil)
)

// Service is a scriptable publishing service. Tracks are looked up by
// [shared.NormalizeTrackKey]; anything missing is reported as not found.
type Service struct {
	UserID    string
	UserErr   error
	Tracks    map[string]models.Track
	SearchErr map[string]error
	CreateErr error
	// AddErrOnCall fails the n-th AddTracks call (1-based). Zero never fails.
	AddErrOnCall int
	AddErr       error

	mu          sync.Mutex
	credentials map[string]string
	searches    []string
	created     []services.Playlist
	added       [][]string
}

// NewService returns a service that knows the given tracks and reports userID as the account.
func NewService(userID string, tracks ...models.Track) *Service {
	s := &Service{UserID: userID, Tracks: make(map[string]models.Track), SearchErr: make(map[string]error)}
	for _, t := range tracks {
		s.Tracks[shared.NormalizeTrackKey(t.Title, t.Artist)] = t
	}
	return s
}

func (s *Service) Authenticate(ctx context.Context, credentials map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials = credentials
	return nil
}

func (s *Service) CurrentUserID(ctx context.Context) (string, error) {
	if s.UserErr != nil {
		return "", s.UserErr
	}
	return s.UserID, nil
}

func (s *Service) SearchTrack(ctx context.Context, title, artist string) (*models.Track, error) {
	key := shared.NormalizeTrackKey(title, artist)

	s.mu.Lock()
	s.searches = append(s.searches, key)
	s.mu.Unlock()

	if err := s.SearchErr[key]; err != nil {
		return nil, err
	}
	track, ok := s.Tracks[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, key)
	}
	return &track, nil
}

func (s *Service) CreatePlaylist(ctx context.Context, userID string, playlist services.Playlist) (*services.Playlist, error) {
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, playlist)

	playlist.ID = fmt.Sprintf("remote-%d", len(s.created))
	playlist.URL = "https://open.spotify.com/playlist/" + playlist.ID
	return &playlist, nil
}

func (s *Service) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := len(s.added) + 1
	s.added = append(s.added, append([]string(nil), uris...))
	if s.AddErrOnCall == call {
		if s.AddErr != nil {
			return s.AddErr
		}
		return fmt.Errorf("%w: add tracks failed", shared.ErrUpstream)
	}
	return nil
}

func (s *Service) Name() string { return "Fake" }

// Searches returns the normalized keys passed to SearchTrack, in call order.
func (s *Service) Searches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.searches...)
}

// Created returns every playlist passed to CreatePlaylist.
func (s *Service) Created() []services.Playlist {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]services.Playlist(nil), s.created...)
}

// Added returns the URI batches passed to AddTracks.
func (s *Service) Added() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.added...)
}

// Credentials returns the map last passed to Authenticate.
func (s *Service) Credentials() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credentials
}

// Curator answers prompts with canned results.
//
// When Gate is set every call blocks until a value is received from it or ctx is done,
// which lets tests interleave edits with an in-flight request.
type Curator struct {
	SongIdeasResult   []models.RawSuggestion
	SongIdeasErr      error
	TitlesResult      []string
	TitlesErr         error
	LinerNotesResult  string
	LinerNotesErr     error
	FutureIdeasResult []string
	FutureIdeasErr    error
	Gate              chan struct{}

	mu      sync.Mutex
	prompts []prompts.Prompt
}

func (c *Curator) wait(ctx context.Context, p prompts.Prompt) error {
	c.mu.Lock()
	c.prompts = append(c.prompts, p)
	c.mu.Unlock()

	if c.Gate == nil {
		return ctx.Err()
	}
	select {
	case <-c.Gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Curator) SongIdeas(ctx context.Context, p prompts.Prompt) ([]models.RawSuggestion, error) {
	if err := c.wait(ctx, p); err != nil {
		return nil, err
	}
	return c.SongIdeasResult, c.SongIdeasErr
}

func (c *Curator) Titles(ctx context.Context, p prompts.Prompt) ([]string, error) {
	if err := c.wait(ctx, p); err != nil {
		return nil, err
	}
	return c.TitlesResult, c.TitlesErr
}

func (c *Curator) LinerNotes(ctx context.Context, p prompts.Prompt) (string, error) {
	if err := c.wait(ctx, p); err != nil {
		return "", err
	}
	return c.LinerNotesResult, c.LinerNotesErr
}

func (c *Curator) FutureIdeas(ctx context.Context, p prompts.Prompt) ([]string, error) {
	if err := c.wait(ctx, p); err != nil {
		return nil, err
	}
	return c.FutureIdeasResult, c.FutureIdeasErr
}

// Prompts returns every prompt received, in call order.
func (c *Curator) Prompts() []prompts.Prompt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]prompts.Prompt(nil), c.prompts...)
}

// Calls returns how many prompts were received.
func (c *Curator) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts)
}
