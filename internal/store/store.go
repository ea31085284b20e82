package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/shared"
)

// Mode selects how [Store.Save] treats the draft.
type Mode int

const (
	// ModeCreate stores the draft as a new document.
	ModeCreate Mode = iota
	// ModeUpdate overwrites the document named by SaveOptions.ID.
	ModeUpdate
	// ModeRemix stores the draft as a new document derived from another one.
	ModeRemix
)

func (m Mode) String() string {
	switch m {
	case ModeUpdate:
		return "update"
	case ModeRemix:
		return "remix"
	default:
		return "create"
	}
}

// SaveOptions carries the identity fields the draft itself does not hold.
type SaveOptions struct {
	Mode Mode
	// ID of the document being edited. Update only.
	ID string
	// CreatedAt of the document being edited. Zero keeps the stored value. Update only.
	CreatedAt time.Time
	// IsArchived of the document being edited. Update only.
	IsArchived bool
}

// Snapshot is one delivery of a collection subscription. Playlists are ordered by
// updatedAt, newest first. Err is set when the collection could not be read.
type Snapshot struct {
	Playlists []*models.Playlist
	Err       error
}

// Store reads and writes playlist documents for signed-in users.
type Store struct {
	repo     models.Repository[*models.Playlist]
	notifier Notifier
	logger   *log.Logger
}

// New creates a store over repo. A nil notifier selects a [LocalNotifier].
func New(repo models.Repository[*models.Playlist], notifier Notifier, logger *log.Logger) *Store {
	if notifier == nil {
		notifier = NewLocalNotifier()
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{repo: repo, notifier: notifier, logger: logger.With("component", "store")}
}

// Save writes draft into the session's collection and returns the document id.
//
// Create and Remix always produce a new document stamped with the current time. Update keeps
// the stored creation time (or opts.CreatedAt when set) and the Spotify link, and fails with
// [shared.ErrNotFound] if the document no longer exists.
func (s *Store) Save(ctx context.Context, session models.Session, draft models.Draft, opts SaveOptions) (string, error) {
	if err := session.Require(); err != nil {
		return "", err
	}
	if err := draft.Validate(); err != nil {
		return "", err
	}

	var playlist *models.Playlist
	switch opts.Mode {
	case ModeUpdate:
		existing, err := s.Get(ctx, session, opts.ID)
		if err != nil {
			return "", err
		}

		playlist = models.NewPlaylist(existing.Sequence(), session.AppID, session.UserID, draft)
		playlist.SetID(existing.ID())
		playlist.SetCreatedAt(existing.CreatedAt())
		if !opts.CreatedAt.IsZero() {
			playlist.SetCreatedAt(opts.CreatedAt)
		}
		playlist.SetArchived(opts.IsArchived)
		playlist.SetSpotify(existing.SpotifyPlaylistID(), existing.SpotifyPlaylistURL())

		if err := s.repo.Update(ctx, playlist); err != nil {
			return "", err
		}
	default:
		playlist = models.NewPlaylist(0, session.AppID, session.UserID, draft)
		if err := s.repo.Create(ctx, playlist); err != nil {
			return "", err
		}
	}

	s.logger.Info("playlist saved", "mode", opts.Mode, "id", playlist.ID(), "songs", len(playlist.Songs))
	s.changed(ctx, session)
	return playlist.ID(), nil
}

// Get returns one document from the session's collection.
func (s *Store) Get(ctx context.Context, session models.Session, id string) (*models.Playlist, error) {
	if err := session.Require(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("%w: playlist id is required", shared.ErrNotFound)
	}

	playlist, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !playlist.OwnedBy(session.AppID, session.UserID) {
		return nil, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id)
	}
	return playlist, nil
}

// List returns the session's documents, newest update first.
func (s *Store) List(ctx context.Context, session models.Session) ([]*models.Playlist, error) {
	if err := session.Require(); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, map[string]any{"app_id": session.AppID, "user_id": session.UserID})
}

// Delete removes a document from the session's collection.
func (s *Store) Delete(ctx context.Context, session models.Session, id string) error {
	if _, err := s.Get(ctx, session, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("playlist deleted", "id", id)
	s.changed(ctx, session)
	return nil
}

// SetArchived flips the archived flag. The write refreshes updatedAt, which moves the
// document to the top of its section.
func (s *Store) SetArchived(ctx context.Context, session models.Session, id string, archived bool) (*models.Playlist, error) {
	return s.modify(ctx, session, id, func(p *models.Playlist) { p.SetArchived(archived) })
}

// LinkSpotify records the remote playlist created for a document.
func (s *Store) LinkSpotify(ctx context.Context, session models.Session, id, remoteID, remoteURL string) (*models.Playlist, error) {
	return s.modify(ctx, session, id, func(p *models.Playlist) { p.SetSpotify(remoteID, remoteURL) })
}

// SetSongURIs stores resolved Spotify URIs on the document's songs, matched by song id.
func (s *Store) SetSongURIs(ctx context.Context, session models.Session, id string, uris map[string]string) (*models.Playlist, error) {
	return s.modify(ctx, session, id, func(p *models.Playlist) {
		for i, song := range p.Songs {
			if uri, ok := uris[song.ID]; ok && song.SpotifyURI == "" {
				p.Songs[i].SpotifyURI = uri
			}
		}
	})
}

func (s *Store) modify(ctx context.Context, session models.Session, id string, fn func(*models.Playlist)) (*models.Playlist, error) {
	playlist, err := s.Get(ctx, session, id)
	if err != nil {
		return nil, err
	}

	fn(playlist)
	if err := s.repo.Update(ctx, playlist); err != nil {
		return nil, err
	}

	s.changed(ctx, session)
	return playlist, nil
}

// changed publishes a change signal. Failures are logged, never returned: the write
// itself succeeded.
func (s *Store) changed(ctx context.Context, session models.Session) {
	if err := s.notifier.Publish(context.WithoutCancel(ctx), session.CollectionPath()); err != nil {
		s.logger.Warn("change notification failed", "topic", session.CollectionPath(), "err", err)
	}
}

// Subscribe delivers the current snapshot of the session's collection before returning,
// then a fresh snapshot after every change published for it. fn runs on one goroutine at a
// time. No call to fn starts after the returned function returns; it must not be called
// from inside fn.
func (s *Store) Subscribe(ctx context.Context, session models.Session, fn func(Snapshot)) (func(), error) {
	if err := session.Require(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	events, stop, err := s.notifier.Subscribe(ctx, session.CollectionPath())
	if err != nil {
		cancel()
		return nil, err
	}

	var (
		mu      sync.Mutex
		stopped bool
	)
	deliver := func() {
		playlists, err := s.List(ctx, session)
		if err != nil && errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		fn(Snapshot{Playlists: playlists, Err: err})
	}

	deliver()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-events:
				deliver()
			}
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			cancel()
			stop()
			mu.Lock()
			stopped = true
			mu.Unlock()
		})
	}
	return unsubscribe, nil
}
