package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/shared"
)

// PlaylistRepository implements models.Repository[*models.Playlist] for playlist documents.
//
// List fields (songs, tags, seed songs) and preferences are stored as JSON text columns.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

const playlistColumns = `id, sequence, app_id, user_id, theme, original_theme_prompt, songs, liner_notes,
	cover_art_url, tags, seed_songs, preferences, is_public, is_archived, spotify_playlist_id,
	spotify_playlist_url, created_at, updated_at, deleted_at`

// playlistRow holds the encoded JSON columns of a playlist.
type playlistRow struct {
	songs       string
	tags        string
	seedSongs   string
	preferences string
}

func encodePlaylist(p *models.Playlist) (playlistRow, error) {
	var (
		row playlistRow
		err error
	)
	if row.songs, err = encodeColumn(nonNil(p.Songs)); err != nil {
		return row, err
	}
	if row.tags, err = encodeColumn(nonNil(p.Tags)); err != nil {
		return row, err
	}
	if row.seedSongs, err = encodeColumn(nonNil(p.SeedSongs)); err != nil {
		return row, err
	}
	if row.preferences, err = encodeColumn(p.Preferences); err != nil {
		return row, err
	}
	return row, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// Create inserts a new playlist with a generated ID and sequence. The playlist keeps its
// own created and updated timestamps.
func (r *PlaylistRepository) Create(ctx context.Context, playlist *models.Playlist) error {
	if playlist.ID() == "" {
		playlist.SetID(shared.GenerateID())
	}

	if err := playlist.Validate(); err != nil {
		return err
	}

	sequence, err := NextSequence(ctx, r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	playlist.SetSequence(sequence)

	row, err := encodePlaylist(playlist)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO playlists (
			id, sequence, app_id, user_id, theme, original_theme_prompt, songs, liner_notes,
			cover_art_url, tags, seed_songs, preferences, is_public, is_archived,
			spotify_playlist_id, spotify_playlist_url, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		playlist.ID(),
		sequence,
		playlist.AppID(),
		playlist.UserID(),
		playlist.Theme,
		playlist.OriginalThemePrompt,
		row.songs,
		playlist.LinerNotes,
		playlist.CoverArtURL,
		row.tags,
		row.seedSongs,
		row.preferences,
		playlist.IsPublic,
		playlist.IsArchived(),
		playlist.SpotifyPlaylistID(),
		playlist.SpotifyPlaylistURL(),
		playlist.CreatedAt(),
		playlist.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to insert playlist: %v", shared.ErrPersistence, err)
	}

	return nil
}

// Get retrieves a playlist by ID, excluding soft-deleted playlists
func (r *PlaylistRepository) Get(ctx context.Context, id string) (*models.Playlist, error) {
	query := "SELECT " + playlistColumns + " FROM playlists WHERE id = ? AND deleted_at IS NULL"

	playlist, err := scanPlaylist(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "playlist", id)
	}
	return playlist, nil
}

// Update overwrites every document field of an existing playlist and stamps updated_at.
//
// The row must belong to the playlist's app and user.
func (r *PlaylistRepository) Update(ctx context.Context, playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return err
	}

	row, err := encodePlaylist(playlist)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	query := `
		UPDATE playlists
		SET theme = ?, original_theme_prompt = ?, songs = ?, liner_notes = ?, cover_art_url = ?,
			tags = ?, seed_songs = ?, preferences = ?, is_public = ?, is_archived = ?,
			spotify_playlist_id = ?, spotify_playlist_url = ?, updated_at = ?
		WHERE id = ? AND app_id = ? AND user_id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		playlist.Theme,
		playlist.OriginalThemePrompt,
		row.songs,
		playlist.LinerNotes,
		playlist.CoverArtURL,
		row.tags,
		row.seedSongs,
		row.preferences,
		playlist.IsPublic,
		playlist.IsArchived(),
		playlist.SpotifyPlaylistID(),
		playlist.SpotifyPlaylistURL(),
		now,
		playlist.ID(),
		playlist.AppID(),
		playlist.UserID(),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to update playlist: %v", shared.ErrPersistence, err)
	}
	if err := expectOne(result, "playlist", playlist.ID()); err != nil {
		return err
	}

	playlist.SetUpdatedAt(now)
	return nil
}

// Delete soft-deletes a playlist by ID
func (r *PlaylistRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE playlists
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete playlist: %v", shared.ErrPersistence, err)
	}
	return expectOne(result, "playlist", id)
}

// List retrieves playlists matching the given criteria, newest update first.
//
// Supported criteria: "app_id", "user_id" (strings) and "is_archived" (bool).
func (r *PlaylistRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Playlist, error) {
	query := "SELECT " + playlistColumns + " FROM playlists WHERE deleted_at IS NULL"
	args := []any{}

	if appID, ok := criteria["app_id"].(string); ok && appID != "" {
		query += " AND app_id = ?"
		args = append(args, appID)
	}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	if archived, ok := criteria["is_archived"].(bool); ok {
		query += " AND is_archived = ?"
		args = append(args, archived)
	}

	query += " ORDER BY updated_at DESC, sequence DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query playlists: %v", shared.ErrPersistence, err)
	}
	defer rows.Close()

	playlists := []*models.Playlist{}
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

func scanPlaylist(row scanner) (*models.Playlist, error) {
	var (
		id         string
		sequence   int
		appID      string
		userID     string
		encoded    playlistRow
		isArchived bool
		spotifyID  string
		spotifyURL string
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)
	draft := models.NewDraft()

	err := row.Scan(
		&id, &sequence, &appID, &userID, &draft.Theme, &draft.OriginalThemePrompt, &encoded.songs,
		&draft.LinerNotes, &draft.CoverArtURL, &encoded.tags, &encoded.seedSongs, &encoded.preferences,
		&draft.IsPublic, &isArchived, &spotifyID, &spotifyURL, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, col := range []struct {
		text string
		dst  any
	}{
		{encoded.songs, &draft.Songs},
		{encoded.tags, &draft.Tags},
		{encoded.seedSongs, &draft.SeedSongs},
		{encoded.preferences, &draft.Preferences},
	} {
		if err := decodeColumn(col.text, col.dst); err != nil {
			return nil, err
		}
	}

	playlist := models.NewPlaylist(sequence, appID, userID, draft)
	playlist.SetID(id)
	playlist.SetArchived(isArchived)
	playlist.SetSpotify(spotifyID, spotifyURL)
	playlist.SetCreatedAt(createdAt)
	playlist.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		playlist.SetDeletedAt(&deletedAt.Time)
	}
	return playlist, nil
}
