package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/shared"
)

// TrackRepository implements models.Repository[*models.ResolvedTrack] for the search cache.
//
// A row maps a normalized "title|artist" key to the track a service returned for it, so
// republishing a mixtape does not search for the same songs again.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

const trackColumns = `id, sequence, service, lookup_key, service_id, uri, title, artist, album, duration_ms,
	created_at, updated_at, deleted_at`

// Create inserts a new [models.ResolvedTrack] into the database with generated ID and sequence
func (r *TrackRepository) Create(ctx context.Context, track *models.ResolvedTrack) error {
	if track.ID() == "" {
		track.SetID(shared.GenerateID())
	}

	if err := track.Validate(); err != nil {
		return err
	}

	sequence, err := NextSequence(ctx, r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	track.SetSequence(sequence)

	query := `
		INSERT INTO tracks (id, sequence, service, lookup_key, service_id, uri, title, artist, album, duration_ms, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	remote := track.Track()
	_, err = r.db.ExecContext(ctx, query,
		track.ID(),
		sequence,
		track.Service(),
		track.LookupKey(),
		remote.ID,
		remote.URI,
		remote.Title,
		remote.Artist,
		remote.Album,
		remote.DurationMS,
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a track by ID, excluding soft-deleted tracks
func (r *TrackRepository) Get(ctx context.Context, id string) (*models.ResolvedTrack, error) {
	query := "SELECT " + trackColumns + " FROM tracks WHERE id = ? AND deleted_at IS NULL"

	track, err := scanTrack(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "track", id)
	}
	return track, nil
}

// GetByLookupKey retrieves the cached result for a normalized key on service.
func (r *TrackRepository) GetByLookupKey(ctx context.Context, service, lookupKey string) (*models.ResolvedTrack, error) {
	query := "SELECT " + trackColumns + " FROM tracks WHERE service = ? AND lookup_key = ? AND deleted_at IS NULL"

	track, err := scanTrack(r.db.QueryRowContext(ctx, query, service, lookupKey))
	if err != nil {
		return nil, notFound(err, "track", lookupKey)
	}
	return track, nil
}

// Update replaces the remote identifiers of a cached track.
func (r *TrackRepository) Update(ctx context.Context, track *models.ResolvedTrack) error {
	if err := track.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	remote := track.Track()
	query := `
		UPDATE tracks
		SET service_id = ?, uri = ?, title = ?, artist = ?, album = ?, duration_ms = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		remote.ID, remote.URI, remote.Title, remote.Artist, remote.Album, remote.DurationMS, now, track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}
	if err := expectOne(result, "track", track.ID()); err != nil {
		return err
	}

	track.SetUpdatedAt(now)
	return nil
}

// Delete removes a cached track by ID. Cache rows are deleted outright so the lookup key
// can be resolved again.
func (r *TrackRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tracks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}
	return expectOne(result, "track", id)
}

// List retrieves cached tracks matching the given criteria.
//
// Supported criteria: "service", "artist".
func (r *TrackRepository) List(ctx context.Context, criteria map[string]any) ([]*models.ResolvedTrack, error) {
	query := "SELECT " + trackColumns + " FROM tracks WHERE deleted_at IS NULL"
	args := []any{}

	if service, ok := criteria["service"].(string); ok && service != "" {
		query += " AND service = ?"
		args = append(args, service)
	}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.ResolvedTrack
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

func scanTrack(row scanner) (*models.ResolvedTrack, error) {
	var (
		id        string
		sequence  int
		service   string
		lookupKey string
		remote    models.Track
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &service, &lookupKey, &remote.ID, &remote.URI, &remote.Title, &remote.Artist,
		&remote.Album, &remote.DurationMS, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	track := models.NewResolvedTrack(sequence, service, lookupKey, remote)
	track.SetID(id)
	track.SetCreatedAt(createdAt)
	track.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		track.SetDeletedAt(&deletedAt.Time)
	}
	return track, nil
}
