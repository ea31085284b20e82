package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/shared"
)

// PublishRepository implements models.Repository[*models.Publish] for Save to Spotify history.
type PublishRepository struct {
	db *sql.DB
}

// NewPublishRepository creates a new PublishRepository with the given database connection
func NewPublishRepository(db *sql.DB) *PublishRepository {
	return &PublishRepository{db: db}
}

const publishColumns = `id, sequence, user_id, playlist_id, remote_playlist_id, remote_playlist_url, status,
	tracks_requested, tracks_resolved, tracks_added, error, created_at, updated_at, deleted_at`

// Create inserts a new publish record with generated ID and sequence
func (r *PublishRepository) Create(ctx context.Context, publish *models.Publish) error {
	if publish.ID() == "" {
		publish.SetID(shared.GenerateID())
	}

	if err := publish.Validate(); err != nil {
		return err
	}

	sequence, err := NextSequence(ctx, r.db, "publishes")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	publish.SetSequence(sequence)

	query := `
		INSERT INTO publishes (
			id, sequence, user_id, playlist_id, remote_playlist_id, remote_playlist_url, status,
			tracks_requested, tracks_resolved, tracks_added, error, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		publish.ID(),
		sequence,
		publish.UserID(),
		publish.PlaylistID(),
		publish.RemotePlaylistID(),
		publish.RemotePlaylistURL(),
		publish.Status(),
		publish.TracksRequested(),
		publish.TracksResolved(),
		publish.TracksAdded(),
		publish.Error(),
		publish.CreatedAt(),
		publish.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to insert publish: %v", shared.ErrPersistence, err)
	}

	return nil
}

// Get retrieves a publish record by ID, excluding soft-deleted records
func (r *PublishRepository) Get(ctx context.Context, id string) (*models.Publish, error) {
	query := "SELECT " + publishColumns + " FROM publishes WHERE id = ? AND deleted_at IS NULL"

	publish, err := scanPublish(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "publish", id)
	}
	return publish, nil
}

// Update stores the outcome fields of an existing publish record
func (r *PublishRepository) Update(ctx context.Context, publish *models.Publish) error {
	if err := publish.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	query := `
		UPDATE publishes
		SET remote_playlist_id = ?, remote_playlist_url = ?, status = ?, tracks_requested = ?,
			tracks_resolved = ?, tracks_added = ?, error = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		publish.RemotePlaylistID(),
		publish.RemotePlaylistURL(),
		publish.Status(),
		publish.TracksRequested(),
		publish.TracksResolved(),
		publish.TracksAdded(),
		publish.Error(),
		now,
		publish.ID(),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to update publish: %v", shared.ErrPersistence, err)
	}
	if err := expectOne(result, "publish", publish.ID()); err != nil {
		return err
	}

	publish.SetUpdatedAt(now)
	return nil
}

// Delete soft-deletes a publish record by ID
func (r *PublishRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE publishes
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete publish: %v", shared.ErrPersistence, err)
	}
	return expectOne(result, "publish", id)
}

// List retrieves publish records, most recent first.
//
// Supported criteria: "user_id", "playlist_id", "status".
func (r *PublishRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Publish, error) {
	query := "SELECT " + publishColumns + " FROM publishes WHERE deleted_at IS NULL"
	args := []any{}

	for _, column := range []string{"user_id", "playlist_id"} {
		if value, ok := criteria[column].(string); ok && value != "" {
			query += " AND " + column + " = ?"
			args = append(args, value)
		}
	}

	switch status := criteria["status"].(type) {
	case models.PublishStatus:
		query += " AND status = ?"
		args = append(args, string(status))
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	}

	query += " ORDER BY created_at DESC, sequence DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query publishes: %v", shared.ErrPersistence, err)
	}
	defer rows.Close()

	var publishes []*models.Publish
	for rows.Next() {
		publish, err := scanPublish(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan publish: %w", err)
		}
		publishes = append(publishes, publish)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return publishes, nil
}

func scanPublish(row scanner) (*models.Publish, error) {
	var (
		id         string
		sequence   int
		userID     string
		playlistID string
		remoteID   string
		remoteURL  string
		status     string
		requested  int
		resolved   int
		added      int
		errText    string
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &userID, &playlistID, &remoteID, &remoteURL, &status,
		&requested, &resolved, &added, &errText, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	publish := models.NewPublish(sequence, userID, playlistID)
	publish.SetID(id)
	publish.SetRemote(remoteID, remoteURL)
	publish.SetCounts(requested, resolved, added)
	publish.SetOutcome(models.PublishStatus(status), errText)
	publish.SetCreatedAt(createdAt)
	publish.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		publish.SetDeletedAt(&deletedAt.Time)
	}
	return publish, nil
}
