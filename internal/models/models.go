// package models defines the data model for Mixtape Maestro
package models

import (
	"context"
	"time"
)

// Model defines the base interface for all persistent models.
// Implementations include User, Playlist, ResolvedTrack and Publish.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(ctx context.Context, model T) error                      // Create inserts a new model into the database
	Get(ctx context.Context, id string) (T, error)                  // Get retrieves a model by its ID
	Update(ctx context.Context, model T) error                      // Update modifies an existing model in the database
	Delete(ctx context.Context, id string) error                    // Delete removes a model from the database by its ID
	List(ctx context.Context, criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// timestamps holds the lifecycle fields shared by persistent entities.
type timestamps struct {
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

func newTimestamps() timestamps {
	now := time.Now().UTC()
	return timestamps{createdAt: now, updatedAt: now}
}

// CreatedAt returns when the entity was created
func (t *timestamps) CreatedAt() time.Time { return t.createdAt }

// UpdatedAt returns when the entity was last updated
func (t *timestamps) UpdatedAt() time.Time { return t.updatedAt }

// DeletedAt returns when the entity was soft-deleted, or nil
func (t *timestamps) DeletedAt() *time.Time { return t.deletedAt }

func (t *timestamps) SetCreatedAt(at time.Time) { t.createdAt = at }

func (t *timestamps) SetUpdatedAt(at time.Time) { t.updatedAt = at }

func (t *timestamps) SetDeletedAt(at *time.Time) { t.deletedAt = at }

// IsDeleted reports whether the entity has been soft-deleted
func (t *timestamps) IsDeleted() bool { return t.deletedAt != nil }
