package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/maestro/internal/models"
)

// TrackCacheAdapter serves tasks.TrackCacher from the tracks table.
//
// The table is unique on (service, lookup_key); the first match written wins,
// so concurrent publishes of the same song never fail on the cache.
type TrackCacheAdapter struct {
	repo *TrackRepository
}

func NewTrackCacheAdapter(repo *TrackRepository) *TrackCacheAdapter {
	return &TrackCacheAdapter{repo: repo}
}

// CachedTrack wraps [shared.ErrNotFound] on a miss.
func (c *TrackCacheAdapter) CachedTrack(ctx context.Context, service, lookupKey string) (*models.Track, error) {
	hit, err := c.repo.GetByLookupKey(ctx, service, lookupKey)
	if err != nil {
		return nil, err
	}
	track := hit.Track()
	return &track, nil
}

func (c *TrackCacheAdapter) CacheTrack(ctx context.Context, service, lookupKey string, track models.Track) error {
	switch err := c.repo.Create(ctx, models.NewResolvedTrack(0, service, lookupKey, track)); {
	case err == nil, isUniqueViolation(err):
		return nil
	default:
		return fmt.Errorf("failed to cache track %s: %w", lookupKey, err)
	}
}
