package models

import (
	"fmt"

	"github.com/desertthunder/maestro/internal/shared"
)

// ResolvedTrack caches the result of looking up a (title, artist) pair on a service.
type ResolvedTrack struct {
	timestamps

	track     Track
	id        string
	sequence  int
	service   string
	lookupKey string
}

// NewResolvedTrack creates a cache entry for track found on service under lookupKey.
func NewResolvedTrack(sequence int, service, lookupKey string, track Track) *ResolvedTrack {
	return &ResolvedTrack{
		timestamps: newTimestamps(),
		track:      track,
		sequence:   sequence,
		service:    service,
		lookupKey:  lookupKey,
	}
}

func (t *ResolvedTrack) ID() string { return t.id }
func (t *ResolvedTrack) SetID(id string) { t.id = id }
func (t *ResolvedTrack) Sequence() int { return t.sequence }
func (t *ResolvedTrack) SetSequence(sequence int) { t.sequence = sequence }
func (t *ResolvedTrack) Service() string { return t.service }
func (t *ResolvedTrack) LookupKey() string { return t.lookupKey }
func (t *ResolvedTrack) Track() Track { return t.track }

// Validate checks the cache key and the remote identifiers.
func (t *ResolvedTrack) Validate() error {
	if t.service == "" || t.lookupKey == "" {
		return fmt.Errorf("%w: service and lookup key are required", shared.ErrValidation)
	}
	if t.track.ID == "" || t.track.URI == "" {
		return fmt.Errorf("%w: remote track id and uri are required", shared.ErrValidation)
	}
	return nil
}
