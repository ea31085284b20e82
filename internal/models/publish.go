package models

import (
	"fmt"

	"github.com/desertthunder/maestro/internal/shared"
)

// PublishStatus is the outcome of a Save to Spotify run.
type PublishStatus string

const (
	PublishComplete PublishStatus = "complete"
	PublishPartial  PublishStatus = "partial"
	PublishFailed   PublishStatus = "failed"
)

// Publish records one Save to Spotify run for a playlist.
type Publish struct {
	timestamps

	id                string
	sequence          int
	userID            string
	playlistID        string
	remotePlaylistID  string
	remotePlaylistURL string
	status            PublishStatus
	tracksRequested   int
	tracksResolved    int
	tracksAdded       int
	errorText         string
}

// NewPublish starts a publish record for playlistID owned by userID.
func NewPublish(sequence int, userID, playlistID string) *Publish {
	return &Publish{
		timestamps: newTimestamps(),
		sequence:   sequence,
		userID:     userID,
		playlistID: playlistID,
		status:     PublishFailed,
	}
}

func (p *Publish) ID() string { return p.id }
func (p *Publish) SetID(id string) { p.id = id }
func (p *Publish) Sequence() int { return p.sequence }
func (p *Publish) SetSequence(sequence int) { p.sequence = sequence }
func (p *Publish) UserID() string { return p.userID }
func (p *Publish) PlaylistID() string { return p.playlistID }
func (p *Publish) RemotePlaylistID() string { return p.remotePlaylistID }
func (p *Publish) RemotePlaylistURL() string { return p.remotePlaylistURL }
func (p *Publish) Status() PublishStatus { return p.status }
func (p *Publish) TracksRequested() int { return p.tracksRequested }
func (p *Publish) TracksResolved() int { return p.tracksResolved }
func (p *Publish) TracksAdded() int { return p.tracksAdded }
func (p *Publish) Error() string { return p.errorText }

// SetRemote records the playlist created on the remote service.
func (p *Publish) SetRemote(id, url string) {
	p.remotePlaylistID = id
	p.remotePlaylistURL = url
}

// SetCounts records how many tracks were requested, resolved and added.
func (p *Publish) SetCounts(requested, resolved, added int) {
	p.tracksRequested = requested
	p.tracksResolved = resolved
	p.tracksAdded = added
}

// SetOutcome records the final status and error text.
func (p *Publish) SetOutcome(status PublishStatus, errText string) {
	p.status = status
	p.errorText = errText
}

// Validate checks owner and status fields.
func (p *Publish) Validate() error {
	if p.userID == "" || p.playlistID == "" {
		return fmt.Errorf("%w: publish requires a user and a playlist", shared.ErrValidation)
	}
	switch p.status {
	case PublishComplete, PublishPartial, PublishFailed:
	default:
		return fmt.Errorf("%w: unknown publish status %q", shared.ErrValidation, p.status)
	}
	return nil
}
