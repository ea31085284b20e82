// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories except the track cache support soft deletes via deleted_at timestamps and
// exclude deleted records from queries by default.
//
// Key Implementations:
//   - [UserRepository] : accounts with email-based lookups and bcrypt hashes
//   - [PlaylistRepository] : playlist documents, listed newest update first
//   - [TrackRepository] : Spotify search results keyed by normalized "title|artist"
//   - [TrackCacheAdapter] : the track cache as seen by the publish engine
//   - [PublishRepository] : Save to Spotify history with outcome and counts
//
// Missing rows are reported as [shared.ErrNotFound]; playlist and publish write failures wrap
// [shared.ErrPersistence].
//
// Sequence numbers provide stable, human-readable ordering independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
