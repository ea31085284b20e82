// Package tasks publishes stored playlists to Spotify with real-time progress reporting.
//
// # Publishing
//
// [PlaylistEngine.Publish] runs in three phases:
//
//  1. Resolve every song to a track URI
//     - Songs that already carry a Spotify URI are used as is
//     - Otherwise the [TrackCacher] is consulted, then Spotify search
//     - Lookups run on an errgroup bounded by the worker count and a rate limiter
//  2. Create the remote playlist (theme as name, liner notes as description)
//  3. Add the URIs in chunks of [services.MaxTracksPerRequest]
//
// A failure after the remote playlist exists does not return an error. The result carries
// status partial and the failure in [PublishResult.Err], so callers can report the created
// playlist and the failed step separately.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Track Caching
//
// The optional [TrackCacher] interface (repositories.TrackCacheAdapter) keeps search results
// keyed by normalized "title|artist". Cache errors are logged and never stop a publish.
package tasks
