package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/services"
	"github.com/desertthunder/maestro/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers   = 5
	maxWorkers       = 10
	defaultRateLimit = 5.0

	// maxDescriptionLength is the longest playlist description Spotify accepts.
	maxDescriptionLength = 300
)

// TrackCacher stores search results so a song is looked up on a service at most once.
// Lookup keys come from [shared.NormalizeTrackKey].
type TrackCacher interface {
	CachedTrack(ctx context.Context, service, lookupKey string) (*models.Track, error)
	CacheTrack(ctx context.Context, service, lookupKey string, track models.Track) error
}

// TrackMatchResult represents the result of resolving a single song.
type TrackMatchResult struct {
	Song    models.Song   // Song from the playlist
	Matched *models.Track // Matched track (nil if not found)
	Cached  bool          // Matched came from the song itself or the track cache
	Error   error         // Error if match failed
}

// PublishResult contains all data from a Save to Spotify run.
type PublishResult struct {
	RemotePlaylist *services.Playlist  // Created remote playlist (nil if creation never happened)
	Matches        []TrackMatchResult  // Per-song results, in playlist order
	Requested      int                 // Songs in the playlist
	Resolved       int                 // Songs with a track URI
	Added          int                 // URIs added to the remote playlist
	Status         models.PublishStatus
	Err            error // Failure that stopped the run after the playlist was created
}

// URIs maps song ids to the URIs they resolved to.
func (r *PublishResult) URIs() map[string]string {
	uris := make(map[string]string, r.Resolved)
	for _, m := range r.Matches {
		if m.Matched != nil && m.Matched.URI != "" {
			uris[m.Song.ID] = m.Matched.URI
		}
	}
	return uris
}

// Record converts the result into a publish history row for playlistID.
func (r *PublishResult) Record(userID, playlistID string) *models.Publish {
	record := models.NewPublish(0, userID, playlistID)
	if r.RemotePlaylist != nil {
		record.SetRemote(r.RemotePlaylist.ID, r.RemotePlaylist.URL)
	}
	record.SetCounts(r.Requested, r.Resolved, r.Added)
	errText := ""
	if r.Err != nil {
		errText = r.Err.Error()
	}
	record.SetOutcome(r.Status, errText)
	return record
}

// Publisher pushes a stored playlist to a remote music service.
type Publisher interface {
	Publish(ctx context.Context, progress chan<- ProgressUpdate, playlist *models.Playlist) (*PublishResult, error)
}

// PlaylistEngine implements Publisher for Spotify.
type PlaylistEngine struct {
	spotify services.Service
	cache   TrackCacher
	workers int
	limiter *rate.Limiter
	logger  *log.Logger
}

// Option configures a [PlaylistEngine].
type Option func(*PlaylistEngine)

// WithTrackCache enables the resolved-track cache.
func WithTrackCache(cache TrackCacher) Option {
	return func(e *PlaylistEngine) { e.cache = cache }
}

// WithWorkers sets the number of concurrent track lookups (1-10).
func WithWorkers(n int) Option {
	return func(e *PlaylistEngine) {
		if n > 0 {
			e.workers = min(n, maxWorkers)
		}
	}
}

// WithRateLimit sets the number of search requests per second.
func WithRateLimit(perSecond float64) Option {
	return func(e *PlaylistEngine) {
		if perSecond > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *PlaylistEngine) { e.logger = logger }
}

// NewPlaylistEngine creates a new PlaylistEngine publishing to spotify.
func NewPlaylistEngine(spotify services.Service, opts ...Option) *PlaylistEngine {
	e := &PlaylistEngine{
		spotify: spotify,
		workers: defaultWorkers,
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), 1),
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// sendProgress sends a progress update through the channel without blocking.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Publish resolves every song of playlist to a track URI, creates the remote playlist and adds
// the URIs in chunks of [services.MaxTracksPerRequest].
//
// An error is returned when the run stops before the remote playlist exists. Once it exists,
// a failed add yields a partial result with Err set and a nil error.
func (e *PlaylistEngine) Publish(ctx context.Context, progress chan<- ProgressUpdate, playlist *models.Playlist) (*PublishResult, error) {
	if e.spotify == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if playlist == nil {
		return nil, fmt.Errorf("%w: playlist is required", shared.ErrMissingArgument)
	}

	result := &PublishResult{Requested: len(playlist.Songs), Status: models.PublishFailed}
	fail := func(err error) (*PublishResult, error) {
		result.Err = err
		return result, err
	}

	e.sendProgress(progress, searchTracksUpdate(0, result.Requested, nil))
	matches, err := e.resolve(ctx, progress, playlist.Songs)
	if err != nil {
		return fail(err)
	}
	result.Matches = matches
	for _, m := range matches {
		if m.Matched != nil {
			result.Resolved++
		}
	}

	if result.Resolved == 0 {
		return fail(fmt.Errorf("%w: none of the songs were found on %s", shared.ErrNotFound, e.spotify.Name()))
	}

	userID, err := e.spotify.CurrentUserID(ctx)
	if err != nil {
		return fail(err)
	}

	e.sendProgress(progress, createDestinationUpdate(e.spotify.Name()))
	remote, err := e.spotify.CreatePlaylist(ctx, userID, services.Playlist{
		Name:        strings.TrimSpace(playlist.Theme),
		Description: truncate(strings.TrimSpace(playlist.LinerNotes), maxDescriptionLength),
		Public:      playlist.IsPublic,
	})
	if err != nil {
		return fail(err)
	}
	result.RemotePlaylist = remote
	e.sendProgress(progress, createPlaylistUpdate(remote))

	uris := make([]string, 0, result.Resolved)
	for _, m := range matches {
		if m.Matched != nil {
			uris = append(uris, m.Matched.URI)
		}
	}

	for start := 0; start < len(uris); start += services.MaxTracksPerRequest {
		end := min(start+services.MaxTracksPerRequest, len(uris))
		if err := e.spotify.AddTracks(ctx, remote.ID, uris[start:end]); err != nil {
			result.Status = models.PublishPartial
			result.Err = err
			e.logger.Warn("adding tracks failed", "playlist", remote.ID, "added", result.Added, "error", err)
			return result, nil
		}
		result.Added = end
		e.sendProgress(progress, addTracksUpdate(end, len(uris)))
	}

	if result.Added == result.Requested {
		result.Status = models.PublishComplete
	} else {
		result.Status = models.PublishPartial
	}

	e.logger.Info("published playlist",
		"playlist", playlist.ID(), "remote", remote.ID, "status", result.Status,
		"resolved", result.Resolved, "requested", result.Requested)
	return result, nil
}

// resolve matches every song concurrently. Only context errors abort the run; a song that
// cannot be found is recorded in its TrackMatchResult.
func (e *PlaylistEngine) resolve(ctx context.Context, progress chan<- ProgressUpdate, songs []models.Song) ([]TrackMatchResult, error) {
	matches := make([]TrackMatchResult, len(songs))
	total := len(songs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	var done atomic.Int64
	for i, song := range songs {
		g.Go(func() error {
			match, err := e.match(gctx, song)
			if err != nil {
				return err
			}
			matches[i] = match
			e.sendProgress(progress, searchTracksUpdate(int(done.Add(1)), total, &song))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matches, nil
}

// Match resolves a single song the way [PlaylistEngine.Publish] does: the song's own URI
// first, then the track cache, then a rate-limited search.
func (e *PlaylistEngine) Match(ctx context.Context, song models.Song) (TrackMatchResult, error) {
	return e.match(ctx, song)
}

func (e *PlaylistEngine) match(ctx context.Context, song models.Song) (TrackMatchResult, error) {
	result := TrackMatchResult{Song: song}

	if song.SpotifyURI != "" {
		result.Matched = &models.Track{URI: song.SpotifyURI, Title: song.Title, Artist: song.Artist, Album: song.Album}
		result.Cached = true
		return result, nil
	}

	service := strings.ToLower(e.spotify.Name())
	key := shared.NormalizeTrackKey(song.Title, song.Artist)

	if e.cache != nil {
		if track, err := e.cache.CachedTrack(ctx, service, key); err == nil && track != nil && track.URI != "" {
			result.Matched = track
			result.Cached = true
			return result, nil
		}
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return result, err
	}

	track, err := e.spotify.SearchTrack(ctx, song.Title, song.Artist)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return result, err
		}
		result.Error = err
		return result, nil
	}
	result.Matched = track

	if e.cache != nil {
		if err := e.cache.CacheTrack(ctx, service, key, *track); err != nil {
			e.logger.Debug("track cache write failed", "key", key, "error", err)
		}
	}
	return result, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
