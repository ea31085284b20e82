package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/services/servicetest"
	"github.com/desertthunder/maestro/internal/shared"
)

type mockCache struct {
	mu       sync.Mutex
	tracks   map[string]models.Track
	writes   int
	writeErr error
}

func newMockCache() *mockCache {
	return &mockCache{tracks: make(map[string]models.Track)}
}

func (m *mockCache) CachedTrack(ctx context.Context, service, lookupKey string) (*models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	track, ok := m.tracks[service+"/"+lookupKey]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &track, nil
}

func (m *mockCache) CacheTrack(ctx context.Context, service, lookupKey string, track models.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.tracks[service+"/"+lookupKey] = track
	return nil
}

func track(n int) models.Track {
	return models.Track{
		ID:     fmt.Sprintf("t%d", n),
		URI:    fmt.Sprintf("spotify:track:t%d", n),
		Title:  fmt.Sprintf("Song %d", n),
		Artist: fmt.Sprintf("Artist %d", n),
	}
}

func playlistOf(n int) *models.Playlist {
	draft := models.NewDraft()
	draft.Theme = "Night Drive"
	draft.LinerNotes = "Neon and asphalt."
	draft.IsPublic = true
	for i := range n {
		draft.Songs = append(draft.Songs, models.Song{
			ID:     fmt.Sprintf("s%d", i+1),
			Title:  fmt.Sprintf("Song %d", i+1),
			Artist: fmt.Sprintf("Artist %d", i+1),
		})
	}
	pl := models.NewPlaylist(1, "app", "user", draft)
	pl.SetID("doc-1")
	return pl
}

func fastEngine(svc *servicetest.Service, opts ...Option) *PlaylistEngine {
	return NewPlaylistEngine(svc, append([]Option{WithRateLimit(1000)}, opts...)...)
}

func TestPlaylistEngine_Publish(t *testing.T) {
	tests := []struct {
		name         string
		songs        int
		known        []int
		addErrOnCall int
		wantStatus   models.PublishStatus
		wantResolved int
		wantAdded    int
		wantBatches  int
	}{
		{name: "every song found", songs: 3, known: []int{1, 2, 3}, wantStatus: models.PublishComplete, wantResolved: 3, wantAdded: 3, wantBatches: 1},
		{name: "some songs missing", songs: 3, known: []int{1, 3}, wantStatus: models.PublishPartial, wantResolved: 2, wantAdded: 2, wantBatches: 1},
		{name: "chunks of one hundred", songs: 250, wantStatus: models.PublishComplete, wantResolved: 250, wantAdded: 250, wantBatches: 3},
		{name: "second chunk fails", songs: 150, addErrOnCall: 2, wantStatus: models.PublishPartial, wantResolved: 150, wantAdded: 100, wantBatches: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := servicetest.NewService("spotify-user")
			known := tt.known
			if known == nil {
				for i := range tt.songs {
					known = append(known, i+1)
				}
			}
			for _, n := range known {
				tr := track(n)
				svc.Tracks[shared.NormalizeTrackKey(tr.Title, tr.Artist)] = tr
			}
			svc.AddErrOnCall = tt.addErrOnCall

			result, err := fastEngine(svc).Publish(context.Background(), nil, playlistOf(tt.songs))
			if err != nil {
				t.Fatalf("Publish() unexpected error: %v", err)
			}

			if result.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", result.Status, tt.wantStatus)
			}
			if result.Requested != tt.songs || result.Resolved != tt.wantResolved || result.Added != tt.wantAdded {
				t.Errorf("counts = %d/%d/%d, want %d/%d/%d",
					result.Requested, result.Resolved, result.Added, tt.songs, tt.wantResolved, tt.wantAdded)
			}
			if got := len(svc.Added()); got != tt.wantBatches {
				t.Errorf("expected %d add calls, got %d", tt.wantBatches, got)
			}
			for _, batch := range svc.Added() {
				if len(batch) > 100 {
					t.Errorf("batch of %d exceeds the per-request limit", len(batch))
				}
			}
			if tt.addErrOnCall > 0 && !errors.Is(result.Err, shared.ErrUpstream) {
				t.Errorf("expected upstream error on result, got %v", result.Err)
			}
			if result.RemotePlaylist == nil || result.RemotePlaylist.ID != "remote-1" {
				t.Errorf("expected remote playlist, got %+v", result.RemotePlaylist)
			}
		})
	}
}

func TestPlaylistEngine_PublishDetails(t *testing.T) {
	t.Run("Remote Playlist Fields", func(t *testing.T) {
		svc := servicetest.NewService("spotify-user", track(1))
		pl := playlistOf(1)
		pl.LinerNotes = strings.Repeat("x", 400)

		if _, err := fastEngine(svc).Publish(context.Background(), nil, pl); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		created := svc.Created()
		if len(created) != 1 {
			t.Fatalf("expected one playlist, got %d", len(created))
		}
		if created[0].Name != "Night Drive" || !created[0].Public {
			t.Errorf("unexpected remote playlist: %+v", created[0])
		}
		if len(created[0].Description) != maxDescriptionLength {
			t.Errorf("expected description truncated to %d, got %d", maxDescriptionLength, len(created[0].Description))
		}
	})

	t.Run("Order Follows Playlist", func(t *testing.T) {
		svc := servicetest.NewService("spotify-user", track(1), track(2), track(3), track(4))

		if _, err := fastEngine(svc, WithWorkers(4)).Publish(context.Background(), nil, playlistOf(4)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		batch := svc.Added()[0]
		for i, uri := range batch {
			if want := track(i + 1).URI; uri != want {
				t.Errorf("position %d = %s, want %s", i, uri, want)
			}
		}
	})

	t.Run("Known URIs Skip Search", func(t *testing.T) {
		svc := servicetest.NewService("spotify-user", track(2))
		pl := playlistOf(2)
		pl.Songs[0].SpotifyURI = "spotify:track:known"

		result, err := fastEngine(svc).Publish(context.Background(), nil, pl)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(svc.Searches()) != 1 {
			t.Errorf("expected one search, got %v", svc.Searches())
		}
		if !result.Matches[0].Cached {
			t.Error("expected first match to come from the song")
		}
		if uris := result.URIs(); uris["s1"] != "spotify:track:known" || uris["s2"] != track(2).URI {
			t.Errorf("unexpected uris: %v", uris)
		}
	})

	t.Run("Track Cache", func(t *testing.T) {
		cache := newMockCache()
		svc := servicetest.NewService("spotify-user", track(1))
		engine := fastEngine(svc, WithTrackCache(cache))

		for range 2 {
			if _, err := engine.Publish(context.Background(), nil, playlistOf(1)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		if got := len(svc.Searches()); got != 1 {
			t.Errorf("expected the second run to hit the cache, got %d searches", got)
		}
		if cache.writes != 1 {
			t.Errorf("expected one cache write, got %d", cache.writes)
		}
	})

	t.Run("Cache Write Errors Are Ignored", func(t *testing.T) {
		cache := newMockCache()
		cache.writeErr = errors.New("disk full")
		svc := servicetest.NewService("spotify-user", track(1))

		result, err := fastEngine(svc, WithTrackCache(cache)).Publish(context.Background(), nil, playlistOf(1))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Status != models.PublishComplete {
			t.Errorf("expected complete, got %s", result.Status)
		}
	})

	t.Run("Record", func(t *testing.T) {
		svc := servicetest.NewService("spotify-user", track(1))
		svc.AddErrOnCall = 1

		result, err := fastEngine(svc).Publish(context.Background(), nil, playlistOf(2))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		record := result.Record("user", "doc-1")
		if record.Status() != models.PublishPartial || record.RemotePlaylistID() != "remote-1" {
			t.Errorf("unexpected record: %s %s", record.Status(), record.RemotePlaylistID())
		}
		if record.TracksRequested() != 2 || record.TracksResolved() != 1 || record.TracksAdded() != 0 {
			t.Errorf("unexpected counts: %d/%d/%d", record.TracksRequested(), record.TracksResolved(), record.TracksAdded())
		}
		if record.Error() == "" {
			t.Error("expected error text on record")
		}
		if err := record.Validate(); err != nil {
			t.Errorf("record should validate: %v", err)
		}
	})

	t.Run("Progress", func(t *testing.T) {
		svc := servicetest.NewService("spotify-user", track(1), track(2))
		progress := make(chan ProgressUpdate, 100)

		if _, err := fastEngine(svc).Publish(context.Background(), progress, playlistOf(2)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(progress)

		phases := make(map[Phase]int)
		for update := range progress {
			phases[update.Phase]++
		}
		if phases[SearchTracks] != 3 || phases[CreatePlaylist] != 2 || phases[AddTracks] != 1 {
			t.Errorf("unexpected phase counts: %v", phases)
		}
	})

	t.Run("Full Progress Channel Does Not Block", func(t *testing.T) {
		svc := servicetest.NewService("spotify-user", track(1), track(2))
		progress := make(chan ProgressUpdate)

		if _, err := fastEngine(svc).Publish(context.Background(), progress, playlistOf(2)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestPlaylistEngine_PublishErrors(t *testing.T) {
	t.Run("Service Not Initialized", func(t *testing.T) {
		_, err := NewPlaylistEngine(nil).Publish(context.Background(), nil, playlistOf(1))
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Nil Playlist", func(t *testing.T) {
		_, err := fastEngine(servicetest.NewService("u")).Publish(context.Background(), nil, nil)
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Nothing Resolved", func(t *testing.T) {
		svc := servicetest.NewService("spotify-user")

		result, err := fastEngine(svc).Publish(context.Background(), nil, playlistOf(2))
		if !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if result.Status != models.PublishFailed || len(svc.Created()) != 0 {
			t.Errorf("expected failed run without a remote playlist, got %s with %d created", result.Status, len(svc.Created()))
		}
	})

	t.Run("Profile Lookup Fails", func(t *testing.T) {
		svc := servicetest.NewService("", track(1))
		svc.UserErr = fmt.Errorf("%w: token revoked", shared.ErrUpstream)

		_, err := fastEngine(svc).Publish(context.Background(), nil, playlistOf(1))
		if !errors.Is(err, shared.ErrUpstream) {
			t.Errorf("expected ErrUpstream, got %v", err)
		}
	})

	t.Run("Create Fails", func(t *testing.T) {
		svc := servicetest.NewService("spotify-user", track(1))
		svc.CreateErr = fmt.Errorf("%w: spotify status 403: forbidden", shared.ErrUpstream)

		result, err := fastEngine(svc).Publish(context.Background(), nil, playlistOf(1))
		if !errors.Is(err, shared.ErrUpstream) {
			t.Fatalf("expected ErrUpstream, got %v", err)
		}
		if result.RemotePlaylist != nil || len(svc.Added()) != 0 {
			t.Error("expected no remote playlist and no adds")
		}
	})

	t.Run("Search Errors Are Per Song", func(t *testing.T) {
		svc := servicetest.NewService("spotify-user", track(1), track(2))
		svc.SearchErr[shared.NormalizeTrackKey("Song 2", "Artist 2")] = fmt.Errorf("%w: status 500", shared.ErrUpstream)

		result, err := fastEngine(svc).Publish(context.Background(), nil, playlistOf(2))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Matches[1].Error == nil || result.Resolved != 1 {
			t.Errorf("expected second song to fail alone, got %+v", result.Matches)
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		svc := servicetest.NewService("spotify-user", track(1))
		_, err := NewPlaylistEngine(svc, WithRateLimit(0.001)).Publish(ctx, nil, playlistOf(1))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(svc.Created()) != 0 {
			t.Error("expected no remote playlist after cancellation")
		}
	})
}

func TestPlaylistEngine_Match(t *testing.T) {
	ctx := context.Background()
	svc := servicetest.NewService("spotify-user", track(1))
	cache := newMockCache()
	engine := fastEngine(svc, WithTrackCache(cache))
	song := models.Song{Title: "Song 1", Artist: "Artist 1"}

	t.Run("searches then caches", func(t *testing.T) {
		result, err := engine.Match(ctx, song)
		if err != nil {
			t.Fatalf("Match() unexpected error: %v", err)
		}
		if result.Matched == nil || result.Matched.URI != "spotify:track:t1" || result.Cached {
			t.Errorf("unexpected result %+v", result)
		}

		again, err := engine.Match(ctx, song)
		if err != nil {
			t.Fatalf("Match() unexpected error: %v", err)
		}
		if !again.Cached {
			t.Error("expected the second lookup to hit the cache")
		}
		if got := len(svc.Searches()); got != 1 {
			t.Errorf("expected 1 search, got %d", got)
		}
	})

	t.Run("not found is reported on the result", func(t *testing.T) {
		result, err := engine.Match(ctx, models.Song{Title: "Nope", Artist: "Nobody"})
		if err != nil {
			t.Fatalf("Match() unexpected error: %v", err)
		}
		if result.Matched != nil || !errors.Is(result.Error, shared.ErrNotFound) {
			t.Errorf("expected not found, got %+v", result)
		}
	})
}

func TestWithWorkers(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: 0, want: defaultWorkers},
		{in: -1, want: defaultWorkers},
		{in: 3, want: 3},
		{in: 50, want: maxWorkers},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			if got := NewPlaylistEngine(nil, WithWorkers(tt.in)).workers; got != tt.want {
				t.Errorf("workers = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPhaseString(t *testing.T) {
	for phase, want := range map[Phase]string{SearchTracks: "search_tracks", CreatePlaylist: "create_playlist", AddTracks: "add_tracks", Phase(99): ""} {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", phase, got, want)
		}
	}
}

func TestProgressStatus(t *testing.T) {
	tests := []struct {
		update ProgressUpdate
		want   string
	}{
		{ProgressUpdate{Message: "Saving to Maestro..."}, "Processing..."},
		{searchTracksUpdate(2, 5, &models.Song{Title: "Nightcall", Artist: "Kavinsky"}), "Searching tracks (2/5)"},
		{createDestinationUpdate("Spotify"), "Creating playlist on Spotify..."},
		{addTracksUpdate(100, 120), "Adding tracks (100/120)"},
	}
	for _, tt := range tests {
		if got := tt.update.Status(); got != tt.want {
			t.Errorf("Status() = %q, want %q", got, tt.want)
		}
	}

	if got := searchTracksUpdate(1, 1, &models.Song{Title: "Nightcall", Artist: "Kavinsky"}).Message; got != "Nightcall by Kavinsky" {
		t.Errorf("unexpected message %q", got)
	}
}
