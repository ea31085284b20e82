package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, db *sql.DB, email string) *models.User {
	t.Helper()

	user := models.NewUser(0, email, "Test User")
	if err := NewUserRepository(db).Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func testDraft(theme string) models.Draft {
	draft := models.NewDraft()
	draft.Theme = theme
	draft.OriginalThemePrompt = theme
	draft.Songs = []models.Song{
		{ID: "s1", Title: "Teardrop", Artist: "Massive Attack", DurationMS: 330000},
		{ID: "s2", Title: "Glory Box", Artist: "Portishead", DurationMS: 306000, PersonalNote: "closer"},
	}
	draft.Tags = []string{"trip-hop", "night"}
	draft.SeedSongs = []string{"Roads by Portishead"}
	draft.Preferences.StartYear = models.Year(1990)
	draft.Preferences.PreferHiddenGems = true
	return draft
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(ctx, db, "playlists")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(ctx, db, "nonexistent"); err == nil {
		t.Error("expected error for unknown sequence table")
	}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create And Get", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserRepository(db)

		user := models.NewUser(0, "Test@Example.com", "Test User")
		user.SetPasswordHash("hash")
		if err := repo.Create(ctx, user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
		if user.ID() == "" || user.Sequence() != 1 {
			t.Errorf("expected id and sequence to be set, got %q/%d", user.ID(), user.Sequence())
		}

		retrieved, err := repo.Get(ctx, user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if retrieved.Email() != "test@example.com" {
			t.Errorf("expected normalized email, got %s", retrieved.Email())
		}
		if retrieved.PasswordHash() != "hash" {
			t.Errorf("expected password hash to round trip, got %q", retrieved.PasswordHash())
		}
	})

	t.Run("GetByEmail", func(t *testing.T) {
		db := setupTestDB(t)
		user := createUser(t, db, "dj@example.com")

		found, err := NewUserRepository(db).GetByEmail(ctx, "  DJ@example.com ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if found.ID() != user.ID() {
			t.Errorf("expected %s, got %s", user.ID(), found.ID())
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserRepository(db)
		user := createUser(t, db, "test@example.com")

		user.SetName("Renamed")
		if err := repo.Update(ctx, user); err != nil {
			t.Fatalf("failed to update user: %v", err)
		}

		retrieved, _ := repo.Get(ctx, user.ID())
		if retrieved.Name() != "Renamed" {
			t.Errorf("expected name Renamed, got %s", retrieved.Name())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserRepository(db)
		user := createUser(t, db, "test@example.com")

		if err := repo.Delete(ctx, user.ID()); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		if _, err := repo.Get(ctx, user.ID()); err == nil {
			t.Error("deleted user should not be retrievable")
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserRepository(db)
		createUser(t, db, "a@example.com")
		createUser(t, db, "b@example.com")

		users, err := repo.List(ctx, map[string]any{})
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(users) != 2 {
			t.Fatalf("expected 2 users, got %d", len(users))
		}

		users, _ = repo.List(ctx, map[string]any{"email": "B@example.com"})
		if len(users) != 1 || users[0].Email() != "b@example.com" {
			t.Errorf("expected filtered user, got %v", users)
		}
	})
}

func TestPlaylistRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create And Get Round Trip", func(t *testing.T) {
		db := setupTestDB(t)
		user := createUser(t, db, "test@example.com")
		repo := NewPlaylistRepository(db)

		playlist := models.NewPlaylist(0, "app", user.ID(), testDraft("Rainy Day"))
		playlist.SetSpotify("remote-1", "https://open.spotify.com/playlist/remote-1")
		if err := repo.Create(ctx, playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		got, err := repo.Get(ctx, playlist.ID())
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}

		if got.Theme != "Rainy Day" || got.AppID() != "app" || got.UserID() != user.ID() {
			t.Errorf("unexpected identity fields: %q %q %q", got.Theme, got.AppID(), got.UserID())
		}
		if len(got.Songs) != 2 || got.Songs[1].PersonalNote != "closer" {
			t.Errorf("unexpected songs %+v", got.Songs)
		}
		if len(got.Tags) != 2 || got.SeedSongs[0] != "Roads by Portishead" {
			t.Errorf("unexpected tags or seeds %v %v", got.Tags, got.SeedSongs)
		}
		if got.Preferences.StartYear == nil || *got.Preferences.StartYear != 1990 || !got.Preferences.PreferHiddenGems {
			t.Errorf("unexpected preferences %+v", got.Preferences)
		}
		if got.SpotifyPlaylistID() != "remote-1" {
			t.Errorf("expected spotify id, got %q", got.SpotifyPlaylistID())
		}
		if !got.CreatedAt().Equal(playlist.CreatedAt()) {
			t.Errorf("expected createdAt %v, got %v", playlist.CreatedAt(), got.CreatedAt())
		}
	})

	t.Run("Update Stamps UpdatedAt And Keeps CreatedAt", func(t *testing.T) {
		db := setupTestDB(t)
		user := createUser(t, db, "test@example.com")
		repo := NewPlaylistRepository(db)

		playlist := models.NewPlaylist(0, "app", user.ID(), testDraft("Rainy Day"))
		if err := repo.Create(ctx, playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}
		created := playlist.CreatedAt()

		time.Sleep(2 * time.Millisecond)
		playlist.Theme = "Sunny Day"
		playlist.SetArchived(true)
		if err := repo.Update(ctx, playlist); err != nil {
			t.Fatalf("failed to update playlist: %v", err)
		}

		got, _ := repo.Get(ctx, playlist.ID())
		if got.Theme != "Sunny Day" || !got.IsArchived() {
			t.Errorf("expected updated fields, got %q archived=%v", got.Theme, got.IsArchived())
		}
		if !got.CreatedAt().Equal(created) {
			t.Errorf("createdAt changed: %v -> %v", created, got.CreatedAt())
		}
		if !got.UpdatedAt().After(created) {
			t.Errorf("expected updatedAt after createdAt, got %v", got.UpdatedAt())
		}
	})

	t.Run("List Orders By UpdatedAt Descending", func(t *testing.T) {
		db := setupTestDB(t)
		user := createUser(t, db, "test@example.com")
		other := createUser(t, db, "other@example.com")
		repo := NewPlaylistRepository(db)

		var ids []string
		for _, theme := range []string{"first", "second", "third"} {
			p := models.NewPlaylist(0, "app", user.ID(), testDraft(theme))
			if err := repo.Create(ctx, p); err != nil {
				t.Fatalf("failed to create playlist: %v", err)
			}
			ids = append(ids, p.ID())
			time.Sleep(2 * time.Millisecond)
		}
		if err := repo.Create(ctx, models.NewPlaylist(0, "app", other.ID(), testDraft("theirs"))); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		first, _ := repo.Get(ctx, ids[0])
		first.LinerNotes = "touched"
		if err := repo.Update(ctx, first); err != nil {
			t.Fatalf("failed to update playlist: %v", err)
		}

		list, err := repo.List(ctx, map[string]any{"app_id": "app", "user_id": user.ID()})
		if err != nil {
			t.Fatalf("failed to list playlists: %v", err)
		}

		want := []string{"first", "third", "second"}
		if len(list) != len(want) {
			t.Fatalf("expected %d playlists, got %d", len(want), len(list))
		}
		for i, p := range list {
			if p.Theme != want[i] {
				t.Errorf("position %d: expected %s, got %s", i, want[i], p.Theme)
			}
		}
	})

	t.Run("List Filters Archived", func(t *testing.T) {
		db := setupTestDB(t)
		user := createUser(t, db, "test@example.com")
		repo := NewPlaylistRepository(db)

		active := models.NewPlaylist(0, "app", user.ID(), testDraft("active"))
		archived := models.NewPlaylist(0, "app", user.ID(), testDraft("archived"))
		archived.SetArchived(true)
		for _, p := range []*models.Playlist{active, archived} {
			if err := repo.Create(ctx, p); err != nil {
				t.Fatalf("failed to create playlist: %v", err)
			}
		}

		list, _ := repo.List(ctx, map[string]any{"user_id": user.ID(), "is_archived": true})
		if len(list) != 1 || list[0].Theme != "archived" {
			t.Errorf("expected only archived playlist, got %d", len(list))
		}
	})

	t.Run("Delete Is Soft", func(t *testing.T) {
		db := setupTestDB(t)
		user := createUser(t, db, "test@example.com")
		repo := NewPlaylistRepository(db)

		p := models.NewPlaylist(0, "app", user.ID(), testDraft("gone"))
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}
		if err := repo.Delete(ctx, p.ID()); err != nil {
			t.Fatalf("failed to delete playlist: %v", err)
		}

		var deletedAt sql.NullTime
		if err := db.QueryRow("SELECT deleted_at FROM playlists WHERE id = ?", p.ID()).Scan(&deletedAt); err != nil {
			t.Fatalf("row should still exist: %v", err)
		}
		if !deletedAt.Valid {
			t.Error("expected deleted_at to be set")
		}

		list, _ := repo.List(ctx, map[string]any{"user_id": user.ID()})
		if len(list) != 0 {
			t.Errorf("expected deleted playlist to be hidden, got %d", len(list))
		}
	})
}

func TestTrackRepository(t *testing.T) {
	ctx := context.Background()
	remote := models.Track{ID: "t1", URI: "spotify:track:t1", Title: "Teardrop", Artist: "Massive Attack", DurationMS: 330000}

	t.Run("Create And Lookup", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewTrackRepository(db)

		key := shared.NormalizeTrackKey("Teardrop", "Massive Attack")
		track := models.NewResolvedTrack(0, "Spotify", key, remote)
		if err := repo.Create(ctx, track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		got, err := repo.GetByLookupKey(ctx, "Spotify", key)
		if err != nil {
			t.Fatalf("failed to look up track: %v", err)
		}
		if got.Track().URI != "spotify:track:t1" || got.Track().DurationMS != 330000 {
			t.Errorf("unexpected track %+v", got.Track())
		}

		if _, err := repo.GetByLookupKey(ctx, "Other", key); err == nil {
			t.Error("lookup should be scoped by service")
		}
	})

	t.Run("Update And Delete", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewTrackRepository(db)

		track := models.NewResolvedTrack(0, "Spotify", "k", remote)
		if err := repo.Create(ctx, track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		moved := remote
		moved.URI = "spotify:track:t2"
		moved.ID = "t2"
		updated := models.NewResolvedTrack(track.Sequence(), "Spotify", "k", moved)
		updated.SetID(track.ID())
		if err := repo.Update(ctx, updated); err != nil {
			t.Fatalf("failed to update track: %v", err)
		}

		got, _ := repo.Get(ctx, track.ID())
		if got.Track().URI != "spotify:track:t2" {
			t.Errorf("expected updated uri, got %s", got.Track().URI)
		}

		if err := repo.Delete(ctx, track.ID()); err != nil {
			t.Fatalf("failed to delete track: %v", err)
		}
		if err := repo.Create(ctx, models.NewResolvedTrack(0, "Spotify", "k", remote)); err != nil {
			t.Errorf("deleted key should be reusable: %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewTrackRepository(db)

		for _, key := range []string{"a", "b"} {
			if err := repo.Create(ctx, models.NewResolvedTrack(0, "Spotify", key, remote)); err != nil {
				t.Fatalf("failed to create track: %v", err)
			}
		}

		tracks, err := repo.List(ctx, map[string]any{"service": "Spotify", "artist": "Massive Attack"})
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		if len(tracks) != 2 {
			t.Errorf("expected 2 tracks, got %d", len(tracks))
		}
	})
}

func TestTrackCacheAdapter(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	cache := NewTrackCacheAdapter(NewTrackRepository(db))

	if _, err := cache.CachedTrack(ctx, "Spotify", "k"); err == nil {
		t.Fatal("expected miss on empty cache")
	}

	first := models.Track{ID: "t1", URI: "spotify:track:t1", Title: "A", Artist: "B"}
	if err := cache.CacheTrack(ctx, "Spotify", "k", first); err != nil {
		t.Fatalf("failed to cache track: %v", err)
	}

	second := models.Track{ID: "t2", URI: "spotify:track:t2", Title: "A", Artist: "B"}
	if err := cache.CacheTrack(ctx, "Spotify", "k", second); err != nil {
		t.Fatalf("caching a duplicate key should be ignored, got %v", err)
	}

	got, err := cache.CachedTrack(ctx, "Spotify", "k")
	if err != nil {
		t.Fatalf("expected hit: %v", err)
	}
	if got.URI != "spotify:track:t1" {
		t.Errorf("expected first entry to be kept, got %s", got.URI)
	}
}

func TestPublishRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	user := createUser(t, db, "test@example.com")

	playlist := models.NewPlaylist(0, "app", user.ID(), testDraft("Rainy Day"))
	if err := NewPlaylistRepository(db).Create(ctx, playlist); err != nil {
		t.Fatalf("failed to create playlist: %v", err)
	}

	repo := NewPublishRepository(db)
	publish := models.NewPublish(0, user.ID(), playlist.ID())
	if err := repo.Create(ctx, publish); err != nil {
		t.Fatalf("failed to create publish: %v", err)
	}

	publish.SetRemote("remote-1", "https://open.spotify.com/playlist/remote-1")
	publish.SetCounts(3, 2, 2)
	publish.SetOutcome(models.PublishPartial, "1 song not found")
	if err := repo.Update(ctx, publish); err != nil {
		t.Fatalf("failed to update publish: %v", err)
	}

	got, err := repo.Get(ctx, publish.ID())
	if err != nil {
		t.Fatalf("failed to get publish: %v", err)
	}
	if got.Status() != models.PublishPartial || got.TracksResolved() != 2 || got.Error() != "1 song not found" {
		t.Errorf("unexpected publish %+v", got)
	}

	list, err := repo.List(ctx, map[string]any{"playlist_id": playlist.ID(), "status": models.PublishPartial})
	if err != nil {
		t.Fatalf("failed to list publishes: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 publish, got %d", len(list))
	}

	if err := repo.Delete(ctx, publish.ID()); err != nil {
		t.Fatalf("failed to delete publish: %v", err)
	}
	if list, _ := repo.List(ctx, map[string]any{"user_id": user.ID()}); len(list) != 0 {
		t.Errorf("expected deleted publish to be hidden, got %d", len(list))
	}
}
