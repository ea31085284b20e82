package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/maestro/internal/shared"
	"golang.org/x/oauth2"
)

func newTestSpotify(t *testing.T) *SpotifyService {
	t.Helper()
	srv, err := NewSpotifyService(map[string]string{"client_id": "maestro-id", "client_secret": "maestro-secret"})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return srv
}

func TestNewSpotifyService(t *testing.T) {
	tests := []struct {
		name     string
		creds    map[string]string
		wantErr  bool
		redirect string
	}{
		{
			name:     "custom redirect",
			creds:    map[string]string{"client_id": "id", "client_secret": "secret", "redirect_uri": "http://127.0.0.1:8888/callback"},
			redirect: "http://127.0.0.1:8888/callback",
		},
		{
			name:     "default redirect",
			creds:    map[string]string{"client_id": "id", "client_secret": "secret"},
			redirect: "http://127.0.0.1:3000/callback",
		},
		{name: "missing client id", creds: map[string]string{"client_secret": "secret"}, wantErr: true},
		{name: "missing client secret", creds: map[string]string{"client_id": "id"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, err := NewSpotifyService(tt.creds)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrMissingCredentials) {
					t.Errorf("expected ErrMissingCredentials, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if srv.Name() != "Spotify" {
				t.Errorf("unexpected name %q", srv.Name())
			}
			if srv.config.RedirectURL != tt.redirect {
				t.Errorf("redirect = %q, want %q", srv.config.RedirectURL, tt.redirect)
			}
		})
	}
}

func TestSpotifyAuth(t *testing.T) {
	var _ Service = (*SpotifyService)(nil)

	t.Run("auth url", func(t *testing.T) {
		u := newTestSpotify(t).GetAuthURL("state-xyz")
		for _, part := range []string{"accounts.spotify.com", "maestro-id", "state-xyz", "playlist-modify-private"} {
			if !strings.Contains(u, part) {
				t.Errorf("auth url %q should contain %q", u, part)
			}
		}
	})

	t.Run("stored token", func(t *testing.T) {
		srv := newTestSpotify(t)
		if srv.Token() != nil {
			t.Fatal("expected no token before authenticating")
		}

		expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
		err := srv.Authenticate(context.Background(), map[string]string{
			"access_token":  "access",
			"refresh_token": "refresh",
			"expiry":        expiry.Format(time.RFC3339),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		token := srv.Token()
		if token.AccessToken != "access" || token.RefreshToken != "refresh" || !token.Expiry.Equal(expiry) {
			t.Errorf("unexpected token %+v", token)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		err := newTestSpotify(t).Authenticate(context.Background(), map[string]string{})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("refresh callback", func(t *testing.T) {
		srv := newTestSpotify(t)
		var saved []string
		srv.SetTokenRefreshCallback(func(tok *oauth2.Token) { saved = append(saved, tok.AccessToken) })

		srv.storeToken(&oauth2.Token{AccessToken: "rotated"})
		if len(saved) != 1 || saved[0] != "rotated" || srv.Token().AccessToken != "rotated" {
			t.Errorf("unexpected state: saved %v, token %+v", saved, srv.Token())
		}

		srv.SetTokenRefreshCallback(nil)
		srv.storeToken(&oauth2.Token{AccessToken: "again"})
		if len(saved) != 1 {
			t.Errorf("cleared callback should not run, saved %v", saved)
		}
	})
}

type stubTokenSource struct {
	token *oauth2.Token
	err   error
}

func (s *stubTokenSource) Token() (*oauth2.Token, error) { return s.token, s.err }

func TestRefreshableTokenSource(t *testing.T) {
	t.Run("reports only new access tokens", func(t *testing.T) {
		stub := &stubTokenSource{token: &oauth2.Token{AccessToken: "first"}}
		var seen []string
		src := &refreshableTokenSource{source: stub, callback: func(tok *oauth2.Token) { seen = append(seen, tok.AccessToken) }}

		for _, next := range []string{"first", "first", "second", "second"} {
			stub.token = &oauth2.Token{AccessToken: next}
			tok, err := src.Token()
			if err != nil || tok.AccessToken != next {
				t.Fatalf("Token() = %v, %v", tok, err)
			}
		}
		if strings.Join(seen, ",") != "first,second" {
			t.Errorf("unexpected callbacks %v", seen)
		}
	})

	t.Run("known token is not reported", func(t *testing.T) {
		stub := &stubTokenSource{token: &oauth2.Token{AccessToken: "stored"}}
		src := &refreshableTokenSource{source: stub, last: "stored", callback: func(*oauth2.Token) {
			t.Error("callback should not run for the stored token")
		}}
		if _, err := src.Token(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("nil callback", func(t *testing.T) {
		src := &refreshableTokenSource{source: &stubTokenSource{token: &oauth2.Token{AccessToken: "a"}}}
		if tok, err := src.Token(); err != nil || tok.AccessToken != "a" {
			t.Errorf("Token() = %v, %v", tok, err)
		}
	})

	t.Run("source error", func(t *testing.T) {
		src := &refreshableTokenSource{
			source:   &stubTokenSource{err: errors.New("refresh revoked")},
			callback: func(*oauth2.Token) { t.Error("callback should not run on error") },
		}
		tok, err := src.Token()
		if tok != nil || err == nil || !strings.Contains(err.Error(), "refresh revoked") {
			t.Errorf("Token() = %v, %v", tok, err)
		}
	})
}

func newSpotifyTestServer(t *testing.T, handler http.HandlerFunc) *SpotifyService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	srv := newTestSpotify(t)
	srv.baseURL = server.URL
	if err := srv.Authenticate(context.Background(), map[string]string{"access_token": "test_access_token"}); err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}
	return srv
}

func TestSpotifyPublishing(t *testing.T) {
	t.Run("Requires Authentication", func(t *testing.T) {
		_, err := newTestSpotify(t).CurrentUserID(context.Background())
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("CurrentUserID", func(t *testing.T) {
		srv := newSpotifyTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer test_access_token" {
				t.Errorf("unexpected authorization header %q", got)
			}
			fmt.Fprint(w, `{"id":"user-1","display_name":"DJ"}`)
		})

		id, err := srv.CurrentUserID(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "user-1" {
			t.Errorf("expected user-1, got %s", id)
		}
	})

	t.Run("CurrentUserID Missing ID", func(t *testing.T) {
		srv := newSpotifyTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{}`)
		})

		if _, err := srv.CurrentUserID(context.Background()); !errors.Is(err, shared.ErrUpstream) {
			t.Errorf("expected ErrUpstream, got %v", err)
		}
	})

	t.Run("SearchTrack", func(t *testing.T) {
		srv := newSpotifyTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("q") != "track:Clair de Lune artist:Debussy" {
				t.Errorf("unexpected query %q", q.Get("q"))
			}
			if q.Get("type") != "track" || q.Get("limit") != "1" {
				t.Errorf("unexpected search params %v", q)
			}
			fmt.Fprint(w, `{"tracks":{"items":[{"id":"t1","name":"Clair de Lune","uri":"spotify:track:t1","duration_ms":301000,"artists":[{"name":"Claude Debussy"}],"album":{"name":"Suite"}}]}}`)
		})

		track, err := srv.SearchTrack(context.Background(), "Clair de Lune", "Debussy")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if track.URI != "spotify:track:t1" || track.Artist != "Claude Debussy" || track.DurationMS != 301000 {
			t.Errorf("unexpected track %+v", track)
		}
	})

	t.Run("SearchTrack No Match", func(t *testing.T) {
		srv := newSpotifyTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"tracks":{"items":[]}}`)
		})

		if _, err := srv.SearchTrack(context.Background(), "Nope", "Nobody"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		srv := newSpotifyTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/users/user-1/playlists" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}

			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body["name"] != "Rainy Day" || body["public"] != false {
				t.Errorf("unexpected body %v", body)
			}

			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id":"pl-1","name":"Rainy Day","external_urls":{"spotify":"https://open.spotify.com/playlist/pl-1"}}`)
		})

		created, err := srv.CreatePlaylist(context.Background(), "user-1", Playlist{Name: "Rainy Day", Description: "notes"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if created.ID != "pl-1" || created.URL != "https://open.spotify.com/playlist/pl-1" {
			t.Errorf("unexpected playlist %+v", created)
		}
	})

	t.Run("AddTracks", func(t *testing.T) {
		calls := 0
		srv := newSpotifyTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			if r.URL.Path != "/playlists/pl-1/tracks" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}

			var body struct {
				URIs []string `json:"uris"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if len(body.URIs) != 2 {
				t.Errorf("expected 2 uris, got %d", len(body.URIs))
			}
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"snapshot_id":"s"}`)
		})

		if err := srv.AddTracks(context.Background(), "pl-1", []string{"spotify:track:a", "spotify:track:b"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := srv.AddTracks(context.Background(), "pl-1", nil); err != nil {
			t.Fatalf("unexpected error for empty batch: %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("AddTracks Over Limit", func(t *testing.T) {
		srv := newSpotifyTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})

		uris := make([]string, MaxTracksPerRequest+1)
		if err := srv.AddTracks(context.Background(), "pl-1", uris); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Upstream Error Message", func(t *testing.T) {
		srv := newSpotifyTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"error":{"status":403,"message":"Insufficient client scope"}}`)
		})

		err := srv.AddTracks(context.Background(), "pl-1", []string{"spotify:track:a"})
		if !errors.Is(err, shared.ErrUpstream) {
			t.Fatalf("expected ErrUpstream, got %v", err)
		}
		if !strings.Contains(err.Error(), "Insufficient client scope") {
			t.Errorf("expected api message in error, got %v", err)
		}
	})
}
