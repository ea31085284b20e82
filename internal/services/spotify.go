package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyUser is the subset of GET /me that maestro reads.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

type spotifyNamed struct {
	Name string `json:"name"`
}

// SpotifyTrack is a search hit.
type SpotifyTrack struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	URI        string         `json:"uri"`
	DurationMS int            `json:"duration_ms"`
	Artists    []spotifyNamed `json:"artists"`
	Album      spotifyNamed   `json:"album"`
}

// SpotifyPlaylist is the body returned when a playlist is created.
type SpotifyPlaylist struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Public       bool   `json:"public"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

type searchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

// SpotifyService implements the Service interface for Spotify API interactions.
// Uses [oauth2] for authentication and provides methods for publishing playlists.
type SpotifyService struct {
	config         *oauth2.Config
	token          *oauth2.Token
	httpClient     *http.Client
	baseURL        string
	onTokenRefresh func(*oauth2.Token)
	mu             sync.Mutex
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id in credentials", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret in credentials", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-email",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
	}, nil
}

// SetTokenRefreshCallback registers fn to be called whenever a new access token is issued.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTokenRefresh = fn
}

// Authenticate performs OAuth2 authentication with Spotify.
//
// Expects either an "access_token" (with optional "refresh_token" and RFC 3339 "expiry") or an
// "auth_code" from the authorization redirect.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	var token *oauth2.Token

	switch {
	case credentials["access_token"] != "":
		token = &oauth2.Token{
			AccessToken:  credentials["access_token"],
			RefreshToken: credentials["refresh_token"],
			TokenType:    "Bearer",
		}
		if expiry, err := time.Parse(time.RFC3339, credentials["expiry"]); err == nil {
			token.Expiry = expiry
		}
	case credentials["auth_code"] != "":
		exchanged, err := s.config.Exchange(ctx, credentials["auth_code"])
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		token = exchanged
	default:
		return fmt.Errorf("%w: missing access_token or auth_code in credentials", shared.ErrMissingCredentials)
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	source := &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, token),
		callback: s.storeToken,
		last:     token.AccessToken,
	}
	s.httpClient = oauth2.NewClient(ctx, source)
	return nil
}

// storeToken records a refreshed token and forwards it to the registered callback.
func (s *SpotifyService) storeToken(token *oauth2.Token) {
	s.mu.Lock()
	s.token = token
	fn := s.onTokenRefresh
	s.mu.Unlock()

	if fn != nil {
		fn(token)
	}
}

// Token returns the most recent token, or nil before [SpotifyService.Authenticate].
func (s *SpotifyService) Token() *oauth2.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Exchange trades an authorization code for a token and authenticates the service with it.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if err := s.Authenticate(ctx, map[string]string{"auth_code": code}); err != nil {
		return nil, err
	}
	return s.Token(), nil
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// doRequest sends an authenticated request and decodes the reply into result.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.Token() == nil {
		return fmt.Errorf("%w: connect Spotify first", shared.ErrNotAuthenticated)
	}

	api := NewAPIService(s.baseURL, s.httpClient)
	var (
		resp *APIResponse
		err  error
	)
	switch method {
	case http.MethodGet:
		resp, err = api.Get(ctx, endpoint)
	case http.MethodPost:
		resp, err = api.PostJSON(ctx, endpoint, body)
	default:
		return fmt.Errorf("%w: unsupported method %s", shared.ErrInvalidArgument, method)
	}
	if err != nil {
		return fmt.Errorf("%w: spotify: %w", shared.ErrUpstream, err)
	}
	if err := resp.Err(); err != nil {
		return fmt.Errorf("spotify: %w", err)
	}
	if result == nil {
		return nil
	}
	return resp.Decode(result)
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUserID returns the Spotify user id of the authenticated account.
func (s *SpotifyService) CurrentUserID(ctx context.Context) (string, error) {
	user, err := s.UserProfile(ctx)
	if err != nil {
		return "", err
	}
	if user.ID == "" {
		return "", fmt.Errorf("%w: Spotify user ID not found. Try reconnecting Spotify.", shared.ErrUpstream)
	}
	return user.ID, nil
}

// SearchTrack returns the first search hit for title and artist.
func (s *SpotifyService) SearchTrack(ctx context.Context, title, artist string) (*models.Track, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("track:%s artist:%s", title, artist))
	q.Set("type", "track")
	q.Set("limit", "1")

	var response searchResponse
	if err := s.doRequest(ctx, http.MethodGet, "/search?"+q.Encode(), nil, &response); err != nil {
		return nil, err
	}
	if len(response.Tracks.Items) == 0 {
		return nil, fmt.Errorf("%w: no Spotify match for %q by %s", shared.ErrNotFound, title, artist)
	}

	hit := response.Tracks.Items[0]
	track := &models.Track{
		ID:         hit.ID,
		URI:        hit.URI,
		Title:      hit.Name,
		Album:      hit.Album.Name,
		DurationMS: hit.DurationMS,
	}
	if len(hit.Artists) > 0 {
		track.Artist = hit.Artists[0].Name
	}
	return track, nil
}

// CreatePlaylist creates an empty playlist for userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID string, playlist Playlist) (*Playlist, error) {
	body := map[string]any{
		"name":        playlist.Name,
		"description": playlist.Description,
		"public":      playlist.Public,
	}

	var created SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return nil, err
	}

	return &Playlist{
		ID:          created.ID,
		Name:        created.Name,
		Description: created.Description,
		Public:      created.Public,
		URL:         created.ExternalURLs.Spotify,
	}, nil
}

// AddTracks appends uris to the playlist. At most [MaxTracksPerRequest] are accepted per call.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return nil
	}
	if len(uris) > MaxTracksPerRequest {
		return fmt.Errorf("%w: at most %d tracks per request, got %d", shared.ErrInvalidArgument, MaxTracksPerRequest, len(uris))
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return s.doRequest(ctx, http.MethodPost, endpoint, map[string]any{"uris": uris}, nil)
}

// refreshableTokenSource wraps an [oauth2.TokenSource] and reports every new access token.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	last     string
	mu       sync.Mutex
}

// Token returns the next token, invoking the callback when the access token changed.
func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	r.last = token.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.callback(token)
	}
	return token, nil
}
