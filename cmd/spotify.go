package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/maestro/internal/curation"
	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/server"
	"github.com/desertthunder/maestro/internal/services"
	"github.com/desertthunder/maestro/internal/shared"
	"github.com/desertthunder/maestro/internal/store"
	"github.com/desertthunder/maestro/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// OAuthFlow is the part of a Spotify client the authorization-code flow needs.
type OAuthFlow interface {
	server.Exchanger
	GetAuthURL(state string) string
}

// SpotifyConnect performs the OAuth2 authorization-code flow and stores the tokens in the
// config file.
//
// Starts a local HTTP server on the redirect URI's host, opens the browser for user
// authorization, and exchanges the auth code for tokens.
func (r *Runner) SpotifyConnect(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s", shared.ErrConfiguration, r.configPathOrDefault())
	}

	spotify, err := services.NewSpotifyService(creds.Map())
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	token, err := r.doOAuth(ctx, spotify, callbackAddr(creds.RedirectURI, r.config.Server.Addr()))
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", r.configPathOrDefault())
	r.writePlain("You can now use: maestro spotify publish <playlist-id>\n")
	return nil
}

// SpotifyPublish saves a stored mixtape to Spotify and links the remote playlist.
func (r *Runner) SpotifyPublish(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistID(cmd)
	if err != nil {
		return err
	}
	session, err := r.requireSession()
	if err != nil {
		return err
	}
	s, err := r.playlistStore(ctx)
	if err != nil {
		return err
	}
	existing, err := s.Get(ctx, session, id)
	if err != nil {
		return err
	}

	w, err := r.newWizard(ctx, true, nil)
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Start(session, store.ModeUpdate, existing); err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writeProgress(update)
		}
	}()

	result, err := w.SaveToSpotify(ctx, progress)
	close(progress)
	<-done

	r.writeNotices(w.Notices())
	if err != nil {
		return err
	}

	if result.RemotePlaylist != nil && result.RemotePlaylist.URL != "" {
		r.writePlain("→ %s\n", result.RemotePlaylist.URL)
	}
	r.logger.Info("published", "playlist", id, "resolved", result.Resolved, "added", result.Added)
	return nil
}

// SpotifySearch resolves one "Title by Artist" song the way publishing does, so repeated
// lookups are answered from the track cache.
func (r *Runner) SpotifySearch(ctx context.Context, cmd *cli.Command) error {
	title, artist, ok := curation.ParseSeed(cmd.StringArg("song"))
	if !ok {
		return fmt.Errorf("%w: song must look like \"Title by Artist\"", shared.ErrInvalidArgument)
	}

	if _, err := r.publisher(ctx); err != nil {
		return err
	}
	if r.engine == nil {
		return fmt.Errorf("%w: Please connect to Spotify first.", shared.ErrNotAuthenticated)
	}

	result, err := r.engine.Match(ctx, models.Song{Title: title, Artist: artist})
	if err != nil {
		return err
	}
	if result.Error != nil {
		return result.Error
	}

	if cmd.Bool("json") {
		return r.writeJSON(result.Matched, cmd.Bool("pretty"))
	}

	track := result.Matched
	source := "search"
	if result.Cached {
		source = "cache"
	}
	r.writePlain("✓ %s by %s\n", track.Title, track.Artist)
	if track.Album != "" {
		r.writePlain("  Album:  %s\n", track.Album)
	}
	r.writePlain("  Length: %s\n", shared.FormatMillis(track.DurationMS))
	r.writePlain("  URI:    %s (%s)\n", track.URI, source)
	return nil
}

func (r *Runner) writeProgress(update tasks.ProgressUpdate) {
	if update.Phase == tasks.SearchTracks && update.Step > 0 {
		r.writePlain("  [%d/%d] %s\n", update.Step, update.Total, update.Message)
		return
	}
	r.writePlain("  %s\n", update.Message)
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, flow OAuthFlow, addr string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	oauthHandler := server.NewOAuthHandler(flow, state)
	srv := server.New(addr, server.NewRouter(r.logger, nil, oauthHandler), r.logger)

	serverErrors, err := srv.Start()
	if err != nil {
		return nil, fmt.Errorf("%w: callback server: %v", shared.ErrServiceUnavailable, err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := flow.GetAuthURL(state)
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}

// callbackAddr returns the host:port of redirectURI, or fallback when it has none.
func callbackAddr(redirectURI, fallback string) string {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Host == "" || !strings.Contains(u.Host, ":") {
		return fallback
	}
	return u.Host
}

func (r *Runner) configPathOrDefault() string {
	if r.configPath == "" {
		return "config.toml"
	}
	return r.configPath
}
