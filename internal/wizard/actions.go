package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/maestro/internal/curation"
	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/prompts"
	"github.com/desertthunder/maestro/internal/shared"
	"github.com/desertthunder/maestro/internal/store"
	"github.com/desertthunder/maestro/internal/tasks"
)

// minSongsForFutureIdeas is the smallest working set Suggest Next Themes works from.
const minSongsForFutureIdeas = 3

// begin registers an in-flight call. The returned context is cancelled when ctx is, when the
// session ends, or when finish runs. Callers hold w.mu.
func (w *Wizard) begin(ctx context.Context) (context.Context, uint64, func()) {
	actx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(w.sessionCtx, cancel)
	w.inflight++
	return actx, w.generation, func() {
		stop()
		cancel()
		w.inflight--
	}
}

// settle checks whether a result may be committed and releases the call. Callers hold w.mu.
func (w *Wizard) settle(actx context.Context, gen uint64, finish func()) bool {
	current := w.generation == gen && actx.Err() == nil
	finish()
	return current
}

func (w *Wizard) reject(err error) error {
	w.deps.Notices.Error(shared.Describe(err))
	return err
}

func (w *Wizard) curatorReady() error {
	if w.deps.Curator == nil {
		return fmt.Errorf("%w: Gemini API key is not configured.", shared.ErrConfiguration)
	}
	return nil
}

// themeForPrompt prefers the original prompt over the displayed theme.
func (w *Wizard) themeForPrompt() string {
	if original := strings.TrimSpace(w.draft.OriginalThemePrompt); original != "" {
		return original
	}
	return strings.TrimSpace(w.draft.Theme)
}

// GetSongIdeas asks the curator for suggestions and keeps the ones that survive
// [curation.Filter] against the working set and seed songs.
//
// With no theme, seed song, fusion genre, narrative or vibe arc the call is rejected locally
// and nothing is sent.
func (w *Wizard) GetSongIdeas(ctx context.Context) ([]models.Suggestion, error) {
	w.mu.Lock()
	in := prompts.Input{
		Theme:       w.themeForPrompt(),
		SeedSongs:   w.seeds.Items(),
		Preferences: w.snapshot().Preferences,
		Existing:    w.songs.Songs(),
	}
	asked := w.suggestionsGen
	if !in.HasCreativeInput() {
		w.mu.Unlock()
		return nil, w.reject(fmt.Errorf("%w: Please enter a theme, a seed song or some creative direction first.", shared.ErrValidation))
	}
	if err := w.curatorReady(); err != nil {
		w.mu.Unlock()
		w.deps.Notices.Fail("Song ideas failed: ", err)
		return nil, err
	}
	actx, gen, finish := w.begin(ctx)
	w.mu.Unlock()

	raw, err := w.deps.Curator.SongIdeas(actx, prompts.SongIdeas(in))

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.settle(actx, gen, finish) || asked != w.suggestionsGen {
		return nil, ErrStale
	}
	if err != nil {
		w.deps.Notices.Fail("Song ideas failed: ", err)
		return nil, err
	}

	result := curation.Filter(raw, w.songs.Songs(), w.seeds.Items())
	switch {
	case result.Empty():
		w.deps.Notices.Success("AI couldn't find specific song ideas for this theme.")
	case result.AllFiltered():
		w.deps.Notices.Success("Every idea the AI had is already in your mixtape or seed songs.")
	}
	w.suggestions = result.Suggestions
	w.logger.Debug("song ideas", "received", result.Received, "kept", len(result.Suggestions))
	return append([]models.Suggestion(nil), result.Suggestions...), nil
}

// SuggestTitles asks for three titles based on the original theme prompt.
func (w *Wizard) SuggestTitles(ctx context.Context) ([]string, error) {
	w.mu.Lock()
	original := strings.TrimSpace(w.draft.OriginalThemePrompt)
	if original == "" {
		w.mu.Unlock()
		return nil, w.reject(fmt.Errorf("%w: Please enter an initial theme idea.", shared.ErrValidation))
	}
	if err := w.curatorReady(); err != nil {
		w.mu.Unlock()
		w.deps.Notices.Fail("Title suggestions failed: ", err)
		return nil, err
	}
	actx, gen, finish := w.begin(ctx)
	w.mu.Unlock()

	titles, err := w.deps.Curator.Titles(actx, prompts.Titles(original))

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.settle(actx, gen, finish) {
		return nil, ErrStale
	}
	if err != nil {
		w.deps.Notices.Fail("Title suggestions failed: ", err)
		return nil, err
	}
	if len(titles) == 0 {
		w.deps.Notices.Success("AI couldn't come up with titles for this.")
	}
	w.titles = titles
	return append([]string(nil), titles...), nil
}

// ApplyTitle makes title the theme and clears the title suggestions. The original prompt is
// kept so later prompts still see what the user first asked for.
func (w *Wizard) ApplyTitle(title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if strings.TrimSpace(title) != strings.TrimSpace(w.draft.Theme) {
		w.discardSuggestions()
	}
	w.draft.Theme = title
	w.titles = nil
}

// WriteLinerNotes generates two or three sentences of liner notes and replaces the current
// ones. It needs a theme and at least one song.
func (w *Wizard) WriteLinerNotes(ctx context.Context) (string, error) {
	w.mu.Lock()
	original := w.themeForPrompt()
	switch {
	case original == "":
		w.mu.Unlock()
		return "", w.reject(fmt.Errorf("%w: Please define a theme first.", shared.ErrValidation))
	case w.songs.Len() == 0:
		w.mu.Unlock()
		return "", w.reject(fmt.Errorf("%w: Add some songs for better liner notes.", shared.ErrValidation))
	}
	if err := w.curatorReady(); err != nil {
		w.mu.Unlock()
		w.deps.Notices.Fail("Liner notes generation failed: ", err)
		return "", err
	}
	p := prompts.LinerNotes(w.draft.Theme, original, w.songs.Songs())
	actx, gen, finish := w.begin(ctx)
	w.mu.Unlock()

	notes, err := w.deps.Curator.LinerNotes(actx, p)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.settle(actx, gen, finish) {
		return "", ErrStale
	}
	if err != nil {
		w.deps.Notices.Fail("Liner notes generation failed: ", err)
		return "", err
	}
	w.draft.LinerNotes = strings.TrimSpace(notes)
	return w.draft.LinerNotes, nil
}

// SuggestNextThemes asks for ideas for a follow-up playlist. It needs at least three songs.
func (w *Wizard) SuggestNextThemes(ctx context.Context) ([]string, error) {
	w.mu.Lock()
	if w.songs.Len() < minSongsForFutureIdeas {
		w.mu.Unlock()
		return nil, w.reject(fmt.Errorf("%w: Add at least %d songs to get ideas for your next mixtape.", shared.ErrValidation, minSongsForFutureIdeas))
	}
	if err := w.curatorReady(); err != nil {
		w.mu.Unlock()
		w.deps.Notices.Fail("Next theme ideas failed: ", err)
		return nil, err
	}
	p := prompts.FutureIdeas(strings.TrimSpace(w.draft.Theme), w.songs.Songs())
	actx, gen, finish := w.begin(ctx)
	w.mu.Unlock()

	ideas, err := w.deps.Curator.FutureIdeas(actx, p)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.settle(actx, gen, finish) {
		return nil, ErrStale
	}
	if err != nil {
		w.deps.Notices.Fail("Next theme ideas failed: ", err)
		return nil, err
	}
	if len(ideas) == 0 {
		w.deps.Notices.Success("AI couldn't come up with ideas for this.")
	}
	w.futureIdeas = ideas
	return append([]string(nil), ideas...), nil
}

// Save persists the draft and returns the document id.
//
// Update mode carries the edited document's createdAt and archive flag. Create and remix
// store a new document on every save; the mode and editing id never change after
// [Wizard.Start].
func (w *Wizard) Save(ctx context.Context) (string, error) {
	w.mu.Lock()
	draft := w.snapshot()
	if err := draft.Validate(); err != nil {
		w.mu.Unlock()
		return "", w.reject(err)
	}
	if w.deps.Store == nil {
		w.mu.Unlock()
		err := fmt.Errorf("%w: no playlist store configured", shared.ErrConfiguration)
		w.deps.Notices.Fail("Save to Maestro failed: ", err)
		return "", err
	}

	session := w.session
	mode := w.mode
	opts := store.SaveOptions{Mode: mode}
	if mode == store.ModeUpdate {
		opts.ID = w.id
		opts.CreatedAt = w.createdAt
		opts.IsArchived = w.isArchived
	}
	actx, gen, finish := w.begin(ctx)
	w.mu.Unlock()

	id, err := w.deps.Store.Save(actx, session, draft, opts)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.settle(actx, gen, finish) {
		return id, ErrStale
	}
	if err != nil {
		w.deps.Notices.Fail("Save to Maestro failed: ", err)
		return "", err
	}

	if mode == store.ModeUpdate {
		w.deps.Notices.Success("Mixtape updated in Maestro!")
	} else {
		w.deps.Notices.Success("Mixtape saved to Maestro!")
	}
	return id, nil
}

// SaveToSpotify saves the draft locally, then publishes the stored playlist.
//
// The local save and the remote outcome are reported as separate notices. A publish that
// created the remote playlist is linked on the document and recorded in the publish history
// even if some tracks could not be added.
func (w *Wizard) SaveToSpotify(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.PublishResult, error) {
	if w.deps.Publisher == nil {
		return nil, w.reject(fmt.Errorf("%w: Please connect to Spotify first.", shared.ErrNotAuthenticated))
	}

	w.mu.Lock()
	if err := w.snapshot().Validate(); err != nil {
		w.mu.Unlock()
		return nil, w.reject(err)
	}
	w.mu.Unlock()

	id, err := w.Save(ctx)
	if errors.Is(err, ErrStale) {
		return nil, err
	}
	if err != nil {
		w.deps.Notices.Error("Failed to save to Maestro first. Spotify save aborted.")
		return nil, err
	}

	w.mu.Lock()
	session := w.session
	actx, gen, finish := w.begin(ctx)
	w.mu.Unlock()

	result, err := w.publish(actx, progress, session, id)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.settle(actx, gen, finish) {
		return result, ErrStale
	}
	if result != nil {
		w.songs.SetSpotifyURIs(result.URIs())
	}
	if err != nil {
		w.deps.Notices.Fail("Failed to save to Spotify: ", err)
		return result, err
	}

	name := result.RemotePlaylist.Name
	w.deps.Notices.Success(fmt.Sprintf("Playlist %q created on Spotify!", name))
	switch {
	case result.Err != nil:
		w.deps.Notices.Fail("Spotify (Add Tracks): ", result.Err)
	case result.Resolved < result.Requested:
		w.deps.Notices.Error(fmt.Sprintf("%d of %d songs were not found on Spotify.", result.Requested-result.Resolved, result.Requested))
	default:
		w.deps.Notices.Success(fmt.Sprintf("Tracks added to %q on Spotify!", name))
	}
	return result, nil
}

// publish runs the publisher and writes its outcome to the store. The writes use a context
// detached from cancellation because the remote side effects have already happened.
func (w *Wizard) publish(ctx context.Context, progress chan<- tasks.ProgressUpdate, session models.Session, id string) (*tasks.PublishResult, error) {
	playlist, err := w.deps.Store.Get(ctx, session, id)
	if err != nil {
		return nil, err
	}

	result, err := w.deps.Publisher.Publish(ctx, progress, playlist)
	if result == nil {
		if err == nil {
			err = fmt.Errorf("%w: publisher returned no result", shared.ErrUpstream)
		}
		return nil, err
	}

	persist := context.WithoutCancel(ctx)
	if w.deps.Publishes != nil {
		if rerr := w.deps.Publishes.Create(persist, result.Record(session.UserID, id)); rerr != nil {
			w.logger.Warn("recording publish failed", "playlist", id, "error", rerr)
		}
	}
	if result.RemotePlaylist != nil {
		if _, lerr := w.deps.Store.LinkSpotify(persist, session, id, result.RemotePlaylist.ID, result.RemotePlaylist.URL); lerr != nil {
			w.logger.Warn("linking spotify playlist failed", "playlist", id, "error", lerr)
		}
	}
	if uris := result.URIs(); len(uris) > 0 {
		if _, uerr := w.deps.Store.SetSongURIs(persist, session, id, uris); uerr != nil {
			w.logger.Warn("storing track uris failed", "playlist", id, "error", uerr)
		}
	}
	return result, err
}
