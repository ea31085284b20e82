package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/maestro/internal/curation"
	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/services"
	"github.com/desertthunder/maestro/internal/shared"
	"github.com/desertthunder/maestro/internal/store"
	"github.com/desertthunder/maestro/internal/tasks"
)

// RemixPrefix is prepended to the theme of a remixed playlist.
const RemixPrefix = "Remix of "

// originalPromptDrift is how far the theme's length may move from the original prompt before
// the original prompt follows it.
const originalPromptDrift = 5

// ErrStale is returned when a result arrives after the wizard was restarted or closed, or after
// the action's context was cancelled. The result is dropped.
var ErrStale = errors.New("wizard moved on before the result arrived")

// Step is one of the three wizard screens.
type Step int

const (
	Foundation Step = iota
	Curation
	FinalTouches
)

func (s Step) String() string {
	switch s {
	case Foundation:
		return "Foundation"
	case Curation:
		return "Curation"
	case FinalTouches:
		return "Final Touches"
	default:
		return ""
	}
}

// Deps are the collaborators of a [Wizard]. Publisher and Publishes are optional; without a
// Publisher, Save to Spotify asks the user to connect first.
type Deps struct {
	Curator   services.Curator
	Store     *store.Store
	Publisher tasks.Publisher
	Publishes models.Repository[*models.Publish]
	Notices   *Notices
	Logger    *log.Logger
}

// Wizard drives one playlist through Foundation, Curation and Final Touches.
//
// All methods are safe for concurrent use. Generative and persistence actions release the
// lock while the external call runs, so the caller may keep editing; the result is committed
// only if the wizard is still in the same session when it arrives.
type Wizard struct {
	deps   Deps
	logger *log.Logger

	mu      sync.Mutex
	session models.Session
	mode    store.Mode
	step    Step

	// Identity of the document being edited. Empty for create and remix.
	id         string
	createdAt  time.Time
	isArchived bool

	// draft holds the scalar fields; list fields live in the collections and working set.
	draft  models.Draft
	tags   *curation.Collection
	seeds  *curation.Collection
	fusion *curation.Collection
	songs  *curation.WorkingSet

	suggestions []models.Suggestion
	titles      []string
	futureIdeas []string

	// suggestionsGen changes whenever suggestions are discarded, so a song-ideas reply
	// requested before the discard is dropped.
	suggestionsGen uint64

	generation uint64
	sessionCtx context.Context
	cancel     context.CancelFunc
	inflight   int
}

// New returns a wizard with an empty draft. Call [Wizard.Start] before editing.
func New(deps Deps) *Wizard {
	if deps.Notices == nil {
		deps.Notices = NewNotices(0, 0)
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}

	w := &Wizard{deps: deps, logger: deps.Logger.With("component", "wizard")}
	w.sessionCtx, w.cancel = context.WithCancel(context.Background())
	w.load(models.NewDraft())
	return w
}

// Notices returns the notice queue the wizard reports to.
func (w *Wizard) Notices() *Notices { return w.deps.Notices }

// Start opens the wizard for session. existing is required for [store.ModeUpdate] and
// [store.ModeRemix] and ignored for [store.ModeCreate].
//
// The wizard always returns to Foundation, and any request still in flight from the previous
// session is cancelled and its result dropped.
func (w *Wizard) Start(session models.Session, mode store.Mode, existing *models.Playlist) error {
	if err := session.Require(); err != nil {
		return err
	}
	if mode != store.ModeCreate && existing == nil {
		return fmt.Errorf("%w: %s requires a playlist", shared.ErrMissingArgument, mode)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.restart()
	w.session = session
	w.mode = mode
	w.id = ""
	w.createdAt = time.Time{}
	w.isArchived = false

	switch mode {
	case store.ModeUpdate:
		w.load(hydrate(existing))
		w.id = existing.ID()
		w.createdAt = existing.CreatedAt()
		w.isArchived = existing.IsArchived()
	case store.ModeRemix:
		draft := hydrate(existing)
		draft.Theme = RemixPrefix + draft.Theme
		w.load(draft)
	default:
		w.load(models.NewDraft())
	}

	w.logger.Debug("wizard started", "mode", mode, "id", w.id, "songs", w.songs.Len())
	return nil
}

// Close ends the session. In-flight requests are cancelled and their results dropped.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.restart()
	w.session = models.Session{}
}

// restart cancels the current session context and opens a new one.
func (w *Wizard) restart() {
	w.cancel()
	w.generation++
	w.sessionCtx, w.cancel = context.WithCancel(context.Background())
	w.step = Foundation
	w.discardSuggestions()
	w.titles = nil
	w.futureIdeas = nil
}

func (w *Wizard) load(draft models.Draft) {
	w.tags = curation.NewTags(draft.Tags)
	w.seeds = curation.NewSeedSongs(draft.SeedSongs)
	w.fusion = curation.NewFusionGenres(draft.Preferences.FusionGenres)
	w.songs = curation.NewWorkingSet(withIDs(draft.Songs))

	draft.Songs = nil
	draft.Tags = nil
	draft.SeedSongs = nil
	draft.Preferences.FusionGenres = nil
	w.draft = draft
}

// hydrate copies a stored playlist into a draft, falling back to the theme when the stored
// original prompt is empty.
func hydrate(p *models.Playlist) models.Draft {
	draft := p.Draft.Clone()
	if strings.TrimSpace(draft.OriginalThemePrompt) == "" {
		draft.OriginalThemePrompt = draft.Theme
	}
	return draft
}

func withIDs(songs []models.Song) []models.Song {
	out := make([]models.Song, len(songs))
	for i, s := range songs {
		if s.ID == "" {
			s.ID = shared.GenerateID()
		}
		out[i] = s
	}
	return out
}

// Session returns the signed-in user the wizard works for.
func (w *Wizard) Session() models.Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session
}

// discardSuggestions drops the AI suggestions. Callers hold w.mu.
func (w *Wizard) discardSuggestions() {
	w.suggestions = nil
	w.suggestionsGen++
}

// Mode returns how saves treat the draft. It is fixed by [Wizard.Start].
func (w *Wizard) Mode() store.Mode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}

// EditingID returns the id saves update, or "" in create and remix mode.
func (w *Wizard) EditingID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.id
}

// IsArchived reports the archive flag carried over from the edited document.
func (w *Wizard) IsArchived() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isArchived
}

// Draft returns a copy of the playlist as it would be saved.
func (w *Wizard) Draft() models.Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

func (w *Wizard) snapshot() models.Draft {
	d := w.draft.Clone()
	d.Songs = w.songs.Songs()
	d.Tags = w.tags.Items()
	d.SeedSongs = w.seeds.Items()
	d.Preferences.FusionGenres = w.fusion.Items()
	return d
}

// Busy reports whether a generative or persistence call is in flight.
func (w *Wizard) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inflight > 0
}

// Step returns the current screen.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// CanAdvance reports whether Next would move forward and, if not, why.
func (w *Wizard) CanAdvance() (bool, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canAdvance()
}

func (w *Wizard) canAdvance() (bool, string) {
	switch w.step {
	case Foundation:
		if strings.TrimSpace(w.draft.Theme) == "" {
			return false, "Please enter a theme."
		}
		return true, ""
	case Curation:
		if w.songs.Len() == 0 {
			return false, "Add at least one song."
		}
		return true, ""
	default:
		return false, ""
	}
}

// CanSave reports whether the draft may be saved and, if not, why.
func (w *Wizard) CanSave() (bool, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.snapshot().Validate(); err != nil {
		return false, shared.Describe(err)
	}
	return true, ""
}

// Next moves one step forward. A blocked guard returns [shared.ErrValidation] naming the unmet
// condition and leaves the step unchanged. Next on the last step does nothing.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step == FinalTouches {
		return nil
	}
	if ok, reason := w.canAdvance(); !ok {
		return fmt.Errorf("%w: %s", shared.ErrValidation, reason)
	}
	w.step++
	w.discardSuggestions()
	return nil
}

// Prev moves one step back, stopping at Foundation.
func (w *Wizard) Prev() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step > Foundation {
		w.step--
		w.discardSuggestions()
	}
}

// SetTheme replaces the theme. The original prompt follows the theme when it is empty or when
// the lengths differ by more than five characters, so small edits keep the prompt the user
// first typed. Suggestions are discarded when the trimmed theme changes.
func (w *Wizard) SetTheme(theme string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if strings.TrimSpace(theme) != strings.TrimSpace(w.draft.Theme) {
		w.discardSuggestions()
	}
	w.draft.Theme = theme
	original := w.draft.OriginalThemePrompt
	if original == "" || abs(len(theme)-len(original)) > originalPromptDrift {
		w.draft.OriginalThemePrompt = theme
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// AddTag adds one tag.
func (w *Wizard) AddTag(tag string) error {
	return w.collect(func() error { return w.tags.Add(tag) })
}

// RemoveTag removes a tag, ignoring case.
func (w *Wizard) RemoveTag(tag string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tags.Remove(tag)
}

// ManageTags adds comma-separated tags in bulk.
func (w *Wizard) ManageTags(csv string) (curation.AddManyResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	result, err := w.tags.AddMany(csv)
	if err != nil {
		w.deps.Notices.Error(shared.Describe(err))
		return result, err
	}
	if msg := result.Message(w.tags.Plural()); msg != "" {
		w.deps.Notices.Success(msg)
	}
	return result, nil
}

// AddSeed adds a "Title by Artist" seed song.
func (w *Wizard) AddSeed(seed string) error {
	return w.collect(func() error { return w.seeds.Add(seed) })
}

// RemoveSeed removes a seed song.
func (w *Wizard) RemoveSeed(seed string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seeds.Remove(seed)
}

// AddFusionGenre adds a genre to blend.
func (w *Wizard) AddFusionGenre(genre string) error {
	return w.collect(func() error { return w.fusion.Add(genre) })
}

// RemoveFusionGenre removes a fusion genre.
func (w *Wizard) RemoveFusionGenre(genre string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fusion.Remove(genre)
}

func (w *Wizard) collect(add func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := add(); err != nil {
		w.deps.Notices.Error(shared.Describe(err))
		return err
	}
	return nil
}

// Tags returns the tags in order.
func (w *Wizard) Tags() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tags.Items()
}

// SeedSongs returns the seed songs in order.
func (w *Wizard) SeedSongs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seeds.Items()
}

// FusionGenres returns the fusion genres in order.
func (w *Wizard) FusionGenres() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fusion.Items()
}

// UpdatePreferences replaces the preference bundle. Fusion genres are managed separately and
// are ignored here.
func (w *Wizard) UpdatePreferences(p models.Preferences) error {
	ratio, err := models.ParseRatio(string(p.InstrumentalVocalRatio))
	if err == nil && p.StartYear != nil && p.EndYear != nil && *p.StartYear > *p.EndYear {
		err = fmt.Errorf("%w: Start year must not be after end year.", shared.ErrValidation)
	}
	if err != nil {
		w.deps.Notices.Error(shared.Describe(err))
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	p = p.Clone()
	p.InstrumentalVocalRatio = ratio
	p.FusionGenres = nil
	w.draft.Preferences = p
	return nil
}

// SetCoverArt sets the cover image URL.
func (w *Wizard) SetCoverArt(url string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.CoverArtURL = strings.TrimSpace(url)
}

// SetLinerNotes replaces the liner notes.
func (w *Wizard) SetLinerNotes(notes string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.LinerNotes = notes
}

// SetPublic sets the visibility passed to Spotify.
func (w *Wizard) SetPublic(public bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.IsPublic = public
}

// Songs returns the working set in order.
func (w *Wizard) Songs() []models.Song {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.songs.Songs()
}

// TotalDuration formats the working set's total duration.
func (w *Wizard) TotalDuration() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.songs.TotalDuration()
}

// AddSong adds a song to the working set. A case-insensitive title and artist match does not
// add anything; the candidate waits for [Wizard.AddAnyway] or [Wizard.CancelPending].
func (w *Wizard) AddSong(song models.Song) (curation.AddOutcome, models.Song) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.songs.Add(song)
}

// AddSuggestion moves the suggestion with id into the working set.
func (w *Wizard) AddSuggestion(id string) (curation.AddOutcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, s := range w.suggestions {
		if s.ID != id {
			continue
		}
		outcome, _ := w.songs.Add(s.Song())
		if outcome == curation.Added {
			w.suggestions = append(w.suggestions[:i:i], w.suggestions[i+1:]...)
		}
		return outcome, nil
	}
	return curation.Added, fmt.Errorf("%w: suggestion %s", shared.ErrNotFound, id)
}

// PendingDuplicate returns the candidate waiting for confirmation.
func (w *Wizard) PendingDuplicate() (models.Song, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.songs.Pending()
}

// AddAnyway adds the pending duplicate.
func (w *Wizard) AddAnyway() (models.Song, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	pending, ok := w.songs.Pending()
	song, err := w.songs.AddAnyway()
	if err != nil {
		return song, err
	}
	if ok {
		w.dropSuggestion(pending.Key())
	}
	return song, nil
}

// CancelPending discards the pending duplicate.
func (w *Wizard) CancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.songs.CancelPending()
}

func (w *Wizard) dropSuggestion(key string) {
	for i, s := range w.suggestions {
		if s.Key() == key {
			w.suggestions = append(w.suggestions[:i:i], w.suggestions[i+1:]...)
			return
		}
	}
}

// RemoveSong removes the song with id. It is a no-op when absent.
func (w *Wizard) RemoveSong(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.songs.Remove(id)
}

// MoveSong moves the song at from to index to.
func (w *Wizard) MoveSong(from, to int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.songs.Move(from, to)
}

// StartNoteEdit opens the personal note of the song with id. An unsaved note on another song
// is discarded.
func (w *Wizard) StartNoteEdit(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.songs.StartNoteEdit(id)
}

// NoteEdit returns the song in note-edit mode and its unsaved text.
func (w *Wizard) NoteEdit() (id, buffer string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.songs.EditingID(), w.songs.NoteBuffer()
}

// SetNoteBuffer replaces the unsaved note text.
func (w *Wizard) SetNoteBuffer(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.songs.SetNoteBuffer(text)
}

// SaveNote commits the note being edited.
func (w *Wizard) SaveNote() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.songs.SaveNote()
}

// CancelNoteEdit leaves note-edit mode without saving.
func (w *Wizard) CancelNoteEdit() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.songs.ClearNoteEdit()
}

// Suggestions returns the filtered AI suggestions not yet added.
func (w *Wizard) Suggestions() []models.Suggestion {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]models.Suggestion(nil), w.suggestions...)
}

// TitleSuggestions returns the titles from the last Suggest Title call.
func (w *Wizard) TitleSuggestions() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.titles...)
}

// FutureIdeas returns the ideas from the last Suggest Next Themes call.
func (w *Wizard) FutureIdeas() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.futureIdeas...)
}
