package curation

import (
	"fmt"
	"slices"

	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/shared"
)

// AddOutcome is the result of [WorkingSet.Add].
type AddOutcome int

const (
	// Added means the song was appended.
	Added AddOutcome = iota
	// PendingDuplicate means a song with the same title and artist exists and the
	// candidate waits for [WorkingSet.AddAnyway] or [WorkingSet.CancelPending].
	PendingDuplicate
)

// WorkingSet is the ordered list of songs in the playlist being edited.
type WorkingSet struct {
	songs   []models.Song
	pending *models.Song

	editingID  string
	noteBuffer string

	newID func() string
}

// NewWorkingSet returns a working set holding a copy of songs.
func NewWorkingSet(songs []models.Song) *WorkingSet {
	return &WorkingSet{songs: slices.Clone(songs), newID: shared.GenerateID}
}

// Songs returns a copy of the songs in order.
func (w *WorkingSet) Songs() []models.Song {
	if w.songs == nil {
		return []models.Song{}
	}
	return slices.Clone(w.songs)
}

// Len returns the number of songs.
func (w *WorkingSet) Len() int { return len(w.songs) }

// Add appends candidate with a fresh id and an empty note.
//
// When a song with the same title and artist (case-insensitive) is already present, nothing
// is appended; the candidate becomes pending and PendingDuplicate is returned. A second Add
// while a candidate is pending replaces it.
func (w *WorkingSet) Add(candidate models.Song) (AddOutcome, models.Song) {
	if w.hasKey(candidate.Key()) {
		c := candidate
		w.pending = &c
		return PendingDuplicate, c
	}
	return Added, w.appendSong(candidate)
}

// Pending returns the candidate awaiting duplicate confirmation.
func (w *WorkingSet) Pending() (models.Song, bool) {
	if w.pending == nil {
		return models.Song{}, false
	}
	return *w.pending, true
}

// AddAnyway appends the pending candidate with a new id.
func (w *WorkingSet) AddAnyway() (models.Song, error) {
	if w.pending == nil {
		return models.Song{}, fmt.Errorf("%w: no song is waiting for confirmation", shared.ErrInvalidArgument)
	}
	candidate := *w.pending
	w.pending = nil
	return w.appendSong(candidate), nil
}

// CancelPending discards the pending candidate.
func (w *WorkingSet) CancelPending() {
	w.pending = nil
}

// Remove deletes the song with id. It is a no-op when the id is absent.
func (w *WorkingSet) Remove(id string) bool {
	i := w.indexOf(id)
	if i < 0 {
		return false
	}
	w.songs = slices.Delete(w.songs, i, i+1)
	if w.editingID == id {
		w.ClearNoteEdit()
	}
	return true
}

// Move relocates the song at from to index to with [Reorder].
func (w *WorkingSet) Move(from, to int) error {
	songs, err := Reorder(w.songs, from, to)
	if err != nil {
		return err
	}
	w.songs = songs
	return nil
}

// StartNoteEdit puts the song with id into note-edit mode, loading its note into the buffer.
//
// Only one song is edited at a time: an unsaved buffer for another song is discarded.
func (w *WorkingSet) StartNoteEdit(id string) error {
	i := w.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: song %s", shared.ErrNotFound, id)
	}
	w.editingID = id
	w.noteBuffer = w.songs[i].PersonalNote
	return nil
}

// EditingID returns the id of the song in note-edit mode, or "".
func (w *WorkingSet) EditingID() string { return w.editingID }

// NoteBuffer returns the unsaved note text.
func (w *WorkingSet) NoteBuffer() string { return w.noteBuffer }

// SetNoteBuffer replaces the unsaved note text.
func (w *WorkingSet) SetNoteBuffer(text string) { w.noteBuffer = text }

// SaveNote writes the buffer to the song being edited and leaves edit mode.
func (w *WorkingSet) SaveNote() error {
	if w.editingID == "" {
		return fmt.Errorf("%w: no note is being edited", shared.ErrInvalidArgument)
	}
	err := w.SetNote(w.editingID, w.noteBuffer)
	w.ClearNoteEdit()
	return err
}

// SetNote sets the personal note of the song with id.
func (w *WorkingSet) SetNote(id, text string) error {
	i := w.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: song %s", shared.ErrNotFound, id)
	}
	w.songs[i].PersonalNote = text
	return nil
}

// ClearNoteEdit leaves note-edit mode without saving.
func (w *WorkingSet) ClearNoteEdit() {
	w.editingID = ""
	w.noteBuffer = ""
}

// SetSpotifyURIs records resolved track URIs keyed by song id and returns how many songs changed.
func (w *WorkingSet) SetSpotifyURIs(uris map[string]string) int {
	changed := 0
	for i := range w.songs {
		if uri, ok := uris[w.songs[i].ID]; ok && uri != w.songs[i].SpotifyURI {
			w.songs[i].SpotifyURI = uri
			changed++
		}
	}
	return changed
}

// TotalDurationMS sums every song's duration.
func (w *WorkingSet) TotalDurationMS() int {
	total := 0
	for _, s := range w.songs {
		total += s.DurationMS
	}
	return total
}

// TotalDuration formats [WorkingSet.TotalDurationMS].
func (w *WorkingSet) TotalDuration() string {
	return shared.FormatMillis(w.TotalDurationMS())
}

func (w *WorkingSet) appendSong(candidate models.Song) models.Song {
	song := candidate
	song.ID = w.newID()
	song.PersonalNote = ""
	song.DurationMS = DurationOr(candidate.DurationMS)
	w.songs = append(w.songs, song)
	return song
}

func (w *WorkingSet) hasKey(key string) bool {
	return slices.ContainsFunc(w.songs, func(s models.Song) bool { return s.Key() == key })
}

func (w *WorkingSet) indexOf(id string) int {
	return slices.IndexFunc(w.songs, func(s models.Song) bool { return s.ID == id })
}
