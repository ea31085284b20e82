package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/shared"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = suggestionItem{}
	_ list.Item = songItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist *models.Playlist
}

func (i playlistItem) FilterValue() string {
	return i.playlist.Theme + " " + strings.Join(i.playlist.Tags, " ")
}

func (i playlistItem) Title() string {
	if i.playlist.SpotifyPlaylistID() != "" {
		return i.playlist.Theme + " ♫"
	}
	return i.playlist.Theme
}

func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d songs • %s", len(i.playlist.Songs), shared.FormatMillis(i.playlist.TotalDurationMS()))
	if len(i.playlist.Tags) > 0 {
		desc = fmt.Sprintf("%s • %s", desc, strings.Join(i.playlist.Tags, ", "))
	}
	return desc
}

// suggestionItem wraps [models.Suggestion] to implement [list.Item].
type suggestionItem struct {
	suggestion models.Suggestion
}

func (i suggestionItem) FilterValue() string { return i.suggestion.Title }
func (i suggestionItem) Title() string       { return i.suggestion.Title }
func (i suggestionItem) Description() string {
	desc := i.suggestion.Artist
	if i.suggestion.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.suggestion.Album)
	}
	return fmt.Sprintf("%s • %s", desc, shared.FormatMillis(i.suggestion.DurationMS))
}

// songItem wraps [models.Song] to implement [list.Item].
type songItem struct {
	song models.Song
}

func (i songItem) FilterValue() string { return i.song.Title }
func (i songItem) Title() string       { return i.song.Title }
func (i songItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.song.Artist, shared.FormatMillis(i.song.DurationMS))
	if i.song.PersonalNote != "" {
		desc = fmt.Sprintf("%s • “%s”", desc, i.song.PersonalNote)
	}
	return desc
}

func playlistItems(playlists []*models.Playlist) []list.Item {
	items := make([]list.Item, len(playlists))
	for i, p := range playlists {
		items[i] = playlistItem{playlist: p}
	}
	return items
}

func suggestionItems(suggestions []models.Suggestion) []list.Item {
	items := make([]list.Item, len(suggestions))
	for i, s := range suggestions {
		items[i] = suggestionItem{suggestion: s}
	}
	return items
}

func songItems(songs []models.Song) []list.Item {
	items := make([]list.Item, len(songs))
	for i, s := range songs {
		items[i] = songItem{song: s}
	}
	return items
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	return l
}
