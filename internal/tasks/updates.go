package tasks

import (
	"fmt"

	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/services"
)

// Phase is a stage of publishing a mixtape.
type Phase int

const (
	SearchTracks Phase = iota
	CreatePlaylist
	AddTracks
)

var phaseNames = [...]string{"search_tracks", "create_playlist", "add_tracks"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return ""
	}
	return phaseNames[p]
}

// ProgressUpdate is sent on the publish progress channel.
//
// Step and Total count songs while searching and URIs while adding.
// Data holds the remote [services.Playlist] once it exists.
type ProgressUpdate struct {
	Phase   Phase
	Step    int
	Total   int
	Message string
	Data    any
}

// Status is the headline shown next to the spinner.
func (u ProgressUpdate) Status() string {
	switch {
	case u.Total == 0:
		return "Processing..."
	case u.Phase == SearchTracks:
		return fmt.Sprintf("Searching tracks (%d/%d)", u.Step, u.Total)
	case u.Phase == CreatePlaylist:
		return "Creating playlist on Spotify..."
	case u.Phase == AddTracks:
		return fmt.Sprintf("Adding tracks (%d/%d)", u.Step, u.Total)
	}
	return "Processing..."
}

func progressf(phase Phase, step, total int, format string, args ...any) ProgressUpdate {
	return ProgressUpdate{Phase: phase, Step: step, Total: total, Message: fmt.Sprintf(format, args...)}
}

func searchTracksUpdate(step, total int, song *models.Song) ProgressUpdate {
	if song == nil {
		return progressf(SearchTracks, step, total, "Looking up %d songs on Spotify...", total)
	}
	return progressf(SearchTracks, step, total, "%s by %s", song.Title, song.Artist)
}

func createDestinationUpdate(service string) ProgressUpdate {
	return progressf(CreatePlaylist, 0, 1, "Creating playlist on %s...", service)
}

func createPlaylistUpdate(pl *services.Playlist) ProgressUpdate {
	u := progressf(CreatePlaylist, 1, 1, "Created %q (%s)", pl.Name, pl.ID)
	u.Data = pl
	return u
}

func addTracksUpdate(added, total int) ProgressUpdate {
	return progressf(AddTracks, added, total, "%d of %d tracks added", added, total)
}
