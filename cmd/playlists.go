package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/maestro/internal/dashboard"
	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/shared"
	"github.com/desertthunder/maestro/internal/store"
	"github.com/desertthunder/maestro/internal/wizard"
	"github.com/urfave/cli/v3"
)

type listing struct {
	Active   []*models.Playlist `json:"active"`
	Archived []*models.Playlist `json:"archived"`
}

// openDashboard signs in to the store and waits for the first snapshot.
func (r *Runner) openDashboard(ctx context.Context) (*dashboard.Dashboard, error) {
	session, err := r.requireSession()
	if err != nil {
		return nil, err
	}
	s, err := r.playlistStore(ctx)
	if err != nil {
		return nil, err
	}

	d := dashboard.New(s, session, wizard.NewNotices(0, 0), r.logger)
	if err := d.Open(ctx, nil); err != nil {
		return nil, err
	}
	if err := d.Err(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func playlistID(cmd *cli.Command) (string, error) {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return "", fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	return id, nil
}

func playlistRows(playlists []*models.Playlist) [][]string {
	rows := make([][]string, 0, len(playlists))
	for _, p := range playlists {
		spotify := ""
		if p.SpotifyPlaylistID() != "" {
			spotify = "✓"
		}
		rows = append(rows, []string{
			p.ID(),
			p.Theme,
			strconv.Itoa(len(p.Songs)),
			shared.FormatMillis(p.TotalDurationMS()),
			strings.Join(p.Tags, ", "),
			p.UpdatedAt().Local().Format("2006-01-02 15:04"),
			spotify,
		})
	}
	return rows
}

var playlistHeaders = []string{"ID", "Theme", "Songs", "Length", "Tags", "Updated", "Spotify"}
var playlistAligns = []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft, alignLeft}

func (r *Runner) writeListing(l listing, archivedOnly bool) {
	if !archivedOnly {
		r.writePlainHeader(fmt.Sprintf("My Mixtapes (%d)", len(l.Active)))
		if len(l.Active) == 0 {
			r.writePlain("No mixtapes yet. Run `maestro tui` to create one.\n")
		} else {
			r.writePlain("%s\n", renderTable(playlistHeaders, playlistRows(l.Active), playlistAligns))
		}
	}
	if len(l.Archived) > 0 || archivedOnly {
		r.writePlainln("Archived (%d)", len(l.Archived))
		if len(l.Archived) > 0 {
			r.writePlain("%s\n", renderTable(playlistHeaders, playlistRows(l.Archived), playlistAligns))
		}
	}
}

// PlaylistsList prints active and archived mixtapes, newest first.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	d, err := r.openDashboard(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	l := listing{Active: d.Active(), Archived: d.Archived()}
	if cmd.Bool("archived") {
		l.Active = []*models.Playlist{}
	}

	if cmd.Bool("json") {
		return r.writeJSON(l, cmd.Bool("pretty"))
	}
	r.writeListing(l, cmd.Bool("archived"))
	return nil
}

// PlaylistsShow prints one mixtape with its track list.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
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

	p, err := s.Get(ctx, session, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(p, cmd.Bool("pretty"))
	}

	r.writePlainHeader(p.Theme)
	if p.IsArchived() {
		r.writePlain("(archived)\n")
	}
	if p.OriginalThemePrompt != "" && p.OriginalThemePrompt != p.Theme {
		r.writePlain("Prompt: %s\n", p.OriginalThemePrompt)
	}
	if len(p.Tags) > 0 {
		r.writePlain("Tags: %s\n", strings.Join(p.Tags, ", "))
	}
	if url := p.SpotifyPlaylistURL(); url != "" {
		r.writePlain("Spotify: %s\n", url)
	}

	rows := make([][]string, 0, len(p.Songs))
	for i, song := range p.Songs {
		rows = append(rows, []string{strconv.Itoa(i + 1), song.Title, song.Artist, shared.FormatMillis(song.DurationMS), song.PersonalNote})
	}
	r.writePlain("%s\n", renderTable(
		[]string{"#", "Title", "Artist", "Length", "Note"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	))
	r.writePlain("Total: %s\n", shared.FormatMillis(p.TotalDurationMS()))

	if notes := strings.TrimSpace(p.LinerNotes); notes != "" {
		r.writePlainln("%s", notes)
	}
	return nil
}

func (r *Runner) setArchived(ctx context.Context, cmd *cli.Command, archived bool) error {
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

	p, err := s.SetArchived(ctx, session, id, archived)
	if err != nil {
		return err
	}

	verb := "Archived"
	if !archived {
		verb = "Unarchived"
	}
	return r.writePlain("✓ %s %q\n", verb, p.Theme)
}

// PlaylistsArchive moves a mixtape to the archive.
func (r *Runner) PlaylistsArchive(ctx context.Context, cmd *cli.Command) error {
	return r.setArchived(ctx, cmd, true)
}

// PlaylistsUnarchive restores an archived mixtape.
func (r *Runner) PlaylistsUnarchive(ctx context.Context, cmd *cli.Command) error {
	return r.setArchived(ctx, cmd, false)
}

// PlaylistsDelete removes a mixtape after confirmation.
func (r *Runner) PlaylistsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistID(cmd)
	if err != nil {
		return err
	}
	d, err := r.openDashboard(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.RequestDelete(id); err != nil {
		return err
	}
	pending, ok := d.PendingDelete()
	if !ok {
		return fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id)
	}

	if !cmd.Bool("yes") {
		ok, err := r.confirm(fmt.Sprintf("Delete %q? This cannot be undone.", pending.Theme))
		if err != nil {
			return err
		}
		if !ok {
			d.CancelDelete()
			return r.writePlain("Cancelled\n")
		}
	}

	if err := d.ConfirmDelete(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted %q\n", pending.Theme)
}

// PlaylistsWatch prints the listing on every change until interrupted.
func (r *Runner) PlaylistsWatch(ctx context.Context, cmd *cli.Command) error {
	session, err := r.requireSession()
	if err != nil {
		return err
	}
	s, err := r.playlistStore(ctx)
	if err != nil {
		return err
	}

	updates := make(chan store.Snapshot, 1)
	unsubscribe, err := s.Subscribe(ctx, session, func(snap store.Snapshot) {
		select {
		case <-updates:
		default:
		}
		updates <- snap
	})
	if err != nil {
		return err
	}
	defer unsubscribe()

	r.logger.Info("watching mixtapes", "collection", session.CollectionPath())
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case snap := <-updates:
			if snap.Err != nil {
				r.writePlain("✗ Failed to load your mixtapes.\n")
				continue
			}
			active, archived := dashboard.Partition(snap.Playlists)
			l := listing{Active: active, Archived: archived}
			if cmd.Bool("json") {
				if err := r.writeJSON(l, false); err != nil {
					return err
				}
				continue
			}
			r.writeListing(l, false)
		}
	}
}
