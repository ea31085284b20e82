package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/maestro/internal/repositories"
	"github.com/urfave/cli/v3"
)

func (r *Runner) trackRepository() (*repositories.TrackRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewTrackRepository(db), nil
}

// CacheList prints the cached track matches.
//
// Tracks are cached automatically while publishing and by `spotify search`.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.trackRepository()
	if err != nil {
		return err
	}

	tracks, err := repo.List(ctx, map[string]any{"service": cmd.String("service")})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]map[string]any, 0, len(tracks))
		for _, t := range tracks {
			out = append(out, map[string]any{
				"service":    t.Service(),
				"lookup_key": t.LookupKey(),
				"track":      t.Track(),
				"cached_at":  t.CreatedAt(),
			})
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Cached tracks (%d)", len(tracks)))
	if len(tracks) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(tracks))
	for _, t := range tracks {
		track := t.Track()
		rows = append(rows, []string{t.Service(), track.Title, track.Artist, track.URI})
	}
	r.writePlain("%s\n", renderTable(
		[]string{"Service", "Title", "Artist", "URI"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
	))
	return nil
}

// CacheClear removes cached track matches so the next publish searches again.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.trackRepository()
	if err != nil {
		return err
	}

	tracks, err := repo.List(ctx, map[string]any{"service": cmd.String("service")})
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return r.writePlain("Nothing to clear\n")
	}

	if !cmd.Bool("yes") {
		ok, err := r.confirm(fmt.Sprintf("Remove %d cached tracks?", len(tracks)))
		if err != nil {
			return err
		}
		if !ok {
			return r.writePlain("Cancelled\n")
		}
	}

	for _, t := range tracks {
		if err := repo.Delete(ctx, t.ID()); err != nil {
			return err
		}
	}

	r.logger.Info("track cache cleared", "service", cmd.String("service"), "count", len(tracks))
	return r.writePlain("✓ Removed %d cached tracks\n", len(tracks))
}

// cacheCommand manages the local track-match cache
func cacheCommand(r *Runner) *cli.Command {
	serviceFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "service", Aliases: []string{"s"}, Usage: "Only entries for this service (e.g. spotify)"}
	}
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the track-match cache",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List cached track matches",
				Flags:  withJSON(serviceFlag()),
				Action: r.CacheList,
			},
			{
				Name:  "clear",
				Usage: "Remove cached track matches",
				Flags: []cli.Flag{
					serviceFlag(),
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation prompt"},
				},
				Action: r.CacheClear,
			},
		},
	}
}
