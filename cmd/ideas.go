package main

import (
	"context"
	"strings"

	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/shared"
	"github.com/desertthunder/maestro/internal/store"
	"github.com/desertthunder/maestro/internal/wizard"
	"github.com/urfave/cli/v3"
)

// startWizard opens a headless wizard on the mixtape named by --id, or on an empty draft
// when the flag is unset.
func (r *Runner) startWizard(ctx context.Context, cmd *cli.Command, withPublisher bool) (*wizard.Wizard, error) {
	session, err := r.requireSession()
	if err != nil {
		return nil, err
	}
	w, err := r.newWizard(ctx, withPublisher, nil)
	if err != nil {
		return nil, err
	}

	id := strings.TrimSpace(cmd.String("id"))
	if id == "" {
		return w, w.Start(session, store.ModeCreate, nil)
	}

	s, err := r.playlistStore(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, session, id)
	if err != nil {
		return nil, err
	}
	return w, w.Start(session, store.ModeUpdate, existing)
}

// preferencesFrom builds the AI preference bundle from the ideas songs flags.
func preferencesFrom(cmd *cli.Command, base models.Preferences) (models.Preferences, error) {
	p := base.Clone()
	if cmd.IsSet("start-year") {
		p.StartYear = models.Year(int(cmd.Int("start-year")))
	}
	if cmd.IsSet("end-year") {
		p.EndYear = models.Year(int(cmd.Int("end-year")))
	}
	if cmd.IsSet("language") {
		p.LanguagePreferences = cmd.String("language")
	}
	if cmd.IsSet("hidden-gems") {
		p.PreferHiddenGems = cmd.Bool("hidden-gems")
	}
	if cmd.IsSet("exclude") {
		p.ExcludeKeywords = cmd.String("exclude")
	}
	if cmd.IsSet("ratio") {
		ratio, err := models.ParseRatio(cmd.String("ratio"))
		if err != nil {
			return p, err
		}
		p.InstrumentalVocalRatio = ratio
	}
	if cmd.IsSet("story") {
		p.StoryNarrative = cmd.String("story")
	}
	if cmd.IsSet("vibe") {
		p.VibeArcDescription = cmd.String("vibe")
	}
	return p, nil
}

// IdeasSongs runs Get Song Ideas from flags or against a saved mixtape.
func (r *Runner) IdeasSongs(ctx context.Context, cmd *cli.Command) error {
	w, err := r.startWizard(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer w.Close()

	if cmd.IsSet("theme") {
		w.SetTheme(cmd.String("theme"))
	}
	for _, seed := range cmd.StringSlice("seed") {
		if err := w.AddSeed(seed); err != nil {
			return err
		}
	}
	for _, genre := range cmd.StringSlice("fusion") {
		if err := w.AddFusionGenre(genre); err != nil {
			return err
		}
	}
	prefs, err := preferencesFrom(cmd, w.Draft().Preferences)
	if err != nil {
		return err
	}
	if err := w.UpdatePreferences(prefs); err != nil {
		return err
	}

	suggestions, err := w.GetSongIdeas(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(suggestions, cmd.Bool("pretty"))
	}

	r.writeNotices(w.Notices())
	if len(suggestions) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(suggestions))
	for _, s := range suggestions {
		rows = append(rows, []string{s.Title, s.Artist, s.Album, shared.FormatMillis(s.DurationMS)})
	}
	r.writePlain("%s\n", renderTable(
		[]string{"Title", "Artist", "Album", "Length"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
	))
	return nil
}

// IdeasTitles suggests three titles for --theme or a saved mixtape.
func (r *Runner) IdeasTitles(ctx context.Context, cmd *cli.Command) error {
	w, err := r.startWizard(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer w.Close()

	if cmd.IsSet("theme") {
		w.SetTheme(cmd.String("theme"))
	}

	titles, err := w.SuggestTitles(ctx)
	if err != nil {
		return err
	}
	return r.writeList(cmd, titles, w.Notices())
}

// IdeasLinerNotes writes liner notes for a saved mixtape, optionally storing them.
func (r *Runner) IdeasLinerNotes(ctx context.Context, cmd *cli.Command) error {
	w, err := r.startWizard(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer w.Close()

	notes, err := w.WriteLinerNotes(ctx)
	if err != nil {
		return err
	}
	r.writePlain("%s\n", notes)

	if cmd.Bool("save") {
		if _, err := w.Save(ctx); err != nil {
			return err
		}
		r.writeNotices(w.Notices())
	}
	return nil
}

// IdeasNextThemes suggests follow-up themes for a saved mixtape.
func (r *Runner) IdeasNextThemes(ctx context.Context, cmd *cli.Command) error {
	w, err := r.startWizard(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer w.Close()

	ideas, err := w.SuggestNextThemes(ctx)
	if err != nil {
		return err
	}
	return r.writeList(cmd, ideas, w.Notices())
}

func (r *Runner) writeList(cmd *cli.Command, items []string, notices *wizard.Notices) error {
	if cmd.Bool("json") {
		return r.writeJSON(items, cmd.Bool("pretty"))
	}
	r.writeNotices(notices)
	for i, item := range items {
		r.writePlain("%d. %s\n", i+1, item)
	}
	return nil
}
