package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/maestro/internal/shared"
	"github.com/desertthunder/maestro/internal/ui"
	"github.com/desertthunder/maestro/internal/wizard"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive dashboard and playlist wizard.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	session, err := r.requireSession()
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	s, err := r.playlistStore(ctx)
	if err != nil {
		return err
	}

	notices := wizard.NewNotices(r.config.Notices.Durations())
	w, err := r.newWizard(ctx, true, notices)
	if err != nil {
		r.logger.Warn("spotify unavailable, publishing disabled", "error", err)
		if w, err = r.newWizard(ctx, false, notices); err != nil {
			return err
		}
	}

	model := ui.NewModel(ctx, ui.Deps{Store: s, Session: session, Wizard: w, Logger: r.logger})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
