package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/maestro/internal/dashboard"
	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/shared"
	"github.com/desertthunder/maestro/internal/store"
	"github.com/desertthunder/maestro/internal/tasks"
	"github.com/desertthunder/maestro/internal/wizard"
)

const noticeTick = 500 * time.Millisecond

// ViewState represents the current view in the TUI.
type ViewState int

const (
	DashboardView ViewState = iota
	WizardView
	ConfirmDeleteView
	PublishView
)

// Deps are the collaborators of the TUI. The wizard's notices are shared with the dashboard.
type Deps struct {
	Store   *store.Store
	Session models.Session
	Wizard  *wizard.Wizard
	Logger  *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	session   models.Session
	dashboard *dashboard.Dashboard
	wizard    *wizard.Wizard
	notices   *wizard.Notices
	logger    *log.Logger
	width     int
	height    int
	err       error
	busy      int
	spinner   spinner.Model
	help      help.Model
	keys      keyMap

	playlists    list.Model
	showArchived bool
	changes      chan struct{}

	fields       []field
	focused      int
	suggestions  list.Model
	songs        list.Model
	songsFocused bool
	manual       textinput.Model
	manualOpen   bool
	note         textinput.Model
	cover        textinput.Model
	coverOpen    bool
	liner        textarea.Model
	linerOpen    bool

	progressChan chan tasks.ProgressUpdate
	publishDone  chan Msg
	progress     tasks.ProgressUpdate
	spotifyURL   string
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	logger := deps.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	notices := deps.Wizard.Notices()

	d := dashboard.New(deps.Store, deps.Session, notices, logger)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.warn

	m := &Model{
		ctx:         ctx,
		view:        DashboardView,
		session:     deps.Session,
		dashboard:   d,
		wizard:      deps.Wizard,
		notices:     notices,
		logger:      logger,
		spinner:     s,
		help:        help.New(),
		keys:        newKeyMap(),
		playlists:   newList("My Mixtapes", nil),
		changes:     make(chan struct{}, 1),
		fields:      newFoundationFields(),
		suggestions: newList("Suggestions", nil),
		songs:       newList("Your Mixtape", nil),
		manual:      newInput("Title by Artist"),
		note:        newInput("Why this song?"),
		cover:       newInput("https://..."),
		liner:       textarea.New(),
	}
	m.liner.Placeholder = "A few sentences about the mixtape..."
	return m
}

// Close ends the dashboard subscription and the wizard session.
func (m *Model) Close() {
	m.dashboard.Close()
	m.wizard.Close()
}

// View returns the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %s\n\nPress q to quit", shared.Describe(m.err)))
	}

	var body string
	switch m.view {
	case DashboardView:
		body = m.renderDashboard()
	case WizardView:
		body = m.renderWizard()
	case ConfirmDeleteView:
		body = m.renderConfirmDelete()
	case PublishView:
		body = m.renderPublish()
	}

	var b strings.Builder
	b.WriteString(body)
	if status := m.renderStatus(); status != "" {
		b.WriteString("\n\n")
		b.WriteString(status)
	}
	return b.String()
}

// State reports the current view.
func (m *Model) State() ViewState { return m.view }

// Init opens the dashboard subscription and starts the notice ticker.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.run(actionOpen, func(ctx context.Context) error { return m.dashboard.Open(ctx, m.notify) }),
		m.tick(),
		m.spinner.Tick,
	)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.err != nil {
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}
		switch m.view {
		case DashboardView:
			return m.handleDashboardKeys(msg)
		case WizardView:
			return m.handleWizardKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmKeys(msg)
		}
		return m, nil

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsChanged:
		m.refreshPlaylists()
		if m.view == ConfirmDeleteView {
			if _, ok := m.dashboard.PendingDelete(); !ok {
				m.view = DashboardView
			}
		}
		return m, m.waitForChange()

	case MsgActionDone:
		res := msg.data.(actionResult)
		m.busy--
		return m, m.finish(res)

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgPublished:
		res := msg.data.(publishResult)
		m.busy--
		m.progressChan, m.publishDone = nil, nil
		m.view = WizardView
		if res.err != nil && !errors.Is(res.err, wizard.ErrStale) {
			m.logger.Warn("save to spotify failed", "error", res.err)
		}
		if res.result != nil && res.result.RemotePlaylist != nil {
			m.spotifyURL = res.result.RemotePlaylist.URL
		}
		m.refreshCuration()
		return m, nil

	case MsgTick:
		m.notices.Active()
		return m, m.tick()
	}
	return m, nil
}

// finish routes the completion of an asynchronous action.
func (m *Model) finish(res actionResult) tea.Cmd {
	if res.err != nil && !errors.Is(res.err, wizard.ErrStale) {
		m.logger.Debug("action failed", "action", res.action, "error", res.err)
	}

	switch res.action {
	case actionOpen:
		if res.err != nil {
			m.err = res.err
			return nil
		}
		if err := m.dashboard.Err(); err != nil {
			m.err = err
			return nil
		}
		m.refreshPlaylists()
		return m.waitForChange()
	case actionIdeas:
		m.refreshCuration()
		m.songsFocused = false
	case actionLiner:
		if res.err == nil {
			m.liner.SetValue(m.wizard.Draft().LinerNotes)
		}
	case actionSave:
		m.refreshCuration()
	}
	return nil
}

// run executes fn as a command and reports its outcome as [MsgActionDone].
func (m *Model) run(a action, fn func(ctx context.Context) error) tea.Cmd {
	m.busy++
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg(a, fn(ctx))
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(noticeTick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// notify is the dashboard's change callback. It never blocks; one pending signal is enough
// because the handler reads the latest lists.
func (m *Model) notify() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}

func (m *Model) waitForChange() tea.Cmd {
	changes, done := m.changes, m.ctx.Done()
	return func() tea.Msg {
		select {
		case <-changes:
			return playlistsChangedMsg()
		case <-done:
			return nil
		}
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.help.Width = width
	m.playlists.SetSize(width-4, height-10)

	pane := (width - 8) / 2
	m.suggestions.SetSize(pane, height-16)
	m.songs.SetSize(pane, height-16)

	m.liner.SetWidth(max(width-8, 20))
	m.liner.SetHeight(6)
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case DashboardView:
		m.playlists, cmd = m.playlists.Update(msg)
	case WizardView:
		if m.wizard.Step() == wizard.Curation {
			if m.songsFocused {
				m.songs, cmd = m.songs.Update(msg)
			} else {
				m.suggestions, cmd = m.suggestions.Update(msg)
			}
		}
	}
	return m, cmd
}

func (m *Model) refreshPlaylists() {
	if m.showArchived {
		archived := m.dashboard.Archived()
		m.playlists.Title = fmt.Sprintf("Archived (%d)", len(archived))
		m.playlists.SetItems(playlistItems(archived))
		return
	}
	active := m.dashboard.Active()
	m.playlists.Title = fmt.Sprintf("My Mixtapes (%d)", len(active))
	m.playlists.SetItems(playlistItems(active))
}

func (m *Model) selectedPlaylist() (*models.Playlist, bool) {
	item, ok := m.playlists.SelectedItem().(playlistItem)
	if !ok {
		return nil, false
	}
	return item.playlist, true
}

func (m *Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlists.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.playlists, cmd = m.playlists.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.create):
		return m, m.startWizard(store.ModeCreate, nil)
	case key.Matches(msg, m.keys.archived):
		m.showArchived = !m.showArchived
		m.refreshPlaylists()
		return m, nil
	}

	p, ok := m.selectedPlaylist()
	if !ok {
		var cmd tea.Cmd
		m.playlists, cmd = m.playlists.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.enter), msg.String() == "e":
		if existing, err := m.dashboard.Edit(p.ID()); err == nil {
			return m, m.startWizard(store.ModeUpdate, existing)
		}
		return m, nil
	case key.Matches(msg, m.keys.remix):
		if existing, err := m.dashboard.Remix(p.ID()); err == nil {
			return m, m.startWizard(store.ModeRemix, existing)
		}
		return m, nil
	case key.Matches(msg, m.keys.archive):
		id := p.ID()
		return m, m.run(actionArchive, func(ctx context.Context) error { return m.dashboard.ToggleArchive(ctx, id) })
	case key.Matches(msg, m.keys.del):
		if err := m.dashboard.RequestDelete(p.ID()); err != nil {
			m.notices.Error(shared.Describe(err))
			return m, nil
		}
		m.view = ConfirmDeleteView
		return m, nil
	}

	var cmd tea.Cmd
	m.playlists, cmd = m.playlists.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = DashboardView
		return m, m.run(actionDelete, m.dashboard.ConfirmDelete)
	case key.Matches(msg, m.keys.no):
		m.dashboard.CancelDelete()
		m.view = DashboardView
	}
	return m, nil
}

func (m *Model) startPublish() tea.Cmd {
	m.commitEditors()
	m.busy++
	m.view = PublishView
	m.progress = tasks.ProgressUpdate{Message: "Saving to Maestro..."}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan Msg, 1)
	m.progressChan, m.publishDone = progress, done

	go func(ctx context.Context) {
		result, err := m.wizard.SaveToSpotify(ctx, progress)
		close(progress)
		done <- publishedMsg(result, err)
	}(m.ctx)

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.publishDone
	return func() tea.Msg {
		if progress == nil {
			return nil
		}
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderDashboard() string {
	header := styles.title.Render(fmt.Sprintf("Mixtape Maestro • %s", m.session.DisplayName))
	if !m.dashboard.Loaded() {
		return fmt.Sprintf("%s\n\nLoading your mixtapes...", header)
	}

	body := m.playlists.View()
	if len(m.playlists.Items()) == 0 {
		if m.showArchived {
			body = styles.help.Render("No archived mixtapes.")
		} else {
			body = styles.help.Render("No mixtapes yet. Press n to create one.")
		}
	}
	return fmt.Sprintf("%s\n%s\n\n%s", header, body, m.help.ShortHelpView(m.keys.dashboardHelp()))
}

func (m *Model) renderConfirmDelete() string {
	p, ok := m.dashboard.PendingDelete()
	if !ok {
		return ""
	}
	title := styles.warn.Render(fmt.Sprintf("Delete %q?", p.Theme))
	info := fmt.Sprintf("\n%d songs • %s\nThis cannot be undone.\n", len(p.Songs), shared.FormatMillis(p.TotalDurationMS()))
	return fmt.Sprintf("%s\n%s\n%s", title, info, m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no}))
}

func (m *Model) renderPublish() string {
	title := styles.title.Render("Saving to Spotify")
	return fmt.Sprintf("%s\n\n%s %s\n%s", title, m.spinner.View(), m.progress.Status(), m.progress.Message)
}

// renderStatus shows the spinner and active notices under every view.
func (m *Model) renderStatus() string {
	var lines []string
	if m.busy > 0 && m.view != PublishView {
		lines = append(lines, fmt.Sprintf("%s Working...", m.spinner.View()))
	}
	for _, n := range m.notices.Active() {
		if n.Kind == wizard.Failure {
			lines = append(lines, styles.err.Render("✗ "+n.Message))
		} else {
			lines = append(lines, styles.ok.Render("✓ "+n.Message))
		}
	}
	return strings.Join(lines, "\n")
}
