package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/maestro/internal/curation"
	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/shared"
	"github.com/desertthunder/maestro/internal/store"
	"github.com/desertthunder/maestro/internal/wizard"
)

type fieldKind int

const (
	scalarField fieldKind = iota
	listField
)

// field is one Foundation input. List fields add an entry on enter and clear.
type field struct {
	label string
	kind  fieldKind
	input textinput.Model
}

const (
	fieldTheme = iota
	fieldTags
	fieldSeeds
	fieldFusion
	fieldStartYear
	fieldEndYear
	fieldLanguage
	fieldExclude
	fieldStory
	fieldVibe
)

var ratios = []models.Ratio{models.RatioBalanced, models.RatioMostlyInstrumental, models.RatioMostlyVocal}

func newInput(placeholder string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 500
	in.Width = 60
	return in
}

func newFoundationFields() []field {
	return []field{
		{label: "Theme", kind: scalarField, input: newInput("late-night drive through the city")},
		{label: "Tags", kind: listField, input: newInput("chill, synthwave, driving")},
		{label: "Seed songs", kind: listField, input: newInput("Title by Artist")},
		{label: "Fusion", kind: listField, input: newInput("a genre to blend in")},
		{label: "From year", kind: scalarField, input: newInput("1980")},
		{label: "To year", kind: scalarField, input: newInput("1989")},
		{label: "Language", kind: scalarField, input: newInput("any")},
		{label: "Exclude", kind: scalarField, input: newInput("keywords to avoid")},
		{label: "Story", kind: scalarField, input: newInput("a narrative the songs follow")},
		{label: "Vibe arc", kind: scalarField, input: newInput("slow start, peak, cool down")},
	}
}

// startWizard opens the wizard on a new draft, an edit or a remix.
func (m *Model) startWizard(mode store.Mode, existing *models.Playlist) tea.Cmd {
	if err := m.wizard.Start(m.session, mode, existing); err != nil {
		m.notices.Error(shared.Describe(err))
		return nil
	}

	m.view = WizardView
	m.spotifyURL = ""
	if mode == store.ModeUpdate {
		m.spotifyURL = existing.SpotifyPlaylistURL()
	}
	m.manualOpen, m.coverOpen, m.linerOpen = false, false, false
	m.songsFocused = false

	d := m.wizard.Draft()
	m.loadFoundation(d)
	m.cover.SetValue(d.CoverArtURL)
	m.liner.SetValue(d.LinerNotes)
	m.refreshCuration()
	return m.focusField(fieldTheme)
}

// loadFoundation copies the draft into the Foundation inputs.
func (m *Model) loadFoundation(d models.Draft) {
	p := d.Preferences
	values := map[int]string{
		fieldTheme:     d.Theme,
		fieldStartYear: yearString(p.StartYear),
		fieldEndYear:   yearString(p.EndYear),
		fieldLanguage:  p.LanguagePreferences,
		fieldExclude:   p.ExcludeKeywords,
		fieldStory:     p.StoryNarrative,
		fieldVibe:      p.VibeArcDescription,
	}
	for i := range m.fields {
		m.fields[i].input.SetValue(values[i])
	}
}

func yearString(y *int) string {
	if y == nil {
		return ""
	}
	return strconv.Itoa(*y)
}

func parseYear(label, s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	y, err := strconv.Atoi(s)
	if err != nil || y < 0 {
		return nil, fmt.Errorf("%w: %s must be a year.", shared.ErrValidation, label)
	}
	return models.Year(y), nil
}

// applyPreferences pushes the scalar Foundation inputs into the wizard. Invalid years are
// reported as notices and leave the stored preferences untouched.
func (m *Model) applyPreferences() error {
	p := m.wizard.Draft().Preferences

	start, err := parseYear("From year", m.fields[fieldStartYear].input.Value())
	if err == nil {
		p.StartYear = start
		p.EndYear, err = parseYear("To year", m.fields[fieldEndYear].input.Value())
	}
	if err != nil {
		m.notices.Error(shared.Describe(err))
		return err
	}

	p.LanguagePreferences = strings.TrimSpace(m.fields[fieldLanguage].input.Value())
	p.ExcludeKeywords = strings.TrimSpace(m.fields[fieldExclude].input.Value())
	p.StoryNarrative = m.fields[fieldStory].input.Value()
	p.VibeArcDescription = m.fields[fieldVibe].input.Value()
	return m.wizard.UpdatePreferences(p)
}

func (m *Model) focusField(i int) tea.Cmd {
	for j := range m.fields {
		m.fields[j].input.Blur()
	}
	m.focused = (i + len(m.fields)) % len(m.fields)
	return m.fields[m.focused].input.Focus()
}

// commitEditors applies any open inline editor before a step change or save.
func (m *Model) commitEditors() error {
	switch m.wizard.Step() {
	case wizard.Foundation:
		m.wizard.SetTheme(m.fields[fieldTheme].input.Value())
		return m.applyPreferences()
	case wizard.FinalTouches:
		if m.coverOpen {
			m.wizard.SetCoverArt(m.cover.Value())
			m.coverOpen = false
			m.cover.Blur()
		}
		if m.linerOpen {
			m.wizard.SetLinerNotes(m.liner.Value())
			m.linerOpen = false
			m.liner.Blur()
		}
	}
	return nil
}

func (m *Model) handleWizardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	step := m.wizard.Step()

	switch {
	case key.Matches(msg, m.keys.save):
		if err := m.commitEditors(); err != nil {
			return m, nil
		}
		return m, m.run(actionSave, func(ctx context.Context) error {
			_, err := m.wizard.Save(ctx)
			return err
		})
	case key.Matches(msg, m.keys.next):
		if err := m.commitEditors(); err != nil {
			return m, nil
		}
		if err := m.wizard.Next(); err != nil {
			m.notices.Error(shared.Describe(err))
			return m, nil
		}
		return m, m.enterStep()
	case key.Matches(msg, m.keys.prev):
		m.commitEditors()
		m.wizard.Prev()
		return m, m.enterStep()
	}

	switch step {
	case wizard.Foundation:
		return m.handleFoundationKeys(msg)
	case wizard.Curation:
		return m.handleCurationKeys(msg)
	default:
		return m.handleFinalKeys(msg)
	}
}

// enterStep prepares the inputs of the step the wizard just moved to.
func (m *Model) enterStep() tea.Cmd {
	switch m.wizard.Step() {
	case wizard.Foundation:
		m.loadFoundation(m.wizard.Draft())
		return m.focusField(m.focused)
	case wizard.Curation:
		for j := range m.fields {
			m.fields[j].input.Blur()
		}
		m.refreshCuration()
	default:
		d := m.wizard.Draft()
		m.cover.SetValue(d.CoverArtURL)
		m.liner.SetValue(d.LinerNotes)
	}
	return nil
}

// leaveWizard returns to the dashboard, dropping unsaved changes.
func (m *Model) leaveWizard() {
	m.wizard.Close()
	m.view = DashboardView
	m.refreshPlaylists()
}

func (m *Model) handleFoundationKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.fields[m.focused]

	switch {
	case key.Matches(msg, m.keys.back):
		m.leaveWizard()
		return m, nil
	case key.Matches(msg, m.keys.focus), key.Matches(msg, m.keys.unfocus):
		if f.kind == scalarField {
			_ = m.commitEditors()
		}
		if key.Matches(msg, m.keys.focus) {
			return m, m.focusField(m.focused + 1)
		}
		return m, m.focusField(m.focused - 1)
	case key.Matches(msg, m.keys.gems):
		p := m.wizard.Draft().Preferences
		p.PreferHiddenGems = !p.PreferHiddenGems
		_ = m.wizard.UpdatePreferences(p)
		return m, nil
	case key.Matches(msg, m.keys.ratio):
		p := m.wizard.Draft().Preferences
		p.InstrumentalVocalRatio = nextRatio(p.InstrumentalVocalRatio)
		_ = m.wizard.UpdatePreferences(p)
		return m, nil
	case key.Matches(msg, m.keys.drop):
		m.dropLast()
		return m, nil
	case msg.Type == tea.KeyEnter:
		if f.kind == listField {
			m.addEntry(f)
			return m, nil
		}
		_ = m.commitEditors()
		return m, nil
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	if m.focused == fieldTheme {
		m.wizard.SetTheme(f.input.Value())
	}
	return m, cmd
}

func nextRatio(r models.Ratio) models.Ratio {
	for i, candidate := range ratios {
		if candidate == r {
			return ratios[(i+1)%len(ratios)]
		}
	}
	return models.RatioBalanced
}

// addEntry submits a list field. The input keeps its text when the entry is rejected.
func (m *Model) addEntry(f *field) {
	value := f.input.Value()
	var err error
	switch m.focused {
	case fieldTags:
		_, err = m.wizard.ManageTags(value)
	case fieldSeeds:
		err = m.wizard.AddSeed(value)
	case fieldFusion:
		err = m.wizard.AddFusionGenre(value)
	}
	if err == nil {
		f.input.SetValue("")
	}
}

func (m *Model) dropLast() {
	var items []string
	var remove func(string) bool
	switch m.focused {
	case fieldTags:
		items, remove = m.wizard.Tags(), m.wizard.RemoveTag
	case fieldSeeds:
		items, remove = m.wizard.SeedSongs(), m.wizard.RemoveSeed
	case fieldFusion:
		items, remove = m.wizard.FusionGenres(), m.wizard.RemoveFusionGenre
	default:
		return
	}
	if len(items) > 0 {
		remove(items[len(items)-1])
	}
}

// refreshCuration rebuilds both Curation lists from the wizard.
func (m *Model) refreshCuration() {
	m.suggestions.SetItems(suggestionItems(m.wizard.Suggestions()))
	m.songs.SetItems(songItems(m.wizard.Songs()))
	m.songs.Title = fmt.Sprintf("Your Mixtape • %s", m.wizard.TotalDuration())
}

func (m *Model) selectedSong() (models.Song, bool) {
	item, ok := m.songs.SelectedItem().(songItem)
	return item.song, ok
}

func (m *Model) handleCurationKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if _, ok := m.wizard.PendingDuplicate(); ok {
		switch {
		case key.Matches(msg, m.keys.yes):
			if _, err := m.wizard.AddAnyway(); err != nil {
				m.notices.Error(shared.Describe(err))
			}
			m.refreshCuration()
		case key.Matches(msg, m.keys.no):
			m.wizard.CancelPending()
		}
		return m, nil
	}

	if m.manualOpen {
		return m.handleManualKeys(msg)
	}
	if id, _ := m.wizard.NoteEdit(); id != "" {
		return m.handleNoteKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.back):
		m.leaveWizard()
		return m, nil
	case key.Matches(msg, m.keys.focus):
		m.songsFocused = !m.songsFocused
		return m, nil
	case key.Matches(msg, m.keys.ideas):
		return m, m.run(actionIdeas, func(ctx context.Context) error {
			_, err := m.wizard.GetSongIdeas(ctx)
			return err
		})
	case key.Matches(msg, m.keys.manual):
		m.manualOpen = true
		m.manual.SetValue("")
		return m, m.manual.Focus()
	}

	if !m.songsFocused {
		if key.Matches(msg, m.keys.enter) {
			if item, ok := m.suggestions.SelectedItem().(suggestionItem); ok {
				if _, err := m.wizard.AddSuggestion(item.suggestion.ID); err != nil {
					m.notices.Error(shared.Describe(err))
				}
				m.refreshCuration()
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.suggestions, cmd = m.suggestions.Update(msg)
		return m, cmd
	}

	song, ok := m.selectedSong()
	if ok {
		switch {
		case key.Matches(msg, m.keys.remove):
			m.wizard.RemoveSong(song.ID)
			m.refreshCuration()
			return m, nil
		case key.Matches(msg, m.keys.note):
			if err := m.wizard.StartNoteEdit(song.ID); err != nil {
				m.notices.Error(shared.Describe(err))
				return m, nil
			}
			m.note.SetValue(song.PersonalNote)
			return m, m.note.Focus()
		case key.Matches(msg, m.keys.moveUp), key.Matches(msg, m.keys.moveDown):
			from := m.songs.Index()
			to := from + 1
			if key.Matches(msg, m.keys.moveUp) {
				to = from - 1
			}
			if err := m.wizard.MoveSong(from, to); err == nil {
				m.refreshCuration()
				m.songs.Select(to)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.songs, cmd = m.songs.Update(msg)
	return m, cmd
}

func (m *Model) handleManualKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.manualOpen = false
		m.manual.Blur()
		return m, nil
	case tea.KeyEnter:
		title, artist, ok := curation.ParseSeed(m.manual.Value())
		if !ok {
			m.notices.Error("Enter the song as \"Title by Artist\".")
			return m, nil
		}
		m.wizard.AddSong(models.Song{Title: title, Artist: artist})
		m.manualOpen = false
		m.manual.Blur()
		m.refreshCuration()
		return m, nil
	}

	var cmd tea.Cmd
	m.manual, cmd = m.manual.Update(msg)
	return m, cmd
}

func (m *Model) handleNoteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.wizard.CancelNoteEdit()
		m.note.Blur()
		return m, nil
	case tea.KeyEnter:
		m.wizard.SetNoteBuffer(m.note.Value())
		if err := m.wizard.SaveNote(); err != nil {
			m.notices.Error(shared.Describe(err))
		}
		m.note.Blur()
		m.refreshCuration()
		return m, nil
	}

	var cmd tea.Cmd
	m.note, cmd = m.note.Update(msg)
	return m, cmd
}

func (m *Model) handleFinalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.coverOpen {
		switch msg.Type {
		case tea.KeyEsc:
			m.coverOpen = false
			m.cover.Blur()
			return m, nil
		case tea.KeyEnter:
			m.commitEditors()
			return m, nil
		}
		var cmd tea.Cmd
		m.cover, cmd = m.cover.Update(msg)
		return m, cmd
	}
	if m.linerOpen {
		if msg.Type == tea.KeyEsc {
			m.commitEditors()
			return m, nil
		}
		var cmd tea.Cmd
		m.liner, cmd = m.liner.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.back):
		m.leaveWizard()
	case key.Matches(msg, m.keys.titles):
		return m, m.run(actionTitles, func(ctx context.Context) error {
			_, err := m.wizard.SuggestTitles(ctx)
			return err
		})
	case key.Matches(msg, m.keys.apply):
		n, _ := strconv.Atoi(msg.String())
		if titles := m.wizard.TitleSuggestions(); n >= 1 && n <= len(titles) {
			m.wizard.ApplyTitle(titles[n-1])
		}
	case key.Matches(msg, m.keys.liner):
		return m, m.run(actionLiner, func(ctx context.Context) error {
			_, err := m.wizard.WriteLinerNotes(ctx)
			return err
		})
	case key.Matches(msg, m.keys.write):
		m.linerOpen = true
		m.liner.SetValue(m.wizard.Draft().LinerNotes)
		return m, m.liner.Focus()
	case key.Matches(msg, m.keys.cover):
		m.coverOpen = true
		m.cover.SetValue(m.wizard.Draft().CoverArtURL)
		return m, m.cover.Focus()
	case key.Matches(msg, m.keys.public):
		m.wizard.SetPublic(!m.wizard.Draft().IsPublic)
	case key.Matches(msg, m.keys.future):
		return m, m.run(actionNext, func(ctx context.Context) error {
			_, err := m.wizard.SuggestNextThemes(ctx)
			return err
		})
	case key.Matches(msg, m.keys.spotify):
		return m, m.startPublish()
	}
	return m, nil
}

func (m *Model) renderWizard() string {
	var b strings.Builder

	mode := "New mixtape"
	switch m.wizard.Mode() {
	case store.ModeUpdate:
		mode = "Editing"
	case store.ModeRemix:
		mode = "Remix"
	}
	b.WriteString(styles.title.Render(fmt.Sprintf("%s • %s", mode, m.renderSteps())))
	b.WriteString("\n")

	switch m.wizard.Step() {
	case wizard.Foundation:
		b.WriteString(m.renderFoundation())
		b.WriteString("\n\n")
		b.WriteString(m.help.ShortHelpView(m.keys.foundationHelp()))
	case wizard.Curation:
		b.WriteString(m.renderCuration())
		b.WriteString("\n\n")
		b.WriteString(m.help.ShortHelpView(m.keys.curationHelp()))
	default:
		b.WriteString(m.renderFinal())
		b.WriteString("\n\n")
		b.WriteString(m.help.ShortHelpView(m.keys.finalHelp()))
	}
	return b.String()
}

func (m *Model) renderSteps() string {
	current := m.wizard.Step()
	steps := []wizard.Step{wizard.Foundation, wizard.Curation, wizard.FinalTouches}
	parts := make([]string, len(steps))
	for i, s := range steps {
		if s == current {
			parts[i] = fmt.Sprintf("[%s]", s)
		} else {
			parts[i] = s.String()
		}
	}
	return strings.Join(parts, " → ")
}

func (m *Model) renderFoundation() string {
	var b strings.Builder
	entries := map[int][]string{
		fieldTags:   m.wizard.Tags(),
		fieldSeeds:  m.wizard.SeedSongs(),
		fieldFusion: m.wizard.FusionGenres(),
	}

	for i, f := range m.fields {
		label := styles.label.Render(f.label)
		if i == m.focused {
			label = styles.active.Render(f.label)
		}
		fmt.Fprintf(&b, "%s %s\n", label, f.input.View())
		if items := entries[i]; len(items) > 0 {
			fmt.Fprintf(&b, "%s %s\n", styles.label.Render(""), styles.help.Render(strings.Join(items, " • ")))
		}
	}

	p := m.wizard.Draft().Preferences
	gems := "off"
	if p.PreferHiddenGems {
		gems = "on"
	}
	fmt.Fprintf(&b, "\n%s %s\n", styles.label.Render("Hidden gems"), gems)
	fmt.Fprintf(&b, "%s %s", styles.label.Render("Vocal ratio"), strings.ReplaceAll(string(p.InstrumentalVocalRatio), "_", " "))
	return b.String()
}

func (m *Model) renderCuration() string {
	left := styles.pane.Render(m.suggestions.View())
	right := styles.pane.Render(m.songs.View())
	if m.songsFocused {
		right = styles.pane.BorderForeground(lipgloss.Color("#7D56F4")).Render(m.songs.View())
	} else {
		left = styles.pane.BorderForeground(lipgloss.Color("#7D56F4")).Render(m.suggestions.View())
	}

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))

	if pending, ok := m.wizard.PendingDuplicate(); ok {
		fmt.Fprintf(&b, "\n%s", styles.warn.Render(fmt.Sprintf("%q is already in your mixtape. Add anyway? (y/n)", pending.String())))
	}
	if m.manualOpen {
		fmt.Fprintf(&b, "\n%s %s", styles.active.Render("Add song"), m.manual.View())
	}
	if id, _ := m.wizard.NoteEdit(); id != "" {
		fmt.Fprintf(&b, "\n%s %s", styles.active.Render("Note"), m.note.View())
	}
	return b.String()
}

func (m *Model) renderFinal() string {
	d := m.wizard.Draft()
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", styles.label.Render("Title"), d.Theme)
	for i, t := range m.wizard.TitleSuggestions() {
		fmt.Fprintf(&b, "%s %d. %s\n", styles.label.Render(""), i+1, t)
	}
	fmt.Fprintf(&b, "%s %d songs • %s\n", styles.label.Render("Length"), len(d.Songs), m.wizard.TotalDuration())

	if m.coverOpen {
		fmt.Fprintf(&b, "%s %s\n", styles.active.Render("Cover art"), m.cover.View())
	} else {
		fmt.Fprintf(&b, "%s %s\n", styles.label.Render("Cover art"), d.CoverArtURL)
	}

	public := "no"
	if d.IsPublic {
		public = "yes"
	}
	fmt.Fprintf(&b, "%s %s\n", styles.label.Render("Public"), public)
	if m.spotifyURL != "" {
		fmt.Fprintf(&b, "%s %s\n", styles.label.Render("Spotify"), m.spotifyURL)
	}

	b.WriteString("\n")
	if m.linerOpen {
		b.WriteString(m.liner.View())
	} else if notes := strings.TrimSpace(d.LinerNotes); notes != "" {
		b.WriteString(lipgloss.NewStyle().Width(max(m.width-4, 40)).Render(notes))
	} else {
		b.WriteString(styles.help.Render("No liner notes yet."))
	}

	if ideas := m.wizard.FutureIdeas(); len(ideas) > 0 {
		fmt.Fprintf(&b, "\n\n%s\n", styles.ok.Render("Next mixtape ideas"))
		for _, idea := range ideas {
			fmt.Fprintf(&b, "  • %s\n", idea)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
