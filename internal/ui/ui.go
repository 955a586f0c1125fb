package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songdl/internal/models"
	"github.com/desertthunder/songdl/internal/services"
	"github.com/desertthunder/songdl/internal/session"
	"github.com/desertthunder/songdl/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SearchView ViewState = iota
	ResultsView
)

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	sess      *session.Session
	progress  <-chan tasks.ProgressUpdate
	platform  string
	width     int
	height    int
	input     textinput.Model
	results   list.Model
	songs     []models.Song
	status    string
	statusErr bool
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model over sess. progress must be the channel the
// session's tracker publishes on; nil disables live progress.
func NewModel(ctx context.Context, sess *session.Session, progress <-chan tasks.ProgressUpdate, platform string) *Model {
	input := textinput.New()
	input.Placeholder = "artist, title or album"
	input.CharLimit = 200
	input.Focus()

	results := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	results.Title = "Results"

	return &Model{
		ctx:      ctx,
		view:     SearchView,
		sess:     sess,
		progress: progress,
		platform: platform,
		input:    input,
		results:  results,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init starts the cursor blink, loads the quota and subscribes to progress.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadQuota(), m.waitForProgress())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.results.SetSize(msg.Width-4, msg.Height-10)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SearchView:
			return m.handleSearchKeys(msg)
		case ResultsView:
			return m.handleResultsKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateInputs(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSearchResults:
		res := msg.data.(searchResults)
		if res.err != nil {
			m.setError(services.UserMessage(res.err))
			return m, nil
		}
		m.songs = res.songs
		m.results.Title = fmt.Sprintf("Results for %q", res.query)
		m.results.ResetSelected()
		m.setStatus(fmt.Sprintf("%d songs", len(res.songs)))
		m.view = ResultsView
		m.input.Blur()
		return m, m.refreshItems()

	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		if update.Phase == tasks.InFlight {
			m.setStatus(update.Message)
		}
		return m, tea.Batch(m.refreshItems(), m.waitForProgress())

	case MsgDownloadComplete:
		res := msg.data.(downloadComplete)
		if res.err != nil {
			m.setError(fmt.Sprintf("%s: %s", res.song.DisplayName(), services.UserMessage(res.err)))
		} else {
			m.setStatus(fmt.Sprintf("✓ Saved %s to %s", res.song.DisplayName(), res.state.Location))
		}
		return m, m.refreshItems()

	case MsgQuotaLoaded:
		if err, _ := msg.data.(error); err != nil {
			m.setError("Could not load quota: " + services.UserMessage(err))
		}
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case SearchView:
		body = m.renderSearch()
	case ResultsView:
		body = m.renderResults()
	}

	sections := []string{m.renderHeader(), body}
	if bar := m.renderPlayerBar(); bar != "" {
		sections = append(sections, bar)
	}
	if status := m.renderStatus(); status != "" {
		sections = append(sections, status)
	}
	sections = append(sections, m.renderHelp())
	return strings.Join(sections, "\n\n")
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		if len(m.songs) > 0 {
			m.view = ResultsView
			m.input.Blur()
		}
		return m, nil
	case "enter":
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			return m, nil
		}
		m.setStatus("Searching...")
		return m, m.search(query)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.results.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = SearchView
		m.input.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.play):
		if song, ok := m.selectedSong(); ok {
			m.sess.Playback().Toggle(song)
			return m, m.refreshItems()
		}
		return m, nil
	case key.Matches(msg, m.keys.pause):
		m.sess.Playback().Pause()
		return m, m.refreshItems()
	case key.Matches(msg, m.keys.close):
		m.sess.Playback().Close()
		return m, m.refreshItems()
	case key.Matches(msg, m.keys.download):
		if song, ok := m.selectedSong(); ok {
			return m, m.startDownload(song)
		}
		return m, nil
	case key.Matches(msg, m.keys.abandon):
		if song, ok := m.selectedSong(); ok && m.sess.Tracker().Abandon(song.ID) {
			m.setStatus("Stopped tracking " + song.DisplayName())
			return m, m.refreshItems()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SearchView:
		m.input, cmd = m.input.Update(msg)
	case ResultsView:
		m.results, cmd = m.results.Update(msg)
	}
	return m, cmd
}

func (m *Model) selectedSong() (models.Song, bool) {
	if item, ok := m.results.SelectedItem().(songItem); ok {
		return item.song, true
	}
	return models.Song{}, false
}

// startDownload gates the download on the session's capabilities, mirroring a disabled control.
func (m *Model) startDownload(song models.Song) tea.Cmd {
	caps := m.sess.Capabilities()
	switch {
	case !caps.SignedIn:
		m.setError("Sign in to download (songdl auth login)")
		return nil
	case !caps.CanDownload:
		m.setError(m.sess.Quota().Message())
		return nil
	case m.sess.Tracker().InFlight(song.ID):
		m.setStatus(song.DisplayName() + " is already downloading")
		return nil
	}

	m.setStatus("Downloading " + song.DisplayName() + "...")
	return func() tea.Msg {
		st, err := m.sess.Download(m.ctx, song)
		return downloadCompleteMsg(song, st, err)
	}
}

// refreshItems rebuilds list items from the current playback and transfer state.
func (m *Model) refreshItems() tea.Cmd {
	sel := m.sess.Playback().Selection()
	items := make([]list.Item, len(m.songs))
	for i, song := range m.songs {
		item := songItem{song: song, transfer: m.sess.Tracker().ProgressOf(song.ID)}
		if sel.Track != nil && sel.Track.ID == song.ID {
			item.play = sel.State()
		}
		items[i] = item
	}
	return m.results.SetItems(items)
}

func (m *Model) search(query string) tea.Cmd {
	return func() tea.Msg {
		songs, err := m.sess.Songs().Search(m.ctx, query, m.platform)
		return searchResultsMsg(query, songs, err)
	}
}

func (m *Model) loadQuota() tea.Cmd {
	if !m.sess.Capabilities().SignedIn {
		return nil
	}
	return func() tea.Msg {
		return quotaLoadedMsg(m.sess.RefreshQuota(m.ctx))
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	if m.progress == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-m.progress
		if !ok {
			return nil
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *Model) setError(s string) {
	m.status, m.statusErr = s, true
}

func (m *Model) renderHeader() string {
	title := styles.title.Render("songdl")
	quota := m.sess.Quota()
	line := styles.ok.Render(quota.Message())
	if quota.Exhausted() {
		line = styles.err.Render(quota.Message())
	}
	if !m.sess.Capabilities().SignedIn {
		line = styles.warn.Render("Not signed in")
	}
	return fmt.Sprintf("%s\n%s", title, line)
}

func (m *Model) renderSearch() string {
	return fmt.Sprintf("Search songs\n\n%s", m.input.View())
}

func (m *Model) renderResults() string {
	return m.results.View()
}

// renderPlayerBar renders the now-playing bar; empty when the bar is hidden.
func (m *Model) renderPlayerBar() string {
	sel := m.sess.Playback().Selection()
	if !sel.IsBarVisible || sel.Track == nil {
		return ""
	}

	icon := "⏸"
	if sel.IsPlaying {
		icon = "▶"
	}
	bar := fmt.Sprintf("%s %s [%s]", icon, sel.Track.DisplayName(), sel.Track.DurationString())
	if url, ok := m.sess.Playback().WidgetURL(); ok {
		bar += "\n" + styles.help.Render(url)
	}
	return styles.bar.Render(bar)
}

func (m *Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return styles.err.Render(m.status)
	}
	return styles.warn.Render(m.status)
}

func (m *Model) renderHelp() string {
	var keys []key.Binding
	switch m.view {
	case SearchView:
		keys = []key.Binding{m.keys.search, key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit"))}
	case ResultsView:
		keys = []key.Binding{m.keys.play, m.keys.download, m.keys.close, m.keys.back, m.keys.quit}
	}
	return m.help.ShortHelpView(keys)
}
