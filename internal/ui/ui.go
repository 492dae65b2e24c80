package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/spottyfi/internal/cache"
	"github.com/desertthunder/spottyfi/internal/session"
	"github.com/desertthunder/spottyfi/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	BrowseView
	PlaylistListView
	SearchView
)

// Options configures the TUI model.
type Options struct {
	Session *session.Session
	Cache   *cache.Store
	Locale  string
	// Logger should write somewhere other than the terminal the TUI owns.
	Logger *log.Logger
	// RefreshInterval re-fetches browse content on a timer; zero disables it.
	RefreshInterval time.Duration
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	session  *session.Session
	searcher *session.Searcher
	cache    *cache.Store
	locale   string
	logger   *log.Logger
	refresh  time.Duration

	view   ViewState
	width  int
	height int

	state     session.State
	sections  []session.RecommendationSection
	fromCache bool

	sectionList  list.Model
	playlistList list.Model
	selected     *session.RecommendationSection

	searchInput textinput.Model
	searchList  list.Model
	searchCh    chan searchResultMsg
	lastQuery   string

	err  error
	help help.Model
	keys keyMap
}

// sectionItem wraps [session.RecommendationSection] to implement list.Item.
type sectionItem struct {
	section session.RecommendationSection
}

func (i sectionItem) FilterValue() string { return i.section.Title }
func (i sectionItem) Title() string       { return i.section.Title }
func (i sectionItem) Description() string {
	desc := fmt.Sprintf("%d playlists", len(i.section.Playlists))
	if i.section.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.section.Description)
	}
	return desc
}

// playlistItem wraps [session.Playlist] to implement list.Item.
type playlistItem struct {
	playlist session.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := i.playlist.Owner.DisplayName
	if i.playlist.Description != "" {
		if desc != "" {
			desc += " • "
		}
		desc += i.playlist.Description
	}
	return desc
}

// searchItem is one row of mixed-kind search results.
type searchItem struct {
	kind  string
	title string
	desc  string
}

func (i searchItem) FilterValue() string { return i.title }
func (i searchItem) Title() string       { return i.title }
func (i searchItem) Description() string {
	if i.desc == "" {
		return i.kind
	}
	return fmt.Sprintf("%s • %s", i.kind, i.desc)
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	input := textinput.New()
	input.Placeholder = "Search tracks, albums, artists, playlists"
	input.Prompt = "/ "

	return &Model{
		ctx:         ctx,
		session:     opts.Session,
		searcher:    session.NewSearcher(opts.Session, session.SearchAll, 20),
		cache:       opts.Cache,
		locale:      opts.Locale,
		logger:      opts.Logger,
		refresh:     opts.RefreshInterval,
		view:        LoginView,
		state:       opts.Session.State(),
		searchInput: input,
		searchCh:    make(chan searchResultMsg, 8),
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init starts the TUI: a silent login when a persisted token is available,
// otherwise the login screen waits for the user.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForSearch()}
	if m.state.Status == session.StatusAuthenticating {
		cmds = append(cmds, m.login(false))
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.sectionList, &m.playlistList, &m.searchList} {
			if l.Width() != 0 {
				l.SetSize(msg.Width-4, msg.Height-8)
			}
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case BrowseView:
			return m.handleBrowseKeys(msg)
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case SearchView:
			return m.handleSearchKeys(msg)
		}

	case loginDoneMsg:
		m.state = m.session.State()
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		return m, m.fetchProfile()

	case fetchDoneMsg:
		m.state = msg.state
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.view = BrowseView
		return m, m.fetchSections()

	case sectionsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, m.scheduleRefresh()
		}
		m.err = nil
		m.sections = msg.sections
		m.fromCache = msg.cached
		items := make([]list.Item, len(msg.sections))
		for i, section := range msg.sections {
			items[i] = sectionItem{section: section}
		}
		m.sectionList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.sectionList.Title = "Browse"
		m.sectionList.SetSize(m.width-4, m.height-8)
		m.sectionList.SetShowHelp(false)
		return m, m.scheduleRefresh()

	case refreshTickMsg:
		if m.view != LoginView && m.state.Status == session.StatusLoggedIn {
			return m, m.fetchSections()
		}
		return m, m.scheduleRefresh()

	case searchResultMsg:
		m.lastQuery = msg.query
		if msg.err != nil {
			m.err = msg.err
			return m, m.waitForSearch()
		}
		m.err = nil
		m.searchList = list.New(searchItems(msg.results), list.NewDefaultDelegate(), 0, 0)
		m.searchList.Title = fmt.Sprintf("Results for '%s'", msg.query)
		m.searchList.SetSize(m.width-4, m.height-10)
		m.searchList.SetShowHelp(false)
		return m, m.waitForSearch()
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoginView:
		return m.renderLogin()
	case BrowseView:
		return m.renderBrowse()
	case PlaylistListView:
		return m.renderPlaylistList()
	case SearchView:
		return m.renderSearch()
	default:
		return ""
	}
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "l":
		m.err = nil
		return m, m.login(true)
	}
	return m, nil
}

func (m *Model) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "/":
		return m.enterSearch()
	case "r":
		return m, m.fetchSections()
	case "L":
		return m.logout()
	case "enter":
		if selected, ok := m.sectionList.SelectedItem().(sectionItem); ok {
			m.selected = &selected.section
			items := make([]list.Item, len(selected.section.Playlists))
			for i, pl := range selected.section.Playlists {
				items[i] = playlistItem{playlist: pl}
			}
			m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
			m.playlistList.Title = selected.section.Title
			m.playlistList.SetSize(m.width-4, m.height-8)
			m.playlistList.SetShowHelp(false)
			m.view = PlaylistListView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.sectionList, cmd = m.sectionList.Update(msg)
	return m, cmd
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = BrowseView
		m.selected = nil
		return m, nil
	case "/":
		return m.enterSearch()
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.searcher.Cancel()
		m.searchInput.Blur()
		m.view = BrowseView
		return m, nil
	}

	var cmd tea.Cmd
	before := m.searchInput.Value()
	m.searchInput, cmd = m.searchInput.Update(msg)

	// Keystrokes retrigger the search; stale in-flight queries get aborted
	// and never reach the result list.
	if after := m.searchInput.Value(); after != before {
		m.searcher.Search(m.ctx, after, func(query string, results *session.SearchResults, err error) {
			m.searchCh <- searchResultMsg{query: query, results: results, err: err}
		})
	}

	if m.searchList.Width() != 0 {
		var listCmd tea.Cmd
		m.searchList, listCmd = m.searchList.Update(msg)
		cmd = tea.Batch(cmd, listCmd)
	}
	return m, cmd
}

func (m *Model) enterSearch() (tea.Model, tea.Cmd) {
	m.view = SearchView
	m.searchInput.SetValue("")
	m.lastQuery = ""
	return m, m.searchInput.Focus()
}

func (m *Model) logout() (tea.Model, tea.Cmd) {
	m.session.Logout()
	m.state = m.session.State()
	m.sections = nil
	m.selected = nil
	m.view = LoginView
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case BrowseView:
		m.sectionList, cmd = m.sectionList.Update(msg)
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case SearchView:
		m.searchList, cmd = m.searchList.Update(msg)
	}
	return m, cmd
}

func (m *Model) login(force bool) tea.Cmd {
	return func() tea.Msg {
		return loginDoneMsg{err: m.session.Login(m.ctx, force)}
	}
}

func (m *Model) fetchProfile() tea.Cmd {
	return func() tea.Msg {
		err := m.session.FetchData(m.ctx, m.locale)
		return fetchDoneMsg{state: m.session.State(), err: err}
	}
}

// fetchSections loads fresh browse shelves, caching the snapshot on success
// and falling back to the cache when the network fetch fails.
func (m *Model) fetchSections() tea.Cmd {
	return func() tea.Msg {
		sections, err := m.session.BrowseRecommendations(m.ctx, m.locale)
		if err == nil {
			if m.cache != nil {
				if serr := m.cache.SaveSections(sections); serr != nil {
					m.logger.Warn("failed to cache browse sections", "error", serr)
				}
			}
			return sectionsFetchedMsg{sections: sections}
		}

		if m.cache != nil {
			if cached, cerr := m.cache.LoadSections(); cerr == nil && len(cached) > 0 {
				return sectionsFetchedMsg{sections: cached, cached: true}
			}
		}
		return sectionsFetchedMsg{err: err}
	}
}

func (m *Model) scheduleRefresh() tea.Cmd {
	if m.refresh <= 0 {
		return nil
	}
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

func (m *Model) waitForSearch() tea.Cmd {
	return func() tea.Msg {
		return <-m.searchCh
	}
}

func (m *Model) renderLogin() string {
	title := styles.title.Render("Spotify")

	var status string
	switch m.state.Status {
	case session.StatusAuthenticating:
		status = "Authenticating..."
	case session.StatusLoggingIn:
		status = "Loading profile..."
	case session.StatusError:
		status = styles.err.Render(fmt.Sprintf("Login failed: %v", m.state.Err))
	default:
		status = "Not logged in. Press l to log in with your browser."
	}

	if m.err != nil && m.state.Status != session.StatusError {
		status = styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.login, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", title, status, helpView)
}

func (m *Model) renderBrowse() string {
	var header string
	if m.state.Profile != nil {
		header = styles.ok.Render(fmt.Sprintf("Logged in as %s", m.state.Profile.Name()))
	}
	if m.fromCache {
		header += " " + styles.warn.Render("(cached)")
	}
	if m.err != nil {
		header += "\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}

	if m.sectionList.Width() == 0 {
		return fmt.Sprintf("%s\n\nLoading browse content...", header)
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.search, m.keys.refresh, m.keys.logout, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n\n%s", header, m.sectionList.View(), helpView)
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.search, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderSearch() string {
	var body string
	switch {
	case m.searchList.Width() != 0 && m.lastQuery != "":
		body = m.searchList.View()
	case strings.TrimSpace(m.searchInput.Value()) != "":
		body = styles.help.Render("Searching...")
	default:
		body = styles.help.Render("Type to search")
	}

	if m.err != nil {
		body = styles.err.Render(fmt.Sprintf("Search failed: %v", m.err))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s\n\n%s", m.searchInput.View(), body, helpView)
}

// searchItems flattens mixed-kind search results into list rows, tracks
// first.
func searchItems(results *session.SearchResults) []list.Item {
	var items []list.Item
	if results == nil {
		return items
	}

	if results.Tracks != nil {
		for _, track := range results.Tracks.Items {
			items = append(items, searchItem{
				kind:  "track",
				title: track.Name,
				desc:  artistNames(track.Artists),
			})
		}
	}
	if results.Albums != nil {
		for _, album := range results.Albums.Items {
			items = append(items, searchItem{
				kind:  "album",
				title: album.Name,
				desc:  artistNames(album.Artists),
			})
		}
	}
	if results.Artists != nil {
		for _, artist := range results.Artists.Items {
			items = append(items, searchItem{kind: "artist", title: artist.Name})
		}
	}
	if results.Playlists != nil {
		for _, playlist := range results.Playlists.Items {
			items = append(items, searchItem{
				kind:  "playlist",
				title: playlist.Name,
				desc:  playlist.Owner.DisplayName,
			})
		}
	}
	return items
}

func artistNames(artists []session.Artist) string {
	names := make([]string, 0, len(artists))
	for _, artist := range artists {
		names = append(names, artist.Name)
	}
	return strings.Join(names, ", ")
}
