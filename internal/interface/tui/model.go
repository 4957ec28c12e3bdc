package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/neilberkman/gptrider/internal/core/db"
)

type viewMode int

const (
	listView viewMode = iota
	statsView
	searchView
	helpView
)

type Model struct {
	db          *db.DB
	mode        viewMode
	list        list.Model
	viewport    viewport.Model
	searchInput textinput.Model
	width       int
	height      int
	err         error

	// Current archive data
	conversations     []conversationItem
	searchResults     []searchResult
	searchSelectedIdx int
	searchViewOffset  int

	// Transient feedback shown on the help line (e.g. after a copy)
	statusMsg string
}

type conversationItem struct {
	ConversationID string
	Title          string
	Model          string
	HasVoice       bool
	MessageCount   int
	CreateTime     *time.Time
}

type searchResult struct {
	ConversationID string
	Title          string
	Model          string
	CreateTime     string
	MessageCount   int
}

func New(database *db.DB) Model {
	input := textinput.New()
	input.Placeholder = "type to search titles"
	input.CharLimit = 100
	input.Width = 50
	input.Focus()

	return Model{
		db:          database,
		mode:        listView,
		searchInput: input,
	}
}

func (m Model) Init() tea.Cmd {
	return loadConversations(m.db)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if len(m.conversations) > 0 {
			m.list.SetSize(msg.Width, msg.Height-1)
		}
		if m.mode == statsView {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 2
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		// Mode-specific key handling; q and ? stay typeable in search
		switch m.mode {
		case listView:
			return m.updateList(msg)
		case statsView:
			return m.updateStats(msg)
		case searchView:
			return m.updateSearch(msg)
		case helpView:
			return m.updateHelp(msg)
		}

	case tea.MouseMsg:
		switch m.mode {
		case listView:
			if len(m.conversations) > 0 {
				var cmd tea.Cmd
				m.list, cmd = m.list.Update(msg)
				return m, cmd
			}
		case statsView:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case searchView:
			switch msg.Button {
			case tea.MouseButtonWheelDown:
				return handleSearchMouseWheel(m, true), nil
			case tea.MouseButtonWheelUp:
				return handleSearchMouseWheel(m, false), nil
			}
		}
		return m, nil

	case conversationsLoadedMsg:
		m.conversations = msg.conversations
		m.list = createConversationList(msg.conversations, m.width, m.height)
		m.statusMsg = ""
		return m, nil

	case statsLoadedMsg:
		m.viewport = createStatsViewport(msg.content, m.width, m.height)
		m.mode = statsView
		return m, nil

	case searchResultsMsg:
		m.searchResults = msg.results
		return m, nil

	case errMsg:
		m.err = msg.err
		m.mode = listView
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	if m.err != nil {
		return "Error: " + m.err.Error() + "\n\nPress r to reload or q to quit"
	}

	switch m.mode {
	case listView:
		return m.viewList()
	case statsView:
		return m.viewStats()
	case searchView:
		return m.viewSearch()
	case helpView:
		return m.viewHelp()
	}

	return ""
}
