package tui

import (
	"fmt"
	"io"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

type conversationListItem struct {
	conv conversationItem
}

func (i conversationListItem) FilterValue() string {
	return i.conv.Title
}

func (i conversationListItem) Title() string {
	if i.conv.Title != "" {
		return i.conv.Title
	}
	return "(untitled)"
}

func (i conversationListItem) Description() string {
	model := i.conv.Model
	if model == "" {
		model = "unknown model"
	}
	desc := fmt.Sprintf("%s | %s | %d messages",
		model, relativeTime(i.conv.CreateTime), i.conv.MessageCount)
	if i.conv.HasVoice {
		desc += " | voice"
	}
	return desc
}

// Custom delegate so selection styling matches the rest of the app
type conversationDelegate struct {
	list.DefaultDelegate
}

func (d conversationDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	c, ok := item.(conversationListItem)
	if !ok {
		d.DefaultDelegate.Render(w, m, index, item)
		return
	}

	title := c.Title()
	desc := c.Description()

	if index == m.Index() {
		title = selectedItemStyle.Render(title)
		desc = selectedItemStyle.Faint(true).Render(desc)
	} else {
		title = itemStyle.Render(title)
		desc = itemStyle.Render(desc)
	}

	fmt.Fprintf(w, "%s\n%s", title, desc)
}

func createConversationList(conversations []conversationItem, width, height int) list.Model {
	items := make([]list.Item, len(conversations))
	for i, c := range conversations {
		items[i] = conversationListItem{conv: c}
	}

	delegate := conversationDelegate{DefaultDelegate: list.NewDefaultDelegate()}

	l := list.New(items, delegate, width, height-1) // Reserve 1 line for help text only
	l.Title = ""
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetFilteringEnabled(false) // Dedicated search view on /

	return l
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "?":
		m.mode = helpView
		return m, nil

	case "/":
		m.mode = searchView
		m.searchInput.SetValue("")
		m.searchResults = nil
		m.searchSelectedIdx = 0
		m.searchViewOffset = 0
		m.statusMsg = ""
		return m, textinput.Blink

	case "s":
		return m, loadStats(m.db, m.width)

	case "y":
		if selected, ok := m.list.SelectedItem().(conversationListItem); ok {
			m.statusMsg = copyConversationID(selected.conv.ConversationID)
		}
		return m, nil

	case "r":
		m.err = nil
		m.statusMsg = "Reloading..."
		return m, loadConversations(m.db)
	}

	var cmd tea.Cmd
	m.statusMsg = ""
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) viewList() string {
	helpText := "↑/k up • ↓/j down • / search • s stats • y copy id • r reload • ? help • q quit"
	if m.statusMsg != "" {
		helpText = statusStyle.Render(m.statusMsg)
	}

	if len(m.conversations) == 0 {
		return "No conversations found. Run 'gptrider import' first.\n\n" + helpText
	}

	return m.list.View() + "\n" + helpText
}

func copyConversationID(id string) string {
	if id == "" {
		return "No conversation id to copy"
	}
	if err := clipboard.WriteAll(id); err != nil {
		return "Copy failed: " + err.Error()
	}
	return "Copied " + id
}

func relativeTime(t *time.Time) string {
	if t == nil {
		return "unknown date"
	}
	return humanize.Time(*t)
}

func formatTime(t string) string {
	if t == "" {
		return "unknown date"
	}
	// Stored timestamps are RFC3339
	parsed, err := time.Parse(time.RFC3339Nano, t)
	if err != nil {
		parsed, err = time.Parse("2006-01-02 15:04:05", t)
		if err != nil {
			return t
		}
	}
	return humanize.Time(parsed)
}
