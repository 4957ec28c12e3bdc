package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/neilberkman/gptrider/internal/core/search"
)

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "esc", "enter":
		m.mode = listView
		m.searchInput.SetValue("")
		m.searchResults = nil
		m.searchSelectedIdx = 0
		m.searchViewOffset = 0
		return m, nil

	// Navigation: Ctrl+j or arrow keys (j/k stay typeable in the query)
	// Note: Ctrl+k is left for textinput to handle (kills rest of line)
	case "ctrl+j", "down":
		if len(m.searchResults) > 0 {
			m.searchSelectedIdx++
			if m.searchSelectedIdx >= len(m.searchResults) {
				m.searchSelectedIdx = len(m.searchResults) - 1
			}
			return adjustSearchViewport(m), nil
		}
		return m, nil

	case "up":
		if len(m.searchResults) > 0 {
			m.searchSelectedIdx--
			if m.searchSelectedIdx < 0 {
				m.searchSelectedIdx = 0
			}
			return adjustSearchViewport(m), nil
		}
		return m, nil

	case "ctrl+y":
		if len(m.searchResults) > 0 && m.searchSelectedIdx < len(m.searchResults) {
			m.statusMsg = copyConversationID(m.searchResults[m.searchSelectedIdx].ConversationID)
		}
		return m, nil
	}

	// Update text input (all other keys including j/k/q go here)
	m.statusMsg = ""
	m.searchInput, cmd = m.searchInput.Update(msg)

	// Perform live search on every keystroke
	query := m.searchInput.Value()
	m.searchSelectedIdx = 0
	m.searchViewOffset = 0 // Reset scroll on new search
	return m, tea.Batch(cmd, performSearch(m.db, query))
}

func (m Model) viewSearch() string {
	var b strings.Builder

	// Header with search input - ALWAYS at top
	b.WriteString(searchHeaderStyle.Render("Search: "))
	b.WriteString(m.searchInput.View())
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", 80))
	b.WriteString("\n\n")

	// Results
	if m.searchResults == nil {
		b.WriteString(searchMetaStyle.Render("Type to search titles (minimum 2 characters)"))
	} else if len(m.searchResults) == 0 {
		b.WriteString(searchMetaStyle.Render("No results found"))
	} else {
		b.WriteString(fmt.Sprintf(searchMetaStyle.Render("Found %d conversations:"), len(m.searchResults)))
		b.WriteString("\n\n")

		availableHeight := m.height - searchReservedLines
		maxVisibleResults := availableHeight / searchLinesPerResult
		if maxVisibleResults < 2 {
			maxVisibleResults = 2
		}

		// Calculate visible window
		startIdx := m.searchViewOffset
		endIdx := startIdx + maxVisibleResults
		if endIdx > len(m.searchResults) {
			endIdx = len(m.searchResults)
		}

		// Filter tokens never appear in titles, so highlight the bare terms
		plainQuery := search.ParseQuery(m.searchInput.Value()).Query

		for i := startIdx; i < endIdx; i++ {
			result := m.searchResults[i]
			isSelected := i == m.searchSelectedIdx

			title := result.Title
			if title == "" {
				title = "(untitled)"
			}

			prefix := "  "
			if isSelected {
				prefix = "► "
				title = searchSelectedStyle.Render(title)
			} else {
				title = highlightQuery(title, plainQuery)
			}

			meta := make([]string, 0, 3)
			if result.Model != "" {
				meta = append(meta, result.Model)
			}
			meta = append(meta, formatTime(result.CreateTime))
			meta = append(meta, fmt.Sprintf("%d messages", result.MessageCount))

			b.WriteString(fmt.Sprintf("%s%s\n", prefix, title))
			b.WriteString(fmt.Sprintf("  %s\n", searchMetaStyle.Render(strings.Join(meta, " | "))))
			b.WriteString("\n")
		}

		// Show scroll indicators
		if startIdx > 0 {
			b.WriteString(searchMetaStyle.Render(fmt.Sprintf("... %d results above\n", startIdx)))
		}
		if endIdx < len(m.searchResults) {
			b.WriteString(searchMetaStyle.Render(fmt.Sprintf("... %d results below\n", len(m.searchResults)-endIdx)))
		}
	}

	// Footer
	b.WriteString("\n\n")
	if m.statusMsg != "" {
		b.WriteString(statusStyle.Render(m.statusMsg))
	} else if len(m.searchResults) > 0 {
		b.WriteString("Ctrl+j or ↑↓: navigate | Ctrl+y: copy id | Ctrl+k: kill line | esc: back")
	} else {
		b.WriteString("Type to search (min 2 chars) | Ctrl+k: kill line | esc: back")
	}
	b.WriteString("\n")
	b.WriteString(searchMetaStyle.Render("Filters: model:gpt-4 | after:yesterday | after:2024-01 | before:2024-11-01"))

	return b.String()
}

func highlightQuery(text, query string) string {
	if query == "" {
		return text
	}

	// Simple case-insensitive highlighting
	lower := strings.ToLower(text)
	lowerQuery := strings.ToLower(query)

	idx := strings.Index(lower, lowerQuery)
	if idx == -1 {
		return text
	}

	// Highlight the match
	before := text[:idx]
	match := text[idx : idx+len(query)]
	after := text[idx+len(query):]

	return before + searchMatchStyle.Render(match) + after
}
