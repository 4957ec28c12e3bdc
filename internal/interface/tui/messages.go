package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/neilberkman/gptrider/internal/core/db"
	"github.com/neilberkman/gptrider/internal/core/search"
)

type errMsg struct {
	err error
}

type conversationsLoadedMsg struct {
	conversations []conversationItem
}

type statsLoadedMsg struct {
	content string
}

type searchResultsMsg struct {
	results []searchResult
}

func loadConversations(database *db.DB) tea.Cmd {
	return func() tea.Msg {
		convs, err := database.ListConversations("", false, 1000)
		if err != nil {
			return errMsg{err}
		}

		items := make([]conversationItem, 0, len(convs))
		for _, c := range convs {
			items = append(items, conversationItem{
				ConversationID: c.ConversationID,
				Title:          c.Title,
				Model:          c.ModelSlug,
				HasVoice:       c.HasVoice,
				MessageCount:   c.MessageCount,
				CreateTime:     c.CreateTime,
			})
		}

		return conversationsLoadedMsg{conversations: items}
	}
}

func loadStats(database *db.DB, width int) tea.Cmd {
	return func() tea.Msg {
		content, err := renderStats(database, width)
		if err != nil {
			return errMsg{err}
		}
		return statsLoadedMsg{content: content}
	}
}

func performSearch(database *db.DB, query string) tea.Cmd {
	return func() tea.Msg {
		// Minimum 2 characters to search (avoid useless single-char results)
		if len(query) < 2 {
			return searchResultsMsg{results: nil}
		}

		// The same filter tokens as the search command work here
		filters := search.ParseQuery(query)
		coreResults, err := search.SearchFiltered(database, filters, 50)
		if err != nil {
			// Half-typed queries are often invalid FTS5 syntax; show no
			// results instead of tearing down the view
			return searchResultsMsg{results: []searchResult{}}
		}

		results := make([]searchResult, 0, len(coreResults))
		for _, r := range coreResults {
			results = append(results, searchResult{
				ConversationID: r.ConversationID,
				Title:          r.Title,
				Model:          r.ModelSlug,
				CreateTime:     r.CreateTime,
				MessageCount:   r.MessageCount,
			})
		}

		return searchResultsMsg{results: results}
	}
}
