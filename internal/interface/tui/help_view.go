package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = listView
	return m, nil
}

func (m Model) viewHelp() string {
	help := `
gptrider - Help
═══════════════

CONVERSATION LIST
─────────────────
  ↑/↓, j/k     Navigate conversations
  /            Search titles
  s            Stats dashboard
  y            Copy conversation id
  r            Reload from database
  ?            Show this help
  q            Quit

STATS VIEW
──────────
  j/k          Scroll line by line
  d/u          Scroll half page
  g/G          Jump to top/bottom
  esc, q       Back to list

SEARCH VIEW
───────────
  Type         Live title search (supports model:, after:, before:)
  Ctrl+j, ↑/↓  Navigate results
  Ctrl+y       Copy conversation id
  Enter, esc   Back to list

Press any key to return
`

	return helpStyle.Render(help)
}
