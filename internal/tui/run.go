package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/firmfuzz/firmfuzz/internal/types"
)

// Run starts the interactive evidence review. resolve maps an evidence
// source to an openable file, or returns "" for pure log artifacts.
func Run(items []types.Evidence, resolve Resolver) error {
	m := NewModel(items, resolve)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
