package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/firmfuzz/firmfuzz/internal/types"
)

var (
	tableBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	popupStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(1, 4)

	sevHighStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	sevMedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	sevLowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	if m.showHelp {
		return m.helpView()
	}

	displayItems := m.displayItems()
	var highCount, medCount, lowCount int
	for _, it := range displayItems {
		switch it.Severity {
		case types.SevHigh:
			highCount++
		case types.SevMed:
			medCount++
		case types.SevLow:
			lowCount++
		}
	}

	var statsContent string
	if len(m.items) == 0 {
		statsContent = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("[OK] No evidence to review")
	} else {
		var filterInfo string
		if m.searchQuery != "" || m.severityFilter != "" {
			var parts []string
			if m.searchQuery != "" {
				parts = append(parts, fmt.Sprintf("search:'%s'", m.searchQuery))
			}
			if m.severityFilter != "" {
				parts = append(parts, fmt.Sprintf("sev:%s", severityText(m.severityFilter)))
			}
			filterInfo = fmt.Sprintf("  [FILTER: %s]", strings.Join(parts, ", "))
		}

		if m.filteredItems != nil {
			statsContent = fmt.Sprintf(
				"Showing: %d/%d  |  %s %-4d  |  %s %-4d  |  %s %-4d%s",
				len(displayItems),
				len(m.items),
				sevHighStyle.Render("High:"),
				highCount,
				sevMedStyle.Render("Med:"),
				medCount,
				sevLowStyle.Render("Low:"),
				lowCount,
				filterInfo,
			)
		} else {
			statsContent = fmt.Sprintf(
				"Total: %-4d  |  %s %-4d  |  %s %-4d  |  %s %-4d",
				len(m.items),
				sevHighStyle.Render("High:"),
				highCount,
				sevMedStyle.Render("Med:"),
				medCount,
				sevLowStyle.Render("Low:"),
				lowCount,
			)
		}
	}

	statsHeader := lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 2).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("237")).
		Render(statsContent)

	tableRender := tableBorderStyle.
		Width(m.width).
		Height(m.table.Height()).
		Render(m.table.View())

	var detailContent string
	if len(displayItems) == 0 {
		var emptyMsg string
		if len(m.items) == 0 {
			emptyMsg = "No evidence to review.\n\nRun the fuzz and analyze stages first.\nPress '?' for help"
		} else {
			emptyMsg = "No items match filter.\n\nPress 'Esc' to clear filter"
		}
		detailContent = lipgloss.Place(
			m.width,
			m.viewport.Height,
			lipgloss.Center,
			lipgloss.Center,
			emptyTextStyle.Render(emptyMsg),
		)
	} else {
		detailContent = m.viewport.View()
	}

	detailRender := detailPaneBorderStyle.
		Width(m.width).
		Height(m.viewport.Height).
		Render(detailContent)

	var bottomBar string
	if m.searchMode {
		searchStatus := fmt.Sprintf(" (%d matches)", len(displayItems))
		searchBarStyle := lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("15")).
			Width(m.width).
			Padding(0, 1)
		bottomBar = searchBarStyle.Render(m.searchInput.View() + searchStatus)
	} else {
		bottomBar = statusStyle.
			Width(m.width).
			Padding(0, 2).
			Render(m.statusMessage)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statsHeader,
		tableRender,
		detailRender,
		bottomBar,
	)
}

func (m Model) helpView() string {
	help := strings.Join([]string{
		titleStyle.Render("Evidence Review"),
		"",
		keyStyle.Render("Navigation"),
		"  j/k, up/down    move selection",
		"  ctrl+d/ctrl+u   half page down/up",
		"  gg / G          top / bottom",
		"  n / N           next / previous HIGH item",
		"",
		keyStyle.Render("Filtering"),
		"  /               search source, keyword, text",
		"  1 / 2 / 3       show only HIGH / MED / LOW",
		"  esc             clear filters",
		"",
		keyStyle.Render("Actions"),
		"  o, enter        open resolved source in $EDITOR",
		"  y / Y           copy source name / full details",
		"  + / -           grow / shrink context window",
		"",
		"  q               quit",
		"",
		hintStyle.Render("Press any key to close"),
	}, "\n")

	box := popupStyle.Render(help)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
