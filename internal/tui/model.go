package tui

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/firmfuzz/firmfuzz/internal/types"
)

var (
	detailPaneBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true).
			Padding(0, 1)

	keywordStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("7"))

	emptyTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Align(lipgloss.Center)

	hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// severityText returns plain text for severity (ANSI codes break table truncation).
func severityText(s types.Severity) string {
	switch s {
	case types.SevHigh:
		return "HIGH"
	case types.SevMed:
		return "MED"
	case types.SevLow:
		return "LOW"
	default:
		return string(s)
	}
}

// Resolver maps an evidence source to an openable file on disk, or ""
// when the artifact has no source-file counterpart.
type Resolver func(source string) string

// Model is the state of the evidence review screen: a table of items over
// a detail pane showing the taxonomy mapping and, when the source resolves
// to a file, a highlighted context window.
type Model struct {
	table    table.Model
	viewport viewport.Model
	items    []types.Evidence
	resolve  Resolver

	filteredItems   []types.Evidence // nil = no filter
	filteredIndices []int

	quitting      bool
	ready         bool
	showEmpty     bool
	showHelp      bool
	height        int
	width         int
	statusMessage string
	statusTimeout *time.Time
	pendingKey    string

	searchMode     bool
	searchInput    textinput.Model
	searchQuery    string
	severityFilter types.Severity

	contextLines int
}

// NewModel initializes the review model. resolve may be nil; items from
// log artifacts then show only their captured text.
func NewModel(items []types.Evidence, resolve Resolver) Model {
	columns := []table.Column{
		{Title: "Sev", Width: 6},
		{Title: "Keyword", Width: 16},
		{Title: "Source", Width: 30},
		{Title: "Line", Width: 6},
		{Title: "Text", Width: 40},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(itemRows(items)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("15")).
		Bold(true).
		Padding(0, 1).
		Align(lipgloss.Left)
	s.Selected = lipgloss.NewStyle().
		Foreground(lipgloss.Color("232")).
		Background(lipgloss.Color("208")).
		Bold(true).
		Padding(0, 1)
	s.Cell = lipgloss.NewStyle().
		Padding(0, 1)
	t.SetStyles(s)

	ti := textinput.New()
	ti.Placeholder = "Search source, keyword, or text..."
	ti.CharLimit = 100
	ti.Width = 50
	ti.Prompt = "/ "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

	m := Model{
		table:        t,
		items:        items,
		resolve:      resolve,
		showEmpty:    len(items) == 0,
		searchInput:  ti,
		contextLines: 3,
	}
	if m.showEmpty {
		m.statusMessage = "q: quit"
	} else {
		m.statusMessage = "q: quit | ?: help | j/k: navigate | o: open | y: copy | 1/2/3: severity"
	}
	return m
}

func itemRows(items []types.Evidence) []table.Row {
	rows := make([]table.Row, len(items))
	for i, it := range items {
		rows[i] = table.Row{
			severityText(it.Severity),
			it.Keyword,
			it.Source,
			fmt.Sprintf("%d", it.Line),
			it.Text,
		}
	}
	return rows
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m *Model) applyFilters() {
	hasSearch := m.searchQuery != ""
	hasSeverity := m.severityFilter != ""

	if !hasSearch && !hasSeverity {
		m.filteredItems = nil
		m.filteredIndices = nil
		m.rebuildTableRows()
		return
	}

	var filtered []types.Evidence
	var indices []int
	query := strings.ToLower(m.searchQuery)

	for i, it := range m.items {
		if hasSeverity && it.Severity != m.severityFilter {
			continue
		}
		if hasSearch {
			sourceMatch := strings.Contains(strings.ToLower(it.Source), query)
			keywordMatch := strings.Contains(strings.ToLower(it.Keyword), query)
			textMatch := strings.Contains(strings.ToLower(it.Text), query)
			if !sourceMatch && !keywordMatch && !textMatch {
				continue
			}
		}
		filtered = append(filtered, it)
		indices = append(indices, i)
	}

	m.filteredItems = filtered
	m.filteredIndices = indices
	m.rebuildTableRows()
}

func (m *Model) clearFilters() {
	m.searchQuery = ""
	m.severityFilter = ""
	m.filteredItems = nil
	m.filteredIndices = nil
	m.rebuildTableRows()
}

func (m *Model) rebuildTableRows() {
	items := m.displayItems()
	m.table.SetRows(itemRows(items))
	if m.table.Cursor() >= len(items) {
		m.table.SetCursor(0)
	}
	m.showEmpty = len(items) == 0
	m.updateViewportContent()
}

func (m *Model) displayItems() []types.Evidence {
	if m.filteredItems != nil {
		return m.filteredItems
	}
	return m.items
}

func (m *Model) selectedItem() *types.Evidence {
	items := m.displayItems()
	idx := m.table.Cursor()
	if idx >= 0 && idx < len(items) {
		return &items[idx]
	}
	return nil
}

// resolvedPath maps the current item's source to a file on disk, if any.
func (m *Model) resolvedPath(it *types.Evidence) string {
	if m.resolve == nil {
		return ""
	}
	return m.resolve(it.Source)
}

func (m *Model) expandContext() {
	if m.contextLines < 20 {
		m.contextLines += 2
		if m.contextLines > 20 {
			m.contextLines = 20
		}
		m.updateViewportContent()
	}
}

func (m *Model) contractContext() {
	if m.contextLines > 1 {
		m.contextLines -= 2
		if m.contextLines < 1 {
			m.contextLines = 1
		}
		m.updateViewportContent()
	}
}

func readFileContext(path string, targetLine, contextLines int) ([]string, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	startLine := targetLine - contextLines
	if startLine < 1 {
		startLine = 1
	}
	endLine := targetLine + contextLines

	var lines []string
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}
	return lines, startLine, scanner.Err()
}

func highlightLine(line, filename string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		ext := filepath.Ext(filename)
		if ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer == nil {
		return line
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return line
	}

	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return line
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func (m *Model) updateViewportContent() {
	items := m.displayItems()
	if len(items) == 0 || !m.ready {
		m.viewport.SetContent("")
		return
	}
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(items) {
		m.viewport.SetContent("")
		return
	}
	it := items[idx]

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s\n\n", titleStyle.Render("Evidence Details")))
	b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Source:"), it.Source))
	b.WriteString(fmt.Sprintf("%s %d\n", keyStyle.Render("Line:"), it.Line))
	b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Keyword:"), keywordStyle.Render(it.Keyword)))
	b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Threat:"), it.Threat))
	b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("CWE:"), it.CWE))
	b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Severity:"), it.Severity))

	path := m.resolvedPath(&it)
	if path != "" {
		contextHint := fmt.Sprintf(" (+/- to expand/contract, showing %d lines)", m.contextLines*2+1)
		b.WriteString(fmt.Sprintf("\n%s%s\n", keyStyle.Render("Context:"), hintStyle.Render(contextHint)))

		lines, startLine, err := readFileContext(path, it.Line, m.contextLines)
		if err == nil && len(lines) > 0 {
			lineNumStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
			currentLineStyle := lipgloss.NewStyle().Background(lipgloss.Color("236"))
			for i, line := range lines {
				lineNum := startLine + i
				numStr := lineNumStyle.Render(fmt.Sprintf("%4d ", lineNum))
				rendered := highlightLine(line, path)
				if lineNum == it.Line {
					b.WriteString(numStr + currentLineStyle.Render(rendered) + "\n")
				} else {
					b.WriteString(numStr + rendered + "\n")
				}
			}
		} else {
			b.WriteString(it.Text + "\n")
		}
	} else {
		b.WriteString(fmt.Sprintf("\n%s\n%s\n", keyStyle.Render("Captured line:"), it.Text))
		b.WriteString(hintStyle.Render("\nLog artifact; no source file to open.") + "\n")
	}

	m.viewport.SetContent(b.String())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}

		if m.searchMode {
			switch msg.String() {
			case "enter":
				m.searchQuery = m.searchInput.Value()
				m.searchMode = false
				m.searchInput.Blur()
				return m, nil
			case "esc":
				m.searchMode = false
				m.searchInput.Blur()
				m.searchInput.SetValue(m.searchQuery)
				m.applyFilters()
				return m, nil
			default:
				m.searchInput, cmd = m.searchInput.Update(msg)
				m.searchQuery = m.searchInput.Value()
				m.applyFilters()
				return m, cmd
			}
		}

		if m.pendingKey == "g" {
			m.pendingKey = ""
			if msg.String() == "g" && !m.showEmpty {
				m.table.GotoTop()
				m.updateViewportContent()
			}
			return m, nil
		}

		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "/":
			if len(m.items) > 0 {
				m.searchMode = true
				m.searchInput.SetValue(m.searchQuery)
				m.searchInput.Focus()
				return m, textinput.Blink
			}
		case "1":
			m.severityFilter = types.SevHigh
			m.applyFilters()
			m.setStatus("Showing HIGH severity only (Esc to clear)", 3*time.Second)
			return m, nil
		case "2":
			m.severityFilter = types.SevMed
			m.applyFilters()
			m.setStatus("Showing MED severity only (Esc to clear)", 3*time.Second)
			return m, nil
		case "3":
			m.severityFilter = types.SevLow
			m.applyFilters()
			m.setStatus("Showing LOW severity only (Esc to clear)", 3*time.Second)
			return m, nil
		case "esc":
			if m.searchQuery != "" || m.severityFilter != "" {
				m.clearFilters()
				m.setStatus("Filters cleared", 3*time.Second)
				return m, nil
			}
		case "n":
			if !m.showEmpty {
				if m.jumpToNextSeverity(types.SevHigh, 1) {
					m.updateViewportContent()
				} else {
					m.setStatus("No more HIGH items", 2*time.Second)
				}
				return m, nil
			}
		case "N":
			if !m.showEmpty {
				if m.jumpToNextSeverity(types.SevHigh, -1) {
					m.updateViewportContent()
				} else {
					m.setStatus("No more HIGH items", 2*time.Second)
				}
				return m, nil
			}
		case "o", "enter":
			if !m.showEmpty {
				return m, m.openEditor()
			}
		case "+", "=":
			if !m.showEmpty {
				m.expandContext()
				m.setStatus(fmt.Sprintf("Context: %d lines", m.contextLines*2+1), 2*time.Second)
				return m, nil
			}
		case "-", "_":
			if !m.showEmpty {
				m.contractContext()
				m.setStatus(fmt.Sprintf("Context: %d lines", m.contextLines*2+1), 2*time.Second)
				return m, nil
			}
		case "y":
			if !m.showEmpty {
				return m, m.copySourceToClipboard()
			}
		case "Y":
			if !m.showEmpty {
				return m, m.copyItemToClipboard()
			}
		case "?", "h":
			m.showHelp = !m.showHelp
			return m, nil
		case "down", "j", "up", "k":
			if !m.showEmpty {
				m.table, cmd = m.table.Update(msg)
				m.updateViewportContent()
				return m, cmd
			}
		case "ctrl+d":
			if !m.showEmpty {
				m.moveHalfPage(1)
				return m, nil
			}
		case "ctrl+u":
			if !m.showEmpty {
				m.moveHalfPage(-1)
				return m, nil
			}
		case "g":
			m.pendingKey = "g"
			return m, nil
		case "home":
			if !m.showEmpty {
				m.table.GotoTop()
				m.updateViewportContent()
				return m, nil
			}
		case "G", "end":
			if !m.showEmpty {
				m.table.GotoBottom()
				m.updateViewportContent()
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()

	case statusMsg:
		m.setStatus(string(msg), 3*time.Second)

	case tickMsg:
		if m.statusTimeout != nil && time.Now().After(*m.statusTimeout) {
			m.statusTimeout = nil
			if m.showEmpty {
				m.statusMessage = "q: quit"
			} else {
				m.statusMessage = "q: quit | ?: help | j/k: navigate | o: open | y: copy | 1/2/3: severity"
			}
		}
		return m, tick()
	}
	return m, nil
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) setStatus(s string, d time.Duration) {
	timeout := time.Now().Add(d)
	m.statusTimeout = &timeout
	m.statusMessage = s
}

func (m *Model) moveHalfPage(direction int) {
	halfPage := m.table.Height() / 2
	if halfPage < 1 {
		halfPage = 1
	}
	if direction > 0 {
		m.table.MoveDown(halfPage)
	} else {
		m.table.MoveUp(halfPage)
	}
	m.updateViewportContent()
}

// jumpToNextSeverity finds next item with given severity (direction: 1=forward, -1=backward).
func (m *Model) jumpToNextSeverity(severity types.Severity, direction int) bool {
	items := m.displayItems()
	if len(items) == 0 {
		return false
	}
	current := m.table.Cursor()
	n := len(items)
	for i := 1; i <= n; i++ {
		idx := (current + direction*i + n) % n
		if items[idx].Severity == severity {
			m.table.SetCursor(idx)
			return true
		}
	}
	return false
}

func (m *Model) resize() {
	usableWidth := m.width - 12
	sevWidth := 6
	keywordWidth := 16
	lineWidth := 6
	remaining := usableWidth - sevWidth - keywordWidth - lineWidth
	sourceWidth := int(float64(remaining) * 0.4)
	textWidth := remaining - sourceWidth
	if sourceWidth < 20 {
		sourceWidth = 20
	}
	if textWidth < 20 {
		textWidth = 20
	}

	cols := m.table.Columns()
	cols[0].Width = sevWidth
	cols[1].Width = keywordWidth
	cols[2].Width = sourceWidth
	cols[3].Width = lineWidth
	cols[4].Width = textWidth
	m.table.SetColumns(cols)

	availableHeight := m.height - lipgloss.Height(statusStyle.Render("")) - 1
	tableHeight := int(float64(availableHeight) * 0.45)
	viewportHeight := availableHeight - tableHeight - detailPaneBorderStyle.GetVerticalFrameSize() - 1

	m.table.SetWidth(m.width)
	m.table.SetHeight(tableHeight)

	if m.viewport.Height == 0 {
		m.viewport = viewport.New(m.width, viewportHeight)
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = viewportHeight
	}
	m.updateViewportContent()
	statusStyle = statusStyle.Width(m.width)
}
