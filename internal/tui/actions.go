package tui

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

type statusMsg string

func (m Model) openEditor() tea.Cmd {
	it := m.selectedItem()
	if it == nil {
		return nil
	}
	path := m.resolvedPath(it)
	if path == "" {
		return func() tea.Msg { return statusMsg("Log artifact; no source file to open") }
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}

	editorBase := editor
	if idx := strings.LastIndex(editor, "/"); idx != -1 {
		editorBase = editor[idx+1:]
	}

	var args []string
	switch editorBase {
	case "code", "code-insiders":
		args = []string{"-g", fmt.Sprintf("%s:%d", path, it.Line)}
	case "subl", "sublime", "sublime_text":
		args = []string{fmt.Sprintf("%s:%d", path, it.Line)}
	case "emacs", "emacsclient":
		args = []string{fmt.Sprintf("+%d", it.Line), path}
	case "nano":
		args = []string{fmt.Sprintf("+%d", it.Line), path}
	default:
		args = []string{fmt.Sprintf("+%d", it.Line), path}
	}

	c := exec.Command(editor, args...)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		if err != nil {
			return statusMsg(fmt.Sprintf("Error opening editor: %v", err))
		}
		return statusMsg("Editor closed")
	})
}

// copySourceToClipboard copies the current item's source artifact name.
func (m Model) copySourceToClipboard() tea.Cmd {
	it := m.selectedItem()
	if it == nil {
		return func() tea.Msg { return statusMsg("No item selected") }
	}
	if err := clipboard.WriteAll(it.Source); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Clipboard error: %v", err)) }
	}
	return func() tea.Msg { return statusMsg(fmt.Sprintf("Copied: %s", it.Source)) }
}

// copyItemToClipboard copies full evidence details.
func (m Model) copyItemToClipboard() tea.Cmd {
	it := m.selectedItem()
	if it == nil {
		return func() tea.Msg { return statusMsg("No item selected") }
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Source: %s\n", it.Source))
	sb.WriteString(fmt.Sprintf("Line: %d\n", it.Line))
	sb.WriteString(fmt.Sprintf("Keyword: %s\n", it.Keyword))
	sb.WriteString(fmt.Sprintf("Threat: %s\n", it.Threat))
	sb.WriteString(fmt.Sprintf("CWE: %s\n", it.CWE))
	sb.WriteString(fmt.Sprintf("Severity: %s\n", it.Severity))
	sb.WriteString(fmt.Sprintf("Text: %s\n", it.Text))

	if err := clipboard.WriteAll(sb.String()); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Clipboard error: %v", err)) }
	}
	return func() tea.Msg { return statusMsg("Copied evidence details to clipboard") }
}
