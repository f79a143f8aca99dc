// Package patch implements the best-effort textual remediation step:
// bounded snippet extraction, fenced-code-block parsing, and a guarded
// exact-text substitution with a pre-write backup. The interface is
// snippet-in, guarded-replace-out so a structural patcher could replace
// the internals without touching the workflow.
package patch

import (
	"errors"
	"os"
	"regexp"
	"strings"
)

// ErrSnippetNotFound is returned when the original snippet no longer
// appears verbatim in the target file (whitespace drift, prior edits).
// The file is left byte-identical in that case.
var ErrSnippetNotFound = errors.New("original snippet not found verbatim in target")

// BackupSuffix is appended to the target path for the pre-patch copy.
const BackupSuffix = ".bak"

// Snippet is a bounded window of source lines around a reported issue.
// Start and End are 1-indexed and inclusive, clipped to file bounds.
type Snippet struct {
	Start int
	End   int
	Lines []string

	// noEOL marks a snippet that reaches the file's last line when that
	// line has no terminator; Text must reproduce the file byte-for-byte
	// or Apply's verbatim guard refuses the patch.
	noEOL bool
}

// Text returns the snippet exactly as it appears in the file. The final
// newline is kept only when the file actually has one there.
func (s Snippet) Text() string {
	if len(s.Lines) == 0 {
		return ""
	}
	t := strings.Join(s.Lines, "\n")
	if !s.noEOL {
		t += "\n"
	}
	return t
}

// ReadSnippet extracts context lines before and after the 1-indexed line
// from the file at path.
func ReadSnippet(path string, line, context int) (Snippet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Snippet{}, err
	}
	all := strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")

	start := line - context
	if start < 1 {
		start = 1
	}
	end := line + context
	if end > len(all) {
		end = len(all)
	}
	if start > len(all) {
		return Snippet{Start: start, End: start - 1}, nil
	}
	return Snippet{
		Start: start,
		End:   end,
		Lines: all[start-1 : end],
		noEOL: end == len(all) && !strings.HasSuffix(string(b), "\n"),
	}, nil
}

var reFence = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\n?(.*?)```")

// ExtractCodeBlock returns the contents of the first fenced code block in
// a model response. A response without one is not an error: it means there
// is no machine-applicable patch, only advice.
func ExtractCodeBlock(response string) (string, bool) {
	m := reFence.FindStringSubmatch(response)
	if m == nil {
		return "", false
	}
	block := strings.TrimSpace(m[1])
	if block == "" {
		return "", false
	}
	return block, true
}

// Apply swaps oldText for newText inside the file at path. The replacement
// is a literal, exact-substring operation: if oldText does not occur
// verbatim, nothing is written and ErrSnippetNotFound is returned. On
// success the pre-patch content is saved to path+BackupSuffix before the
// target is overwritten, so every applied patch can be reverted by
// restoring the backup. Only the first occurrence is replaced; the
// snippet addresses one region.
func Apply(path, oldText, newText string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	content := string(b)
	if oldText == "" || !strings.Contains(content, oldText) {
		return "", ErrSnippetNotFound
	}
	patched := strings.Replace(content, oldText, newText, 1)

	backup := path + BackupSuffix
	if err := os.WriteFile(backup, b, 0o644); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(patched), 0o644); err != nil {
		return backup, err
	}
	return backup, nil
}
