package patch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/firmfuzz/firmfuzz/internal/llm"
	"github.com/firmfuzz/firmfuzz/internal/types"
)

// Status is the terminal state of one remediation attempt. Outcomes are
// independent per evidence item: one item's failure never aborts the rest.
type Status string

const (
	StatusApplied   Status = "applied"   // patch written, backup created
	StatusSuggested Status = "suggested" // dry run: patch extracted but not written
	StatusAdvisory  Status = "advisory"  // response had no fenced code block
	StatusMismatch  Status = "mismatch"  // snippet no longer verbatim in file
	StatusFailed    Status = "failed"    // request or file error for this item
)

// Suggester is the code-generation service boundary: prompt in, free-form
// text out. The concrete client lives in internal/llm; tests supply fakes.
type Suggester interface {
	SuggestFix(ctx context.Context, req llm.FixRequest) (string, error)
}

// Attempt records what happened to one evidence item.
type Attempt struct {
	Evidence   types.Evidence
	Target     string
	Status     Status
	Suggestion string // full model response
	Block      string // extracted code block, if any
	BackupPath string
	Note       string
}

// WorkflowConfig tunes the remediation pass.
type WorkflowConfig struct {
	TargetFile  string // configured code file; resolves bare basenames
	Context     int    // snippet lines before/after, default 5
	FileContext bool   // include the whole target file in the prompt
	DryRun      bool   // suggest but never write
	Log         io.Writer
}

// RunWorkflow groups evidence by resolved target file, processes each
// group in ascending line order and attempts an LLM-suggested remediation
// per item. Groups whose file cannot be resolved on disk are reported and
// skipped, never fatal.
func RunWorkflow(ctx context.Context, cfg WorkflowConfig, items []types.Evidence, sug Suggester) []Attempt {
	if cfg.Context <= 0 {
		cfg.Context = 5
	}
	if cfg.Log == nil {
		cfg.Log = io.Discard
	}

	groups, order := groupByTarget(cfg, items)
	var attempts []Attempt
	for _, target := range order {
		group := groups[target]
		if target == "" {
			for _, it := range group {
				attempts = append(attempts, Attempt{
					Evidence: it,
					Status:   StatusFailed,
					Note:     fmt.Sprintf("cannot resolve %s to a source file, skipping", it.Source),
				})
				fmt.Fprintf(cfg.Log, "skipping %s: no such file on disk\n", it.Source)
			}
			continue
		}

		sort.SliceStable(group, func(i, j int) bool { return group[i].Line < group[j].Line })
		fmt.Fprintf(cfg.Log, "processing %d item(s) in %s\n", len(group), target)

		for _, it := range group {
			attempts = append(attempts, attemptOne(ctx, cfg, target, it, sug))
		}
	}
	return attempts
}

func attemptOne(ctx context.Context, cfg WorkflowConfig, target string, it types.Evidence, sug Suggester) Attempt {
	at := Attempt{Evidence: it, Target: target}

	snip, err := ReadSnippet(target, it.Line, cfg.Context)
	if err != nil || len(snip.Lines) == 0 {
		at.Status = StatusFailed
		at.Note = fmt.Sprintf("cannot read snippet around line %d", it.Line)
		return at
	}

	req := llm.FixRequest{
		Descriptor: it.Threat + " (" + it.CWE + ")",
		Snippet:    snip.Text(),
		LineText:   it.Text,
	}
	if cfg.FileContext {
		if b, err := os.ReadFile(target); err == nil {
			req.FileContext = string(b)
		}
	}

	suggestion, err := sug.SuggestFix(ctx, req)
	if err != nil {
		at.Status = StatusFailed
		at.Note = fmt.Sprintf("remediation request failed: %v", err)
		fmt.Fprintf(cfg.Log, "warning: %s\n", at.Note)
		return at
	}
	at.Suggestion = suggestion

	block, ok := ExtractCodeBlock(suggestion)
	if !ok {
		at.Status = StatusAdvisory
		at.Note = "no code block in suggestion, advisory only"
		return at
	}
	at.Block = block

	if cfg.DryRun {
		at.Status = StatusSuggested
		return at
	}

	replacement := block
	if !strings.HasSuffix(replacement, "\n") {
		replacement += "\n"
	}
	backup, err := Apply(target, snip.Text(), replacement)
	switch {
	case err == ErrSnippetNotFound:
		at.Status = StatusMismatch
		at.Note = "could not apply patch: original snippet not found or mismatch"
		fmt.Fprintf(cfg.Log, "warning: %s (%s line %d)\n", at.Note, target, it.Line)
	case err != nil:
		at.Status = StatusFailed
		at.Note = fmt.Sprintf("write failed: %v", err)
		fmt.Fprintf(cfg.Log, "warning: %s\n", at.Note)
	default:
		at.Status = StatusApplied
		at.BackupPath = backup
		fmt.Fprintf(cfg.Log, "patched %s (backup at %s)\n", target, backup)
	}
	return at
}

// groupByTarget resolves each item's artifact to a file on disk and groups
// items by the resolved path. The empty key collects unresolvable items.
// Group order follows first appearance in the report so runs reproduce.
func groupByTarget(cfg WorkflowConfig, items []types.Evidence) (map[string][]types.Evidence, []string) {
	groups := map[string][]types.Evidence{}
	var order []string
	for _, it := range items {
		target := resolveTarget(cfg, it.Source)
		if _, seen := groups[target]; !seen {
			order = append(order, target)
		}
		groups[target] = append(groups[target], it)
	}
	return groups, order
}

func resolveTarget(cfg WorkflowConfig, source string) string {
	if isFile(source) {
		return source
	}
	if cfg.TargetFile != "" && filepath.Base(source) == filepath.Base(cfg.TargetFile) && isFile(cfg.TargetFile) {
		return cfg.TargetFile
	}
	return ""
}

func isFile(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.Mode().IsRegular()
}
