package patch

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firmfuzz/firmfuzz/internal/llm"
	"github.com/firmfuzz/firmfuzz/internal/types"
)

// fakeSuggester replays canned responses and records the requests it saw.
type fakeSuggester struct {
	responses []string
	err       error
	requests  []llm.FixRequest
}

func (f *fakeSuggester) SuggestFix(_ context.Context, req llm.FixRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	i := len(f.requests) - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i], nil
}

func evidence(source string, line int, keyword string) types.Evidence {
	return types.Evidence{
		Source:   source,
		Line:     line,
		Keyword:  keyword,
		Threat:   "Memory Corruption / Buffer Overflow",
		CWE:      "CWE-120",
		Severity: types.SevHigh,
		Text:     "overflow detected",
	}
}

func TestRunWorkflowAppliesPatch(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, dir, "main.c", "a\nb\noverflow detected\nd\ne\n")

	sug := &fakeSuggester{responses: []string{"Fix:\n```c\npatched\n```\ndone"}}
	got := RunWorkflow(context.Background(), WorkflowConfig{Context: 1}, []types.Evidence{
		evidence(target, 3, "overflow"),
	}, sug)

	require.Len(t, got, 1)
	assert.Equal(t, StatusApplied, got[0].Status)
	assert.Equal(t, target+BackupSuffix, got[0].BackupPath)

	// The whole 3-line snippet (lines 2-4) is replaced by the block.
	body, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "a\npatched\ne\n", string(body))

	require.Len(t, sug.requests, 1)
	assert.Equal(t, "Memory Corruption / Buffer Overflow (CWE-120)", sug.requests[0].Descriptor)
	assert.Equal(t, "b\noverflow detected\nd\n", sug.requests[0].Snippet)
	assert.Equal(t, "overflow detected", sug.requests[0].LineText)
}

func TestRunWorkflowDryRun(t *testing.T) {
	dir := t.TempDir()
	body := "a\nb\nc\n"
	target := writeFile(t, dir, "main.c", body)

	sug := &fakeSuggester{responses: []string{"```c\nnope\n```"}}
	got := RunWorkflow(context.Background(), WorkflowConfig{DryRun: true}, []types.Evidence{
		evidence(target, 2, "error"),
	}, sug)

	require.Len(t, got, 1)
	assert.Equal(t, StatusSuggested, got[0].Status)
	assert.Equal(t, "nope", got[0].Block)

	after, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, body, string(after))
}

func TestRunWorkflowMismatchKeepsFileIdentical(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, dir, "main.c", "a\nfoo();\nc\n")

	// The suggester rewrites the file between snippet read and apply,
	// simulating out-of-band drift.
	sug := driftSuggester{target: target, response: "```c\nfixed\n```"}
	got := RunWorkflow(context.Background(), WorkflowConfig{}, []types.Evidence{
		evidence(target, 2, "error"),
	}, sug)

	require.Len(t, got, 1)
	assert.Equal(t, StatusMismatch, got[0].Status)

	after, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "a\nfoo ();\nc\n", string(after), "refused patch leaves the drifted file as-is")
}

type driftSuggester struct {
	target   string
	response string
}

func (d driftSuggester) SuggestFix(context.Context, llm.FixRequest) (string, error) {
	if err := os.WriteFile(d.target, []byte("a\nfoo ();\nc\n"), 0o644); err != nil {
		return "", err
	}
	return d.response, nil
}

func TestRunWorkflowAdvisoryWithoutCodeBlock(t *testing.T) {
	dir := t.TempDir()
	body := "a\nb\nc\n"
	target := writeFile(t, dir, "main.c", body)

	sug := &fakeSuggester{responses: []string{"add bounds checks around the copy"}}
	got := RunWorkflow(context.Background(), WorkflowConfig{}, []types.Evidence{
		evidence(target, 2, "error"),
	}, sug)

	require.Len(t, got, 1)
	assert.Equal(t, StatusAdvisory, got[0].Status)
	assert.Equal(t, "add bounds checks around the copy", got[0].Suggestion)

	after, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, body, string(after))
}

func TestRunWorkflowRequestErrorContinues(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, dir, "main.c", "a\nb\nc\n")

	sug := &fakeSuggester{err: errors.New("rate limited")}
	got := RunWorkflow(context.Background(), WorkflowConfig{}, []types.Evidence{
		evidence(target, 1, "error"),
		evidence(target, 2, "error"),
	}, sug)

	require.Len(t, got, 2)
	assert.Equal(t, StatusFailed, got[0].Status)
	assert.Equal(t, StatusFailed, got[1].Status)
	assert.Len(t, sug.requests, 2, "a failed item never aborts the rest")
}

func TestRunWorkflowResolvesBasenameToTargetFile(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, dir, "main.c", "a\nb\nc\n")

	sug := &fakeSuggester{responses: []string{"```c\nx\n```"}}
	got := RunWorkflow(context.Background(), WorkflowConfig{TargetFile: target, DryRun: true}, []types.Evidence{
		evidence("main.c", 2, "error"), // bare basename from a crash log
	}, sug)

	require.Len(t, got, 1)
	assert.Equal(t, target, got[0].Target)
	assert.Equal(t, StatusSuggested, got[0].Status)
}

func TestRunWorkflowUnresolvableSourceSkipped(t *testing.T) {
	sug := &fakeSuggester{responses: []string{"```c\nx\n```"}}
	got := RunWorkflow(context.Background(), WorkflowConfig{}, []types.Evidence{
		evidence("fuzz_crashlog_3.txt", 2, "error"),
	}, sug)

	require.Len(t, got, 1)
	assert.Equal(t, StatusFailed, got[0].Status)
	assert.Empty(t, got[0].Target)
	assert.Empty(t, sug.requests, "no request for an unresolvable artifact")
}

func TestRunWorkflowOrdersGroupByLine(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, dir, "main.c", "a\nb\nc\nd\ne\n")

	sug := &fakeSuggester{responses: []string{"no block here"}}
	got := RunWorkflow(context.Background(), WorkflowConfig{DryRun: true}, []types.Evidence{
		evidence(target, 4, "error"),
		evidence(target, 1, "assert"),
	}, sug)

	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Evidence.Line)
	assert.Equal(t, 4, got[1].Evidence.Line)
}

func TestRunWorkflowFileContext(t *testing.T) {
	dir := t.TempDir()
	body := "a\nb\nc\n"
	target := writeFile(t, dir, "main.c", body)

	sug := &fakeSuggester{responses: []string{"no block"}}
	RunWorkflow(context.Background(), WorkflowConfig{FileContext: true, DryRun: true}, []types.Evidence{
		evidence(target, 2, "error"),
	}, sug)

	require.Len(t, sug.requests, 1)
	assert.Equal(t, body, sug.requests[0].FileContext)
}
