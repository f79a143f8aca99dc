package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firmfuzz/firmfuzz/internal/types"
)

func sample() []types.Evidence {
	return []types.Evidence{
		{
			Source:   "fuzz_crashlog_0.txt",
			Line:     2,
			Keyword:  "hard fault",
			Threat:   "Potential Crash or Memory Fault",
			CWE:      "CWE-730: Null Pointer or System Crash",
			Severity: types.SevHigh,
			Text:     "HARD FAULT at 0x080001c0",
		},
		{
			Source:   "cppcheck_report.txt",
			Line:     14,
			Keyword:  "error",
			Threat:   "Generic Error",
			CWE:      "N/A",
			Severity: types.SevLow,
			Text:     "error: uninitialized variable",
		},
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), DefaultName)
	in := Report{GeneratedAt: time.Now().UTC(), Items: sample()}
	require.NoError(t, Save(p, in))

	out, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, in.Items, out.Items)
}

func TestLoadAcceptsBareArray(t *testing.T) {
	p := filepath.Join(t.TempDir(), "legacy.json")
	b, err := json.Marshal(sample())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p, b, 0o644))

	out, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, sample(), out.Items)
}

func TestLoadMissingIsNotExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestShouldFail(t *testing.T) {
	items := sample()
	assert.False(t, ShouldFail(items, ""), "empty gate disables the check")
	assert.True(t, ShouldFail(items, "high"))
	assert.True(t, ShouldFail(items, "low"))
	assert.False(t, ShouldFail(nil, "low"))
	assert.False(t, ShouldFail([]types.Evidence{{Severity: types.SevLow}}, "medium"))
}

func TestPrintTextWithItems(t *testing.T) {
	var buf bytes.Buffer
	PrintText(&buf, sample(), PrintOptions{NoColor: true, FuzzLogs: 1, StaticLogs: 1})
	out := buf.String()
	assert.Contains(t, out, "Issue #1:")
	assert.Contains(t, out, "fuzz_crashlog_0.txt (line 2)")
	assert.Contains(t, out, "Keyword: hard fault")
	assert.Contains(t, out, `Context: "HARD FAULT at 0x080001c0"`)
	assert.Contains(t, out, "Evidence items: 2 (high: 1, medium: 0, low: 1)")
	assert.Contains(t, out, "Artifacts scanned: 1 fuzz logs, 1 static-analysis logs")
}

func TestPrintTextClean(t *testing.T) {
	var buf bytes.Buffer
	PrintText(&buf, nil, PrintOptions{})
	assert.Contains(t, buf.String(), "No vulnerabilities or errors found in logs.")
}

func TestPrintTableWithItems(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, sample(), PrintOptions{NoColor: true})
	out := strings.ToLower(buf.String())
	assert.Contains(t, out, "hard fault")
	assert.Contains(t, out, "cppcheck_report.txt")
	assert.Contains(t, out, "evidence items: 2")
}

func TestWriteSARIF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSARIF(&buf, "0.1.0", sample()))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "2.1.0", doc["version"])
	out := buf.String()
	assert.Contains(t, out, `"ruleId": "hard fault"`)
	assert.Contains(t, out, `"level": "error"`)
	assert.Contains(t, out, `"startLine": 2`)
}
