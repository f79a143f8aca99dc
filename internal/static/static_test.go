package static

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStub(t *testing.T, name, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub analyzers use sh")
	}
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return p
}

func TestRunCppcheckWritesHeaderPerSource(t *testing.T) {
	out := t.TempDir()
	res, err := Run(context.Background(), Config{
		SourcePaths: []string{"src/main.c", "src/net.c"},
		OutDir:      out,
		Cppcheck:    writeStub(t, "cppcheck", `echo "checking $4" >&2`),
	})
	require.NoError(t, err)
	assert.Empty(t, res.ClangPath, "no build dir, scan-build skipped")

	body, err := os.ReadFile(res.CppcheckPath)
	require.NoError(t, err)
	assert.Contains(t, string(body), "----- Analysis of src/main.c -----")
	assert.Contains(t, string(body), "----- Analysis of src/net.c -----")
	assert.Contains(t, string(body), "checking src/main.c")
}

func TestRunScanBuildCapturesOutput(t *testing.T) {
	out := t.TempDir()
	build := t.TempDir()
	res, err := Run(context.Background(), Config{
		BuildDir:  build,
		OutDir:    out,
		ScanBuild: writeStub(t, "scan-build", `echo "scan-build: 2 bugs found"`),
	})
	require.NoError(t, err)
	assert.Empty(t, res.CppcheckPath, "no source paths, cppcheck skipped")

	body, err := os.ReadFile(res.ClangPath)
	require.NoError(t, err)
	assert.Contains(t, string(body), "2 bugs found")
}

func TestRunClearsStaleLogs(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "old.txt"), []byte("stale"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(out, "old.log"), []byte("stale"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(out, "keep.json"), []byte("{}"), 0o644))

	_, err := Run(context.Background(), Config{OutDir: out})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(out, "old.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(out, "old.log"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(out, "keep.json"))
	assert.NoError(t, err, "only analyzer logs are cleared")
}

func TestClearLogsMissingDir(t *testing.T) {
	assert.NoError(t, ClearLogs(filepath.Join(t.TempDir(), "never-created")))
}

func TestRunMissingAnalyzerFails(t *testing.T) {
	_, err := Run(context.Background(), Config{
		SourcePaths: []string{"src/main.c"},
		OutDir:      t.TempDir(),
		Cppcheck:    filepath.Join(t.TempDir(), "no-such-cppcheck"),
	})
	assert.Error(t, err)
}
