package harness

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStub installs a shell script that stands in for the emulator binary.
// The harness passes its usual machine/kernel flags; the stub ignores them.
func writeStub(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub emulator uses sh")
	}
	p := filepath.Join(t.TempDir(), "qemu-stub")
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return p
}

func newSession(t *testing.T, cfg Config) *Session {
	t.Helper()
	if cfg.ArtifactsDir == "" {
		cfg.ArtifactsDir = t.TempDir()
	}
	if cfg.Firmware == "" {
		cfg.Firmware = "RTOSDemo.out"
	}
	if cfg.Seed == 0 {
		cfg.Seed = 1
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func artifactNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestFuzzCleanRunWritesOnlyInput(t *testing.T) {
	dir := t.TempDir()
	s := newSession(t, Config{
		ArtifactsDir: dir,
		QEMU:         writeStub(t, `echo "boot ok"`),
		Iterations:   1,
	})
	runs, err := s.Fuzz(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.False(t, runs[0].Anomalous())
	assert.Empty(t, runs[0].LogPath)
	assert.Equal(t, []string{"fuzz_input_0.bin"}, artifactNames(t, dir))
}

func TestFuzzScanModeWritesCrashLog(t *testing.T) {
	dir := t.TempDir()
	s := newSession(t, Config{
		ArtifactsDir: dir,
		QEMU:         writeStub(t, `echo "malloc failed in heap_4"; echo "on stderr" 1>&2`),
		Iterations:   1,
		Mode:         ModeScan,
	})
	runs, err := s.Fuzz(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Contains(t, runs[0].Keywords, "malloc failed")
	require.NotEmpty(t, runs[0].LogPath)

	b, err := os.ReadFile(runs[0].LogPath)
	require.NoError(t, err)
	body := string(b)
	assert.Contains(t, body, "=== STDOUT ===")
	assert.Contains(t, body, "malloc failed in heap_4")
	assert.Contains(t, body, "=== STDERR ===")
	assert.Contains(t, body, "on stderr")
}

func TestFuzzPayloadPersistedAndBounded(t *testing.T) {
	dir := t.TempDir()
	s := newSession(t, Config{
		ArtifactsDir: dir,
		QEMU:         writeStub(t, `exit 0`),
		Iterations:   5,
		MaxPayload:   64,
	})
	runs, err := s.Fuzz(context.Background())
	require.NoError(t, err)
	for _, r := range runs {
		info, err := os.Stat(r.InputPath)
		require.NoError(t, err)
		assert.EqualValues(t, r.PayloadLen, info.Size())
		assert.GreaterOrEqual(t, r.PayloadLen, 1)
		assert.LessOrEqual(t, r.PayloadLen, 128, "payload may exceed nominal max but not twice it")
	}
}

func TestFuzzTimeoutIsAnomalyInScanMode(t *testing.T) {
	dir := t.TempDir()
	s := newSession(t, Config{
		ArtifactsDir: dir,
		QEMU:         writeStub(t, `echo "still alive"; sleep 10`),
		Iterations:   1,
		Timeout:      300 * time.Millisecond,
		Mode:         ModeScan,
	})
	runs, err := s.Fuzz(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].TimedOut)
	require.NotEmpty(t, runs[0].LogPath, "timeout must be persisted as an anomaly")

	b, _ := os.ReadFile(runs[0].LogPath)
	assert.Contains(t, string(b), "still alive", "partial output drained after kill")
}

func TestFuzzDeadlineModeMarkerOnly(t *testing.T) {
	t.Run("marker present", func(t *testing.T) {
		dir := t.TempDir()
		s := newSession(t, Config{
			ArtifactsDir:   dir,
			QEMU:           writeStub(t, `echo "task B: Missed Deadline!"`),
			Iterations:     1,
			Mode:           ModeDeadline,
			DeadlineMarker: "Missed Deadline!",
		})
		runs, err := s.Fuzz(context.Background())
		require.NoError(t, err)
		require.NotEmpty(t, runs[0].LogPath)
		b, _ := os.ReadFile(runs[0].LogPath)
		assert.Contains(t, string(b), "Missed Deadline!", "marker text preserved verbatim")
	})

	t.Run("other keywords ignored", func(t *testing.T) {
		dir := t.TempDir()
		s := newSession(t, Config{
			ArtifactsDir: dir,
			QEMU:         writeStub(t, `echo "hard fault: stack overflow"`),
			Iterations:   1,
			Mode:         ModeDeadline,
		})
		runs, err := s.Fuzz(context.Background())
		require.NoError(t, err)
		assert.Empty(t, runs[0].LogPath)
	})

	t.Run("timeout alone writes no log", func(t *testing.T) {
		dir := t.TempDir()
		s := newSession(t, Config{
			ArtifactsDir: dir,
			QEMU:         writeStub(t, `sleep 10`),
			Iterations:   1,
			Timeout:      200 * time.Millisecond,
			Mode:         ModeDeadline,
		})
		runs, err := s.Fuzz(context.Background())
		require.NoError(t, err)
		assert.True(t, runs[0].TimedOut)
		assert.Empty(t, runs[0].LogPath)
	})
}

func TestFuzzDuplicateOutputLoggedOnce(t *testing.T) {
	dir := t.TempDir()
	s := newSession(t, Config{
		ArtifactsDir: dir,
		QEMU:         writeStub(t, `echo "hard fault at 0x0"`),
		Iterations:   3,
	})
	runs, err := s.Fuzz(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.NotEmpty(t, runs[0].LogPath)
	assert.True(t, runs[1].Duplicate)
	assert.True(t, runs[2].Duplicate)
	assert.Empty(t, runs[1].LogPath)

	logs := 0
	for _, name := range artifactNames(t, dir) {
		if filepath.Ext(name) == ".txt" {
			logs++
		}
	}
	assert.Equal(t, 1, logs)
}

func TestFuzzPurgesPreviousSession(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "fuzz_crashlog_9.txt")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fuzz_input_9.bin"), []byte{1}, 0o644))
	keep := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(keep, []byte("keep"), 0o644))

	s := newSession(t, Config{
		ArtifactsDir: dir,
		QEMU:         writeStub(t, `exit 0`),
		Iterations:   1,
	})
	_, err := s.Fuzz(context.Background())
	require.NoError(t, err)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "previous crash logs purged")
	_, err = os.Stat(keep)
	assert.NoError(t, err, "unrelated files untouched")
}

func TestPurgeIdempotent(t *testing.T) {
	s := newSession(t, Config{ArtifactsDir: filepath.Join(t.TempDir(), "missing")})
	require.NoError(t, s.Purge())
	require.NoError(t, s.Purge())
}

func TestFuzzCancellationKeepsArtifacts(t *testing.T) {
	dir := t.TempDir()
	s := newSession(t, Config{
		ArtifactsDir: dir,
		QEMU:         writeStub(t, `echo "assert failed"`),
		Iterations:   50,
		Delay:        50 * time.Millisecond,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()
	runs, err := s.Fuzz(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotEmpty(t, runs, "completed iterations are returned")
	for _, r := range runs {
		_, statErr := os.Stat(r.InputPath)
		assert.NoError(t, statErr)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{Firmware: "fw.out"})
	assert.Error(t, err)
	_, err = New(Config{ArtifactsDir: "x"})
	assert.Error(t, err)
}
