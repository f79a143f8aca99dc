package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "firmfuzz.yml")
	body := `
artifacts_dir: test_artifacts
firmware: build/gcc/output/RTOSDemo.out
iterations: 25
timeout: 5s
mode: deadline
deadline_marker: "Missed Deadline!"
source_paths:
  - Demo/CORTEX_MPS2_QEMU_IAR_GCC
temperature: 0.3
`
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))

	cfg, err := LoadFile(p)
	require.NoError(t, err)
	require.NotNil(t, cfg.ArtifactsDir)
	assert.Equal(t, "test_artifacts", *cfg.ArtifactsDir)
	require.NotNil(t, cfg.Iterations)
	assert.Equal(t, 25, *cfg.Iterations)
	require.NotNil(t, cfg.Mode)
	assert.Equal(t, "deadline", *cfg.Mode)
	require.NotNil(t, cfg.DeadlineMarker)
	assert.Equal(t, "Missed Deadline!", *cfg.DeadlineMarker)
	assert.Equal(t, []string{"Demo/CORTEX_MPS2_QEMU_IAR_GCC"}, cfg.SourcePaths)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.3, *cfg.Temperature, 1e-9)
	assert.Nil(t, cfg.Model, "unset field stays nil")
}

func TestLoadLocalPrefersDotfile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".firmfuzz.yml"), []byte("iterations: 3\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "firmfuzz.yml"), []byte("iterations: 9\n"), 0o644))

	cfg, err := LoadLocal(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg.Iterations)
	assert.Equal(t, 3, *cfg.Iterations)
}

func TestLoadLocalMissing(t *testing.T) {
	_, err := LoadLocal(t.TempDir())
	assert.Error(t, err)
}

func TestLoadFileBadYAML(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(p, []byte("iterations: [oops\n"), 0o644))
	_, err := LoadFile(p)
	assert.Error(t, err)
}
