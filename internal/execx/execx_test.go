package execx

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
}

func TestRunCapturesOutput(t *testing.T) {
	skipOnWindows(t)
	res, err := Run(context.Background(), Spec{
		Name: "sh", Args: []string{"-c", "echo out; echo err 1>&2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, 0, res.ExitCode)
	assert.False(t, res.TimedOut)
}

func TestRunForwardsStdin(t *testing.T) {
	skipOnWindows(t)
	res, err := Run(context.Background(), Spec{
		Name: "sh", Args: []string{"-c", "cat"}, Stdin: []byte("payload-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "payload-bytes", res.Stdout)
}

func TestRunTimeoutKillsAndDrains(t *testing.T) {
	skipOnWindows(t)
	res, err := Run(context.Background(), Spec{
		Name:    "sh",
		Args:    []string{"-c", "echo before; sleep 10; echo after"},
		Timeout: 300 * time.Millisecond,
	})
	require.NoError(t, err, "timeout must not be surfaced as an error")
	assert.True(t, res.TimedOut)
	assert.Contains(t, res.Stdout, "before")
	assert.NotContains(t, res.Stdout, "after")
}

func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	skipOnWindows(t)
	res, err := Run(context.Background(), Spec{Name: "sh", Args: []string{"-c", "exit 3"}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

func TestRunMissingBinaryIsAnError(t *testing.T) {
	_, err := Run(context.Background(), Spec{Name: "definitely-not-a-binary-xyz"})
	assert.Error(t, err)
}

func TestCombined(t *testing.T) {
	assert.Equal(t, "a", Result{Stdout: "a"}.Combined())
	assert.Equal(t, "a\nb", Result{Stdout: "a", Stderr: "b"}.Combined())
}
