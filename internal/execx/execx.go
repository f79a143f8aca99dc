// Package execx is the single bounded-external-execution primitive shared
// by every stage that shells out: launch, wait with a deadline, forced
// terminate, and a deterministic drain of whatever output was produced.
package execx

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Spec describes one external invocation.
type Spec struct {
	Name    string
	Args    []string
	Dir     string
	Stdin   []byte
	Timeout time.Duration // 0 means no deadline beyond the caller's context
}

// Result carries whatever the process produced before it exited or was
// reclaimed. On timeout the partial output is still present.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// waitDelay gives a killed process a moment to release its pipes so the
// final partial output is still drained.
const waitDelay = 3 * time.Second

// Run executes spec and blocks until the process exits or the deadline
// expires. Expiry is not an error: the process is killed, remaining output
// is drained, and Result.TimedOut is set. A non-zero exit status is likewise
// reported through Result.ExitCode, not as an error. Run returns an error
// only when the process could not be launched at all (missing binary,
// unreadable working directory).
func Run(ctx context.Context, spec Spec) (Result, error) {
	var res Result
	parent := ctx
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.WaitDelay = waitDelay
	if len(spec.Stdin) > 0 {
		cmd.Stdin = bytes.NewReader(spec.Stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()
	res.Duration = time.Since(started)
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	// A cancelled caller is not a timeout; only our own deadline counts.
	res.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded) && parent.Err() == nil

	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err != nil && !res.TimedOut {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// never launched (or the caller's context was cancelled)
			return res, err
		}
	}
	return res, nil
}

// Combined returns stdout and stderr joined the way the anomaly scanners
// consume them: stdout first, then stderr.
func (r Result) Combined() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	return r.Stdout + "\n" + r.Stderr
}
