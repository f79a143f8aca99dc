// Package buildfw shells out to the firmware's own build system. The
// toolchain is opaque: we run make, capture what it prints, and report
// whether it succeeded.
package buildfw

import (
	"context"
	"fmt"
	"time"

	"github.com/firmfuzz/firmfuzz/internal/execx"
)

// Config locates the build tree.
type Config struct {
	Dir     string // directory containing the Makefile
	Jobs    int    // 0 means unbounded -j
	Make    string // default "make"
	Timeout time.Duration
}

// Result carries the captured build output.
type Result struct {
	Output   string
	Duration time.Duration
}

// Build runs make in cfg.Dir. A failing build returns an error carrying
// the exit code; the captured output is returned either way so callers
// can surface the compiler's diagnostics.
func Build(ctx context.Context, cfg Config) (Result, error) {
	mk := cfg.Make
	if mk == "" {
		mk = "make"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	jobs := "-j"
	if cfg.Jobs > 0 {
		jobs = fmt.Sprintf("-j%d", cfg.Jobs)
	}

	r, err := execx.Run(ctx, execx.Spec{
		Name:    mk,
		Args:    []string{jobs},
		Dir:     cfg.Dir,
		Timeout: timeout,
	})
	res := Result{Output: r.Combined(), Duration: r.Duration}
	if err != nil {
		return res, fmt.Errorf("run %s: %w", mk, err)
	}
	if r.TimedOut {
		return res, fmt.Errorf("build timed out after %s", timeout)
	}
	if r.ExitCode != 0 {
		return res, fmt.Errorf("build failed with exit code %d", r.ExitCode)
	}
	return res, nil
}

// SmokeConfig describes the post-build emulator check.
type SmokeConfig struct {
	QEMU     string // default qemu-system-arm
	Machine  string // default mps2-an385
	CPU      string
	Firmware string
	Timeout  time.Duration // bounded boot window, default 10s
}

// Smoke boots the freshly built firmware once under the emulator and
// returns whatever it printed. Firmware normally runs forever, so hitting
// the deadline is the expected outcome, not a failure; only a launch error
// is fatal.
func Smoke(ctx context.Context, cfg SmokeConfig) (Result, error) {
	if cfg.Firmware == "" {
		return Result{}, fmt.Errorf("smoke run: firmware image path is required")
	}
	if cfg.QEMU == "" {
		cfg.QEMU = "qemu-system-arm"
	}
	if cfg.Machine == "" {
		cfg.Machine = "mps2-an385"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	args := []string{"-M", cfg.Machine}
	if cfg.CPU != "" {
		args = append(args, "-cpu", cfg.CPU)
	}
	args = append(args, "-kernel", cfg.Firmware, "-serial", "stdio", "-nographic")

	r, err := execx.Run(ctx, execx.Spec{
		Name:    cfg.QEMU,
		Args:    args,
		Timeout: cfg.Timeout,
	})
	res := Result{Output: r.Combined(), Duration: r.Duration}
	if err != nil {
		return res, fmt.Errorf("launch emulator: %w", err)
	}
	return res, nil
}
