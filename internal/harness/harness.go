// Package harness drives the emulated firmware with randomized input under
// a bounded execution window and persists anomaly artifacts for the
// aggregation stage.
package harness

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	doublestar "github.com/bmatcuk/doublestar/v4"
	xxhash "github.com/cespare/xxhash/v2"

	"github.com/firmfuzz/firmfuzz/internal/execx"
	"github.com/firmfuzz/firmfuzz/internal/scanner"
)

// Mode selects how an iteration's captured output is classified. The two
// policies are mutually exclusive: either the full taxonomy scan, or the
// narrow deadline-marker check.
type Mode string

const (
	// ModeScan runs the evidence scanner over the combined output; an
	// expired wait is reported as an anomaly on its own.
	ModeScan Mode = "scan"
	// ModeDeadline logs an iteration only when the deadline-violation
	// marker appears in the captured output (case-insensitive).
	ModeDeadline Mode = "deadline"
)

const (
	inputPattern = "fuzz_input_*.bin"
	logPattern   = "fuzz_crashlog_*.txt"
)

// Config carries every tunable of a fuzz session. File-system roots and
// timings are explicit; nothing is read from process-wide state.
type Config struct {
	ArtifactsDir string
	Firmware     string

	QEMU    string // emulator binary, default qemu-system-arm
	Machine string // -M value, default mps2-an385
	CPU     string // optional -cpu value

	Iterations    int
	MaxPayload    int           // nominal max; payloads range over [1, 2*MaxPayload]
	Timeout       time.Duration // bounded wait per iteration
	TimeoutJitter time.Duration // optional extra random wait, uniform in [0, jitter)
	Delay         time.Duration // pause between iterations so the emulator winds down

	Mode           Mode
	DeadlineMarker string

	Seed int64     // deterministic payloads when non-zero
	Log  io.Writer // progress messages, nil discards
}

func (c *Config) setDefaults() {
	if c.QEMU == "" {
		c.QEMU = "qemu-system-arm"
	}
	if c.Machine == "" {
		c.Machine = "mps2-an385"
	}
	if c.Iterations <= 0 {
		c.Iterations = 10
	}
	if c.MaxPayload <= 0 {
		c.MaxPayload = 512
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.Mode == "" {
		c.Mode = ModeScan
	}
	if c.DeadlineMarker == "" {
		c.DeadlineMarker = "missed deadline"
	}
	if c.Log == nil {
		c.Log = io.Discard
	}
}

// Run records the outcome of one fuzz iteration. The payload file and, when
// an anomaly was found, the crash log are the durable artifacts; everything
// else is discarded when the session ends.
type Run struct {
	Iteration  int
	PayloadLen int
	InputPath  string
	TimedOut   bool
	Keywords   []string // matched taxonomy keywords (scan mode) or the marker (deadline mode)
	Duplicate  bool     // identical output already logged this session
	LogPath    string   // empty when no anomaly log was written
}

// Anomalous reports whether the iteration produced anything worth logging.
func (r Run) Anomalous() bool { return len(r.Keywords) > 0 || r.TimedOut }

// Session owns one purge-then-accumulate pass over the artifacts directory.
// Iterations are strictly sequential; a Session must not be shared across
// goroutines.
type Session struct {
	cfg  Config
	rnd  *rand.Rand
	seen map[uint64]bool
}

// New validates cfg, applies defaults and prepares a session.
func New(cfg Config) (*Session, error) {
	cfg.setDefaults()
	if cfg.ArtifactsDir == "" {
		return nil, fmt.Errorf("harness: artifacts directory is required")
	}
	if cfg.Firmware == "" {
		return nil, fmt.Errorf("harness: firmware image path is required")
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Session{
		cfg:  cfg,
		rnd:  rand.New(rand.NewSource(seed)),
		seen: map[uint64]bool{},
	}, nil
}

// Purge removes every input payload and crash log from a previous session
// so the next report reflects exactly the latest run. It is idempotent and
// a missing directory is not an error.
func (s *Session) Purge() error {
	return PurgeDir(s.cfg.ArtifactsDir)
}

// PurgeDir removes fuzz artifacts from dir without a configured session.
func PurgeDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		in, _ := doublestar.Match(inputPattern, e.Name())
		lg, _ := doublestar.Match(logPattern, e.Name())
		if !in && !lg {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Fuzz purges stale artifacts and runs the configured number of iterations.
// Cancellation stops the loop between iterations (an in-flight emulator is
// killed by the bounded wait) and already-written artifacts are kept; the
// runs completed so far are returned alongside the context error.
func (s *Session) Fuzz(ctx context.Context) ([]Run, error) {
	if err := s.Purge(); err != nil {
		return nil, fmt.Errorf("purge artifacts: %w", err)
	}
	if err := os.MkdirAll(s.cfg.ArtifactsDir, 0o755); err != nil {
		return nil, err
	}

	var runs []Run
	for i := 0; i < s.cfg.Iterations; i++ {
		if err := s.pause(ctx); err != nil {
			return runs, err
		}
		run, err := s.fuzzOnce(ctx, i)
		if err != nil {
			return runs, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (s *Session) pause(ctx context.Context) error {
	if s.cfg.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.cfg.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// fuzzOnce is one pass of GENERATE, LAUNCH, bounded WAIT, CLASSIFY, PERSIST.
func (s *Session) fuzzOnce(ctx context.Context, iteration int) (Run, error) {
	run := Run{Iteration: iteration}

	// The payload hits disk before launch so a wedged emulator still
	// leaves the triggering input recoverable.
	payload := s.randomPayload()
	run.PayloadLen = len(payload)
	run.InputPath = filepath.Join(s.cfg.ArtifactsDir, fmt.Sprintf("fuzz_input_%d.bin", iteration))
	if err := os.WriteFile(run.InputPath, payload, 0o644); err != nil {
		return run, fmt.Errorf("persist payload: %w", err)
	}

	fmt.Fprintf(s.cfg.Log, "[iteration %d] launching emulator with %d bytes of fuzz data\n", iteration, len(payload))

	res, err := execx.Run(ctx, execx.Spec{
		Name:    s.cfg.QEMU,
		Args:    s.emulatorArgs(),
		Stdin:   payload,
		Timeout: s.timeout(),
	})
	if err != nil {
		return run, fmt.Errorf("launch emulator: %w", err)
	}
	run.TimedOut = res.TimedOut
	if res.TimedOut {
		fmt.Fprintf(s.cfg.Log, "[iteration %d] emulator timed out, potential freeze/DoS\n", iteration)
	}

	logName := fmt.Sprintf("fuzz_crashlog_%d.txt", iteration)
	combined := res.Combined()

	switch s.cfg.Mode {
	case ModeDeadline:
		if scanner.Contains(combined, s.cfg.DeadlineMarker) {
			run.Keywords = []string{s.cfg.DeadlineMarker}
		}
	default:
		for _, item := range scanner.Scan(logName, []byte(combined)) {
			run.Keywords = appendUnique(run.Keywords, item.Keyword)
		}
	}

	// Deadline mode only reports the marker: a bare timeout is recorded on
	// the Run but produces no log file.
	persist := len(run.Keywords) > 0
	if s.cfg.Mode != ModeDeadline && run.TimedOut {
		persist = true
	}
	if !persist {
		fmt.Fprintf(s.cfg.Log, "[iteration %d] no anomalies detected\n", iteration)
		return run, nil
	}

	sum := xxhash.Sum64String(combined)
	if s.seen[sum] {
		run.Duplicate = true
		fmt.Fprintf(s.cfg.Log, "[iteration %d] anomaly output identical to an earlier log, skipping\n", iteration)
		return run, nil
	}
	s.seen[sum] = true

	run.LogPath = filepath.Join(s.cfg.ArtifactsDir, logName)
	body := "=== STDOUT ===\n" + res.Stdout + "\n=== STDERR ===\n" + res.Stderr
	if err := os.WriteFile(run.LogPath, []byte(body), 0o644); err != nil {
		return run, fmt.Errorf("persist anomaly log: %w", err)
	}
	fmt.Fprintf(s.cfg.Log, "[iteration %d] detected anomalies: %v\n", iteration, run.Keywords)
	return run, nil
}

// randomPayload intentionally ranges up to twice the nominal maximum to
// probe boundary handling in the firmware's input path.
func (s *Session) randomPayload() []byte {
	size := 1 + s.rnd.Intn(2*s.cfg.MaxPayload)
	b := make([]byte, size)
	s.rnd.Read(b)
	return b
}

func (s *Session) timeout() time.Duration {
	d := s.cfg.Timeout
	if s.cfg.TimeoutJitter > 0 {
		d += time.Duration(s.rnd.Int63n(int64(s.cfg.TimeoutJitter)))
	}
	return d
}

func (s *Session) emulatorArgs() []string {
	args := []string{"-M", s.cfg.Machine}
	if s.cfg.CPU != "" {
		args = append(args, "-cpu", s.cfg.CPU)
	}
	args = append(args, "-kernel", s.cfg.Firmware, "-serial", "stdio", "-nographic")
	return args
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
