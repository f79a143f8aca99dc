// Package static drives the external analyzers (cppcheck and clang
// scan-build) and persists their raw output as log artifacts for the
// aggregator to pick up. The analyzers themselves are opaque: nothing
// here interprets their findings.
package static

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/firmfuzz/firmfuzz/internal/execx"
)

const (
	// CppcheckReport is the log written by the cppcheck pass.
	CppcheckReport = "cppcheck_report.txt"
	// ClangReport is the log written by the scan-build pass.
	ClangReport = "clang_scanbuild_results.txt"
)

// Config selects what to analyze and where the logs go. Binary names are
// overridable so tests can substitute stubs.
type Config struct {
	SourcePaths []string // files or dirs handed to cppcheck, one run each
	BuildDir    string   // where scan-build drives make; empty skips the pass
	OutDir      string   // log directory, usually <artifacts>/static_analysis
	Timeout     time.Duration

	Cppcheck  string // default "cppcheck"
	ScanBuild string // default "scan-build"
	Make      string // default "make"
}

func (c *Config) setDefaults() {
	if c.Cppcheck == "" {
		c.Cppcheck = "cppcheck"
	}
	if c.ScanBuild == "" {
		c.ScanBuild = "scan-build"
	}
	if c.Make == "" {
		c.Make = "make"
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Minute
	}
}

// Result summarizes one analysis run.
type Result struct {
	CppcheckPath string
	ClangPath    string
	Duration     time.Duration
}

// ClearLogs removes previous .txt and .log files from dir so a fresh run
// never mixes with stale analyzer output. A missing dir is not an error.
func ClearLogs(dir string) error {
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
		ok, _ := doublestar.Match("*.{txt,log}", e.Name())
		if !ok {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Run clears old logs, then runs cppcheck over each source path and
// scan-build over the build dir, appending everything the analyzers print.
// Analyzer diagnostics land on both streams, so logs keep stdout and
// stderr together. A pass with nothing configured is skipped, not failed.
func Run(ctx context.Context, cfg Config) (Result, error) {
	cfg.setDefaults()
	start := time.Now()
	var res Result

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return res, fmt.Errorf("create log dir: %w", err)
	}
	if err := ClearLogs(cfg.OutDir); err != nil {
		return res, fmt.Errorf("clear old logs: %w", err)
	}

	if len(cfg.SourcePaths) > 0 {
		p, err := runCppcheck(ctx, cfg)
		if err != nil {
			return res, err
		}
		res.CppcheckPath = p
	}
	if cfg.BuildDir != "" {
		p, err := runScanBuild(ctx, cfg)
		if err != nil {
			return res, err
		}
		res.ClangPath = p
	}
	res.Duration = time.Since(start)
	return res, nil
}

func runCppcheck(ctx context.Context, cfg Config) (string, error) {
	var b strings.Builder
	for _, src := range cfg.SourcePaths {
		r, err := execx.Run(ctx, execx.Spec{
			Name:    cfg.Cppcheck,
			Args:    []string{"--enable=all", "--inconclusive", "--force", src},
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return "", fmt.Errorf("cppcheck %s: %w", src, err)
		}
		fmt.Fprintf(&b, "----- Analysis of %s -----\n", src)
		b.WriteString(r.Combined())
		if !strings.HasSuffix(r.Combined(), "\n") {
			b.WriteString("\n")
		}
	}
	p := filepath.Join(cfg.OutDir, CppcheckReport)
	if err := os.WriteFile(p, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write cppcheck log: %w", err)
	}
	return p, nil
}

func runScanBuild(ctx context.Context, cfg Config) (string, error) {
	r, err := execx.Run(ctx, execx.Spec{
		Name:    cfg.ScanBuild,
		Args:    []string{"--use-cc=clang", "--use-c++=clang++", cfg.Make, "-j"},
		Dir:     cfg.BuildDir,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return "", fmt.Errorf("scan-build: %w", err)
	}
	p := filepath.Join(cfg.OutDir, ClangReport)
	if err := os.WriteFile(p, []byte(r.Combined()), 0o644); err != nil {
		return "", fmt.Errorf("write scan-build log: %w", err)
	}
	return p, nil
}
