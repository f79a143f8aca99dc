// Package analysis walks the artifact directories, runs the evidence
// scanner over every log it recognizes and merges the results into the
// single structured report consumed by the patch workflow.
package analysis

import (
	"os"
	"path/filepath"
	"time"

	doublestar "github.com/bmatcuk/doublestar/v4"

	"github.com/firmfuzz/firmfuzz/internal/gitinfo"
	"github.com/firmfuzz/firmfuzz/internal/report"
	"github.com/firmfuzz/firmfuzz/internal/scanner"
	"github.com/firmfuzz/firmfuzz/internal/types"
)

const (
	fuzzLogPattern   = "fuzz_crashlog_*.txt"
	staticLogPattern = "*.{txt,log}"

	// StaticSubdir is where the static-analysis stage drops its raw logs,
	// relative to the artifacts directory.
	StaticSubdir = "static_analysis"
)

// Config locates the artifact sources. Unset paths derive from ArtifactsDir.
type Config struct {
	ArtifactsDir string
	StaticDir    string // default <artifacts>/static_analysis
	ReportPath   string // default <artifacts>/analysis_report.json
	SourceRoot   string // optional; stamps repo metadata into the report
}

// Result carries the merged report plus per-source counts for the console
// summary.
type Result struct {
	Report     report.Report
	ReportPath string
	Written    bool
	FuzzLogs   int
	StaticLogs int
	Duration   time.Duration
}

// Aggregate scans fuzz anomaly logs first, then static-analysis logs, in
// directory-listing order within each source. Missing directories yield
// zero evidence from that source. A non-empty merged sequence is written
// to the report path; an empty one removes any stale report so that
// "no report file" always means "no findings".
func Aggregate(cfg Config) (Result, error) {
	if cfg.StaticDir == "" {
		cfg.StaticDir = filepath.Join(cfg.ArtifactsDir, StaticSubdir)
	}
	if cfg.ReportPath == "" {
		cfg.ReportPath = filepath.Join(cfg.ArtifactsDir, report.DefaultName)
	}
	res := Result{ReportPath: cfg.ReportPath}
	started := time.Now()

	var items []types.Evidence

	fuzzItems, fuzzLogs, err := scanDir(cfg.ArtifactsDir, fuzzLogPattern)
	if err != nil {
		return res, err
	}
	items = append(items, fuzzItems...)
	res.FuzzLogs = fuzzLogs

	staticItems, staticLogs, err := scanDir(cfg.StaticDir, staticLogPattern)
	if err != nil {
		return res, err
	}
	items = append(items, staticItems...)
	res.StaticLogs = staticLogs

	res.Report = report.Report{
		GeneratedAt: time.Now().UTC(),
		Items:       items,
	}
	if cfg.SourceRoot != "" {
		res.Report.Repo = gitinfo.Describe(cfg.SourceRoot)
	}
	res.Duration = time.Since(started)

	if len(items) == 0 {
		if err := os.Remove(cfg.ReportPath); err != nil && !os.IsNotExist(err) {
			return res, err
		}
		return res, nil
	}
	if err := report.Save(cfg.ReportPath, res.Report); err != nil {
		return res, err
	}
	res.Written = true
	return res, nil
}

// scanDir applies the evidence scanner to every regular file in dir whose
// name matches pattern, in listing order. A missing directory is skipped
// silently.
func scanDir(dir, pattern string) ([]types.Evidence, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	var items []types.Evidence
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, _ := doublestar.Match(pattern, e.Name())
		if !ok {
			continue
		}
		n++
		found, err := scanner.ScanFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, n, err
		}
		items = append(items, found...)
	}
	return items, n, nil
}
