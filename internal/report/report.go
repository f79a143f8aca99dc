// Package report owns the on-disk analysis report and its renderings. The
// report file is the sole hand-off artifact between the aggregation stage
// and the patch workflow; its absence means "clean", never failure.
package report

import (
	"encoding/json"
	"os"
	"time"

	"github.com/firmfuzz/firmfuzz/internal/gitinfo"
	"github.com/firmfuzz/firmfuzz/internal/types"
)

// DefaultName is the report filename inside the artifacts directory.
const DefaultName = "analysis_report.json"

// Report is an ordered sequence of evidence items in discovery order: fuzz
// logs before static-analysis logs, directory-listing order within each.
type Report struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Repo        *gitinfo.Metadata `json:"repo,omitempty"`
	Items       []types.Evidence  `json:"items"`
}

// Save writes the report as pretty JSON. Callers must not save empty
// reports; an empty report is expressed by not writing a file at all.
func Save(path string, r Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Load reads a report from path. A bare JSON array of evidence items is
// accepted as well as the enveloped form, so reports produced by older
// tooling still feed the patch workflow. Absence is surfaced as the
// underlying os.IsNotExist error for the caller to treat as "clean".
func Load(path string) (Report, error) {
	var r Report
	b, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(b, &r); err != nil {
		var items []types.Evidence
		if arrErr := json.Unmarshal(b, &items); arrErr != nil {
			return r, err
		}
		r.Items = items
	}
	return r, nil
}

// ShouldFail reports whether any item reaches the given severity gate.
// An empty gate disables the check.
func ShouldFail(items []types.Evidence, failOn string) bool {
	level := map[string]int{"low": 1, "medium": 2, "high": 3}
	th := level[failOn]
	if th == 0 {
		return false
	}
	for _, it := range items {
		if level[string(it.Severity)] >= th {
			return true
		}
	}
	return false
}
