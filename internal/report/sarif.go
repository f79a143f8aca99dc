package report

import (
	"encoding/json"
	"io"

	"github.com/firmfuzz/firmfuzz/internal/types"
)

type sarif struct {
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type sarifResult struct {
	RuleID    string       `json:"ruleId"`
	Level     string       `json:"level"`
	Message   sarifMessage `json:"message"`
	Locations []sarifLoc   `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

func sevToLevel(s types.Severity) string {
	switch s {
	case types.SevHigh:
		return "error"
	case types.SevMed:
		return "warning"
	default:
		return "note"
	}
}

// WriteSARIF writes evidence items as SARIF 2.1.0 so CI viewers can ingest
// the report. Rule IDs are the taxonomy keywords.
func WriteSARIF(w io.Writer, version string, items []types.Evidence) error {
	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{Name: "firmfuzz", Version: version}},
	}
	for _, it := range items {
		run.Results = append(run.Results, sarifResult{
			RuleID:  it.Keyword,
			Level:   sevToLevel(it.Severity),
			Message: sarifMessage{Text: it.Threat + " (" + it.CWE + "): " + it.Text},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{
					ArtifactLocation: sarifArt{URI: it.Source},
					Region:           sarifRegion{StartLine: it.Line},
				},
			}},
		})
	}
	doc := sarif{Version: "2.1.0", Runs: []sarifRun{run}}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
