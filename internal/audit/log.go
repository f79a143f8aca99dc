package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/firmfuzz/firmfuzz/internal/types"
)

// LogName is the jsonl file kept alongside the fuzz artifacts.
const LogName = "firmfuzz_audit.jsonl"

// SessionRecord is one appended line: a fuzz campaign, an aggregation run,
// or a remediation pass.
type SessionRecord struct {
	Timestamp      time.Time         `json:"timestamp"`
	SessionID      string            `json:"session_id"`
	Stage          string            `json:"stage"` // fuzz, analyze, refine, static, build
	Firmware       string            `json:"firmware,omitempty"`
	Iterations     int               `json:"iterations,omitempty"`
	Anomalies      int               `json:"anomalies,omitempty"`
	EvidenceCount  int               `json:"evidence_count,omitempty"`
	SeverityCounts map[string]int    `json:"severity_counts,omitempty"`
	PatchesApplied int               `json:"patches_applied,omitempty"`
	Duration       string            `json:"duration"`
	TopEvidence    []EvidenceSummary `json:"top_evidence,omitempty"`
}

type EvidenceSummary struct {
	Source   string `json:"source"`
	Keyword  string `json:"keyword"`
	Severity string `json:"severity"`
	Line     int    `json:"line"`
}

// AuditLog appends session records under the artifacts root.
type AuditLog struct {
	logPath string
}

func NewAuditLog(artifactsDir string) *AuditLog {
	return &AuditLog{logPath: filepath.Join(artifactsDir, LogName)}
}

// LoadHistory returns all records, newest first. Malformed lines are
// skipped rather than failing the whole history.
func (a *AuditLog) LoadHistory() ([]SessionRecord, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []SessionRecord
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var record SessionRecord
		if err := decoder.Decode(&record); err != nil {
			continue
		}
		records = append(records, record)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// LogSession appends one record. The parent directory must already exist;
// the stages that write artifacts create it first.
func (a *AuditLog) LogSession(record SessionRecord) error {
	if record.SessionID == "" {
		record.SessionID = fmt.Sprintf("%s_%d", record.Stage, time.Now().Unix())
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// CreateAnalyzeRecord summarizes an aggregation pass for the log.
func CreateAnalyzeRecord(items []types.Evidence, duration time.Duration) SessionRecord {
	severityCounts := make(map[string]int)
	for _, it := range items {
		severityCounts[string(it.Severity)]++
	}

	top := make([]EvidenceSummary, 0, 10)
	for i, it := range items {
		if i >= 10 {
			break
		}
		top = append(top, EvidenceSummary{
			Source:   it.Source,
			Keyword:  it.Keyword,
			Severity: string(it.Severity),
			Line:     it.Line,
		})
	}

	return SessionRecord{
		Timestamp:      time.Now(),
		Stage:          "analyze",
		EvidenceCount:  len(items),
		SeverityCounts: severityCounts,
		Duration:       duration.String(),
		TopEvidence:    top,
	}
}
