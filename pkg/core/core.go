package core

import (
	"github.com/firmfuzz/firmfuzz/internal/analysis"
	"github.com/firmfuzz/firmfuzz/internal/scanner"
	"github.com/firmfuzz/firmfuzz/internal/taxonomy"
	"github.com/firmfuzz/firmfuzz/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
// We can replace these with decoupled structs later without breaking callers.
type Evidence = types.Evidence
type Severity = types.Severity
type AggregateConfig = analysis.Config
type AggregateResult = analysis.Result

// Scan classifies a byte buffer against the threat taxonomy, attributing
// each item to the given source name.
func Scan(source string, data []byte) []Evidence {
	return scanner.Scan(source, data)
}

// ScanFile classifies a log file; a missing file yields no evidence.
func ScanFile(path string) ([]Evidence, error) {
	return scanner.ScanFile(path)
}

// Aggregate merges fuzz and static-analysis logs into the report.
func Aggregate(cfg AggregateConfig) (AggregateResult, error) {
	return analysis.Aggregate(cfg)
}

// Keywords returns the taxonomy keywords in matching order.
// This is exposed for convenience to avoid importing internals directly.
func Keywords() []string { return taxonomy.Keywords() }
