package types

// Severity is a coarse-grained risk level for an evidence item.
type Severity string

const (
	SevLow  Severity = "low"
	SevMed  Severity = "medium"
	SevHigh Severity = "high"
)

// Evidence describes one taxonomy match discovered in an artifact: the
// artifact it came from, the 1-indexed line, the keyword that matched,
// and the threat category / CWE it maps to. A single line may produce
// several Evidence values when more than one keyword matches it.
type Evidence struct {
	Source   string   `json:"source"`
	Line     int      `json:"line"`
	Keyword  string   `json:"keyword"`
	Threat   string   `json:"threat"`
	CWE      string   `json:"cwe"`
	Severity Severity `json:"severity"`
	Text     string   `json:"text"` // offending line, verbatim (trimmed of trailing newline)
}
