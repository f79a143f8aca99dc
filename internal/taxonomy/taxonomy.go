package taxonomy

import (
	"strings"

	"github.com/firmfuzz/firmfuzz/internal/types"
)

// Rule maps a lowercase keyword to the threat category and weakness it
// indicates when it shows up in emulator or analyzer output.
type Rule struct {
	Keyword  string
	Threat   string
	CWE      string
	Severity types.Severity
}

// Rules is the fixed threat taxonomy. Declaration order is the matching
// order, and that order is part of the scanner's contract: scans over the
// same input always emit evidence in the same sequence.
var Rules = []Rule{
	{Keyword: "overflow", Threat: "Buffer Overflow", CWE: "CWE-120: Classic Buffer Overflow", Severity: types.SevHigh},
	{Keyword: "stack overflow", Threat: "Buffer Overflow", CWE: "CWE-120: Classic Buffer Overflow", Severity: types.SevHigh},
	{Keyword: "hard fault", Threat: "Potential Crash or Memory Fault", CWE: "CWE-730: Null Pointer or System Crash", Severity: types.SevHigh},
	{Keyword: "race condition", Threat: "Concurrency Issue", CWE: "CWE-362: Race Condition", Severity: types.SevMed},
	{Keyword: "assert", Threat: "Assertion Failure", CWE: "N/A", Severity: types.SevMed},
	{Keyword: "dos", Threat: "Denial of Service", CWE: "CWE-400: Uncontrolled Resource Consumption", Severity: types.SevMed},
	{Keyword: "missed deadline", Threat: "Real-Time Violation", CWE: "CWE-400: Uncontrolled Resource Consumption", Severity: types.SevMed},
	{Keyword: "malloc failed", Threat: "Memory Allocation Failure", CWE: "CWE-401: Memory Leak or Resource Exhaustion", Severity: types.SevMed},
	{Keyword: "error", Threat: "Generic Error", CWE: "N/A", Severity: types.SevLow},
}

// Keywords returns the keyword list in rule order.
func Keywords() []string {
	out := make([]string, len(Rules))
	for i, r := range Rules {
		out[i] = r.Keyword
	}
	return out
}

// Lookup returns the rule for an exact keyword, if one exists.
func Lookup(keyword string) (Rule, bool) {
	k := strings.ToLower(keyword)
	for _, r := range Rules {
		if r.Keyword == k {
			return r, true
		}
	}
	return Rule{}, false
}

// Descriptor renders a short "threat (CWE)" string for prompts and summaries.
func (r Rule) Descriptor() string {
	return r.Threat + " (" + r.CWE + ")"
}
