// Package scanner turns raw artifact text into taxonomy evidence.
package scanner

import (
	"bufio"
	"bytes"
	"os"
	"strings"

	"github.com/firmfuzz/firmfuzz/internal/taxonomy"
	"github.com/firmfuzz/firmfuzz/internal/types"
)

// maxLine bounds how much of a single line is kept for matching; emulator
// logs occasionally contain very long unbroken output. The remainder of an
// over-long line is still consumed so line numbering stays correct.
const maxLine = 1 << 20

// Scan walks data line by line (1-indexed) and emits one Evidence per
// (line, rule) match. Matching is a case-insensitive substring test in the
// taxonomy's declaration order, so repeated scans of the same input produce
// the same sequence. A line matching several keywords yields several items;
// there is no de-duplication or precedence.
func Scan(source string, data []byte) []types.Evidence {
	var out []types.Evidence
	r := bufio.NewReaderSize(bytes.NewReader(data), 64*1024)
	line := 0
	for {
		t, err := nextLine(r)
		if err != nil && t == "" {
			break
		}
		line++
		lower := strings.ToLower(t)
		for _, rule := range taxonomy.Rules {
			if strings.Contains(lower, rule.Keyword) {
				out = append(out, types.Evidence{
					Source:   source,
					Line:     line,
					Keyword:  rule.Keyword,
					Threat:   rule.Threat,
					CWE:      rule.CWE,
					Severity: rule.Severity,
					Text:     strings.TrimSpace(t),
				})
			}
		}
		if err != nil {
			break
		}
	}
	return out
}

// nextLine reads one line, keeping at most maxLine bytes of it. Trailing
// chunks of an over-long line are drained and dropped rather than aborting
// the whole scan, so every subsequent line is still seen and counted.
func nextLine(r *bufio.Reader) (string, error) {
	var buf []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		if room := maxLine - len(buf); room > 0 {
			if len(chunk) > room {
				chunk = chunk[:room]
			}
			buf = append(buf, chunk...)
		}
		if !isPrefix || err != nil {
			return string(buf), err
		}
	}
}

// ScanFile scans the file at path, using its basename as the evidence
// source. A missing file means "nothing to report": it returns an empty
// sequence and no error. Read errors other than absence are returned.
func ScanFile(path string) ([]types.Evidence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	base := path
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		base = path[i+1:]
	}
	return Scan(base, data), nil
}

// Contains reports whether marker appears anywhere in data, case-insensitive.
// It is the narrow deadline-only check used by the harness's deadline mode.
func Contains(data, marker string) bool {
	if marker == "" {
		return false
	}
	return strings.Contains(strings.ToLower(data), strings.ToLower(marker))
}
