package core

import (
	"encoding/json"
	"io"
)

// MarshalEvidence pretty-prints evidence as JSON for humans or pipelines.
func MarshalEvidence(w io.Writer, items []Evidence) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// UnmarshalEvidence decodes evidence JSON, useful for ingestion tests.
func UnmarshalEvidence(r io.Reader) ([]Evidence, error) {
	var items []Evidence
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}
