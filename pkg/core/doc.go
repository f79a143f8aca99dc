// Package core provides a small, stable facade over firmfuzz's internal
// packages for external integrations. It deliberately re-exports a narrow
// API surface so other tools can depend on a stable import path without
// reaching into internal implementation packages.
//
// Example:
//
//	res, err := core.Aggregate(core.AggregateConfig{ArtifactsDir: "fuzz_results"})
//	if err != nil { /* handle */ }
//	_ = core.MarshalEvidence(os.Stdout, res.Report.Items)
package core
