// Package pipeline orchestrates the batch run end to end: load the two
// input tables, join, transform, split, cross-validate, evaluate on the
// held-out partition, rank, and export artifacts.
//
// Each stage runs inside an OpenTelemetry span and appends a row-count
// record to the run manifest, so the funnel from raw rows to modeling
// table is auditable after the fact. Every run gets a fresh UUID and
// writes its artifacts into a run-scoped directory; the manifest carries
// the seed and resampling parameters needed to reproduce it exactly.
package pipeline
