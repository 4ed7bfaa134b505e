// Package transform turns joined modeling rows into the table the models
// are fitted on.
//
// The transformer is split into Fit and Apply. Fit computes the trim
// thresholds (response P1/P99, bonus-malus P99.9, vehicle-age P99.9) as an
// ordered sequence, each quantile taken on the rows surviving the previous
// trims; the order reproduces the source analysis exactly and must not
// change. Apply filters with those fixed thresholds and then transforms
// the survivors to log10 scale, buckets exposure and drops the area and
// fuel columns.
//
// Because the thresholds are fitted parameters rather than recomputed on
// every call, trimming is idempotent: Trim applied to its own output with
// the same Params removes nothing. All functions are pure; input slices
// are never mutated.
package transform
