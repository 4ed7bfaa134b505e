// Package eval fits the registry units against resampling plans and
// ranks the outcomes.
//
// The Evaluator runs one fit per (unit, resample) on a bounded errgroup
// worker pool. Fits share no mutable state, and every result lands in a
// slot keyed by (model id, fold id), so aggregation is reproducible no
// matter which fit finishes first. Per-fit learner seeds derive from the
// root seed, the unit id and the fold id.
//
// A fold fit that fails, typically on a degenerate resample, is recorded
// in its FoldResult and excluded from the aggregates Rank computes; it
// never aborts the run. Rank orders units ascending by mean RMSE;
// CompareRanks joins the cross-validation ranking against the held-out
// test ranking by unit identity.
package eval
