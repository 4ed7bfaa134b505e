// Package split partitions the transformed modeling table for evaluation.
//
// Two levels: a single stratified train/test split (default 80/20) and,
// on the training partition, repeated stratified k-fold cross-validation
// (default 10 folds x 5 repeats). Both stratify on response quantile bins
// so the response distribution is similar across partitions.
//
// Reproducibility comes from hierarchical seeding: the one root seed is
// never consumed directly. Each operation derives a named sub-seed
// (Derive(root, "train_test"), Derive(root, "cv", "repeat", n)), so the
// assignment of any fold is independent of execution or evaluation order
// and a re-run with the same seed is bit-identical.
//
// Train allocation within a stratum is round(proportion*n), clamped so a
// stratum never sends every row to train. Strata smaller than the fold
// count merge into a single best-effort group with a warning; this is a
// documented degradation, not a failure.
package split
