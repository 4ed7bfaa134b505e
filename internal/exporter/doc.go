// Package exporter writes the pipeline's output artifacts as CSV files:
// the transformed modeling table, per-fold and aggregated metric tables,
// observed-vs-predicted pairs per unit and phase (log10 and original
// scale), the CV-vs-test rank comparison, and coefficient or
// variable-importance tables for fitted units. These files are the
// interface to the external reporting and visualization tooling.
package exporter
