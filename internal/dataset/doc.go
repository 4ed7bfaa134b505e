// Package dataset defines the row schemas flowing through the pipeline and
// loads the two input tables.
//
// Two source tables are expected: a policy risk-feature table (one row per
// policy) and an individual claim table (one row per claim, keyed by policy
// id). Both load from .csv or .xlsx files, detected by extension. Rows that
// fail to parse or validate are skipped and counted in the LoadResult, so a
// handful of malformed export rows never aborts a run.
//
// Every downstream stage consumes and produces immutable snapshots of the
// typed row slices defined here; nothing mutates a table in place.
package dataset
