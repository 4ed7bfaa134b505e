// Package model defines the fitting units: preprocessing recipes paired
// with regression learners.
//
// A Recipe fitted on analysis rows yields a Schema that encodes any row
// set into a gonum design matrix with a fixed column order, so held-out
// rows always line up with the columns the learner saw. Three encodings
// exist: dummy (reference level dropped, for the linear model), one-hot,
// and ordinal level codes (the native-category stand-in for trees).
//
// Learners: ordinary least squares solved by QR, a bagged random forest,
// and gradient-boosted trees, the latter two built on a shared CART
// regression tree. All run with fixed default hyperparameters; tuning is
// out of scope. Randomized learners take an explicit seed so a fold fit
// reproduces exactly.
package model
