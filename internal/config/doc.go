// Package config provides configuration management for the claim severity
// pipeline.
//
// Configuration is loaded from environment variables with the CLAIMSEV
// prefix, with defaults from struct tags, and can be overridden by an
// optional YAML file passed on the command line. The resulting struct is
// validated with go-playground/validator tags before use.
//
// The single root seed lives here (Split.Seed): every randomized operation
// in the pipeline derives a named sub-seed from it, so a re-run with the
// same configuration is bit-reproducible.
package config
