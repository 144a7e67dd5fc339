// Package config loads, normalizes, and validates Cuadrilla's TOML
// configuration.
//
// Defaults live in defaults.go and are applied before the file is decoded, so
// a missing file yields a working single-host setup. Paths are expanded
// (including "~") during normalization and a small set of environment
// variables can override secrets and the daemon URL.
package config
