// Package config resolves the engine's few tunables from environment
// variables, with CLI flags (set by cmd/clairvoyance) taking
// precedence over whatever this package returns.
package config

import (
	"github.com/xyproto/env/v2"

	"github.com/xyproto/clairvoyance/internal/tape"
)

// Default tunables, used when neither a flag nor an environment
// variable overrides them.
const (
	DefaultMaxGapPixels = tape.MaxGapPixels
	DefaultVerbose      = false
)

// Config holds the engine's runtime tunables.
type Config struct {
	// MaxGapPixels bounds how many filler pixels the tape builder will
	// emit for a single hole before closing the region (spec §4.5).
	MaxGapPixels int
	// Verbose enables InteriorMissing diagnostic logging to stderr.
	// GapOverflow diagnostics are printed regardless of this setting.
	Verbose bool
}

// FromEnvironment reads CLAIRVOYANCE_MAX_GAP_PIXELS and
// CLAIRVOYANCE_VERBOSE, falling back to the package defaults when
// unset or unparsable.
func FromEnvironment() Config {
	return Config{
		MaxGapPixels: env.IntOr("CLAIRVOYANCE_MAX_GAP_PIXELS", DefaultMaxGapPixels),
		Verbose:      env.BoolOr("CLAIRVOYANCE_VERBOSE", DefaultVerbose),
	}
}
