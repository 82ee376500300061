//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package mpc

// Rounding selects the truncation rounding mode.
type Rounding int

// Truncation rounding modes.
const (
	// Probabilistic truncation returns floor(v/2^m) or
	// floor(v/2^m)+1, the latter with probability proportional to
	// the discarded bits.
	Probabilistic Rounding = iota

	// Nearest truncation rounds deterministically to the nearest
	// integer.
	Nearest
)

func (r Rounding) String() string {
	switch r {
	case Probabilistic:
		return "probabilistic"
	case Nearest:
		return "nearest"
	default:
		return "unknown"
	}
}

// Config holds per-run protocol configuration. A Config is passed
// explicitly to every component at construction; there is no
// process-wide state.
type Config struct {
	// Verbose enables progress output.
	Verbose bool

	// Rounding selects the truncation rounding mode.
	Rounding Rounding

	// SecurityBits is the statistical hiding slack of truncation
	// masks.
	SecurityBits int

	// MaxTruncFail is the number of counted truncation bound
	// violations tolerated before the run aborts. The bound check
	// is a self-test, not a security guarantee.
	MaxTruncFail int64

	// MinBatch is the minimum preprocessing refill batch size.
	MinBatch int
}

// NewConfig returns the default configuration.
func NewConfig() *Config {
	return &Config{
		Rounding:     Probabilistic,
		SecurityBits: 40,
		MinBatch:     64,
	}
}
