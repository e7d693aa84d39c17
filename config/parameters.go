// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds the tunables that sit around the resolution
// algorithm without being part of its semantics, following the shape of
// the teacher repo's own parameters.go: a plain struct, a Valid method
// that returns a sentinel-wrapped error, and DefaultParameters/TestParameters
// vars callers can start from.
package config

import (
	"errors"
	"fmt"
)

// ErrInvalidTraversalBudget is wrapped whenever TraversalBudget is
// negative. Zero is valid and selects resolve's package default.
var ErrInvalidTraversalBudget = errors.New("config: traversal budget must not be negative")

// Parameters bounds the resources a single Resolve call may consume and
// how much it logs. None of these fields affect the resolved state map;
// two calls with the same state_sets and lookup but different Parameters
// must still agree (spec.md §8 property: determinism does not depend on
// resource limits, only on whether they are exceeded).
type Parameters struct {
	// TraversalBudget is the max number of distinct events a single
	// auth-chain closure may visit before AuthChainDifference reports
	// ErrAuthChainCycle. Zero selects resolve's package default.
	TraversalBudget int

	// Verbose enables Debug-level logging of per-component decisions.
	// When false, cmd/stateres-resolve attaches no logger and nothing is
	// logged. PolicyRejection outcomes are not logged either way.
	Verbose bool
}

// Valid reports whether p can be used to drive a resolution.
func (p Parameters) Valid() error {
	if p.TraversalBudget < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidTraversalBudget, p.TraversalBudget)
	}
	return nil
}

// DefaultParameters is tuned for a production-sized room: deep enough auth
// chains that the traversal budget should rarely matter, quiet logging.
var DefaultParameters = Parameters{
	TraversalBudget: 200_000,
	Verbose:         false,
}

// TestParameters is tuned for small fixture rooms: a tight budget so a
// runaway auth-chain bug in a test fixture fails fast, verbose logging to
// aid debugging test failures.
var TestParameters = Parameters{
	TraversalBudget: 1_000,
	Verbose:         true,
}
