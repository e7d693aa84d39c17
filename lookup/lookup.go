// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package lookup defines the read-only interface the resolver uses to
// fetch events by id. Storage, federation and replication all live
// outside this module; the resolver only ever calls Get.
package lookup

import (
	"errors"
	"fmt"

	"github.com/luxfi/stateres/eventgraph"
)

// ErrMissingEvent is wrapped with the offending id whenever a referenced
// event cannot be resolved. It is fatal to the resolve call it occurs in.
var ErrMissingEvent = errors.New("lookup: missing event")

// ErrAuthChainCycle is returned defensively when an auth-chain closure walk
// visits more distinct events than its traversal budget allows. The walk
// skips events it has already visited, so a cycle alone does not trigger
// it. The surrounding system is expected to prevent cycles; the resolver
// only guards against runaway walks, it does not try to break cycles.
var ErrAuthChainCycle = errors.New("lookup: auth chain cycle detected")

// MissingEventError carries the id that could not be resolved.
type MissingEventError struct {
	ID eventgraph.EventID
}

func (e *MissingEventError) Error() string {
	return fmt.Sprintf("lookup: missing event %q", string(e.ID))
}

func (e *MissingEventError) Unwrap() error { return ErrMissingEvent }

// NewMissingEvent builds the typed error for id.
func NewMissingEvent(id eventgraph.EventID) error {
	return &MissingEventError{ID: id}
}

// AuthChainCycleError carries the id at which the traversal budget was
// exceeded.
type AuthChainCycleError struct {
	ID eventgraph.EventID
}

func (e *AuthChainCycleError) Error() string {
	return fmt.Sprintf("lookup: auth chain cycle at %q", string(e.ID))
}

func (e *AuthChainCycleError) Unwrap() error { return ErrAuthChainCycle }

// NewAuthChainCycle builds the typed error for id.
func NewAuthChainCycle(id eventgraph.EventID) error {
	return &AuthChainCycleError{ID: id}
}

// Lookup is total over every id transitively reachable from the inputs
// passed to Resolve: state_sets' values, their auth chains, and the auth
// parents cited by any event visited along the way. Implementations are
// read-only from the resolver's perspective; thread-safety of the
// underlying store is the caller's responsibility.
type Lookup interface {
	Get(id eventgraph.EventID) (*eventgraph.Event, error)
}

// Map is a trivial in-memory Lookup, useful for tests and for the
// cmd/stateres-resolve fixture driver.
type Map map[eventgraph.EventID]*eventgraph.Event

// Get implements Lookup.
func (m Map) Get(id eventgraph.EventID) (*eventgraph.Event, error) {
	e, ok := m[id]
	if !ok {
		return nil, NewMissingEvent(id)
	}
	return e, nil
}
