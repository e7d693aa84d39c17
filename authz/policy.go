// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package authz defines the authorization policy the resolver consumes as
// a pure function (spec.md §6). The resolver never signs, hashes or
// fetches events; it only asks "does this event pass authorization given
// this auth context", and "which state keys does this event's type care
// about".
package authz

import (
	"errors"

	"github.com/luxfi/stateres/eventgraph"
)

// ErrRejected is the sentinel a Policy.Authorize implementation wraps (or
// returns directly) to signal that an event does not currently satisfy
// authorization. It is a normal, expected outcome during iterative
// auth (spec.md §7): the caller catches it locally, it never aborts a
// resolve call.
var ErrRejected = errors.New("authz: event rejected")

// Table is the auth-event context an event is checked against: a mapping
// from the state keys an event type cares about to the event currently
// bound to that key.
type Table map[eventgraph.StateKey]*eventgraph.Event

// Policy is the injected authorization module. Both methods must be pure
// and deterministic: same event, same table, same auth_type_keys, forever.
type Policy interface {
	// Authorize reports whether event is allowed given auth. A non-nil,
	// ErrRejected-wrapping error means "rejected", not "call failed".
	Authorize(event *eventgraph.Event, auth Table) error

	// AuthTypeKeys lists the state keys whose current bindings are
	// relevant to validating event's type.
	AuthTypeKeys(event *eventgraph.Event) []eventgraph.StateKey
}
