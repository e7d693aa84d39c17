// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package resolve

import (
	"github.com/luxfi/stateres/eventgraph"
	"github.com/luxfi/stateres/internal/setutil"
)

// Separate partitions the keys bound across state_sets into unconflicted
// (every set that binds the key agrees, and no set both binds and omits
// it) and conflicted (every other key, with the nil/missing value removed
// from its candidate set). See spec.md §4.2.
//
// The input list's order does not affect which keys are unconflicted or
// which values a conflicted key has: every key is resolved by first
// collecting the full set of distinct bindings across all of state_sets.
// Only the order of a conflicted key's candidate slice follows the input,
// listing values in the order they are first seen.
func Separate(stateSets []eventgraph.StateMap) (unconflicted eventgraph.StateMap, conflicted map[eventgraph.StateKey][]eventgraph.EventID) {
	keys := setutil.New[eventgraph.StateKey](0)
	for _, sm := range stateSets {
		for k := range sm {
			keys.Add(k)
		}
	}

	unconflicted = make(eventgraph.StateMap, keys.Len())
	conflicted = make(map[eventgraph.StateKey][]eventgraph.EventID)

	for k := range keys {
		seen := setutil.New[eventgraph.EventID](len(stateSets))
		var distinct []eventgraph.EventID
		missing := false
		for _, sm := range stateSets {
			v, ok := sm[k]
			if !ok {
				missing = true
				continue
			}
			if seen.Contains(v) {
				continue
			}
			seen.Add(v)
			distinct = append(distinct, v)
		}
		if len(distinct) == 1 && !missing {
			unconflicted[k] = distinct[0]
			continue
		}
		conflicted[k] = distinct
	}
	return unconflicted, conflicted
}
