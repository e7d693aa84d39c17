// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package resolve

import (
	"github.com/luxfi/stateres/eventgraph"
	"github.com/luxfi/stateres/internal/setutil"
	"github.com/luxfi/stateres/lookup"
)

// defaultTraversalBudget bounds how many distinct events a single auth
// chain closure may visit before the walk is treated as pathological.
// The surrounding system guarantees the auth-event relation is a DAG; this
// is a defensive backstop, not a normal limit (spec.md §7 AuthChainCycle).
const defaultTraversalBudget = 200_000

var (
	keyPowerLevels = eventgraph.StateKey{Type: eventgraph.TypePowerLevels}
	keyCreate      = eventgraph.StateKey{Type: eventgraph.TypeCreate}
	keyJoinRules   = eventgraph.StateKey{Type: eventgraph.TypeJoinRules}
)

func isAuthRelevantKey(k eventgraph.StateKey) bool {
	switch k.Type {
	case eventgraph.TypeMember, eventgraph.TypeThirdPartyInvite:
		return true
	}
	return k == keyPowerLevels || k == keyCreate || k == keyJoinRules
}

func commonValues(stateSets []eventgraph.StateMap) setutil.Set[eventgraph.EventID] {
	if len(stateSets) == 0 {
		return setutil.New[eventgraph.EventID](0)
	}
	valueSets := make([]setutil.Set[eventgraph.EventID], len(stateSets))
	for i, sm := range stateSets {
		vs := setutil.New[eventgraph.EventID](len(sm))
		for _, v := range sm {
			vs.Add(v)
		}
		valueSets[i] = vs
	}
	return setutil.Intersect(valueSets...)
}

// authChainClosure walks the transitive closure of seed under AuthEvents,
// using an explicit stack (never recursion, per the design notes: auth
// chains in long-lived rooms can be too deep for a recursive walk). Events
// already known to be common to every candidate state set are pruned as
// both seeds and expansion targets; this is a pure optimisation (spec.md
// §4.3) and never changes the resulting set.
func authChainClosure(seed []eventgraph.EventID, common setutil.Set[eventgraph.EventID], lu lookup.Lookup, budget int) (setutil.Set[eventgraph.EventID], error) {
	visited := setutil.New[eventgraph.EventID](len(seed))
	stack := make([]eventgraph.EventID, 0, len(seed))
	for _, id := range seed {
		if common.Contains(id) {
			continue
		}
		stack = append(stack, id)
	}

	steps := 0
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited.Contains(id) {
			continue
		}
		visited.Add(id)

		steps++
		if steps > budget {
			return nil, lookup.NewAuthChainCycle(id)
		}

		e, err := lu.Get(id)
		if err != nil {
			return nil, err
		}
		for _, aid := range e.AuthEvents {
			if common.Contains(aid) || visited.Contains(aid) {
				continue
			}
			stack = append(stack, aid)
		}
	}
	return visited, nil
}

// AuthChainDifference computes the set of event_ids that appear in at
// least one, but not all, of state_sets' auth chains (spec.md §4.3).
func AuthChainDifference(stateSets []eventgraph.StateMap, lu lookup.Lookup, budget int) (map[eventgraph.EventID]struct{}, error) {
	if budget <= 0 {
		budget = defaultTraversalBudget
	}
	common := commonValues(stateSets)

	chains := make([]setutil.Set[eventgraph.EventID], 0, len(stateSets))
	for _, sm := range stateSets {
		var seeds []eventgraph.EventID
		for k, v := range sm {
			if isAuthRelevantKey(k) {
				seeds = append(seeds, v)
			}
		}
		chain, err := authChainClosure(seeds, common, lu, budget)
		if err != nil {
			return nil, err
		}
		chains = append(chains, chain)
	}

	union := setutil.Union(chains...)
	intersection := setutil.Intersect(chains...)
	diff := setutil.Difference(union, intersection)
	return diff, nil
}
