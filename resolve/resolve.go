// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package resolve implements the state-resolution core: given N candidate
// state maps and a Lookup able to resolve any cited event id, it computes
// one deterministic resolved state map (spec.md §2, §4).
package resolve

import (
	"time"

	"github.com/luxfi/stateres/authz"
	"github.com/luxfi/stateres/eventgraph"
	"github.com/luxfi/stateres/internal/logctx"
	"github.com/luxfi/stateres/internal/metrics"
	"github.com/luxfi/stateres/lookup"
)

var resolvedPowerKey = eventgraph.StateKey{Type: eventgraph.TypePowerLevels, StateKey: ""}

// counter is the one prometheus.Counter method countingPolicy needs; kept
// narrow so this file does not have to import prometheus directly.
type counter interface {
	Inc()
}

// countingPolicy decorates a Policy so every PolicyRejection increments a
// metric, without changing IterativeAuth's signature or its "rejection is
// local, not fatal" handling.
type countingPolicy struct {
	authz.Policy
	rejections counter
}

func (c countingPolicy) Authorize(event *eventgraph.Event, auth authz.Table) error {
	err := c.Policy.Authorize(event, auth)
	if err != nil {
		c.rejections.Inc()
	}
	return err
}

// Options carries the tunables that are not part of the algorithm's
// semantics — only its resource bounds.
type Options struct {
	// TraversalBudget caps how many events a single auth-chain closure
	// may visit before AuthChainDifference reports ErrAuthChainCycle.
	// Zero selects the package default.
	TraversalBudget int

	// Logger receives Debug events describing the shape of the
	// resolution (component sizes). Rejections are not logged; they are
	// only counted, through Metrics. A nil Logger is a no-op.
	Logger logctx.Logger

	// Metrics receives call counts, rejection counts, duration and
	// auth-chain-diff-size observations. A nil Metrics disables all of it.
	Metrics metrics.Metrics
}

// Resolve is the pure function described by spec.md: it never mutates
// stateSets, never touches storage or the network, and is a function only
// of the input multiset of state maps and whatever lu resolves to. Callers
// that want process-order independence verified should consult spec.md §8
// property 3 — shuffling stateSets must not change the result.
func Resolve(stateSets []eventgraph.StateMap, lu lookup.Lookup, policy authz.Policy) (eventgraph.StateMap, error) {
	return ResolveWithOptions(stateSets, lu, policy, Options{})
}

// ResolveWithOptions is Resolve with explicit resource bounds and logging.
func ResolveWithOptions(stateSets []eventgraph.StateMap, lu lookup.Lookup, policy authz.Policy, opts Options) (eventgraph.StateMap, error) {
	log := opts.Logger
	if log == nil {
		log = logctx.NoOp()
	}
	if opts.Metrics != nil {
		opts.Metrics.Calls().Inc()
		start := time.Now()
		defer func() { opts.Metrics.Duration().Observe(time.Since(start).Seconds()) }()
		policy = countingPolicy{Policy: policy, rejections: opts.Metrics.Rejections()}
	}

	if len(stateSets) == 0 {
		return eventgraph.StateMap{}, nil
	}

	unconflicted, conflicted := Separate(stateSets)
	log.Debug("separated state sets", "unconflicted", len(unconflicted), "conflicted_keys", len(conflicted))

	diff, err := AuthChainDifference(stateSets, lu, opts.TraversalBudget)
	if err != nil {
		return nil, err
	}
	log.Debug("computed auth chain difference", "size", len(diff))
	if opts.Metrics != nil {
		opts.Metrics.AuthChainDiffSize().Observe(float64(len(diff)))
	}

	full := make(map[eventgraph.EventID]struct{})
	for _, ids := range conflicted {
		for _, id := range ids {
			full[id] = struct{}{}
		}
	}
	for id := range diff {
		full[id] = struct{}{}
	}

	var powerIDs []eventgraph.EventID
	for id := range full {
		e, err := lu.Get(id)
		if err != nil {
			return nil, err
		}
		if e.IsPowerEvent() {
			powerIDs = append(powerIDs, id)
		}
	}

	sortedPower, err := PowerOrder(powerIDs, diff, lu)
	if err != nil {
		return nil, err
	}
	log.Debug("ordered power events", "count", len(sortedPower))

	resolved, err := IterativeAuth(sortedPower, unconflicted, lu, policy)
	if err != nil {
		return nil, err
	}

	inSortedPower := make(map[eventgraph.EventID]struct{}, len(sortedPower))
	for _, id := range sortedPower {
		inSortedPower[id] = struct{}{}
	}
	var leftover []eventgraph.EventID
	for id := range full {
		if _, ok := inSortedPower[id]; !ok {
			leftover = append(leftover, id)
		}
	}

	resolvedPowerID, hasResolvedPower := resolved[resolvedPowerKey]
	sortedLeftover, err := MainlineSort(leftover, resolvedPowerID, hasResolvedPower, lu)
	if err != nil {
		return nil, err
	}
	log.Debug("ordered leftover events by mainline depth", "count", len(sortedLeftover))

	resolved, err = IterativeAuth(sortedLeftover, resolved, lu, policy)
	if err != nil {
		return nil, err
	}

	// Unconflicted bindings are reasserted last: they must never be
	// displaced by a successful but semantically irrelevant auth outcome
	// on a duplicated id (spec.md §4, step 10).
	for k, v := range unconflicted {
		resolved[k] = v
	}

	return resolved, nil
}
