// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package resolve

import (
	"sort"

	"github.com/luxfi/stateres/eventgraph"
	"github.com/luxfi/stateres/lookup"
)

// buildMainline walks backwards from the resolved PowerLevels event through
// its PowerLevels auth parents, assigning mainline_index(p_j) = k-j+1 where
// p_0 is the resolved event and p_k the earliest ancestor (spec.md §4.6:
// earliest ancestor ranks 1, not the latest).
func buildMainline(resolvedPowerID eventgraph.EventID, hasResolvedPower bool, lu lookup.Lookup) (map[eventgraph.EventID]int, error) {
	index := make(map[eventgraph.EventID]int)
	if !hasResolvedPower {
		return index, nil
	}

	var chain []eventgraph.EventID
	p := resolvedPowerID
	for {
		chain = append(chain, p)
		e, err := lu.Get(p)
		if err != nil {
			return nil, err
		}
		parent, ok, err := findPowerLevelsParent(e, lu)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		p = parent.ID
	}

	k := len(chain) - 1
	for j, id := range chain {
		index[id] = k - j + 1
	}
	return index, nil
}

// mainlineDepth implements the depth function from spec.md §4.6
// iteratively: events on the mainline return their index directly;
// otherwise depth is one more than the depth of the nearest PowerLevels
// auth parent, or 0 if there is none. memo bounds the work to O(V) across
// the whole leftover set.
func mainlineDepth(id eventgraph.EventID, mainlineIndex map[eventgraph.EventID]int, lu lookup.Lookup, memo map[eventgraph.EventID]int) (int, error) {
	if d, ok := memo[id]; ok {
		return d, nil
	}

	var chain []eventgraph.EventID
	cur := id
	for {
		if _, ok := memo[cur]; ok {
			break
		}
		if idx, ok := mainlineIndex[cur]; ok {
			memo[cur] = idx
			break
		}
		e, err := lu.Get(cur)
		if err != nil {
			return 0, err
		}
		parent, ok, err := findPowerLevelsParent(e, lu)
		if err != nil {
			return 0, err
		}
		if !ok {
			memo[cur] = 0
			break
		}
		chain = append(chain, cur)
		cur = parent.ID
	}

	depth := memo[cur]
	for i := len(chain) - 1; i >= 0; i-- {
		depth++
		memo[chain[i]] = depth
	}
	return memo[id], nil
}

// MainlineSort orders leftover (conflicted, non-power) events by mainline
// depth, ascending, with (origin_server_ts, event_id) as the tiebreak
// (spec.md §4.6). If resolvedPowerID is absent, the mainline is empty and
// every leftover event is at depth 0 — ordering degenerates to (ts, id).
func MainlineSort(ids []eventgraph.EventID, resolvedPowerID eventgraph.EventID, hasResolvedPower bool, lu lookup.Lookup) ([]eventgraph.EventID, error) {
	mainlineIndex, err := buildMainline(resolvedPowerID, hasResolvedPower, lu)
	if err != nil {
		return nil, err
	}

	type item struct {
		id    eventgraph.EventID
		depth int
		ts    int64
	}
	memo := make(map[eventgraph.EventID]int)
	items := make([]item, 0, len(ids))
	for _, id := range ids {
		d, err := mainlineDepth(id, mainlineIndex, lu, memo)
		if err != nil {
			return nil, err
		}
		e, err := lu.Get(id)
		if err != nil {
			return nil, err
		}
		items = append(items, item{id: id, depth: d, ts: e.OriginServerTS})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].depth != items[j].depth {
			return items[i].depth < items[j].depth
		}
		if items[i].ts != items[j].ts {
			return items[i].ts < items[j].ts
		}
		return items[i].id < items[j].id
	})

	out := make([]eventgraph.EventID, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out, nil
}
