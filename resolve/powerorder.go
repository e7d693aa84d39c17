// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package resolve

import (
	"container/heap"

	"github.com/luxfi/stateres/eventgraph"
	"github.com/luxfi/stateres/lookup"
)

// powerOfSender implements the power_of_sender(e) function from spec.md
// §4.4: the sender's level according to e's PowerLevels auth parent, or a
// Create-parent fallback, or 0.
func powerOfSender(e *eventgraph.Event, lu lookup.Lookup) (int, error) {
	plParent, ok, err := findPowerLevelsParent(e, lu)
	if err != nil {
		return 0, err
	}
	if ok {
		return plParent.UserPowerLevel(e.Sender), nil
	}
	for _, aid := range e.AuthEvents {
		a, err := lu.Get(aid)
		if err != nil {
			return 0, err
		}
		if a.Type == eventgraph.TypeCreate && a.StateKey == "" {
			if creator, ok := a.CreatorFromContent(); ok && creator == e.Sender {
				return 100, nil
			}
			return 0, nil
		}
	}
	return 0, nil
}

// powerGraph is the directed graph built over the power-ordering candidate
// set: nodes are the candidates plus any auth-diff ancestor discovered
// while walking auth chains (spec.md §4.4 step 1), children records
// dominance edges (parent -> dominated), and indegree counts unresolved
// parents per node for Kahn's algorithm.
type powerGraph struct {
	nodes    map[eventgraph.EventID]struct{}
	children map[eventgraph.EventID][]eventgraph.EventID
	indegree map[eventgraph.EventID]int
}

// buildPowerGraph walks the auth chain of each candidate, iteratively
// (explicit stack, not recursion — auth chains can be too deep to recurse
// over safely). Whenever an auth parent is itself in the auth diff, an
// edge parent->child is recorded and the walk continues from the parent.
func buildPowerGraph(candidates []eventgraph.EventID, diff map[eventgraph.EventID]struct{}, lu lookup.Lookup) (*powerGraph, error) {
	g := &powerGraph{
		nodes:    make(map[eventgraph.EventID]struct{}),
		children: make(map[eventgraph.EventID][]eventgraph.EventID),
		indegree: make(map[eventgraph.EventID]int),
	}
	addNode := func(id eventgraph.EventID) {
		if _, ok := g.nodes[id]; !ok {
			g.nodes[id] = struct{}{}
			g.indegree[id] = 0
		}
	}
	for _, c := range candidates {
		addNode(c)
	}

	visited := make(map[eventgraph.EventID]struct{})
	stack := append([]eventgraph.EventID(nil), candidates...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}

		e, err := lu.Get(id)
		if err != nil {
			return nil, err
		}
		for _, aid := range e.AuthEvents {
			if _, ok := diff[aid]; !ok {
				continue
			}
			addNode(aid)
			g.children[aid] = append(g.children[aid], id)
			g.indegree[id]++
			if _, ok := visited[aid]; !ok {
				stack = append(stack, aid)
			}
		}
	}
	return g, nil
}

// powerCandidate is a graph node annotated with its tiebreak key.
type powerCandidate struct {
	id    eventgraph.EventID
	power int
	ts    int64
}

// less implements the canonical tiebreak: negate power so higher-authority
// senders sort first even though the heap picks minima, then earlier
// origin_server_ts, then lexicographically smaller event_id. spec.md §9
// flags two earlier variants ((power,id) and (power,-ts,id)) as
// superseded; this is the canonical (-power, ts, id) key, and the final
// emission order is NOT reversed.
func (c powerCandidate) less(o powerCandidate) bool {
	if c.power != o.power {
		return c.power > o.power // negated: higher power sorts first
	}
	if c.ts != o.ts {
		return c.ts < o.ts
	}
	return c.id < o.id
}

type powerHeap []powerCandidate

func (h powerHeap) Len() int            { return len(h) }
func (h powerHeap) Less(i, j int) bool  { return h[i].less(h[j]) }
func (h powerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *powerHeap) Push(x interface{}) { *h = append(*h, x.(powerCandidate)) }
func (h *powerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// PowerOrder performs the lexicographic reverse-topological sort described
// in spec.md §4.4: dominators (per the auth-diff edges) emit before the
// events they dominate; among nodes with no such dependency, the tiebreak
// key decides.
func PowerOrder(candidates []eventgraph.EventID, diff map[eventgraph.EventID]struct{}, lu lookup.Lookup) ([]eventgraph.EventID, error) {
	g, err := buildPowerGraph(candidates, diff, lu)
	if err != nil {
		return nil, err
	}

	info := make(map[eventgraph.EventID]powerCandidate, len(g.nodes))
	for id := range g.nodes {
		e, err := lu.Get(id)
		if err != nil {
			return nil, err
		}
		p, err := powerOfSender(e, lu)
		if err != nil {
			return nil, err
		}
		info[id] = powerCandidate{id: id, power: p, ts: e.OriginServerTS}
	}

	remaining := make(map[eventgraph.EventID]int, len(g.indegree))
	var ready powerHeap
	for id, d := range g.indegree {
		remaining[id] = d
		if d == 0 {
			ready = append(ready, info[id])
		}
	}
	heap.Init(&ready)

	order := make([]eventgraph.EventID, 0, len(g.nodes))
	for ready.Len() > 0 {
		c := heap.Pop(&ready).(powerCandidate)
		order = append(order, c.id)
		for _, child := range g.children[c.id] {
			remaining[child]--
			if remaining[child] == 0 {
				heap.Push(&ready, info[child])
			}
		}
	}
	return order, nil
}
