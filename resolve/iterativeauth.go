// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package resolve

import (
	"github.com/luxfi/stateres/authz"
	"github.com/luxfi/stateres/eventgraph"
	"github.com/luxfi/stateres/lookup"
)

// IterativeAuth replays authorization against a running state seeded from
// base, in the order ids are given, per spec.md §4.5. Each event's auth
// context starts from its own cited auth parents, then has any key in its
// AuthTypeKeys overwritten by whatever the running state currently binds
// — so an event accepted earlier in the same pass shapes the auth context
// of everything that follows it. PolicyRejection is caught locally: a
// rejected event simply leaves the running state untouched for its key,
// it never aborts the call.
func IterativeAuth(ids []eventgraph.EventID, base eventgraph.StateMap, lu lookup.Lookup, policy authz.Policy) (eventgraph.StateMap, error) {
	running := base.Clone()

	for _, id := range ids {
		e, err := lu.Get(id)
		if err != nil {
			return nil, err
		}

		table := make(authz.Table, len(e.AuthEvents))
		for _, aid := range e.AuthEvents {
			a, err := lu.Get(aid)
			if err != nil {
				return nil, err
			}
			table[a.Key()] = a
		}
		for _, k := range policy.AuthTypeKeys(e) {
			rid, ok := running[k]
			if !ok {
				continue
			}
			re, err := lu.Get(rid)
			if err != nil {
				return nil, err
			}
			table[k] = re
		}

		if err := policy.Authorize(e, table); err == nil {
			running[e.Key()] = id
		}
		// A non-nil Authorize error is PolicyRejection: normal, local, and
		// absorbed here per spec.md §7.
	}

	return running, nil
}
