// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package resolve

import (
	"github.com/luxfi/stateres/eventgraph"
	"github.com/luxfi/stateres/lookup"
)

// findPowerLevelsParent returns the first auth parent of e that is a room
// PowerLevels event, used both by the mainline construction and by the
// mainline-depth function (spec.md §4.6).
func findPowerLevelsParent(e *eventgraph.Event, lu lookup.Lookup) (*eventgraph.Event, bool, error) {
	for _, aid := range e.AuthEvents {
		a, err := lu.Get(aid)
		if err != nil {
			return nil, false, err
		}
		if a.Type == eventgraph.TypePowerLevels && a.StateKey == "" {
			return a, true, nil
		}
	}
	return nil, false, nil
}
