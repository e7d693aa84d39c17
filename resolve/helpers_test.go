// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package resolve

import (
	"github.com/luxfi/stateres/eventgraph"
	"github.com/luxfi/stateres/lookup"
)

// event is a small constructor to keep test fixtures readable.
func event(id eventgraph.EventID, typ string, stateKey string, isState bool, sender string, ts int64, auth ...eventgraph.EventID) *eventgraph.Event {
	return &eventgraph.Event{
		ID:             id,
		Type:           typ,
		StateKey:       stateKey,
		HasStateKey:    isState,
		Sender:         sender,
		Content:        map[string]any{},
		AuthEvents:     auth,
		OriginServerTS: ts,
	}
}

func newLookup(events ...*eventgraph.Event) lookup.Map {
	m := make(lookup.Map, len(events))
	for _, e := range events {
		m[e.ID] = e
	}
	return m
}
