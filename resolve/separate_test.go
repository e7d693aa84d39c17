// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/stateres/eventgraph"
)

var (
	keyPower = eventgraph.StateKey{Type: eventgraph.TypePowerLevels}
	keyTopic = eventgraph.StateKey{Type: "m.room.topic"}
)

func TestSeparateUnconflicted(t *testing.T) {
	a := eventgraph.StateMap{keyPower: "p1"}
	b := eventgraph.StateMap{keyPower: "p1"}

	unconflicted, conflicted := Separate([]eventgraph.StateMap{a, b})
	require.Equal(t, eventgraph.EventID("p1"), unconflicted[keyPower])
	require.Empty(t, conflicted)
}

func TestSeparateConflicted(t *testing.T) {
	a := eventgraph.StateMap{keyTopic: "t1"}
	b := eventgraph.StateMap{keyTopic: "t2"}

	unconflicted, conflicted := Separate([]eventgraph.StateMap{a, b})
	require.Empty(t, unconflicted)
	require.ElementsMatch(t, []eventgraph.EventID{"t1", "t2"}, conflicted[keyTopic])
}

func TestSeparatePartiallyMissingIsConflicted(t *testing.T) {
	a := eventgraph.StateMap{keyTopic: "t1"}
	b := eventgraph.StateMap{}

	unconflicted, conflicted := Separate([]eventgraph.StateMap{a, b})
	require.Empty(t, unconflicted)
	require.Equal(t, []eventgraph.EventID{"t1"}, conflicted[keyTopic])
}

func TestSeparateOrderIndependent(t *testing.T) {
	a := eventgraph.StateMap{keyTopic: "t1", keyPower: "p1"}
	b := eventgraph.StateMap{keyTopic: "t2", keyPower: "p1"}
	c := eventgraph.StateMap{keyTopic: "t1", keyPower: "p1"}

	u1, c1 := Separate([]eventgraph.StateMap{a, b, c})
	u2, c2 := Separate([]eventgraph.StateMap{c, a, b})

	require.Equal(t, u1, u2)
	require.Equal(t, c1, c2)
}
