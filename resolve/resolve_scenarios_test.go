// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/stateres/authz"
	"github.com/luxfi/stateres/eventgraph"
)

var memberKeyFn = func(user string) eventgraph.StateKey {
	return eventgraph.StateKey{Type: eventgraph.TypeMember, StateKey: user}
}

// Scenario A: ban vs re-join race. A ban is a power event and is applied in
// the power pass; the self-rejoin is a non-power event re-authed afterwards
// against the post-ban state, where it is rejected.
func TestScenarioBanVsRejoinRace(t *testing.T) {
	create := event("create", eventgraph.TypeCreate, "", true, "@alice:x", 1)
	create.Content = map[string]any{"creator": "@alice:x"}
	pl := event("pl", eventgraph.TypePowerLevels, "", true, "@alice:x", 2, "create")
	pl.Content = map[string]any{"users": map[string]any{"@alice:x": 100}, "ban": 50, "kick": 50}
	memberAlice := event("m-alice", eventgraph.TypeMember, "@alice:x", true, "@alice:x", 3, "create", "pl")
	memberAlice.Content = map[string]any{"membership": "join"}
	memberBob0 := event("m-bob-0", eventgraph.TypeMember, "@bob:x", true, "@bob:x", 4, "create", "pl")
	memberBob0.Content = map[string]any{"membership": "join"}

	ban := event("ban", eventgraph.TypeMember, "@bob:x", true, "@alice:x", 10, "create", "pl", "m-bob-0", "m-alice")
	ban.Content = map[string]any{"membership": "ban"}

	rejoin := event("rejoin", eventgraph.TypeMember, "@bob:x", true, "@bob:x", 11, "create", "pl", "m-bob-0")
	rejoin.Content = map[string]any{"membership": "join"}

	lu := newLookup(create, pl, memberAlice, memberBob0, ban, rejoin)

	forkBan := eventgraph.StateMap{
		{Type: eventgraph.TypeCreate}:      "create",
		{Type: eventgraph.TypePowerLevels}: "pl",
		memberKeyFn("@alice:x"):            "m-alice",
		memberKeyFn("@bob:x"):              "ban",
	}
	forkRejoin := eventgraph.StateMap{
		{Type: eventgraph.TypeCreate}:      "create",
		{Type: eventgraph.TypePowerLevels}: "pl",
		memberKeyFn("@alice:x"):            "m-alice",
		memberKeyFn("@bob:x"):              "rejoin",
	}

	resolved, err := Resolve([]eventgraph.StateMap{forkBan, forkRejoin}, lu, authz.Reference{})
	require.NoError(t, err)
	require.Equal(t, eventgraph.EventID("ban"), resolved[memberKeyFn("@bob:x")],
		"the ban is a power event and wins; the rejoin is rejected against the post-ban state")
}

// Scenario B: competing topic changes. Both are non-power events at equal
// mainline depth; the later origin_server_ts is processed last and wins.
func TestScenarioCompetingTopicChanges(t *testing.T) {
	create := event("create", eventgraph.TypeCreate, "", true, "@alice:x", 1)
	create.Content = map[string]any{"creator": "@alice:x"}
	pl := event("pl", eventgraph.TypePowerLevels, "", true, "@alice:x", 2, "create")
	pl.Content = map[string]any{"users": map[string]any{"@alice:x": 100, "@bob:x": 50}}
	memberBob := event("m-bob", eventgraph.TypeMember, "@bob:x", true, "@bob:x", 3, "create", "pl")
	memberBob.Content = map[string]any{"membership": "join"}

	topicX := event("topic-x", "m.room.topic", "", true, "@bob:x", 100, "create", "pl", "m-bob")
	topicY := event("topic-y", "m.room.topic", "", true, "@bob:x", 200, "create", "pl", "m-bob")

	lu := newLookup(create, pl, memberBob, topicX, topicY)
	topicKey := eventgraph.StateKey{Type: "m.room.topic"}

	forkX := eventgraph.StateMap{
		{Type: eventgraph.TypeCreate}:      "create",
		{Type: eventgraph.TypePowerLevels}: "pl",
		memberKeyFn("@bob:x"):              "m-bob",
		topicKey:                           "topic-x",
	}
	forkY := eventgraph.StateMap{
		{Type: eventgraph.TypeCreate}:      "create",
		{Type: eventgraph.TypePowerLevels}: "pl",
		memberKeyFn("@bob:x"):              "m-bob",
		topicKey:                           "topic-y",
	}

	resolved, err := Resolve([]eventgraph.StateMap{forkX, forkY}, lu, authz.Reference{})
	require.NoError(t, err)
	require.Equal(t, eventgraph.EventID("topic-y"), resolved[topicKey], "later ts wins between equal-depth non-power events")
}

// Scenario C: a power-level raise orders before a message that depends on
// the raised level, so the dependent event is accepted in the leftover pass.
func TestScenarioPowerRaiseThenMessage(t *testing.T) {
	create := event("create", eventgraph.TypeCreate, "", true, "@alice:x", 1)
	create.Content = map[string]any{"creator": "@alice:x"}
	pl0 := event("pl0", eventgraph.TypePowerLevels, "", true, "@alice:x", 2, "create")
	pl0.Content = map[string]any{"users": map[string]any{"@alice:x": 100}, "events": map[string]any{"m.room.name": 75}}
	memberBob := event("m-bob", eventgraph.TypeMember, "@bob:x", true, "@bob:x", 3, "create", "pl0")
	memberBob.Content = map[string]any{"membership": "join"}

	raise := event("raise", eventgraph.TypePowerLevels, "", true, "@alice:x", 10, "create", "pl0")
	raise.Content = map[string]any{
		"users":  map[string]any{"@alice:x": 100, "@bob:x": 100},
		"events": map[string]any{"m.room.name": 75},
	}

	name := event("name", "m.room.name", "", true, "@bob:x", 11, "create", "pl0", "m-bob")
	name.Content = map[string]any{"name": "new name"}

	lu := newLookup(create, pl0, memberBob, raise, name)

	forkRaise := eventgraph.StateMap{
		{Type: eventgraph.TypeCreate}:      "create",
		{Type: eventgraph.TypePowerLevels}: "raise",
		memberKeyFn("@bob:x"):              "m-bob",
	}
	forkName := eventgraph.StateMap{
		{Type: eventgraph.TypeCreate}:      "create",
		{Type: eventgraph.TypePowerLevels}: "pl0",
		memberKeyFn("@bob:x"):              "m-bob",
		{Type: "m.room.name"}:              "name",
	}

	resolved, err := Resolve([]eventgraph.StateMap{forkRaise, forkName}, lu, authz.Reference{})
	require.NoError(t, err)
	require.Equal(t, eventgraph.EventID("raise"), resolved[eventgraph.StateKey{Type: eventgraph.TypePowerLevels}])
	require.Equal(t, eventgraph.EventID("name"), resolved[eventgraph.StateKey{Type: "m.room.name"}],
		"bob's raised power level (applied in the power pass) authorizes the name change in the leftover pass")
}

// Scenario D: conflicting PowerLevels events from an equally-powerful
// sender. The documented tiebreak orders by (sender-power, ts, id); since
// both raises are accepted, processing order determines the final winner.
func TestScenarioConflictingPowerLevels(t *testing.T) {
	create := event("create", eventgraph.TypeCreate, "", true, "@alice:x", 1)
	create.Content = map[string]any{"creator": "@alice:x"}
	pl0 := event("pl0", eventgraph.TypePowerLevels, "", true, "@alice:x", 2, "create")
	pl0.Content = map[string]any{"users": map[string]any{"@alice:x": 100}}

	raise50 := event("raise50", eventgraph.TypePowerLevels, "", true, "@alice:x", 10, "create", "pl0")
	raise50.Content = map[string]any{"users": map[string]any{"@alice:x": 100, "@bob:x": 50}}

	raise75 := event("raise75", eventgraph.TypePowerLevels, "", true, "@alice:x", 20, "create", "pl0")
	raise75.Content = map[string]any{"users": map[string]any{"@alice:x": 100, "@bob:x": 75}}

	lu := newLookup(create, pl0, raise50, raise75)

	order, err := PowerOrder([]eventgraph.EventID{"raise75", "raise50"}, nil, lu)
	require.NoError(t, err)
	require.Equal(t, []eventgraph.EventID{"raise50", "raise75"}, order, "equal sender power ties break on earlier ts")

	forkLow := eventgraph.StateMap{
		{Type: eventgraph.TypeCreate}:      "create",
		{Type: eventgraph.TypePowerLevels}: "raise50",
	}
	forkHigh := eventgraph.StateMap{
		{Type: eventgraph.TypeCreate}:      "create",
		{Type: eventgraph.TypePowerLevels}: "raise75",
	}
	resolved, err := Resolve([]eventgraph.StateMap{forkLow, forkHigh}, lu, authz.Reference{})
	require.NoError(t, err)
	require.Equal(t, eventgraph.EventID("raise75"), resolved[eventgraph.StateKey{Type: eventgraph.TypePowerLevels}],
		"both raises are authorized by alice's unchanged level 100; the one processed last (later ts) is the final binding")
}

// Scenario E: a key identical across every state set is carried through
// verbatim no matter what else is in conflict.
func TestScenarioUnconflictedCarryThrough(t *testing.T) {
	create := event("create", eventgraph.TypeCreate, "", true, "@alice:x", 1)
	create.Content = map[string]any{"creator": "@alice:x"}
	joinRules := event("jr", eventgraph.TypeJoinRules, "", true, "@alice:x", 2, "create")
	joinRules.Content = map[string]any{"join_rule": "invite"}
	topicA := event("topic-a", "m.room.topic", "", true, "@alice:x", 3, "create")
	topicB := event("topic-b", "m.room.topic", "", true, "@alice:x", 4, "create")
	topicC := event("topic-c", "m.room.topic", "", true, "@alice:x", 5, "create")

	lu := newLookup(create, joinRules, topicA, topicB, topicC)
	topicKey := eventgraph.StateKey{Type: "m.room.topic"}
	jrKey := eventgraph.StateKey{Type: eventgraph.TypeJoinRules}

	set1 := eventgraph.StateMap{jrKey: "jr", topicKey: "topic-a"}
	set2 := eventgraph.StateMap{jrKey: "jr", topicKey: "topic-b"}
	set3 := eventgraph.StateMap{jrKey: "jr", topicKey: "topic-c"}

	resolved, err := Resolve([]eventgraph.StateMap{set1, set2, set3}, lu, authz.Reference{})
	require.NoError(t, err)
	require.Equal(t, eventgraph.EventID("jr"), resolved[jrKey], "identical across all three sets, carried through regardless of the topic conflict")
}

// Scenario F: an event present in two of three auth chains but not the
// third appears in the auth diff and is re-checked, while a genuinely
// unconflicted Member binding survives untouched.
func TestScenarioAuthChainDiffWithoutKeyConflict(t *testing.T) {
	create := event("create", eventgraph.TypeCreate, "", true, "@alice:x", 1)
	create.Content = map[string]any{"creator": "@alice:x"}
	pl := event("pl", eventgraph.TypePowerLevels, "", true, "@alice:x", 2, "create")
	pl.Content = map[string]any{"users": map[string]any{"@alice:x": 100}}
	memberAlice := event("m-alice", eventgraph.TypeMember, "@alice:x", true, "@alice:x", 3, "create", "pl")
	memberAlice.Content = map[string]any{"membership": "join"}
	memberCarol := event("m-carol", eventgraph.TypeMember, "@carol:x", true, "@carol:x", 3, "create", "pl")
	memberCarol.Content = map[string]any{"membership": "join"}

	// Two branches invite dave via different, independently-authored
	// invite events (same logical outcome, distinct event_ids), so dave's
	// membership sits in two of the three chains but not the third.
	inviteDave1 := event("invite-dave-1", eventgraph.TypeMember, "@dave:x", true, "@alice:x", 4, "create", "pl", "m-carol", "m-alice")
	inviteDave1.Content = map[string]any{"membership": "invite"}
	inviteDave2 := event("invite-dave-2", eventgraph.TypeMember, "@dave:x", true, "@alice:x", 5, "create", "pl", "m-carol", "m-alice")
	inviteDave2.Content = map[string]any{"membership": "invite"}

	lu := newLookup(create, pl, memberAlice, memberCarol, inviteDave1, inviteDave2)
	carolKey := memberKeyFn("@carol:x")
	daveKey := memberKeyFn("@dave:x")

	set1 := eventgraph.StateMap{
		{Type: eventgraph.TypeCreate}: "create", {Type: eventgraph.TypePowerLevels}: "pl",
		carolKey: "m-carol", daveKey: "invite-dave-1",
	}
	set2 := eventgraph.StateMap{
		{Type: eventgraph.TypeCreate}: "create", {Type: eventgraph.TypePowerLevels}: "pl",
		carolKey: "m-carol", daveKey: "invite-dave-1",
	}
	set3 := eventgraph.StateMap{
		{Type: eventgraph.TypeCreate}: "create", {Type: eventgraph.TypePowerLevels}: "pl",
		carolKey: "m-carol", daveKey: "invite-dave-2",
	}

	diff, err := AuthChainDifference([]eventgraph.StateMap{set1, set2, set3}, lu, 0)
	require.NoError(t, err)
	require.Contains(t, diff, eventgraph.EventID("invite-dave-1"))
	require.Contains(t, diff, eventgraph.EventID("invite-dave-2"))
	require.NotContains(t, diff, eventgraph.EventID("m-carol"), "identical across all three chains")

	resolved, err := Resolve([]eventgraph.StateMap{set1, set2, set3}, lu, authz.Reference{})
	require.NoError(t, err)
	require.Equal(t, eventgraph.EventID("m-carol"), resolved[carolKey], "consensus Member binding survives untouched")
}

// A third-party invite binding that differs across branches pulls its own
// history into the auth-chain difference the same way a Member binding
// does, since isAuthRelevantKey treats both types as auth-relevant.
func TestAuthChainDifferenceThirdPartyInviteParticipates(t *testing.T) {
	create := event("create", eventgraph.TypeCreate, "", true, "@alice:x", 1)
	create.Content = map[string]any{"creator": "@alice:x"}
	pl := event("pl", eventgraph.TypePowerLevels, "", true, "@alice:x", 2, "create")

	invite1 := event("tpi-1", eventgraph.TypeThirdPartyInvite, "token-1", true, "@alice:x", 3, "create", "pl")
	invite2 := event("tpi-2", eventgraph.TypeThirdPartyInvite, "token-2", true, "@alice:x", 4, "create", "pl")

	lu := newLookup(create, pl, invite1, invite2)
	tpiKey := func(token string) eventgraph.StateKey {
		return eventgraph.StateKey{Type: eventgraph.TypeThirdPartyInvite, StateKey: token}
	}

	a := eventgraph.StateMap{tpiKey("token-1"): "tpi-1"}
	b := eventgraph.StateMap{tpiKey("token-2"): "tpi-2"}

	diff, err := AuthChainDifference([]eventgraph.StateMap{a, b}, lu, 0)
	require.NoError(t, err)
	require.Contains(t, diff, eventgraph.EventID("tpi-1"))
	require.Contains(t, diff, eventgraph.EventID("tpi-2"))
}

// Scenario G: two branches that agree on their shared keys and each add a
// key the other lacks (a union rather than a conflict). Each added key is
// "conflicted" under Separate's missing-in-one-set rule, but since each has
// a single candidate, normal iterative auth admits both into the final
// state rather than dropping either.
func TestScenarioDisjointStateSetsUnion(t *testing.T) {
	create := event("create", eventgraph.TypeCreate, "", true, "@alice:x", 1)
	create.Content = map[string]any{"creator": "@alice:x"}
	pl := event("pl", eventgraph.TypePowerLevels, "", true, "@alice:x", 2, "create")
	pl.Content = map[string]any{"users": map[string]any{"@alice:x": 100}}
	memberAlice := event("m-alice", eventgraph.TypeMember, "@alice:x", true, "@alice:x", 3, "create", "pl")
	memberAlice.Content = map[string]any{"membership": "join"}

	topic := event("topic", "m.room.topic", "", true, "@alice:x", 4, "create", "pl", "m-alice")
	name := event("name", "m.room.name", "", true, "@alice:x", 5, "create", "pl", "m-alice")

	lu := newLookup(create, pl, memberAlice, topic, name)
	topicKey := eventgraph.StateKey{Type: "m.room.topic"}
	nameKey := eventgraph.StateKey{Type: "m.room.name"}

	onlyTopic := eventgraph.StateMap{
		{Type: eventgraph.TypeCreate}: "create", {Type: eventgraph.TypePowerLevels}: "pl",
		memberKeyFn("@alice:x"): "m-alice", topicKey: "topic",
	}
	onlyName := eventgraph.StateMap{
		{Type: eventgraph.TypeCreate}: "create", {Type: eventgraph.TypePowerLevels}: "pl",
		memberKeyFn("@alice:x"): "m-alice", nameKey: "name",
	}

	resolved, err := Resolve([]eventgraph.StateMap{onlyTopic, onlyName}, lu, authz.Reference{})
	require.NoError(t, err)
	require.Equal(t, eventgraph.EventID("topic"), resolved[topicKey], "present in only one branch, but still admitted")
	require.Equal(t, eventgraph.EventID("name"), resolved[nameKey], "present in only the other branch, still admitted")
}
