// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package eventgraph defines the data model shared by every component of
// the state-resolution engine: events, state keys, state maps, and the
// small set of well-known event types the resolver has to reason about
// (creation, power levels, join rules, membership, third-party invites).
//
// Events are treated as immutable by contract. Nothing in this module
// mutates an Event or a StateMap handed to it by a caller.
package eventgraph

// EventID is an opaque, globally-unique identifier. The resolver never
// interprets its structure; it is only ever compared, hashed, and used to
// look events up through a lookup.Lookup.
type EventID string

// Well-known event types the resolver has specific handling for. Any other
// string is treated as the "Other" catch-all described in the design notes:
// only the common fields (sender, auth events, timestamp) are consulted.
const (
	TypeCreate           = "m.room.create"
	TypePowerLevels      = "m.room.power_levels"
	TypeJoinRules        = "m.room.join_rules"
	TypeMember           = "m.room.member"
	TypeThirdPartyInvite = "m.room.third_party_invite"
)

// Membership is the sub-discriminant carried by m.room.member events.
type Membership string

const (
	MembershipJoin   Membership = "join"
	MembershipLeave  Membership = "leave"
	MembershipBan    Membership = "ban"
	MembershipInvite Membership = "invite"
	MembershipKnock  Membership = "knock"
)

// StateKey is the (type, state_key) pair that a state map is indexed by.
// Equality is structural: two StateKeys are equal iff both fields match.
type StateKey struct {
	Type     string
	StateKey string
}

// StateMap is an injective mapping from StateKey to the event_id that last
// set it. Resolution never mutates a StateMap it was given; it only ever
// produces new ones.
type StateMap map[StateKey]EventID

// Clone returns a shallow copy, so callers can hand out a StateMap without
// handing out a reference an in-progress resolution could mutate.
func (m StateMap) Clone() StateMap {
	out := make(StateMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Event is an immutable record in the event graph. HasStateKey
// distinguishes state events (which may legitimately carry an empty
// StateKey, e.g. m.room.create) from message events, which carry none.
type Event struct {
	ID             EventID
	Type           string
	StateKey       string
	HasStateKey    bool
	Sender         string
	Content        map[string]any
	AuthEvents     []EventID
	OriginServerTS int64
}

// IsState reports whether this event sets room state.
func (e *Event) IsState() bool {
	return e.HasStateKey
}

// Key returns the StateKey this event would bind, if it is a state event.
// Callers must check IsState first; Key on a message event returns its
// type paired with an empty state key, which is not a binding the event
// actually sets.
func (e *Event) Key() StateKey {
	return StateKey{Type: e.Type, StateKey: e.StateKey}
}

// MembershipValue reads content.membership, defaulting to the empty
// Membership when absent or not a string (e.g. on non-Member events).
func (e *Event) MembershipValue() Membership {
	v, ok := e.Content["membership"]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return Membership(s)
}

// IsPowerEvent implements the PowerEvent predicate from the resolution
// specification: Create, PowerLevels and JoinRules are always power events;
// a Member event is a power event only when it revokes someone else's
// presence (a kick or a third-party ban), never a self-leave.
func (e *Event) IsPowerEvent() bool {
	switch {
	case e.Type == TypeCreate && e.StateKey == "":
		return true
	case e.Type == TypePowerLevels && e.StateKey == "":
		return true
	case e.Type == TypeJoinRules && e.StateKey == "":
		return true
	case e.Type == TypeMember:
		m := e.MembershipValue()
		if (m == MembershipLeave || m == MembershipBan) && e.Sender != e.StateKey {
			return true
		}
	}
	return false
}

// CreatorFromContent reads content.creator off a Create event, returning
// ("", false) if absent or not a string.
func (e *Event) CreatorFromContent() (string, bool) {
	v, ok := e.Content["creator"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
