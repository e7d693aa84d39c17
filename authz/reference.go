// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package authz

import (
	"fmt"

	"github.com/luxfi/stateres/eventgraph"
)

var (
	createKey    = eventgraph.StateKey{Type: eventgraph.TypeCreate, StateKey: ""}
	powerKey     = eventgraph.StateKey{Type: eventgraph.TypePowerLevels, StateKey: ""}
	joinRuleKey  = eventgraph.StateKey{Type: eventgraph.TypeJoinRules, StateKey: ""}
	defaultBan   = 50
	defaultKick  = 50
	defaultInv   = 0
	defaultState = 50
	defaultEvent = 0
)

func memberKey(userID string) eventgraph.StateKey {
	return eventgraph.StateKey{Type: eventgraph.TypeMember, StateKey: userID}
}

// Reference is a simplified, deterministic reimplementation of the Matrix
// room-version auth rules (Synapse's event_auth.check, stripped of
// signature/size checks per spec.md §4.5's "explicitly disabled in this
// context"). It exists so the resolver is exercisable end to end without
// requiring callers to bring their own policy; production deployments are
// expected to inject their own room-version-accurate Policy.
type Reference struct{}

var _ Policy = Reference{}

// AuthTypeKeys implements Policy.
func (Reference) AuthTypeKeys(e *eventgraph.Event) []eventgraph.StateKey {
	switch e.Type {
	case eventgraph.TypeCreate:
		return nil
	case eventgraph.TypeMember:
		keys := []eventgraph.StateKey{createKey, powerKey, joinRuleKey, memberKey(e.StateKey)}
		if e.Sender != e.StateKey {
			keys = append(keys, memberKey(e.Sender))
		}
		return keys
	default:
		return []eventgraph.StateKey{createKey, powerKey, memberKey(e.Sender)}
	}
}

// Authorize implements Policy.
func (Reference) Authorize(e *eventgraph.Event, auth Table) error {
	switch e.Type {
	case eventgraph.TypeCreate:
		return authorizeCreate(e, auth)
	case eventgraph.TypeMember:
		return authorizeMember(e, auth)
	case eventgraph.TypePowerLevels:
		return authorizeLeveledState(e, auth, func(pl *eventgraph.Event) int {
			return eventLevel(pl, eventgraph.TypePowerLevels)
		})
	case eventgraph.TypeJoinRules:
		return authorizeLeveledState(e, auth, func(pl *eventgraph.Event) int {
			return eventLevel(pl, eventgraph.TypeJoinRules)
		})
	default:
		return authorizeDefault(e, auth)
	}
}

func reject(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrRejected}, args...)...)
}

func authorizeCreate(e *eventgraph.Event, auth Table) error {
	if _, exists := auth[createKey]; exists {
		return reject("room already has a create event")
	}
	if !e.IsState() || e.StateKey != "" {
		return reject("create event must have an empty state key")
	}
	return nil
}

// eventLevel reads the level required to send the state event type
// eventType, falling back from the per-type "events" map to
// "state_default", per CoerceInt's permissive rule. messageLevel is the
// message-event counterpart, which falls back to "events_default".
func eventLevel(pl *eventgraph.Event, eventType string) int {
	if pl == nil {
		return defaultState
	}
	if events, ok := pl.Content["events"].(map[string]any); ok {
		if lvl, ok := events[eventType]; ok {
			return eventgraph.CoerceInt(lvl)
		}
	}
	if v, ok := pl.Content["state_default"]; ok {
		return eventgraph.CoerceInt(v)
	}
	return defaultState
}

func messageLevel(pl *eventgraph.Event, eventType string) int {
	if pl == nil {
		return defaultEvent
	}
	if events, ok := pl.Content["events"].(map[string]any); ok {
		if lvl, ok := events[eventType]; ok {
			return eventgraph.CoerceInt(lvl)
		}
	}
	if v, ok := pl.Content["events_default"]; ok {
		return eventgraph.CoerceInt(v)
	}
	return defaultEvent
}

func levelOf(pl *eventgraph.Event, key string, fallback int) int {
	if pl == nil {
		return fallback
	}
	if v, ok := pl.Content[key]; ok {
		return eventgraph.CoerceInt(v)
	}
	return fallback
}

func senderLevel(pl *eventgraph.Event, sender string) int {
	if pl == nil {
		return 0
	}
	return pl.UserPowerLevel(sender)
}

// senderLevelOrCreator is senderLevel, except that when no PowerLevels
// event is in scope yet it falls back to the room creator's implicit
// level 100 — the same bootstrap rule spec.md's power_of_sender uses, so
// a room's very first PowerLevels event can authorize itself.
func senderLevelOrCreator(pl *eventgraph.Event, auth Table, sender string) int {
	if pl != nil {
		return pl.UserPowerLevel(sender)
	}
	if create, ok := auth[createKey]; ok {
		if creator, ok := create.CreatorFromContent(); ok && creator == sender {
			return 100
		}
	}
	return 0
}

func authorizeLeveledState(e *eventgraph.Event, auth Table, required func(*eventgraph.Event) int) error {
	pl := auth[powerKey]
	level := senderLevelOrCreator(pl, auth, e.Sender)
	if level < required(pl) {
		return reject("sender %q at level %d cannot send %s", e.Sender, level, e.Type)
	}
	return nil
}

func authorizeDefault(e *eventgraph.Event, auth Table) error {
	pl := auth[powerKey]
	member := auth[memberKey(e.Sender)]
	if member == nil || member.MembershipValue() != eventgraph.MembershipJoin {
		return reject("sender %q is not joined", e.Sender)
	}
	level := senderLevelOrCreator(pl, auth, e.Sender)
	var required int
	if e.IsState() {
		required = eventLevel(pl, e.Type)
	} else {
		required = messageLevel(pl, e.Type)
	}
	if level < required {
		return reject("sender %q at level %d cannot send %s (needs %d)", e.Sender, level, e.Type, required)
	}
	return nil
}

func authorizeMember(e *eventgraph.Event, auth Table) error {
	target := e.StateKey
	newMembership := e.MembershipValue()
	old := auth[memberKey(target)]
	oldMembership := eventgraph.Membership("leave")
	if old != nil {
		oldMembership = old.MembershipValue()
		if oldMembership == "" {
			oldMembership = eventgraph.MembershipLeave
		}
	}
	pl := auth[powerKey]
	jr := auth[joinRuleKey]
	joinRule := "invite"
	if jr != nil {
		if v, ok := jr.Content["join_rule"].(string); ok {
			joinRule = v
		}
	}

	if e.Sender == target {
		switch newMembership {
		case eventgraph.MembershipJoin:
			if oldMembership == eventgraph.MembershipLeave && joinRule == "public" {
				return nil
			}
			if oldMembership == eventgraph.MembershipInvite {
				return nil
			}
			if oldMembership == eventgraph.MembershipJoin {
				return nil
			}
		case eventgraph.MembershipLeave:
			if oldMembership == eventgraph.MembershipJoin || oldMembership == eventgraph.MembershipInvite {
				return nil
			}
		}
		return reject("%q cannot change their own membership from %q to %q", e.Sender, oldMembership, newMembership)
	}

	sender := auth[memberKey(e.Sender)]
	if sender == nil || sender.MembershipValue() != eventgraph.MembershipJoin {
		return reject("sender %q is not in the room", e.Sender)
	}

	sLevel := senderLevel(pl, e.Sender)
	tLevel := senderLevel(pl, target)
	banLevel := levelOf(pl, "ban", defaultBan)
	kickLevel := levelOf(pl, "kick", defaultKick)
	inviteLevel := levelOf(pl, "invite", defaultInv)

	switch newMembership {
	case eventgraph.MembershipBan:
		if sLevel >= banLevel && sLevel > tLevel {
			return nil
		}
	case eventgraph.MembershipLeave:
		if oldMembership == eventgraph.MembershipBan {
			if sLevel >= banLevel {
				return nil
			}
		} else if sLevel >= kickLevel && sLevel > tLevel {
			return nil
		}
	case eventgraph.MembershipInvite:
		if oldMembership == eventgraph.MembershipLeave || oldMembership == eventgraph.MembershipInvite {
			if sLevel >= inviteLevel {
				return nil
			}
		}
	}
	return reject("%q at level %d cannot change %q's membership from %q to %q", e.Sender, sLevel, target, oldMembership, newMembership)
}
