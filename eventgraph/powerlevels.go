// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package eventgraph

import "strconv"

// CoerceInt implements the permissive integer coercion rule power-levels
// content is subject to throughout the resolver (spec.md §4.4, §7
// MalformedPowerLevels): JSON numbers decode as float64, some fixtures
// encode levels as plain Go ints, and anything else that looks numeric is
// parsed from its string form. Anything that cannot be coerced silently
// becomes 0 — malformed power-level data must never fail resolution.
func CoerceInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// UserPowerLevel reads content.users[sender], falling back to
// content.users_default, falling back to 0, from a m.room.power_levels
// event's content. Values are coerced per CoerceInt.
func (e *Event) UserPowerLevel(sender string) int {
	if users, ok := e.Content["users"].(map[string]any); ok {
		if lvl, ok := users[sender]; ok {
			return CoerceInt(lvl)
		}
	}
	if def, ok := e.Content["users_default"]; ok {
		return CoerceInt(def)
	}
	return 0
}
