// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fixture loads graph-description test scenarios from YAML, the
// Go equivalent of the Python original's INITIAL_EVENTS-style harness
// (check_resolution.py): a flat list of named events plus a set of
// candidate state sets referencing those names by id. It is used by its own
// tests and by cmd/stateres-resolve; the resolve package and its scenario
// tests do not import it.
package fixture

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/luxfi/stateres/eventgraph"
	"github.com/luxfi/stateres/internal/bagutil"
	"github.com/luxfi/stateres/lookup"
)

// EventSpec is one event in a scenario's event list.
type EventSpec struct {
	ID       string         `yaml:"id"`
	Type     string         `yaml:"type"`
	StateKey *string        `yaml:"state_key"`
	Sender   string         `yaml:"sender"`
	Content  map[string]any `yaml:"content"`
	Auth     []string       `yaml:"auth"`
	TS       int64          `yaml:"ts"`
}

// Scenario is a full test fixture: the event pool, the candidate state
// sets to resolve, and the expected result.
type Scenario struct {
	Name      string              `yaml:"name"`
	Events    []EventSpec         `yaml:"events"`
	StateSets [][]string          `yaml:"state_sets"`
	Expected  map[string]string   `yaml:"expected"`
}

// Parse decodes a single YAML scenario document.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("fixture: parse %w", err)
	}
	return &s, nil
}

// stateKeyName encodes a StateKey the same way Scenario.Expected's map
// keys do: "type" for the empty state key, "type/state_key" otherwise.
func stateKeyName(k eventgraph.StateKey) string {
	if k.StateKey == "" {
		return k.Type
	}
	return k.Type + "/" + k.StateKey
}

// Build materializes a Scenario into a lookup.Map, the candidate state
// sets it names, and the expected resolved state map, resolving each
// event's own state key implicitly from its Type/StateKey fields.
func Build(s *Scenario) (lu lookup.Map, stateSets []eventgraph.StateMap, expected eventgraph.StateMap, err error) {
	lu = make(lookup.Map, len(s.Events))
	byName := make(map[string]*eventgraph.Event, len(s.Events))

	for _, spec := range s.Events {
		e := &eventgraph.Event{
			ID:             eventgraph.EventID(spec.ID),
			Type:           spec.Type,
			Sender:         spec.Sender,
			Content:        spec.Content,
			OriginServerTS: spec.TS,
		}
		if spec.StateKey != nil {
			e.HasStateKey = true
			e.StateKey = *spec.StateKey
		}
		for _, a := range spec.Auth {
			e.AuthEvents = append(e.AuthEvents, eventgraph.EventID(a))
		}
		lu[e.ID] = e
		byName[spec.ID] = e
	}

	for _, names := range s.StateSets {
		sm := make(eventgraph.StateMap, len(names))
		for _, name := range names {
			e, ok := byName[name]
			if !ok {
				return nil, nil, nil, fmt.Errorf("fixture: state set references unknown event %q", name)
			}
			if !e.IsState() {
				return nil, nil, nil, fmt.Errorf("fixture: state set references non-state event %q", name)
			}
			sm[e.Key()] = e.ID
		}
		stateSets = append(stateSets, sm)
	}

	expected = make(eventgraph.StateMap, len(s.Expected))
	for keyName, eventName := range s.Expected {
		e, ok := byName[eventName]
		if !ok {
			return nil, nil, nil, fmt.Errorf("fixture: expected references unknown event %q", eventName)
		}
		if got := stateKeyName(e.Key()); got != keyName {
			return nil, nil, nil, fmt.Errorf("fixture: expected key %q does not match %q's own key %q", keyName, eventName, got)
		}
		expected[e.Key()] = e.ID
	}

	return lu, stateSets, expected, nil
}

// Diff reports every StateKey where got disagrees with want, as a
// (want, got) pair. It also tallies the offending event ids in a
// bagutil.Bag, but that tally is not returned; callers see only the
// per-key mismatches.
func Diff(want, got eventgraph.StateMap) map[eventgraph.StateKey][2]eventgraph.EventID {
	mismatches := make(map[eventgraph.StateKey][2]eventgraph.EventID)
	offenders := bagutil.New[eventgraph.EventID]()

	for k, wv := range want {
		gv := got[k]
		if gv != wv {
			mismatches[k] = [2]eventgraph.EventID{wv, gv}
			offenders.Add(gv)
		}
	}
	for k, gv := range got {
		if _, ok := want[k]; !ok {
			mismatches[k] = [2]eventgraph.EventID{"", gv}
			offenders.Add(gv)
		}
	}
	return mismatches
}
