package domain

import (
	"reflect"
	"sort"
)

// StateDiff represents the changes between two states.
// It is designed to be serialized to JSON for dry-run reports.
type StateDiff struct {
	// FromVersion and ToVersion are always present.
	FromVersion int `json:"from_version"`
	ToVersion   int `json:"to_version"`

	// Added lists controllers present only in the new state.
	Added []string `json:"added,omitempty"`

	// Changed lists controllers present in both states whose content differs.
	Changed []string `json:"changed,omitempty"`

	// Removed lists controllers present only in the old state.
	Removed []string `json:"removed,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, every controller of newState is reported as added.
// It returns nil when the states are equivalent.
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{
		ToVersion: newState.Meta.Version,
	}

	var oldData map[string]any
	if oldState != nil {
		diff.FromVersion = oldState.Meta.Version
		oldData = oldState.Data
	}

	for name, newVal := range newState.Data {
		oldVal, exists := oldData[name]
		switch {
		case !exists:
			diff.Added = append(diff.Added, name)
		case !reflect.DeepEqual(oldVal, newVal):
			diff.Changed = append(diff.Changed, name)
		}
	}

	for name := range oldData {
		if _, exists := newState.Data[name]; !exists {
			diff.Removed = append(diff.Removed, name)
		}
	}

	if diff.IsEmpty() {
		return nil
	}

	sort.Strings(diff.Added)
	sort.Strings(diff.Changed)
	sort.Strings(diff.Removed)
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.FromVersion == d.ToVersion &&
		len(d.Added) == 0 &&
		len(d.Changed) == 0 &&
		len(d.Removed) == 0
}
