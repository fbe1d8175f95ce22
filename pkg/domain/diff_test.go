package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		old      *State
		new      *State
		wantDiff *StateDiff // nil means we expect no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &State{
				Meta: Meta{Version: 3},
				Data: map[string]any{"B": 1, "A": 2},
			},
			wantDiff: &StateDiff{
				FromVersion: 0,
				ToVersion:   3,
				Added:       []string{"A", "B"},
			},
		},
		{
			name: "No Changes",
			old: &State{
				Meta: Meta{Version: 3},
				Data: map[string]any{"A": map[string]any{"x": 1}},
			},
			new: &State{
				Meta: Meta{Version: 3},
				Data: map[string]any{"A": map[string]any{"x": 1}},
			},
			wantDiff: nil,
		},
		{
			name: "Version Bump Only",
			old:  &State{Meta: Meta{Version: 75}, Data: map[string]any{}},
			new:  &State{Meta: Meta{Version: 76}, Data: map[string]any{}},
			wantDiff: &StateDiff{
				FromVersion: 75,
				ToVersion:   76,
			},
		},
		{
			name: "Nested Change, Addition and Removal",
			old: &State{
				Meta: Meta{Version: 75},
				Data: map[string]any{
					"PreferencesController": map[string]any{"advancedGasFee": map[string]any{"maxBaseFee": 10}},
					"Legacy":                true,
				},
			},
			new: &State{
				Meta: Meta{Version: 76},
				Data: map[string]any{
					"PreferencesController": map[string]any{"advancedGasFee": map[string]any{"0x5": map[string]any{"maxBaseFee": 10}}},
					"Fresh":                 "yes",
				},
			},
			wantDiff: &StateDiff{
				FromVersion: 75,
				ToVersion:   76,
				Added:       []string{"Fresh"},
				Changed:     []string{"PreferencesController"},
				Removed:     []string{"Legacy"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if diff := cmp.Diff(tt.wantDiff, got); diff != "" {
				t.Errorf("Diff() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiff_NilNew(t *testing.T) {
	if got := Diff(&State{}, nil); got != nil {
		t.Errorf("expected nil diff for nil new state, got %+v", got)
	}
}
