package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Meta holds the bookkeeping fields of a persisted state.
type Meta struct {
	// Version is the target version of the last applied transform.
	// An absent version decodes as 0 and 0 encodes as absent.
	Version int `json:"version,omitempty"`
}

// State is the persisted wallet document threaded through the migrations.
type State struct {
	Meta Meta `json:"meta"`

	// Data maps a controller name to that controller's persisted structure.
	Data map[string]any `json:"data"`
}

// NewState creates an empty state at the given version.
func NewState(version int) *State {
	return &State{
		Meta: Meta{Version: version},
		Data: make(map[string]any),
	}
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	return &State{
		Meta: s.Meta,
		Data: CopyMap(s.Data),
	}
}

// Decode reads a state document from r.
// Numbers are kept as json.Number so they round-trip without loss.
func Decode(r io.Reader) (*State, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var state State
	if err := dec.Decode(&state); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	if state.Data == nil {
		state.Data = make(map[string]any)
	}
	return &state, nil
}

// Unmarshal decodes a state document from raw bytes.
func Unmarshal(data []byte) (*State, error) {
	return Decode(bytes.NewReader(data))
}

// CopyMap deep copies a JSON-like map.
func CopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		return val
	}
}
