package domain

import (
	"fmt"
	"strings"
)

// Field looks up key in m and asserts its type.
// ok is false when the key is missing or holds null.
// A value of another type yields an error wrapping ErrIncompatibleShape.
func Field[T any](m map[string]any, key string) (v T, ok bool, err error) {
	raw, exists := m[key]
	if !exists || raw == nil {
		return v, false, nil
	}

	v, ok = raw.(T)
	if !ok {
		return v, false, fmt.Errorf("%w: field %q is %T, want %T", ErrIncompatibleShape, key, raw, v)
	}
	return v, true, nil
}

// Controller returns the persisted structure of the named controller.
func (s *State) Controller(name string) (map[string]any, bool, error) {
	if s == nil || s.Data == nil {
		return nil, false, nil
	}
	return Field[map[string]any](s.Data, name)
}

// Path walks a sequence of object keys starting at the state's data.
// It stops with ok=false at the first missing key.
func (s *State) Path(keys ...string) (any, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	var cur any = s.Data
	for i, key := range keys {
		obj, isObj := cur.(map[string]any)
		if !isObj {
			return nil, false, fmt.Errorf("%w: %v is %T, want object", ErrIncompatibleShape, keys[:i], cur)
		}
		next, exists := obj[key]
		if !exists || next == nil {
			return nil, false, nil
		}
		cur = next
	}
	return cur, true, nil
}

// KeyedByChain reports whether every key of m is a hex chain identifier
// holding an object, i.e. m is already a per-chain mapping.
func KeyedByChain(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for k, v := range m {
		if !strings.HasPrefix(k, "0x") {
			return false
		}
		if _, ok := v.(map[string]any); !ok {
			return false
		}
	}
	return true
}
