package declarative

import (
	"fmt"
	"strings"

	"github.com/aretw0/statelift/pkg/domain"
	"github.com/aretw0/statelift/pkg/migration"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

type compiledStep struct {
	Step
	path  []string
	to    []string
	guard *vm.Program
}

// Compile turns a validated file into a migration.Transform.
func Compile(f *File) (migration.Transform, error) {
	if err := f.Validate(); err != nil {
		return migration.Transform{}, err
	}

	steps := make([]compiledStep, len(f.Steps))
	for i, s := range f.Steps {
		cs := compiledStep{Step: s, path: splitPath(s.Path)}
		if s.To != "" {
			cs.to = splitPath(s.To)
		}
		if s.When != "" {
			program, err := expr.Compile(s.When, expr.Env(guardEnv(domain.NewState(0), migration.Env{})), expr.AsBool())
			if err != nil {
				return migration.Transform{}, fmt.Errorf("step %d: invalid when expression: %w", i+1, err)
			}
			cs.guard = program
		}
		steps[i] = cs
	}

	return migration.Transform{
		Version:     f.Version,
		Name:        f.Name,
		Description: f.Description,
		Migrate: func(state *domain.State, env migration.Env) (*domain.State, error) {
			for i, s := range steps {
				if err := s.apply(state, env); err != nil {
					return nil, fmt.Errorf("step %d (%s %s): %w", i+1, s.Op, s.Path, err)
				}
			}
			return state, nil
		},
	}, nil
}

func guardEnv(state *domain.State, env migration.Env) map[string]any {
	return map[string]any{
		"data":    state.Data,
		"chainId": env.ChainID,
		"version": state.Meta.Version,
	}
}

func (s compiledStep) apply(state *domain.State, env migration.Env) error {
	if s.guard != nil {
		out, err := expr.Run(s.guard, guardEnv(state, env))
		if err != nil {
			return fmt.Errorf("when: %w", err)
		}
		if ok, _ := out.(bool); !ok {
			return nil
		}
	}

	switch s.Op {
	case OpSet:
		return setPath(state.Data, s.path, normalize(s.Value))
	case OpDelete:
		parent, ok, err := parentOf(state.Data, s.path, false)
		if err != nil || !ok {
			return err
		}
		delete(parent, s.path[len(s.path)-1])
		return nil
	case OpMove:
		parent, ok, err := parentOf(state.Data, s.path, false)
		if err != nil || !ok {
			return err
		}
		key := s.path[len(s.path)-1]
		val, exists := parent[key]
		if !exists {
			return nil
		}
		if err := setPath(state.Data, s.to, val); err != nil {
			return err
		}
		delete(parent, key)
		return nil
	case OpKeyByChain:
		return keyByChain(state.Data, s.path, env.ChainID)
	}
	return fmt.Errorf("unknown op %q", s.Op)
}

func keyByChain(data map[string]any, p []string, chainID string) error {
	parent, ok, err := parentOf(data, p, false)
	if err != nil || !ok {
		return err
	}
	key := p[len(p)-1]
	val, exists := parent[key]
	if !exists || val == nil {
		return nil
	}
	if obj, isObj := val.(map[string]any); isObj && domain.KeyedByChain(obj) {
		return nil
	}
	if chainID == "" {
		return fmt.Errorf("%w: %s is set but no chain identifier is configured", domain.ErrIncompatibleShape, strings.Join(p, "."))
	}
	parent[key] = map[string]any{chainID: val}
	return nil
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "."), ".")
}

// parentOf walks to the object holding the last key of p.
// With create set, missing intermediate objects are created.
func parentOf(data map[string]any, p []string, create bool) (map[string]any, bool, error) {
	cur := data
	for i, key := range p[:len(p)-1] {
		next, exists := cur[key]
		if !exists || next == nil {
			if !create {
				return nil, false, nil
			}
			child := make(map[string]any)
			cur[key] = child
			cur = child
			continue
		}
		obj, ok := next.(map[string]any)
		if !ok {
			return nil, false, fmt.Errorf("%w: %s is %T, want object", domain.ErrIncompatibleShape, strings.Join(p[:i+1], "."), next)
		}
		cur = obj
	}
	return cur, true, nil
}

func setPath(data map[string]any, p []string, val any) error {
	parent, _, err := parentOf(data, p, true)
	if err != nil {
		return err
	}
	parent[p[len(p)-1]] = val
	return nil
}

// normalize converts YAML-decoded values into JSON-compatible ones.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	default:
		return val
	}
}
