package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/statelift/pkg/domain"
	"github.com/aretw0/statelift/pkg/ports"
)

// Mask is the replacement written over redacted values.
const Mask = "***"

// Redactor masks values whose keys match any of its patterns.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor compiles the key patterns.
func NewRedactor(patterns []string) (*Redactor, error) {
	r := &Redactor{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}
	return r, nil
}

// Apply returns a masked deep copy of state. The input is not modified.
func (r *Redactor) Apply(state *domain.State) *domain.State {
	out := state.Clone()
	r.maskMap(out.Data)
	return out
}

func (r *Redactor) matches(key string) bool {
	for _, p := range r.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

func (r *Redactor) maskMap(m map[string]any) {
	for k, v := range m {
		if r.matches(k) {
			m[k] = Mask
			continue
		}
		r.maskValue(v)
	}
}

func (r *Redactor) maskValue(v any) {
	switch t := v.(type) {
	case map[string]any:
		r.maskMap(t)
	case []any:
		for _, item := range t {
			r.maskValue(item)
		}
	}
}

type redactMiddleware struct {
	next     ports.StateStore
	redactor *Redactor
}

// NewRedactMiddleware creates a middleware that masks values of keys matching the patterns on Save.
// Masked values are not recoverable; use it for stores that hold shareable copies.
func NewRedactMiddleware(patterns []string) (Middleware, error) {
	r, err := NewRedactor(patterns)
	if err != nil {
		return nil, err
	}
	return func(next ports.StateStore) ports.StateStore {
		return &redactMiddleware{next: next, redactor: r}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, id string, state *domain.State) error {
	return m.next.Save(ctx, id, m.redactor.Apply(state))
}

func (m *redactMiddleware) Load(ctx context.Context, id string) (*domain.State, error) {
	return m.next.Load(ctx, id)
}

func (m *redactMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
