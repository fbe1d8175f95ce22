package migration

import (
	"fmt"
	"sort"

	"github.com/aretw0/statelift/pkg/domain"
)

// TransformFunc maps a state to its shape at the transform's target version.
// The runner always hands it a private copy, so it may edit the state in place.
// It must not touch Meta.Version; the runner records the version.
type TransformFunc func(state *domain.State, env Env) (*domain.State, error)

// Transform upgrades a state to exactly one target version.
type Transform struct {
	// Version is the version this transform upgrades to.
	Version     int
	Name        string
	Description string
	Migrate     TransformFunc
}

// Registry is the ordered catalogue of transforms.
// It is immutable once built and safe for concurrent use.
type Registry struct {
	transforms []Transform
}

// NewRegistry validates the transforms and sorts them by ascending version.
// Duplicate versions, versions below 1 and nil functions are rejected.
func NewRegistry(transforms ...Transform) (*Registry, error) {
	sorted := make([]Transform, len(transforms))
	copy(sorted, transforms)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Version < sorted[j].Version
	})

	for i, t := range sorted {
		if t.Version < 1 {
			return nil, fmt.Errorf("%w: transform %q has version %d", domain.ErrInvalidRegistry, t.Name, t.Version)
		}
		if t.Migrate == nil {
			return nil, fmt.Errorf("%w: transform %d (%s) has no migrate function", domain.ErrInvalidRegistry, t.Version, t.Name)
		}
		if i > 0 && sorted[i-1].Version == t.Version {
			return nil, fmt.Errorf("%w: duplicate version %d (%s, %s)", domain.ErrInvalidRegistry, t.Version, sorted[i-1].Name, t.Name)
		}
	}

	return &Registry{transforms: sorted}, nil
}

// MustRegistry is like NewRegistry but panics on an invalid set.
// It is intended for package-level registries built from literals.
func MustRegistry(transforms ...Transform) *Registry {
	reg, err := NewRegistry(transforms...)
	if err != nil {
		panic(err)
	}
	return reg
}

// Merge returns a new registry holding the transforms of both registries.
func (r *Registry) Merge(other *Registry) (*Registry, error) {
	if other == nil {
		return r, nil
	}
	all := append(r.Transforms(), other.transforms...)
	return NewRegistry(all...)
}

// Transforms returns a copy of the ordered transforms.
func (r *Registry) Transforms() []Transform {
	out := make([]Transform, len(r.transforms))
	copy(out, r.transforms)
	return out
}

// Len returns the number of registered transforms.
func (r *Registry) Len() int {
	return len(r.transforms)
}

// Latest returns the newest version known to the registry, or 0 when empty.
func (r *Registry) Latest() int {
	if len(r.transforms) == 0 {
		return 0
	}
	return r.transforms[len(r.transforms)-1].Version
}

// Lookup returns the transform targeting the given version.
func (r *Registry) Lookup(version int) (Transform, bool) {
	i := sort.Search(len(r.transforms), func(i int) bool {
		return r.transforms[i].Version >= version
	})
	if i < len(r.transforms) && r.transforms[i].Version == version {
		return r.transforms[i], true
	}
	return Transform{}, false
}

// Pending returns, in order, the transforms whose version is above current.
func (r *Registry) Pending(current int) []Transform {
	i := sort.Search(len(r.transforms), func(i int) bool {
		return r.transforms[i].Version > current
	})
	out := make([]Transform, len(r.transforms)-i)
	copy(out, r.transforms[i:])
	return out
}
