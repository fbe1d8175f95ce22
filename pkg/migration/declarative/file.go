package declarative

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Op names a declarative step operation.
type Op string

const (
	OpSet        Op = "set"
	OpDelete     Op = "delete"
	OpMove       Op = "move"
	OpKeyByChain Op = "key_by_chain"
)

// Step is a single edit of the state's data.
type Step struct {
	Op    Op     `yaml:"op"`
	Path  string `yaml:"path"`
	To    string `yaml:"to,omitempty"`
	Value any    `yaml:"value,omitempty"`
	When  string `yaml:"when,omitempty"`
}

// File is the YAML document describing one transform.
type File struct {
	Version     int    `yaml:"version"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Validate checks that every step is well formed.
func (f *File) Validate() error {
	if f.Version < 1 {
		return fmt.Errorf("version must be positive, got %d", f.Version)
	}
	if len(f.Steps) == 0 {
		return fmt.Errorf("transform %d (%s) has no steps defined", f.Version, f.Name)
	}
	for i, s := range f.Steps {
		if s.Path == "" {
			return fmt.Errorf("step %d: path is required", i+1)
		}
		switch s.Op {
		case OpSet, OpDelete, OpKeyByChain:
		case OpMove:
			if s.To == "" {
				return fmt.Errorf("step %d: move requires 'to'", i+1)
			}
		default:
			return fmt.Errorf("step %d: unknown op %q", i+1, s.Op)
		}
	}
	return nil
}

// parseFilename extracts the version and name from names such as
// "077_drop_legacy_flag.yaml".
func parseFilename(filename string) (int, string, bool) {
	base := strings.TrimSuffix(filename, path.Ext(filename))
	prefix, rest, _ := strings.Cut(base, "_")
	version, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, "", false
	}
	return version, strings.ReplaceAll(rest, "_", "-"), true
}
