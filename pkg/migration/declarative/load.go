package declarative

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/aretw0/statelift/pkg/migration"
	"gopkg.in/yaml.v3"
)

// Parse decodes and compiles a single transform file.
// Version and name fall back to the filename when the document omits them.
func Parse(filename string, data []byte) (migration.Transform, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return migration.Transform{}, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	if version, name, ok := parseFilename(path.Base(filename)); ok {
		if f.Version == 0 {
			f.Version = version
		}
		if f.Name == "" {
			f.Name = name
		}
	}

	t, err := Compile(&f)
	if err != nil {
		return migration.Transform{}, fmt.Errorf("%s: %w", filename, err)
	}
	return t, nil
}

// LoadFS compiles every .yaml or .yml file in dir of fsys.
// The returned transforms are sorted by version.
func LoadFS(fsys fs.FS, dir string) ([]migration.Transform, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read transforms directory: %w", err)
	}

	var out []migration.Transform
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(path.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		name := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		t, err := Parse(name, data)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Version < out[j].Version
	})
	return out, nil
}

// LoadDir compiles the transform files of a directory on disk.
// A missing directory yields no transforms.
func LoadDir(dir string) ([]migration.Transform, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	return LoadFS(os.DirFS(dir), ".")
}

// LoadRegistry loads a directory and merges it into base.
func LoadRegistry(base *migration.Registry, dir string) (*migration.Registry, error) {
	transforms, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	extra, err := migration.NewRegistry(transforms...)
	if err != nil {
		return nil, err
	}
	return base.Merge(extra)
}
