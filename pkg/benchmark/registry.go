package benchmark

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Kind identifies one of the predefined registries.
type Kind string

const (
	KindDataset           Kind = "dataset"
	KindMethod            Kind = "method"
	KindUntrainableMethod Kind = "untrainable_method"
	KindExperiment        Kind = "experiment"
	KindLandmarkProcess   Kind = "landmark_process"
	KindDetector          Kind = "detector"
)

// definitionExt is the extension of every predefined file.
const definitionExt = ".yml"

// Registry lists and locates the definitions under a predefined directory.
// Each kind lives in its own subdirectory as <name>.yml.
type Registry struct {
	root string
}

// NewRegistry returns a registry rooted at dir.
func NewRegistry(dir string) *Registry {
	return &Registry{root: dir}
}

// Root returns the predefined directory.
func (r *Registry) Root() string {
	return r.root
}

// Dir returns the directory holding definitions of kind.
func (r *Registry) Dir(kind Kind) string {
	return filepath.Join(r.root, string(kind))
}

// List returns the sorted names of the predefined definitions of kind. A
// missing directory lists as empty.
func (r *Registry) List(kind Kind) ([]string, error) {
	entries, err := os.ReadDir(r.Dir(kind))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("reading %s directory: %w", kind, err)
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), definitionExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), definitionExt))
	}
	sort.Strings(names)
	return names, nil
}

// Locate resolves name to a definition file. Predefined names win; otherwise
// name is treated as a path to a local file.
func (r *Registry) Locate(kind Kind, name string) (path string, predefined bool, err error) {
	if name == "" {
		return "", false, &ModuleNotFoundError{Kind: kind, Name: name}
	}

	if !strings.ContainsRune(name, filepath.Separator) && !strings.Contains(name, "/") {
		candidate := filepath.Join(r.Dir(kind), name+definitionExt)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true, nil
		}
	}

	if info, err := os.Stat(name); err == nil && info.Mode().IsRegular() {
		return name, false, nil
	}
	return "", false, &ModuleNotFoundError{Kind: kind, Name: name}
}

// definitionName is the display key for a definition: its stem.
func definitionName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
