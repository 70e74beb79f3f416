package benchmark

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattsolo1/lmbench/pkg/exec"
	"gopkg.in/yaml.v3"
)

// ProcessRef is a resolved landmark process.
type ProcessRef struct {
	Name    string   `yaml:"name"`
	Command []string `yaml:"command"`

	dir string
}

// SetEntry is the part of a manifest contributed by one dataset.
type SetEntry struct {
	Dataset           string       `yaml:"dataset"`
	LandmarkProcesses []ProcessRef `yaml:"lm_post_load,omitempty"`
	Images            []string     `yaml:"images"`

	// Landmarks holds the processed landmark file of each image, in the
	// same order as Images. Only set when the dataset has lm_post_load.
	Landmarks []string `yaml:"landmarks,omitempty"`
}

// Manifest lists the images a method trains or is tested on. Methods read it
// from the path in LMBENCH_TRAINING_MANIFEST or LMBENCH_TESTING_MANIFEST.
type Manifest struct {
	Test bool       `yaml:"test"`
	Sets []SetEntry `yaml:"sets"`
}

// Len returns the number of images across all sets.
func (m *Manifest) Len() int {
	n := 0
	for _, s := range m.Sets {
		n += len(s.Images)
	}
	return n
}

// String lists the dataset names, quoted, in order.
func (m *Manifest) String() string {
	s := ""
	for i, set := range m.Sets {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("'%s'", set.Dataset)
	}
	return s
}

// resolvedDataset is a dataset definition together with its processing.
type resolvedDataset struct {
	def       *Definition
	processes []ProcessRef
}

func (r *Registry) resolveDatasets(refs []DatasetRef) ([]resolvedDataset, error) {
	resolved := make([]resolvedDataset, 0, len(refs))
	for _, ref := range refs {
		def, err := r.LoadDefinition(KindDataset, ref.Name)
		if err != nil {
			return nil, err
		}
		rd := resolvedDataset{def: def}
		for _, name := range ref.LandmarkProcesses {
			proc, err := r.LoadDefinition(KindLandmarkProcess, name)
			if err != nil {
				return nil, err
			}
			rd.processes = append(rd.processes, ProcessRef{
				Name:    proc.Name,
				Command: proc.Command,
				dir:     filepath.Dir(absPath(proc.Path)),
			})
		}
		resolved = append(resolved, rd)
	}
	return resolved, nil
}

// buildManifest expands each dataset's image glob under cacheDir and runs the
// dataset's landmark processes over every image.
func (s *Local) buildManifest(ctx context.Context, datasets []resolvedDataset, cacheDir string, test bool) (*Manifest, error) {
	manifest := &Manifest{Test: test, Sets: []SetEntry{}}
	count := 0
	for _, ds := range datasets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pattern := filepath.Join(cacheDir, ds.def.Images)
		images, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: bad images pattern %q: %w", ds.def.Name, ds.def.Images, err)
		}
		sort.Strings(images)
		if len(images) == 0 {
			s.log.WithField("dataset", ds.def.Name).Warnf("No images match %s", pattern)
		}

		entry := SetEntry{
			Dataset:           ds.def.Name,
			LandmarkProcesses: ds.processes,
			Images:            images,
		}
		for _, img := range images {
			count++
			s.log.WithField("dataset", ds.def.Name).Debugf("Processing image %d (%s)", count, filepath.Base(img))
			if len(ds.processes) == 0 {
				continue
			}
			lm, err := s.processLandmarks(ctx, ds, cacheDir, img)
			if err != nil {
				return nil, err
			}
			entry.Landmarks = append(entry.Landmarks, lm)
		}
		manifest.Sets = append(manifest.Sets, entry)
	}
	s.log.Infof("%d images processed.", count)
	return manifest, nil
}

// processLandmarks pipes the ground truth landmarks of img through each of
// the dataset's processes in turn. A process is run with the image and the
// current landmark file appended to its command and prints the new
// landmarks. The result is stored under cacheDir/landmarks and its path
// returned.
func (s *Local) processLandmarks(ctx context.Context, ds resolvedDataset, cacheDir, img string) (string, error) {
	current := strings.TrimSuffix(img, filepath.Ext(img)) + ".pts"
	if _, err := os.Stat(current); err != nil {
		return "", fmt.Errorf("dataset %s: %s has no landmarks to process: %w", ds.def.Name, filepath.Base(img), err)
	}

	rel, err := filepath.Rel(cacheDir, strings.TrimSuffix(img, filepath.Ext(img)))
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = strings.TrimSuffix(filepath.Base(img), filepath.Ext(img))
	}

	var chain []string
	for _, proc := range ds.processes {
		chain = append(chain, proc.Name)
		args := append(append([]string{}, proc.Command[1:]...), absPath(img), absPath(current))
		out, err := s.executor.Execute(ctx, exec.Command{
			Name: proc.Command[0],
			Args: args,
			Env:  []string{"LMBENCH_PROCESS=" + proc.Name, "LMBENCH_DATASET=" + ds.def.Name},
			Dir:  proc.dir,
		})
		if err != nil {
			return "", fmt.Errorf("landmark process %s failed on %s: %w", proc.Name, filepath.Base(img), err)
		}

		next := filepath.Join(cacheDir, "landmarks", ds.def.Name, strings.Join(chain, "+"), rel+".pts")
		if err := os.MkdirAll(filepath.Dir(next), 0o755); err != nil {
			return "", fmt.Errorf("create landmark directory: %w", err)
		}
		if err := os.WriteFile(next, out, 0o644); err != nil {
			return "", fmt.Errorf("write processed landmarks: %w", err)
		}
		current = next
	}
	return current, nil
}

func writeManifest(path string, m *Manifest) ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return data, nil
}
