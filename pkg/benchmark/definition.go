package benchmark

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Metadata describes a definition for humans.
type Metadata struct {
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description,omitempty"`
}

// Definition is a dataset, method, landmark process or detector.
type Definition struct {
	Kind       Kind   `yaml:"-"`
	Name       string `yaml:"-"`
	Path       string `yaml:"-"`
	Predefined bool   `yaml:"-"`

	Metadata *Metadata `yaml:"metadata"`

	// Images is a glob relative to the cache directory. Datasets only.
	Images string `yaml:"images,omitempty"`

	// Command is the argv used to run methods, landmark processes and
	// detectors.
	Command        []string `yaml:"command,omitempty"`
	RequiresMatlab bool     `yaml:"requires_matlab,omitempty"`
	// Requires lists further configuration keys the definition needs.
	Requires []string `yaml:"requires,omitempty"`
}

// IsTrainable reports whether the definition is a method that has to be
// trained before it can be tested.
func (d *Definition) IsTrainable() bool {
	return d.Kind == KindMethod
}

// LoadDefinition locates and parses a definition, checking its metadata and
// the fields its kind depends on.
func (r *Registry) LoadDefinition(kind Kind, name string) (*Definition, error) {
	path, predefined, err := r.Locate(kind, name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s %s: %w", kind, name, err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, &SchemaError{Document: fmt.Sprintf("%s '%s'", kind, name), Err: err}
	}
	def.Kind = kind
	def.Name = definitionName(path)
	def.Path = path
	def.Predefined = predefined

	if def.Metadata == nil {
		return nil, &MissingMetadataError{Kind: kind, Name: def.Name}
	}
	if def.Metadata.DisplayName == "" {
		return nil, &MissingMetadataError{Kind: kind, Name: def.Name, Field: "display_name"}
	}

	if err := def.checkFields(); err != nil {
		return nil, &SchemaError{Document: fmt.Sprintf("%s '%s'", kind, def.Name), Err: err}
	}
	return &def, nil
}

func (d *Definition) checkFields() error {
	switch d.Kind {
	case KindDataset:
		if d.Images == "" {
			return errors.New("datasets must set 'images'")
		}
	case KindMethod, KindUntrainableMethod, KindLandmarkProcess, KindDetector:
		if len(d.Command) == 0 || d.Command[0] == "" {
			return fmt.Errorf("%ss must set 'command'", d.Kind)
		}
	}
	return nil
}
