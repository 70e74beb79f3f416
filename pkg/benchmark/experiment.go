package benchmark

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DatasetRef names a dataset and the landmark processes to apply to it after
// loading. In YAML it is either a bare name or {name, lm_post_load}.
type DatasetRef struct {
	Name              string   `yaml:"name"`
	LandmarkProcesses []string `yaml:"lm_post_load,omitempty"`
}

// UnmarshalYAML accepts both the short and the long form.
func (d *DatasetRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		d.Name = node.Value
		d.LandmarkProcesses = nil
		return nil
	}
	type plain DatasetRef
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*d = DatasetRef(p)
	return nil
}

// Experiment is a parsed experiment file.
type Experiment struct {
	Name       string `yaml:"-"`
	Path       string `yaml:"-"`
	Predefined bool   `yaml:"-"`

	TrainingData       []DatasetRef `yaml:"training_data,omitempty"`
	TestingData        []DatasetRef `yaml:"testing_data"`
	Methods            []string     `yaml:"methods,omitempty"`
	UntrainableMethods []string     `yaml:"untrainable_methods,omitempty"`
}

// LoadExperiment locates an experiment by predefined name or path and
// validates it against ExperimentSchema.
func (r *Registry) LoadExperiment(name string) (*Experiment, error) {
	path, predefined, err := r.Locate(KindExperiment, name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading experiment %s: %w", name, err)
	}

	schema, err := compiledExperimentSchema()
	if err != nil {
		return nil, err
	}
	document := fmt.Sprintf("experiment '%s'", definitionName(path))
	if err := validateYAML(schema, data); err != nil {
		return nil, &SchemaError{Document: document, Err: err}
	}

	var exp Experiment
	if err := yaml.Unmarshal(data, &exp); err != nil {
		return nil, &SchemaError{Document: document, Err: err}
	}
	exp.Name = definitionName(path)
	exp.Path = path
	exp.Predefined = predefined
	return &exp, nil
}
