package benchmark

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ResultsFile is the name of the run summary written to the output directory.
const ResultsFile = "results.yml"

// Method statuses recorded in results.
const (
	StatusCompleted = "completed"
)

// MethodResult is the outcome of one method.
type MethodResult struct {
	Name            string  `yaml:"name"`
	DisplayName     string  `yaml:"display_name"`
	Trainable       bool    `yaml:"trainable"`
	Status          string  `yaml:"status"`
	Cached          bool    `yaml:"cached"`
	DurationSeconds float64 `yaml:"duration_seconds"`
	OutputDir       string  `yaml:"output_dir,omitempty"`
}

// Results summarizes a run.
type Results struct {
	RunID        string         `yaml:"run_id"`
	Experiment   string         `yaml:"experiment"`
	StartedAt    time.Time      `yaml:"started_at"`
	FinishedAt   time.Time      `yaml:"finished_at"`
	MatlabExport bool           `yaml:"matlab_export"`
	Methods      []MethodResult `yaml:"methods"`
}

func writeResults(outDir string, results *Results) error {
	data, err := yaml.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, ResultsFile), data, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// ReadResults loads a results file written by a previous run.
func ReadResults(path string) (*Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	var results Results
	if err := yaml.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return &results, nil
}
