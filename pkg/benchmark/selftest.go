package benchmark

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mattsolo1/lmbench/pkg/config"
)

// CheckResult is the outcome of one self-test check.
type CheckResult struct {
	Name string
	Err  error
}

// Passed reports whether the check succeeded.
func (c CheckResult) Passed() bool {
	return c.Err == nil
}

// TestReport collects every self-test check.
type TestReport struct {
	Checks []CheckResult
}

// Failed returns the failing checks.
func (r *TestReport) Failed() []CheckResult {
	var failed []CheckResult
	for _, c := range r.Checks {
		if !c.Passed() {
			failed = append(failed, c)
		}
	}
	return failed
}

// OK reports whether every check passed.
func (r *TestReport) OK() bool {
	return len(r.Failed()) == 0
}

func (r *TestReport) add(name string, err error) {
	r.Checks = append(r.Checks, CheckResult{Name: name, Err: err})
}

// SelfTest verifies that the configuration can be read and is valid, and
// that every predefined definition and experiment loads.
func (s *Local) SelfTest(ctx context.Context) (*TestReport, error) {
	report := &TestReport{}

	cfg, err := s.config.Load()
	report.add("config: read "+s.config.Path(), err)
	if err == nil {
		for _, key := range config.Keys() {
			if v, ok := cfg.Value(key); ok {
				report.add("config: "+key, config.Validate(key, v))
			}
		}
	}

	kinds := []Kind{KindDataset, KindMethod, KindUntrainableMethod, KindLandmarkProcess, KindDetector, KindExperiment}
	for _, kind := range kinds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		names, err := s.registry.List(kind)
		report.add(fmt.Sprintf("registry: %s (%d)", kind, len(names)), err)
		if err != nil {
			continue
		}
		for _, name := range names {
			if kind == KindExperiment {
				_, err = s.resolve(name)
				report.add(fmt.Sprintf("%s: %s", kind, name), err)
				continue
			}
			def, err := s.registry.LoadDefinition(kind, name)
			report.add(fmt.Sprintf("%s: %s", kind, name), err)
			if err == nil && len(def.Command) > 0 {
				report.add(fmt.Sprintf("%s: %s command %s", kind, name, def.Command[0]), s.lookCommand(def))
			}
		}
	}
	return report, nil
}

// lookCommand checks that the program a definition runs can be found.
// Programs given with a slash are resolved against the definition's
// directory, which is where they are executed.
func (s *Local) lookCommand(def *Definition) error {
	program := def.Command[0]
	if strings.ContainsRune(program, '/') && !filepath.IsAbs(program) {
		program = filepath.Join(filepath.Dir(absPath(def.Path)), program)
	}
	if _, err := s.executor.LookPath(program); err != nil {
		return fmt.Errorf("cannot find %s: %w", def.Command[0], err)
	}
	return nil
}
