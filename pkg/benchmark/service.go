package benchmark

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mattsolo1/lmbench/pkg/config"
	"github.com/mattsolo1/lmbench/pkg/exec"
	"github.com/sirupsen/logrus"
)

// Service is everything the command line needs from the benchmark engine.
type Service interface {
	// Invoke runs (and optionally uploads) the experiment in req.
	Invoke(ctx context.Context, req Request) error
	// List returns the contents of every predefined registry.
	List(ctx context.Context) (*Listing, error)
	// SaveBoundingBoxes runs a detector over every file matching pattern.
	SaveBoundingBoxes(ctx context.Context, detector, pattern string, opts BBoxOptions) (*BBoxSummary, error)
	// SelfTest checks the configuration and every predefined definition.
	SelfTest(ctx context.Context) (*TestReport, error)
}

// Local is the Service that runs methods on this machine.
type Local struct {
	registry *Registry
	config   *config.Store
	executor exec.CommandExecutor
	log      logrus.FieldLogger

	uploader     Uploader
	cdnAccessKey string
	now          func() time.Time
	newRunID     func() string
}

var _ Service = (*Local)(nil)

// Option configures a Local service.
type Option func(*Local)

// WithUploader replaces the HTTP uploader built from the configuration.
func WithUploader(u Uploader) Option {
	return func(s *Local) { s.uploader = u }
}

// WithCDNAccessKey sets the credential used to upload results.
func WithCDNAccessKey(key string) Option {
	return func(s *Local) { s.cdnAccessKey = key }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Local) { s.now = now }
}

// NewLocal returns a service reading definitions from registry and
// configuration from store.
func NewLocal(registry *Registry, store *config.Store, executor exec.CommandExecutor, log logrus.FieldLogger, opts ...Option) *Local {
	s := &Local{
		registry: registry,
		config:   store,
		executor: executor,
		log:      log,
		now:      time.Now,
		newRunID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// plan is an experiment with every reference resolved.
type plan struct {
	experiment *Experiment
	training   []resolvedDataset
	testing    []resolvedDataset
	methods    []*Definition
}

func (p *plan) hasTrainable() bool {
	for _, m := range p.methods {
		if m.IsTrainable() {
			return true
		}
	}
	return false
}

// Invoke resolves the experiment, checks that the configuration it needs is
// present, runs every method and writes results.yml to the output directory.
func (s *Local) Invoke(ctx context.Context, req Request) error {
	cfg, err := s.config.Load()
	if err != nil {
		return err
	}
	if cfg.CacheDir == "" {
		return &MissingConfigError{Key: config.KeyCacheDir}
	}

	p, err := s.resolve(req.Experiment)
	if err != nil {
		return err
	}
	log := s.log.WithField("experiment", p.experiment.Name)

	if err := checkRequirements(p, cfg); err != nil {
		return err
	}
	if req.Upload {
		if err := s.checkUpload(p, cfg); err != nil {
			return err
		}
	}

	outDir := req.OutputDir
	if outDir == "" {
		outDir = p.experiment.Name + "-results"
	}
	if err := prepareOutputDir(outDir, req.Overwrite); err != nil {
		return err
	}
	log.Infof("Writing results to %s", outDir)

	results, err := s.run(ctx, p, cfg, req, outDir)
	if err != nil {
		return err
	}
	if err := writeResults(outDir, results); err != nil {
		return err
	}

	if req.Upload {
		return s.upload(ctx, p, cfg, results, req.UploadForce)
	}
	return nil
}

func (s *Local) resolve(name string) (*plan, error) {
	exp, err := s.registry.LoadExperiment(name)
	if err != nil {
		return nil, err
	}
	p := &plan{experiment: exp}

	if p.training, err = s.registry.resolveDatasets(exp.TrainingData); err != nil {
		return nil, err
	}
	if p.testing, err = s.registry.resolveDatasets(exp.TestingData); err != nil {
		return nil, err
	}
	for _, name := range exp.Methods {
		def, err := s.registry.LoadDefinition(KindMethod, name)
		if err != nil {
			return nil, err
		}
		p.methods = append(p.methods, def)
	}
	for _, name := range exp.UntrainableMethods {
		def, err := s.registry.LoadDefinition(KindUntrainableMethod, name)
		if err != nil {
			return nil, err
		}
		p.methods = append(p.methods, def)
	}
	return p, nil
}

// checkRequirements reports the first configuration value a method needs
// but the configuration lacks.
func checkRequirements(p *plan, cfg *config.Config) error {
	for _, m := range p.methods {
		if m.RequiresMatlab && cfg.MatlabBinPath == "" {
			return &MissingConfigError{Key: config.KeyMatlabBinPath}
		}
		for _, key := range m.Requires {
			if _, ok := cfg.Value(key); !ok {
				return &MissingConfigError{Key: key}
			}
		}
	}
	return nil
}

func (s *Local) checkUpload(p *plan, cfg *config.Config) error {
	var missing []string
	if cfg.CDNURL == "" {
		missing = append(missing, "'cdn_url' in the configuration")
	}
	if s.cdnAccessKey == "" {
		missing = append(missing, "the LMBENCH_CDN_ACCESS_KEY environment variable")
	}
	if len(missing) > 0 {
		return &MissingCDNCredentialsError{Missing: missing}
	}

	if !p.experiment.Predefined {
		return fmt.Errorf("only predefined experiments can be uploaded, '%s' is a local file", p.experiment.Path)
	}
	for _, m := range p.methods {
		if !m.Predefined {
			return fmt.Errorf("only predefined methods can be uploaded, '%s' is a local file", m.Path)
		}
	}
	return nil
}

func prepareOutputDir(dir string, overwrite bool) error {
	if _, err := os.Stat(dir); err == nil {
		if !overwrite {
			return &OutputDirExistsError{Path: dir}
		}
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove existing output directory: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("check output directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}
