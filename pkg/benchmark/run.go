package benchmark

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattsolo1/lmbench/pkg/config"
	"github.com/mattsolo1/lmbench/pkg/exec"
	cp "github.com/otiai10/copy"
)

const (
	trainingManifestFile = "training.yml"
	testingManifestFile  = "testing.yml"
	methodLogFile        = "output.log"
)

func (s *Local) run(ctx context.Context, p *plan, cfg *config.Config, req Request, outDir string) (*Results, error) {
	results := &Results{
		RunID:        s.newRunID(),
		Experiment:   p.experiment.Name,
		StartedAt:    s.now().UTC(),
		MatlabExport: req.MatlabExport,
		Methods:      []MethodResult{},
	}

	var trainPath string
	var trainData []byte
	if p.hasTrainable() {
		manifest, err := s.buildManifest(ctx, p.training, cfg.CacheDir, false)
		if err != nil {
			return nil, err
		}
		s.log.Infof("Training data: %s (%d images)", manifest, manifest.Len())
		trainPath = filepath.Join(outDir, trainingManifestFile)
		if trainData, err = writeManifest(trainPath, manifest); err != nil {
			return nil, err
		}
	}

	testManifest, err := s.buildManifest(ctx, p.testing, cfg.CacheDir, true)
	if err != nil {
		return nil, err
	}
	s.log.Infof("Testing data: %s (%d images)", testManifest, testManifest.Len())
	testPath := filepath.Join(outDir, testingManifestFile)
	testData, err := writeManifest(testPath, testManifest)
	if err != nil {
		return nil, err
	}

	for _, m := range p.methods {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mr, err := s.runMethod(ctx, p.experiment.Name, m, cfg, req, outDir, trainPath, trainData, testPath, testData)
		if err != nil {
			return nil, err
		}
		results.Methods = append(results.Methods, *mr)
	}

	results.FinishedAt = s.now().UTC()
	return results, nil
}

func (s *Local) runMethod(ctx context.Context, experiment string, m *Definition, cfg *config.Config, req Request,
	outDir, trainPath string, trainData []byte, testPath string, testData []byte) (*MethodResult, error) {
	log := s.log.WithField("method", m.Name)
	methodDir := filepath.Join(outDir, m.Name)

	var key string
	if m.IsTrainable() {
		key = cacheKey(experiment, m, trainData, testData)
	} else {
		key = cacheKey(experiment, m, nil, testData)
	}
	cacheDir := filepath.Join(cfg.CacheDir, "results", experiment, m.Name, key)

	mr := &MethodResult{
		Name:        m.Name,
		DisplayName: m.Metadata.DisplayName,
		Trainable:   m.IsTrainable(),
		OutputDir:   methodDir,
	}

	if !req.ForceLocal && dirExists(cacheDir) {
		if err := cp.Copy(cacheDir, methodDir); err != nil {
			return nil, fmt.Errorf("restore cached results for %s: %w", m.Name, err)
		}
		log.Infof("Reusing cached results from %s", cacheDir)
		mr.Status = StatusCompleted
		mr.Cached = true
		return mr, nil
	}

	if err := os.MkdirAll(methodDir, 0o755); err != nil {
		return nil, fmt.Errorf("create method output directory: %w", err)
	}

	env := []string{
		"LMBENCH_METHOD=" + m.Name,
		"LMBENCH_TESTING_MANIFEST=" + absPath(testPath),
		"LMBENCH_OUTPUT_DIR=" + absPath(methodDir),
		"LMBENCH_CACHE_DIR=" + cfg.CacheDir,
	}
	if m.IsTrainable() {
		env = append(env, "LMBENCH_TRAINING_MANIFEST="+absPath(trainPath))
	}
	if m.RequiresMatlab {
		env = append(env, "LMBENCH_MATLAB_BIN="+cfg.MatlabBinPath)
	}
	if req.MatlabExport {
		env = append(env, "LMBENCH_MATLAB_EXPORT=1")
	}

	log.Infof("Running %s", m.Metadata.DisplayName)
	start := s.now()
	out, err := s.executor.Execute(ctx, exec.Command{
		Name: m.Command[0],
		Args: m.Command[1:],
		Env:  env,
		Dir:  filepath.Dir(absPath(m.Path)),
	})
	mr.DurationSeconds = s.now().Sub(start).Seconds()
	if werr := os.WriteFile(filepath.Join(methodDir, methodLogFile), out, 0o644); werr != nil {
		log.Warnf("Could not save method output: %v", werr)
	}
	if err != nil {
		return nil, fmt.Errorf("method %s failed: %w", m.Name, err)
	}
	mr.Status = StatusCompleted

	if err := os.MkdirAll(filepath.Dir(cacheDir), 0o755); err == nil {
		if err := cp.Copy(methodDir, cacheDir); err != nil {
			log.Warnf("Could not cache results: %v", err)
		}
	}
	return mr, nil
}

// cacheKey identifies a method's results by experiment, its definition and
// the exact manifests it consumed.
func cacheKey(experiment string, m *Definition, trainData, testData []byte) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%q\x00%v\x00", experiment, m.Name, m.Command, m.RequiresMatlab)
	h.Write(trainData)
	h.Write([]byte{0})
	h.Write(testData)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
