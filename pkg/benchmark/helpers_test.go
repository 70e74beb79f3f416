package benchmark

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mattsolo1/lmbench/pkg/config"
	"github.com/mattsolo1/lmbench/pkg/exec"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	predefined string
	cacheDir   string
	workDir    string
	store      *config.Store
	executor   *exec.MockCommandExecutor
	logHook    *logtest.Hook
	registry   *Registry
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newTestEnv lays out a predefined directory with one dataset of two images,
// a trainable method, a Matlab method, an untrainable method and two
// experiments.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		predefined: filepath.Join(root, "predefined"),
		cacheDir:   filepath.Join(root, "cache"),
		workDir:    filepath.Join(root, "work"),
		store:      config.Open(filepath.Join(root, "config.yml")),
		executor:   &exec.MockCommandExecutor{},
	}
	require.NoError(t, os.MkdirAll(env.workDir, 0o755))
	require.NoError(t, os.MkdirAll(env.cacheDir, 0o755))
	env.registry = NewRegistry(env.predefined)

	def := func(kind Kind, name, body string) {
		writeTestFile(t, filepath.Join(env.predefined, string(kind), name+".yml"), body)
	}
	def(KindDataset, "lfpw_test", "metadata:\n  display_name: LFPW test\nimages: lfpw/testset/*.png\n")
	def(KindDataset, "lfpw_train", "metadata:\n  display_name: LFPW train\nimages: lfpw/trainset/*.png\n")
	def(KindMethod, "sdm", "metadata:\n  display_name: SDM\ncommand: [python, sdm.py]\n")
	def(KindMethod, "matlab_aam", "metadata:\n  display_name: Matlab AAM\ncommand: [run_aam.sh]\nrequires_matlab: true\n")
	def(KindUntrainableMethod, "intraface", "metadata:\n  display_name: IntraFace\ncommand: [intraface]\nrequires: [intraface_path]\n")
	def(KindUntrainableMethod, "dlib", "metadata:\n  display_name: dlib\ncommand: [dlib_fit, --fast]\n")
	def(KindLandmarkProcess, "ibug68_to_ibug49", "metadata:\n  display_name: iBUG 68 to 49\ncommand: [convert]\n")
	def(KindDetector, "dlib_frontal", "metadata:\n  display_name: dlib frontal\ncommand: [detect, --frontal]\n")
	def(KindExperiment, "sdm_lfpw", "training_data: [lfpw_train]\ntesting_data:\n  - name: lfpw_test\n    lm_post_load: [ibug68_to_ibug49]\nmethods: [sdm]\nuntrainable_methods: [dlib]\n")
	def(KindExperiment, "aam_lfpw", "training_data: [lfpw_train]\ntesting_data: [lfpw_test]\nmethods: [matlab_aam]\n")

	writeTestFile(t, filepath.Join(env.cacheDir, "lfpw", "trainset", "image_0001.png"), "png")
	writeTestFile(t, filepath.Join(env.cacheDir, "lfpw", "testset", "image_0001.png"), "png")
	writeTestFile(t, filepath.Join(env.cacheDir, "lfpw", "testset", "image_0002.png"), "png")
	writeTestFile(t, filepath.Join(env.cacheDir, "lfpw", "testset", "image_0001.pts"), testPTS)
	writeTestFile(t, filepath.Join(env.cacheDir, "lfpw", "testset", "image_0002.pts"), testPTS)
	return env
}

func (e *testEnv) service(t *testing.T, opts ...Option) *Local {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	e.logHook = hook

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	opts = append([]Option{WithClock(func() time.Time { return fixed })}, opts...)
	s := NewLocal(e.registry, e.store, e.executor, logger, opts...)
	s.newRunID = func() string { return "run-1" }
	return s
}

func (e *testEnv) configureCache(t *testing.T) {
	t.Helper()
	require.NoError(t, e.store.Set(config.KeyCacheDir, e.cacheDir))
}

// methodRuns returns the executed method commands, leaving out landmark
// processes.
func (e *testEnv) methodRuns() []exec.Command {
	var runs []exec.Command
	for _, cmd := range e.executor.Executed {
		for _, kv := range cmd.Env {
			if strings.HasPrefix(kv, "LMBENCH_METHOD=") {
				runs = append(runs, cmd)
				break
			}
		}
	}
	return runs
}

func commandLines(cmds []exec.Command) []string {
	lines := make([]string, 0, len(cmds))
	for _, c := range cmds {
		lines = append(lines, c.String())
	}
	return lines
}
