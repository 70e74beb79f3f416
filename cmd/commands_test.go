package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mattsolo1/lmbench/pkg/benchmark"
	"github.com/mattsolo1/lmbench/pkg/exec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type cliFixture struct {
	root       string
	configPath string
	predefined string
	cacheDir   string
	executor   *exec.MockCommandExecutor
	prompter   *scriptedPrompter
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()
	root := t.TempDir()
	f := &cliFixture{
		root:       root,
		configPath: filepath.Join(root, "home", "config.yml"),
		predefined: filepath.Join(root, "predefined"),
		cacheDir:   filepath.Join(root, "cache"),
		executor:   &exec.MockCommandExecutor{},
		prompter:   &scriptedPrompter{},
	}
	writeFile(t, filepath.Join(f.predefined, "dataset", "demo_test.yml"), "metadata:\n  display_name: Demo\nimages: demo/*.png\n")
	writeFile(t, filepath.Join(f.predefined, "dataset", "demo_train.yml"), "metadata:\n  display_name: Demo train\nimages: demo/*.png\n")
	writeFile(t, filepath.Join(f.predefined, "untrainable_method", "noop.yml"), "metadata:\n  display_name: No-op\ncommand: [fit]\n")
	writeFile(t, filepath.Join(f.predefined, "method", "sdm.yml"), "metadata:\n  display_name: SDM\ncommand: [python, sdm.py]\n")
	writeFile(t, filepath.Join(f.predefined, "landmark_process", "flip.yml"), "metadata:\n  display_name: Flip\ncommand: [flip]\n")
	writeFile(t, filepath.Join(f.predefined, "experiment", "demo.yml"), "testing_data: [demo_test]\nuntrainable_methods: [noop]\n")
	writeFile(t, filepath.Join(f.cacheDir, "demo", "a.png"), "png")
	return f
}

func (f *cliFixture) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := newApp()
	a.executor = f.executor
	a.prompter = f.prompter

	root := newRootCmd("1.2.3", a)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"--config", f.configPath, "--predefined-dir", f.predefined}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestConfigCmd_RejectsInvalidValue(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.execute(t, "config", "cache_dir", "/bad/path")
	requireExitCode(t, err, 1)
	assert.Contains(t, out, "cache_dir")
	assert.NotContains(t, out, "Updated")

	_, statErr := os.Stat(f.configPath)
	assert.True(t, os.IsNotExist(statErr), "config file must not be created")
}

func TestConfigCmd_SetGetShow(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "No configuration file")

	require.NoError(t, os.MkdirAll(filepath.Dir(f.configPath), 0o755))
	out, err = f.execute(t, "config", "cache_dir", f.cacheDir)
	require.NoError(t, err)
	assert.Equal(t, "* Updated "+f.configPath+"\n", out)

	out, err = f.execute(t, "config", "cache_dir")
	require.NoError(t, err)
	assert.Equal(t, f.cacheDir+"\n", out)

	out, err = f.execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "cache_dir: "+f.cacheDir)

	_, err = f.execute(t, "config", "colour")
	assert.Error(t, err)
}

func TestListCmd(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.execute(t, "list")
	require.NoError(t, err)

	var doc map[string][]string
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, map[string][]string{
		"datasets":            {"demo_test", "demo_train"},
		"methods":             {"sdm"},
		"untrainable_methods": {"noop"},
		"experiments":         {"demo"},
		"landmark_processes":  {"flip"},
	}, doc)

	out, err = f.execute(t, "list", "--json")
	require.NoError(t, err)
	var listing benchmark.Listing
	require.NoError(t, json.Unmarshal([]byte(out), &listing))
	assert.Equal(t, []string{"demo"}, listing.Experiments)
}

func TestRunCmd_PromptsForCacheDirThenRuns(t *testing.T) {
	f := newCLIFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(f.configPath), 0o755))
	f.prompter.answers = []string{f.cacheDir}
	outDir := filepath.Join(f.root, "out")

	out, err := f.execute(t, "run", "demo", "--output", outDir)
	require.NoError(t, err, out)

	assert.Len(t, f.prompter.labels, 1)
	assert.Contains(t, out, "Finished demo")
	assert.Equal(t, []string{"fit"}, f.executor.Commands)

	data, err := os.ReadFile(f.configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "cache_dir: "+f.cacheDir)

	results, err := benchmark.ReadResults(filepath.Join(outDir, benchmark.ResultsFile))
	require.NoError(t, err)
	assert.Equal(t, "demo", results.Experiment)
}

func TestRunCmd_OutputDirExists(t *testing.T) {
	f := newCLIFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(f.configPath), 0o755))
	_, err := f.execute(t, "config", "cache_dir", f.cacheDir)
	require.NoError(t, err)
	outDir := filepath.Join(f.root, "out")
	require.NoError(t, os.MkdirAll(outDir, 0o755))

	out, err := f.execute(t, "run", "demo", "-o", outDir)
	requireExitCode(t, err, 1)
	assert.Contains(t, out, string(CategoryOutputDirExists))
	assert.Contains(t, out, RemediationHint)
	assert.Empty(t, f.prompter.labels)
	assert.Empty(t, f.executor.Commands)
}

func TestRunCmd_ModuleNotFound(t *testing.T) {
	f := newCLIFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(f.configPath), 0o755))
	_, err := f.execute(t, "config", "cache_dir", f.cacheDir)
	require.NoError(t, err)

	out, err := f.execute(t, "run", "missing.yaml")
	requireExitCode(t, err, 1)
	assert.Contains(t, out, string(CategoryModuleNotFound))
}

func TestTestCmd(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.execute(t, "test", "-v")
	require.NoError(t, err, out)
	assert.Contains(t, out, "experiment: demo")
	assert.Contains(t, out, "checks passed")

	writeFile(t, filepath.Join(f.predefined, "method", "broken.yml"), "command: [x]\n")
	out, err = f.execute(t, "test")
	requireExitCode(t, err, 1)
	assert.Contains(t, out, "method: broken")
	assert.NotContains(t, out, "experiment: demo")
}

func TestBBoxCmd(t *testing.T) {
	f := newCLIFixture(t)
	writeFile(t, filepath.Join(f.predefined, "detector", "frontal.yml"), "metadata:\n  display_name: Frontal\ncommand: [detect]\n")
	f.executor.ExecuteFunc = func(ctx context.Context, cmd exec.Command) ([]byte, error) {
		return []byte("1 2 3 4"), nil
	}

	out, err := f.execute(t, "bbox", "frontal", filepath.Join(f.cacheDir, "demo", "*.png"))
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 1 bounding boxes")
	assert.FileExists(t, benchmark.BBoxPath(filepath.Join(f.cacheDir, "demo", "a.png"), "frontal"))
}

func TestRootCmd_Version(t *testing.T) {
	f := newCLIFixture(t)
	out, err := f.execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "1.2.3")
}

func TestRootCmd_HelpExamplesAreShipped(t *testing.T) {
	long := NewRootCmd("test").Long
	var named []string
	for _, line := range strings.Split(long, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 3 && fields[0] == "lmbench" && fields[1] == "run" {
			named = append(named, fields[2])
		}
	}
	require.NotEmpty(t, named)
	for _, name := range named {
		assert.FileExists(t, filepath.Join("..", "predefined", "experiment", name+".yml"))
	}
}
