package benchmark

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfTest_AllPass(t *testing.T) {
	env := newTestEnv(t)
	env.configureCache(t)

	report, err := env.service(t).SelfTest(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK(), "unexpected failures: %v", report.Failed())

	var names []string
	for _, c := range report.Checks {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "config: cache_dir")
	assert.Contains(t, names, "experiment: sdm_lfpw")
	assert.Contains(t, names, "detector: dlib_frontal")
}

func TestSelfTest_ReportsBrokenDefinitions(t *testing.T) {
	env := newTestEnv(t)
	writeTestFile(t, filepath.Join(env.predefined, "method", "broken.yml"), "command: [fit]\n")
	writeTestFile(t, filepath.Join(env.predefined, "experiment", "bad.yml"), "testing_data: [lfpw_test]\n")

	report, err := env.service(t).SelfTest(context.Background())
	require.NoError(t, err)
	assert.False(t, report.OK())

	failed := map[string]bool{}
	for _, c := range report.Failed() {
		failed[c.Name] = true
	}
	assert.Equal(t, map[string]bool{"method: broken": true, "experiment: bad": true}, failed)
}

func TestSelfTest_ReportsMissingCommands(t *testing.T) {
	env := newTestEnv(t)
	writeTestFile(t, filepath.Join(env.predefined, "method", "script.yml"), "metadata:\n  display_name: Script\ncommand: [./fit.sh]\n")

	var looked []string
	env.executor.LookPathFunc = func(file string) (string, error) {
		looked = append(looked, file)
		if file == "detect" {
			return "", errors.New("executable file not found in $PATH")
		}
		return file, nil
	}

	report, err := env.service(t).SelfTest(context.Background())
	require.NoError(t, err)

	var failed []string
	for _, c := range report.Failed() {
		failed = append(failed, c.Name)
	}
	assert.Equal(t, []string{"detector: dlib_frontal command detect"}, failed)
	assert.Contains(t, looked, "python")
	assert.Contains(t, looked, "convert")
	assert.Contains(t, looked, filepath.Join(env.predefined, "method", "fit.sh"))
}
