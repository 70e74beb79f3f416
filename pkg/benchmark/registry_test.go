package benchmark

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_List(t *testing.T) {
	env := newTestEnv(t)
	writeTestFile(t, filepath.Join(env.predefined, "dataset", "README.md"), "not a definition")
	require.NoError(t, os.MkdirAll(filepath.Join(env.predefined, "dataset", "nested.yml"), 0o755))

	names, err := env.registry.List(KindDataset)
	require.NoError(t, err)
	assert.Equal(t, []string{"lfpw_test", "lfpw_train"}, names)

	methods, err := env.registry.List(KindUntrainableMethod)
	require.NoError(t, err)
	assert.Equal(t, []string{"dlib", "intraface"}, methods)
}

func TestRegistry_ListMissingDirectory(t *testing.T) {
	reg := NewRegistry(t.TempDir())

	names, err := reg.List(KindExperiment)
	require.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)
}

func TestRegistry_Locate(t *testing.T) {
	env := newTestEnv(t)
	local := filepath.Join(env.workDir, "my_method.yml")
	writeTestFile(t, local, "metadata:\n  display_name: Mine\ncommand: [mine]\n")

	t.Run("predefined name", func(t *testing.T) {
		path, predefined, err := env.registry.Locate(KindMethod, "sdm")
		require.NoError(t, err)
		assert.True(t, predefined)
		assert.Equal(t, filepath.Join(env.predefined, "method", "sdm.yml"), path)
	})

	t.Run("local file", func(t *testing.T) {
		path, predefined, err := env.registry.Locate(KindMethod, local)
		require.NoError(t, err)
		assert.False(t, predefined)
		assert.Equal(t, local, path)
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := env.registry.Locate(KindMethod, "does_not_exist")
		var notFound *ModuleNotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, KindMethod, notFound.Kind)
		assert.Equal(t, "does_not_exist", notFound.Name)
	})
}

func TestRegistry_LoadDefinition(t *testing.T) {
	env := newTestEnv(t)

	def, err := env.registry.LoadDefinition(KindUntrainableMethod, "dlib")
	require.NoError(t, err)
	assert.Equal(t, "dlib", def.Name)
	assert.Equal(t, "dlib", def.Metadata.DisplayName)
	assert.Equal(t, []string{"dlib_fit", "--fast"}, def.Command)
	assert.True(t, def.Predefined)
	assert.False(t, def.IsTrainable())

	tests := []struct {
		name  string
		kind  Kind
		body  string
		check func(t *testing.T, err error)
	}{
		{
			name: "no metadata",
			kind: KindMethod,
			body: "command: [fit]\n",
			check: func(t *testing.T, err error) {
				var merr *MissingMetadataError
				require.True(t, errors.As(err, &merr))
				assert.Empty(t, merr.Field)
			},
		},
		{
			name: "no display name",
			kind: KindMethod,
			body: "metadata:\n  description: nameless\ncommand: [fit]\n",
			check: func(t *testing.T, err error) {
				var merr *MissingMetadataError
				require.True(t, errors.As(err, &merr))
				assert.Equal(t, "display_name", merr.Field)
			},
		},
		{
			name: "dataset without images",
			kind: KindDataset,
			body: "metadata:\n  display_name: Empty\n",
			check: func(t *testing.T, err error) {
				var serr *SchemaError
				require.True(t, errors.As(err, &serr))
				assert.Contains(t, serr.Error(), "images")
			},
		},
		{
			name: "method without command",
			kind: KindMethod,
			body: "metadata:\n  display_name: Idle\n",
			check: func(t *testing.T, err error) {
				var serr *SchemaError
				require.True(t, errors.As(err, &serr))
			},
		},
		{
			name: "not yaml",
			kind: KindLandmarkProcess,
			body: "metadata: [unclosed\n",
			check: func(t *testing.T, err error) {
				var serr *SchemaError
				require.True(t, errors.As(err, &serr))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(env.workDir, tt.name+".yml")
			writeTestFile(t, path, tt.body)
			_, err := env.registry.LoadDefinition(tt.kind, path)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}
