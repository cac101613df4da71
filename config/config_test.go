package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/scaloor/matrix"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "scaloor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return path
}

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, DefaultEngine, c.Engine.Command)
	assert.Equal(t, "plain", c.Engine.Output)
	assert.Equal(t, matrix.Default(), c.Matrix)
	assert.Equal(t, 5, c.Samples)
	assert.Equal(t, ".", c.OutDir)
	assert.Zero(t, c.Engine.Timeout)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
engine:
  command: ./editor
  dir: ../editor
  env: [GOMAXPROCS=16]
  output: json
  timeout: 90s
matrix:
  sizes: [small]
  strategies: [pipeline]
  threads: [8, 2, 4]
samples: 3
out_dir: charts
continue_on_render_error: true
`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./editor", c.Engine.Command)
	assert.Equal(t, "../editor", c.Engine.Dir)
	assert.Equal(t, []string{"GOMAXPROCS=16"}, c.Engine.Env)
	assert.Equal(t, "json", c.Engine.Output)
	assert.Equal(t, 90*time.Second, c.Engine.Timeout)
	assert.Equal(t, matrix.Config{
		Sizes:      []string{"small"},
		Strategies: []string{"pipeline"},
		Threads:    []int{8, 2, 4},
	}, c.Matrix)
	assert.Equal(t, 3, c.Samples)
	assert.Equal(t, "charts", c.OutDir)
	assert.True(t, c.ContinueOnRenderError)
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "samples: 2\n")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Samples)
	assert.Equal(t, DefaultEngine, c.Engine.Command)
	assert.Equal(t, matrix.Default(), c.Matrix)
}

func TestLoadEmptyFile(t *testing.T) {
	c, err := Load(writeConfig(t, "# nothing yet\n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "samples: [1, 2]\n"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "sampels: 3\n"))
	require.Error(t, err)
}
