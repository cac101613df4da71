// Package config loads harness settings from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/weiihann/scaloor/matrix"
	"github.com/weiihann/scaloor/measure"
)

// DefaultEngine is the engine command the harness was written against.
const DefaultEngine = "go run ../editor/editor.go"

// Config is the complete harness configuration.
type Config struct {
	Engine struct {
		Command string        `yaml:"command"`
		Dir     string        `yaml:"dir"`
		Env     []string      `yaml:"env"`
		Build   string        `yaml:"build"`
		Output  string        `yaml:"output"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"engine"`

	Matrix matrix.Config `yaml:"matrix"`

	Samples               int    `yaml:"samples"`
	OutDir                string `yaml:"out_dir"`
	ContinueOnRenderError bool   `yaml:"continue_on_render_error"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var c Config
	c.Engine.Command = DefaultEngine
	c.Engine.Output = "plain"
	c.Matrix = matrix.Default()
	c.Samples = measure.DefaultSamples
	c.OutDir = "."

	return c
}

// Load reads path over Default. Keys missing from the file keep their
// default values; a matrix list present in the file replaces the default
// list entirely.
func Load(path string) (Config, error) {
	c := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	// An empty document decodes to io.EOF and leaves the defaults.
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}

	return c, nil
}
