package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/weiihann/scaloor/driver"
	"github.com/weiihann/scaloor/measure"
)

func sampleResults() *driver.Results {
	return &driver.Results{
		RunID:     "3f2b8c1e-0000-4000-8000-000000000001",
		Samples:   5,
		Sizes:     []string{"small", "big"},
		Baselines: map[string]float64{"small": 0.5, "big": 10},
		Strategies: []driver.StrategyResult{
			{
				Strategy:  "pipeline",
				ChartPath: "out/speedup-pipeline.png",
				Series: []measure.Series{
					{
						Size: "small",
						Points: []measure.Point{
							{Threads: 2, Mean: 0.25, Speedup: 2},
							{Threads: 4, Mean: 1, Speedup: 0.5},
						},
					},
					{
						Size: "big",
						Points: []measure.Point{
							{Threads: 2, Mean: 5, Speedup: 2},
							{Threads: 4, Mean: 2.5, Speedup: 4},
						},
					},
				},
			},
		},
	}
}

func TestGenerate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, sampleResults()))

	output := buf.String()

	assert.Contains(t, output, "## Speedup Results")
	assert.Contains(t, output, "3f2b8c1e-0000-4000-8000-000000000001")
	assert.Contains(t, output, "| small | 500.0ms |")
	assert.Contains(t, output, "| big | 10.00s |")
	assert.Contains(t, output, "### pipeline")
	assert.Contains(t, output, "out/speedup-pipeline.png")
	assert.Contains(t, output, "| Size | 2 threads | 4 threads |")
	assert.Contains(t, output, "| small | 2.00x (250.0ms) | 0.50x (1.00s) |")
	assert.Contains(t, output, "| big | 2.00x (5.00s) | 4.00x (2.50s) |")

	// Baseline rows follow the configured size order.
	assert.Less(t, strings.Index(output, "| small | 500.0ms"),
		strings.Index(output, "| big | 10.00s"))
}

func TestGenerateEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, Generate(&buf, nil))
	require.Error(t, Generate(&buf, &driver.Results{}))
}

func TestGenerateJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GenerateJSON(&buf, sampleResults()))

	var parsed driver.Results
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))

	assert.Equal(t, *sampleResults(), parsed)
	assert.Contains(t, buf.String(), `"mean_seconds"`)
}

func TestGenerateYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GenerateYAML(&buf, sampleResults()))

	var parsed driver.Results
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &parsed))

	assert.Equal(t, *sampleResults(), parsed)
	assert.Contains(t, buf.String(), "run_id:")
}

func TestGenerateBenchfmt(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GenerateBenchfmt(&buf, sampleResults()))

	output := buf.String()

	assert.Contains(t, output, "run: 3f2b8c1e-0000-4000-8000-000000000001")
	assert.Contains(t, output, "BenchmarkSequential/size=small 5 ")
	assert.Contains(t, output,
		"BenchmarkParallel/strategy=pipeline/size=big/threads=4 5 ")
	assert.Contains(t, output, "sec/op")
	assert.Contains(t, output, "speedup")

	var benchLines int
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "Benchmark") {
			benchLines++
		}
	}

	assert.Equal(t, 6, benchLines)
}

func TestWriteMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scaloor.prom")
	require.NoError(t, WriteMetrics(path, sampleResults()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	output := string(data)

	assert.Contains(t, output, "# TYPE scaloor_speedup_ratio gauge")
	assert.Contains(t, output, `scaloor_baseline_seconds{size="big"} 10`)
	assert.Contains(t, output,
		`scaloor_speedup_ratio{size="big",strategy="pipeline",threads="4"} 4`)
	assert.Contains(t, output,
		`scaloor_mean_seconds{size="small",strategy="pipeline",threads="2"} 0.25`)
}

func TestWriteMetricsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scaloor.prom")
	require.Error(t, WriteMetrics(path, nil))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{0, "0.0ms"},
		{0.0015, "1.5ms"},
		{0.5, "500.0ms"},
		{1, "1.00s"},
		{12.5, "12.50s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSeconds(tt.input),
			"formatSeconds(%v)", tt.input)
	}
}
