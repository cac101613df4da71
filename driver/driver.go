// Package driver runs the full benchmark matrix: sequential baselines, the
// parallel sweep, and one chart per strategy.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/weiihann/scaloor/chart"
	"github.com/weiihann/scaloor/matrix"
	"github.com/weiihann/scaloor/measure"
)

// Sampler measures the mean engine duration for one argument set.
type Sampler interface {
	Measure(ctx context.Context, args []string, samples int) (float64, error)
}

// Renderer writes one strategy's series to a chart file.
type Renderer interface {
	Render(strategy string, series []measure.Series, path string) error
}

// Config holds everything a run needs besides its collaborators.
type Config struct {
	Matrix  matrix.Config
	Samples int
	OutDir  string

	// ContinueOnRenderError keeps rendering the remaining strategies after
	// a chart fails. Run then returns the results together with the joined
	// render errors.
	ContinueOnRenderError bool
}

// Results is the outcome of a complete run.
type Results struct {
	RunID      string             `json:"run_id" yaml:"run_id"`
	Samples    int                `json:"samples" yaml:"samples"`
	Sizes      []string           `json:"sizes" yaml:"sizes"`
	Baselines  map[string]float64 `json:"baselines" yaml:"baselines"`
	Strategies []StrategyResult   `json:"strategies" yaml:"strategies"`
}

// StrategyResult holds the speedup series of one strategy, in size order.
type StrategyResult struct {
	Strategy  string           `json:"strategy" yaml:"strategy"`
	Series    []measure.Series `json:"series" yaml:"series"`
	ChartPath string           `json:"chart_path,omitempty" yaml:"chart_path,omitempty"`
}

// Driver orchestrates one benchmark run. It never runs two engine processes
// at once.
type Driver struct {
	cfg      Config
	sampler  Sampler
	renderer Renderer
	logger   *slog.Logger
}

// New creates a Driver. A non-positive sample count is replaced by
// measure.DefaultSamples and an empty OutDir by the working directory.
func New(
	cfg Config,
	sampler Sampler,
	renderer Renderer,
	logger *slog.Logger,
) *Driver {
	if cfg.Samples <= 0 {
		cfg.Samples = measure.DefaultSamples
	}

	if cfg.OutDir == "" {
		cfg.OutDir = "."
	}

	return &Driver{
		cfg:      cfg,
		sampler:  sampler,
		renderer: renderer,
		logger:   logger,
	}
}

// Run executes the baseline, sweep and render phases in order. Any
// measurement failure aborts the run and no results are returned.
func (d *Driver) Run(ctx context.Context) (*Results, error) {
	if err := d.cfg.Matrix.Validate(); err != nil {
		return nil, err
	}

	res := &Results{
		RunID:   uuid.NewString(),
		Samples: d.cfg.Samples,
		Sizes:   append([]string(nil), d.cfg.Matrix.Sizes...),
	}

	logger := d.logger.With(slog.String("run_id", res.RunID))

	summary := matrix.Summarize(d.cfg.Matrix, d.cfg.Samples)
	logger.InfoContext(ctx, "starting benchmark",
		slog.Any("sizes", d.cfg.Matrix.Sizes),
		slog.Any("strategies", d.cfg.Matrix.Strategies),
		slog.Any("threads", d.cfg.Matrix.Threads),
		slog.Int("samples", d.cfg.Samples),
		slog.Int("invocations", summary.Invocations),
	)

	baselines, err := d.baselines(ctx, logger)
	if err != nil {
		return nil, err
	}

	res.Baselines = baselines

	for _, strategy := range d.cfg.Matrix.Strategies {
		sr, err := d.sweep(ctx, logger, strategy, baselines)
		if err != nil {
			return nil, err
		}

		res.Strategies = append(res.Strategies, sr)
	}

	if err := d.render(ctx, logger, res); err != nil {
		if d.cfg.ContinueOnRenderError {
			return res, err
		}

		return nil, err
	}

	logger.InfoContext(ctx, "benchmark complete")

	return res, nil
}

func (d *Driver) baselines(
	ctx context.Context,
	logger *slog.Logger,
) (map[string]float64, error) {
	baselines := make(map[string]float64, len(d.cfg.Matrix.Sizes))

	for _, size := range d.cfg.Matrix.Sizes {
		c := matrix.Sequential(size)

		logger.InfoContext(ctx, "measuring baseline",
			slog.String("config", c.String()))

		mean, err := d.sampler.Measure(ctx, c.Args(), d.cfg.Samples)
		if err != nil {
			return nil, fmt.Errorf("baseline %s: %w", c, err)
		}

		// A zero baseline would chart every speedup of this size as 0.
		if mean <= 0 {
			return nil, fmt.Errorf("baseline %s: %w: mean %v",
				c, measure.ErrNonPositiveDuration, mean)
		}

		logger.InfoContext(ctx, "baseline measured",
			slog.String("config", c.String()),
			slog.Float64("mean_seconds", mean),
		)

		baselines[size] = mean
	}

	return baselines, nil
}

func (d *Driver) sweep(
	ctx context.Context,
	logger *slog.Logger,
	strategy string,
	baselines map[string]float64,
) (StrategyResult, error) {
	sr := StrategyResult{
		Strategy: strategy,
		Series:   make([]measure.Series, 0, len(d.cfg.Matrix.Sizes)),
	}

	for _, size := range d.cfg.Matrix.Sizes {
		series := measure.Series{
			Size:   size,
			Points: make([]measure.Point, 0, len(d.cfg.Matrix.Threads)),
		}

		for _, threads := range d.cfg.Matrix.Threads {
			c := matrix.Parallel(size, strategy, threads)

			logger.InfoContext(ctx, "measuring",
				slog.String("config", c.String()))

			mean, err := d.sampler.Measure(ctx, c.Args(), d.cfg.Samples)
			if err != nil {
				return sr, fmt.Errorf("sweep %s: %w", c, err)
			}

			speedup, err := measure.Speedup(baselines[size], mean)
			if err != nil {
				return sr, fmt.Errorf("sweep %s: %w", c, err)
			}

			logger.InfoContext(ctx, "measured",
				slog.String("config", c.String()),
				slog.Float64("mean_seconds", mean),
				slog.Float64("speedup", speedup),
			)

			series.Points = append(series.Points, measure.Point{
				Threads: threads,
				Mean:    mean,
				Speedup: speedup,
			})
		}

		sr.Series = append(sr.Series, series)
	}

	return sr, nil
}

func (d *Driver) render(
	ctx context.Context,
	logger *slog.Logger,
	res *Results,
) error {
	var errs []error

	for i := range res.Strategies {
		sr := &res.Strategies[i]
		path := filepath.Join(d.cfg.OutDir, chart.FileName(sr.Strategy))

		if err := d.renderer.Render(sr.Strategy, sr.Series, path); err != nil {
			if !d.cfg.ContinueOnRenderError {
				return fmt.Errorf("render %s: %w", sr.Strategy, err)
			}

			logger.ErrorContext(ctx, "chart failed",
				slog.String("strategy", sr.Strategy),
				slog.String("error", err.Error()),
			)

			errs = append(errs, fmt.Errorf("render %s: %w", sr.Strategy, err))

			continue
		}

		sr.ChartPath = path

		logger.InfoContext(ctx, "chart written",
			slog.String("strategy", sr.Strategy),
			slog.String("path", path),
		)
	}

	return errors.Join(errs...)
}
