// Package measure turns repeated engine invocations into mean durations and
// baseline-relative speedups.
package measure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/samber/lo"
)

// DefaultSamples is the number of invocations averaged per configuration.
const DefaultSamples = 5

var (
	// ErrSampleCount is returned when fewer than one sample is requested.
	ErrSampleCount = errors.New("sample count must be positive")

	// ErrNonPositiveDuration is returned when a speedup is computed against
	// a measured duration that is zero, negative or NaN.
	ErrNonPositiveDuration = errors.New("measured duration must be positive")
)

// Invoker runs the engine once and returns the duration it reported.
type Invoker interface {
	Run(ctx context.Context, args []string) (float64, error)
}

// Aggregator averages repeated invocations of one configuration.
type Aggregator struct {
	invoker Invoker
	logger  *slog.Logger
}

// NewAggregator creates an Aggregator backed by invoker.
func NewAggregator(invoker Invoker, logger *slog.Logger) *Aggregator {
	return &Aggregator{invoker: invoker, logger: logger}
}

// Measure invokes the engine samples times with args and returns the
// arithmetic mean of the reported durations. The first failing invocation
// aborts the measurement.
func (a *Aggregator) Measure(
	ctx context.Context,
	args []string,
	samples int,
) (float64, error) {
	if samples <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrSampleCount, samples)
	}

	durations := make([]float64, 0, samples)

	for i := 0; i < samples; i++ {
		d, err := a.invoker.Run(ctx, args)
		if err != nil {
			return 0, fmt.Errorf("sample %d/%d: %w", i+1, samples, err)
		}

		a.logger.InfoContext(ctx, "sample",
			slog.String("args", strings.Join(args, " ")),
			slog.Int("index", i+1),
			slog.Int("of", samples),
			slog.Float64("seconds", d),
		)

		durations = append(durations, d)
	}

	return Mean(durations), nil
}

// Mean returns the unweighted arithmetic mean of values, or 0 for none.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	return lo.Sum(values) / float64(len(values))
}

// Speedup returns baseline/measured.
func Speedup(baseline, measured float64) (float64, error) {
	if measured <= 0 || math.IsNaN(measured) {
		return 0, fmt.Errorf("%w: got %v", ErrNonPositiveDuration, measured)
	}

	return baseline / measured, nil
}
