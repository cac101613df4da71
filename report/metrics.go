package report

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/weiihann/scaloor/driver"
)

const namespace = "scaloor"

// WriteMetrics writes res to path in the Prometheus text exposition format,
// for pickup by node_exporter's textfile collector. The file is replaced
// atomically.
func WriteMetrics(path string, res *driver.Results) error {
	if res == nil || len(res.Baselines) == 0 {
		return errNoResults
	}

	reg := prometheus.NewRegistry()

	baseline := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "baseline_seconds",
		Help:      "Mean sequential engine duration per input size.",
	}, []string{"size"})

	mean := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mean_seconds",
		Help:      "Mean parallel engine duration per configuration.",
	}, []string{"strategy", "size", "threads"})

	speedup := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "speedup_ratio",
		Help:      "Sequential baseline divided by parallel mean duration.",
	}, []string{"strategy", "size", "threads"})

	reg.MustRegister(baseline, mean, speedup)

	for _, size := range res.Sizes {
		baseline.WithLabelValues(size).Set(res.Baselines[size])
	}

	for _, sr := range res.Strategies {
		for _, s := range sr.Series {
			for _, p := range s.Points {
				threads := strconv.Itoa(p.Threads)
				mean.WithLabelValues(sr.Strategy, s.Size, threads).Set(p.Mean)
				speedup.WithLabelValues(sr.Strategy, s.Size, threads).Set(p.Speedup)
			}
		}
	}

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}

	return nil
}
