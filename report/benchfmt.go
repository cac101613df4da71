package report

import (
	"fmt"
	"io"
	"strconv"

	"golang.org/x/perf/benchfmt"

	"github.com/weiihann/scaloor/driver"
)

// GenerateBenchfmt writes res in the Go benchmark format so that runs can be
// compared with benchstat. Baselines are reported as
// Sequential/size=<size>, parallel points as
// Parallel/strategy=<s>/size=<size>/threads=<n> with an extra speedup unit.
func GenerateBenchfmt(w io.Writer, res *driver.Results) error {
	if res == nil || len(res.Baselines) == 0 {
		return errNoResults
	}

	bw := benchfmt.NewWriter(w)
	rec := &benchfmt.Result{
		Config: []benchfmt.Config{
			{Key: "harness", Value: []byte("scaloor"), File: true},
			{Key: "run", Value: []byte(res.RunID), File: true},
			{Key: "samples", Value: []byte(strconv.Itoa(res.Samples)), File: true},
		},
		Iters: res.Samples,
	}

	for _, size := range res.Sizes {
		rec.Name = benchfmt.Name("Sequential/size=" + size)
		rec.Values = []benchfmt.Value{
			{Value: res.Baselines[size], Unit: "sec/op"},
		}

		if err := bw.Write(rec); err != nil {
			return fmt.Errorf("write baseline %s: %w", size, err)
		}
	}

	for _, sr := range res.Strategies {
		for _, s := range sr.Series {
			for _, p := range s.Points {
				rec.Name = benchfmt.Name(fmt.Sprintf(
					"Parallel/strategy=%s/size=%s/threads=%d",
					sr.Strategy, s.Size, p.Threads,
				))
				rec.Values = []benchfmt.Value{
					{Value: p.Mean, Unit: "sec/op"},
					{Value: p.Speedup, Unit: "speedup"},
				}

				if err := bw.Write(rec); err != nil {
					return fmt.Errorf("write %s: %w", rec.Name, err)
				}
			}
		}
	}

	return nil
}
