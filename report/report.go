// Package report formats speedup results into tables and machine-readable
// summaries.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/weiihann/scaloor/driver"
	"github.com/weiihann/scaloor/measure"
)

var errNoResults = errors.New("no results to report")

// Generate writes a markdown summary: the sequential baselines followed by
// one speedup table per strategy.
func Generate(w io.Writer, res *driver.Results) error {
	if res == nil || len(res.Baselines) == 0 {
		return errNoResults
	}

	fmt.Fprintln(w, "## Speedup Results")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run `%s`, mean of %d samples per configuration.\n",
		res.RunID, res.Samples)
	fmt.Fprintln(w)

	// Baselines.
	fmt.Fprintln(w, "| Size | Sequential |")
	fmt.Fprintln(w, "|------|------------|")

	for _, size := range res.Sizes {
		fmt.Fprintf(w, "| %s | %s |\n", size, formatSeconds(res.Baselines[size]))
	}

	for _, sr := range res.Strategies {
		if len(sr.Series) == 0 {
			continue
		}

		threads := sr.Series[0].Threads()

		fmt.Fprintln(w)
		fmt.Fprintf(w, "### %s\n", sr.Strategy)
		fmt.Fprintln(w)

		if sr.ChartPath != "" {
			fmt.Fprintf(w, "Chart: `%s`\n", sr.ChartPath)
			fmt.Fprintln(w)
		}

		header := lo.Map(threads, func(n int, _ int) string {
			return fmt.Sprintf("%d threads", n)
		})
		rule := lo.Map(header, func(h string, _ int) string {
			return strings.Repeat("-", len(h))
		})

		fmt.Fprintf(w, "| Size | %s |\n", strings.Join(header, " | "))
		fmt.Fprintf(w, "|------|%s|\n", "-"+strings.Join(rule, "-|-")+"-")

		for _, s := range sr.Series {
			cells := lo.Map(s.Points, func(p measure.Point, _ int) string {
				return fmt.Sprintf("%.2fx (%s)", p.Speedup, formatSeconds(p.Mean))
			})

			fmt.Fprintf(w, "| %s | %s |\n", s.Size, strings.Join(cells, " | "))
		}
	}

	return nil
}

// GenerateJSON writes res as indented JSON to w.
func GenerateJSON(w io.Writer, res *driver.Results) error {
	if res == nil {
		return errNoResults
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(res)
}

// GenerateYAML writes res as YAML to w.
func GenerateYAML(w io.Writer, res *driver.Results) error {
	if res == nil {
		return errNoResults
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}

	return enc.Close()
}

func formatSeconds(s float64) string {
	if s < 1 {
		return fmt.Sprintf("%.1fms", s*1000)
	}

	return fmt.Sprintf("%.2fs", s)
}
