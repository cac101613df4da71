package measure

import "github.com/samber/lo"

// Point is one thread count on a speedup curve.
type Point struct {
	Threads int     `json:"threads" yaml:"threads"`
	Mean    float64 `json:"mean_seconds" yaml:"mean_seconds"`
	Speedup float64 `json:"speedup" yaml:"speedup"`
}

// Series is the speedup curve of one strategy for one input size. Points
// keep the order in which thread counts were configured.
type Series struct {
	Size   string  `json:"size" yaml:"size"`
	Points []Point `json:"points" yaml:"points"`
}

// Threads returns the thread counts of s in point order.
func (s Series) Threads() []int {
	return lo.Map(s.Points, func(p Point, _ int) int {
		return p.Threads
	})
}
