// Package matrix enumerates the benchmark configuration space: input sizes,
// parallel strategies and worker-thread counts.
package matrix

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid benchmark matrix")

// Config lists the values of each matrix dimension in execution order.
type Config struct {
	Sizes      []string `yaml:"sizes"`
	Strategies []string `yaml:"strategies"`
	Threads    []int    `yaml:"threads"`
}

// Default returns the matrix the harness was written for.
func Default() Config {
	return Config{
		Sizes:      []string{"small", "mixture", "big"},
		Strategies: []string{"pipeline", "bsp"},
		Threads:    []int{2, 4, 6, 8, 12},
	}
}

// Validate reports the first problem that would make a run meaningless or
// produce colliding results.
func (c Config) Validate() error {
	if len(c.Sizes) == 0 {
		return fmt.Errorf("%w: no input sizes", ErrInvalidConfig)
	}

	if err := checkNames("size", c.Sizes); err != nil {
		return err
	}

	if err := checkNames("strategy", c.Strategies); err != nil {
		return err
	}

	if len(c.Strategies) > 0 && len(c.Threads) == 0 {
		return fmt.Errorf("%w: strategies given without thread counts",
			ErrInvalidConfig)
	}

	for _, n := range c.Threads {
		if n <= 0 {
			return fmt.Errorf("%w: thread count %d is not positive",
				ErrInvalidConfig, n)
		}
	}

	if dup := lo.FindDuplicates(c.Threads); len(dup) > 0 {
		return fmt.Errorf("%w: duplicate thread counts %v",
			ErrInvalidConfig, dup)
	}

	return nil
}

func checkNames(kind string, names []string) error {
	for _, name := range names {
		if name == "" {
			return fmt.Errorf("%w: empty %s name", ErrInvalidConfig, kind)
		}

		// Names become engine arguments and chart file names.
		if strings.ContainsAny(name, "/\\ \t\n") {
			return fmt.Errorf("%w: %s name %q contains a separator",
				ErrInvalidConfig, kind, name)
		}
	}

	if dup := lo.FindDuplicates(names); len(dup) > 0 {
		return fmt.Errorf("%w: duplicate %s names %v",
			ErrInvalidConfig, kind, dup)
	}

	return nil
}

// Configuration is one point of the matrix. A sequential configuration has
// neither strategy nor thread count; a parallel one has both.
type Configuration struct {
	Size     string
	Strategy string
	Threads  int
}

// Sequential returns the baseline configuration for size.
func Sequential(size string) Configuration {
	return Configuration{Size: size}
}

// Parallel returns the configuration running size with strategy on threads
// workers.
func Parallel(size, strategy string, threads int) Configuration {
	return Configuration{Size: size, Strategy: strategy, Threads: threads}
}

// IsSequential reports whether c is a baseline configuration.
func (c Configuration) IsSequential() bool {
	return c.Strategy == ""
}

// Args returns the engine arguments: <size> [<strategy> <threads>].
func (c Configuration) Args() []string {
	if c.IsSequential() {
		return []string{c.Size}
	}

	return []string{c.Size, c.Strategy, strconv.Itoa(c.Threads)}
}

func (c Configuration) String() string {
	if c.IsSequential() {
		return "sequential/size=" + c.Size
	}

	return fmt.Sprintf("%s/size=%s/threads=%d", c.Strategy, c.Size, c.Threads)
}

// Plan returns every configuration in execution order: all baselines first,
// then strategy by strategy, size by size, thread count by thread count.
func Plan(cfg Config) []Configuration {
	plan := make([]Configuration, 0,
		len(cfg.Sizes)*(1+len(cfg.Strategies)*len(cfg.Threads)))

	for _, size := range cfg.Sizes {
		plan = append(plan, Sequential(size))
	}

	for _, strategy := range cfg.Strategies {
		for _, size := range cfg.Sizes {
			for _, threads := range cfg.Threads {
				plan = append(plan, Parallel(size, strategy, threads))
			}
		}
	}

	return plan
}

// Summary contains statistics about a planned run.
type Summary struct {
	Baselines   int
	Parallel    int
	Charts      int
	Invocations int
}

// Summarize counts the work a run of cfg with the given sample count does.
func Summarize(cfg Config, samples int) Summary {
	s := Summary{
		Baselines: len(cfg.Sizes),
		Parallel:  len(cfg.Strategies) * len(cfg.Sizes) * len(cfg.Threads),
		Charts:    len(cfg.Strategies),
	}
	s.Invocations = (s.Baselines + s.Parallel) * samples

	return s
}
