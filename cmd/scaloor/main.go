// Package main provides the CLI entry point for scaloor, a thread-scaling
// benchmark harness for external parallel engines.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/weiihann/scaloor/chart"
	"github.com/weiihann/scaloor/config"
	"github.com/weiihann/scaloor/driver"
	"github.com/weiihann/scaloor/engine"
	"github.com/weiihann/scaloor/matrix"
	"github.com/weiihann/scaloor/measure"
	"github.com/weiihann/scaloor/report"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)

	root := newRootCmd(logger, level)
	err := root.ExecuteContext(ctx)
	stop()

	if err != nil {
		logger.Error("scaloor failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "scaloor",
		Short: "Thread-scaling benchmark harness",
		Long: `Scaloor runs an external engine over a matrix of input sizes, parallel
strategies and thread counts, averages repeated wall-clock samples, and plots
each strategy's speedup over the sequential baseline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := level.UnmarshalText([]byte(logLevel)); err != nil {
				return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
			}

			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level: debug, info, warn, error")

	root.AddCommand(newRunCmd(logger))
	root.AddCommand(newPlanCmd())

	return root
}

// settings are the flags shared by run and plan.
type settings struct {
	configPath string
	engineCmd  string
	sizes      []string
	strategies []string
	threads    []int
	samples    int
}

func (s *settings) bind(flags *pflag.FlagSet) {
	def := config.Default()

	flags.StringVar(&s.configPath, "config", "",
		"Path to a YAML config file")
	flags.StringVar(&s.engineCmd, "engine", def.Engine.Command,
		"Engine command line; configuration arguments are appended")
	flags.StringSliceVar(&s.sizes, "sizes", def.Matrix.Sizes,
		"Input sizes, in run and legend order")
	flags.StringSliceVar(&s.strategies, "strategies", def.Matrix.Strategies,
		"Parallel strategies, one chart each")
	flags.IntSliceVar(&s.threads, "threads", def.Matrix.Threads,
		"Thread counts, in x-axis order")
	flags.IntVar(&s.samples, "samples", def.Samples,
		"Engine invocations averaged per configuration")
}

// resolve loads the config file (if any) and applies every flag that was set
// explicitly on top of it.
func (s *settings) resolve(flags *pflag.FlagSet) (config.Config, error) {
	cfg := config.Default()

	if s.configPath != "" {
		var err error

		cfg, err = config.Load(s.configPath)
		if err != nil {
			return cfg, err
		}
	}

	if flags.Changed("engine") {
		cfg.Engine.Command = s.engineCmd
	}
	if flags.Changed("sizes") {
		cfg.Matrix.Sizes = s.sizes
	}
	if flags.Changed("strategies") {
		cfg.Matrix.Strategies = s.strategies
	}
	if flags.Changed("threads") {
		cfg.Matrix.Threads = s.threads
	}
	if flags.Changed("samples") {
		cfg.Samples = s.samples
	}

	if cfg.Samples <= 0 {
		return cfg, fmt.Errorf("%w: got %d", measure.ErrSampleCount, cfg.Samples)
	}

	if err := cfg.Matrix.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var (
		s            settings
		engineDir    string
		engineEnv    []string
		buildDir     string
		engineOutput string
		timeout      time.Duration
		outDir       string
		format       string
		benchfmtPath string
		metricsPath  string
		continueOnRE bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Measure the full matrix and render speedup charts",
		Long: `Measure the sequential baseline for every input size, then every
(strategy, size, thread count) configuration, and write one speedup chart per
strategy. Any engine failure aborts the run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()

			cfg, err := s.resolve(flags)
			if err != nil {
				return err
			}

			if flags.Changed("engine-dir") {
				cfg.Engine.Dir = engineDir
			}
			if flags.Changed("engine-env") {
				cfg.Engine.Env = engineEnv
			}
			if flags.Changed("build") {
				cfg.Engine.Build = buildDir
			}
			if flags.Changed("engine-output") {
				cfg.Engine.Output = engineOutput
			}
			if flags.Changed("timeout") {
				cfg.Engine.Timeout = timeout
			}
			if flags.Changed("out-dir") {
				cfg.OutDir = outDir
			}
			if flags.Changed("continue-on-render-error") {
				cfg.ContinueOnRenderError = continueOnRE
			}

			return runBenchmark(cmd.Context(), logger, cmd.OutOrStdout(), cfg,
				outputs{
					format:   format,
					benchfmt: benchfmtPath,
					metrics:  metricsPath,
				})
		},
	}

	flags := cmd.Flags()
	s.bind(flags)
	flags.StringVar(&engineDir, "engine-dir", "",
		"Working directory for engine invocations")
	flags.StringSliceVar(&engineEnv, "engine-env", nil,
		"Extra KEY=VALUE environment entries for the engine")
	flags.StringVar(&buildDir, "build", "",
		"Go source directory to compile the engine from before measuring")
	flags.StringVar(&engineOutput, "engine-output", "plain",
		"Engine output contract: plain or json")
	flags.DurationVar(&timeout, "timeout", 0,
		"Per-invocation timeout (0 = wait indefinitely)")
	flags.StringVar(&outDir, "out-dir", ".",
		"Directory for chart files")
	flags.StringVar(&format, "format", "markdown",
		"Summary format on stdout: markdown, json, yaml")
	flags.StringVar(&benchfmtPath, "benchfmt", "",
		"Also write results in Go benchmark format to this file")
	flags.StringVar(&metricsPath, "metrics-file", "",
		"Also write Prometheus textfile metrics to this file")
	flags.BoolVar(&continueOnRE, "continue-on-render-error", false,
		"Render remaining charts when one fails")

	return cmd
}

type outputs struct {
	format   string
	benchfmt string
	metrics  string
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	stdout io.Writer,
	cfg config.Config,
	out outputs,
) error {
	if err := checkFormat(out.format); err != nil {
		return err
	}

	format, err := engine.ParseOutputFormat(cfg.Engine.Output)
	if err != nil {
		return err
	}

	command, err := engine.ParseCommand(cfg.Engine.Command)
	if err != nil {
		return err
	}

	// Step 1: Build the engine once, if asked to.
	if cfg.Engine.Build != "" {
		binDir, err := os.MkdirTemp("", "scaloor-engine-*")
		if err != nil {
			return fmt.Errorf("create engine build dir: %w", err)
		}
		defer os.RemoveAll(binDir)

		command, err = engine.Build(ctx, logger, cfg.Engine.Build,
			filepath.Join(binDir, "engine"))
		if err != nil {
			return err
		}
	}

	// Step 2: Prepare the chart directory.
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("create out dir: %w", err)
	}

	// Step 3: Run the matrix.
	runner := engine.NewRunner(command, cfg.Engine.Dir, cfg.Engine.Env,
		format, cfg.Engine.Timeout, logger)

	d := driver.New(driver.Config{
		Matrix:                cfg.Matrix,
		Samples:               cfg.Samples,
		OutDir:                cfg.OutDir,
		ContinueOnRenderError: cfg.ContinueOnRenderError,
	}, measure.NewAggregator(runner, logger), chart.NewRenderer(), logger)

	res, runErr := d.Run(ctx)
	if res == nil {
		return runErr
	}

	// Step 4: Report. Render failures in continue mode still get a summary.
	if err := writeSummary(stdout, out.format, res); err != nil {
		return err
	}

	if out.benchfmt != "" {
		if err := writeFile(out.benchfmt, func(w io.Writer) error {
			return report.GenerateBenchfmt(w, res)
		}); err != nil {
			return fmt.Errorf("write benchfmt: %w", err)
		}
	}

	if out.metrics != "" {
		if err := report.WriteMetrics(out.metrics, res); err != nil {
			return err
		}
	}

	return runErr
}

func checkFormat(format string) error {
	switch format {
	case "markdown", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unknown --format %q", format)
	}
}

func writeSummary(w io.Writer, format string, res *driver.Results) error {
	switch format {
	case "json":
		return report.GenerateJSON(w, res)
	case "yaml":
		return report.GenerateYAML(w, res)
	default:
		return report.Generate(w, res)
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := write(f); err != nil {
		f.Close()

		return err
	}

	return f.Close()
}

func newPlanCmd() *cobra.Command {
	var s settings

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "List the engine invocations a run would make",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := s.resolve(cmd.Flags())
			if err != nil {
				return err
			}

			return printPlan(cmd.OutOrStdout(), cfg)
		},
	}

	s.bind(cmd.Flags())

	return cmd
}

func printPlan(w io.Writer, cfg config.Config) error {
	command, err := engine.ParseCommand(cfg.Engine.Command)
	if err != nil {
		return err
	}

	for _, c := range matrix.Plan(cfg.Matrix) {
		argv := append(append([]string{}, command.Args...), c.Args()...)
		fmt.Fprintf(w, "%-40s %s\n", c,
			engine.Command{Binary: command.Binary, Args: argv})
	}

	sum := matrix.Summarize(cfg.Matrix, cfg.Samples)
	fmt.Fprintf(w, "\n%d baselines, %d parallel configurations, "+
		"%d invocations, %d charts\n",
		sum.Baselines, sum.Parallel, sum.Invocations, sum.Charts)

	return nil
}
