package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long Run waits for output pipes to drain after the
// engine was killed on timeout.
const waitDelay = 2 * time.Second

// Runner launches the engine once per call and returns the duration it
// reports.
type Runner struct {
	Command Command
	Dir     string
	Env     []string
	Format  OutputFormat
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewRunner creates a Runner for cmd. Env is appended to the inherited
// environment. A zero timeout lets the engine run for as long as it needs.
func NewRunner(
	cmd Command,
	dir string,
	env []string,
	format OutputFormat,
	timeout time.Duration,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		Command: cmd,
		Dir:     dir,
		Env:     env,
		Format:  format,
		Timeout: timeout,
		Logger:  logger.With(slog.String("engine", cmd.Binary)),
	}
}

// Run executes the engine with args appended to the command's own arguments
// and parses the combined stdout/stderr as one duration in seconds.
func (r *Runner) Run(ctx context.Context, args []string) (float64, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	argv := make([]string, 0, len(r.Command.Args)+len(args))
	argv = append(argv, r.Command.Args...)
	argv = append(argv, args...)

	cmd := exec.CommandContext(ctx, r.Command.Binary, argv...)
	cmd.Dir = r.Dir
	cmd.WaitDelay = waitDelay
	isolate(cmd)

	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	r.Logger.Debug("starting engine",
		slog.Any("args", args),
		slog.String("dir", r.Dir),
	)

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		if r.Timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, fmt.Errorf("%w after %s: %s",
				ErrTimeout, r.Timeout, strings.Join(args, " "))
		}

		return 0, fmt.Errorf("%w: %s: %w\noutput: %s",
			ErrInvocation, strings.Join(args, " "), err, out.String())
	}

	seconds, err := parseDuration(r.Format, out.Bytes())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", strings.Join(args, " "), err)
	}

	r.Logger.Debug("engine finished",
		slog.Any("args", args),
		slog.Float64("reported_seconds", seconds),
		slog.Duration("wall_time", elapsed),
	)

	return seconds, nil
}
