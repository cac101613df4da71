package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Command is the resolved engine executable plus any arguments that precede
// the per-configuration arguments.
type Command struct {
	Binary string
	Args   []string
}

// ParseCommand splits an engine command line such as
// "go run ../editor/editor.go" into a Command. Quoting is not supported.
func ParseCommand(s string) (Command, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty engine command")
	}

	return Command{Binary: fields[0], Args: fields[1:]}, nil
}

// String renders the command the way it would be typed.
func (c Command) String() string {
	return strings.Join(append([]string{c.Binary}, c.Args...), " ")
}

// Build compiles the Go engine in srcDir into binPath so that compilation is
// not part of every measured invocation.
func Build(
	ctx context.Context,
	logger *slog.Logger,
	srcDir string,
	binPath string,
) (Command, error) {
	binPath, err := filepath.Abs(binPath)
	if err != nil {
		return Command{}, fmt.Errorf("resolve binary path: %w", err)
	}

	logger.InfoContext(ctx, "building engine",
		slog.String("source_dir", srcDir),
		slog.String("binary", binPath),
	)

	if err := os.MkdirAll(filepath.Dir(binPath), 0o755); err != nil {
		return Command{}, fmt.Errorf("create binary dir: %w", err)
	}

	cmd := exec.CommandContext(ctx, "go", "build", "-o", binPath, ".")
	cmd.Dir = srcDir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return Command{}, fmt.Errorf("build engine in %s: %w", srcDir, err)
	}

	if _, err := os.Stat(binPath); err != nil {
		return Command{}, fmt.Errorf(
			"build engine: binary not found at %s", binPath,
		)
	}

	logger.InfoContext(ctx, "engine built",
		slog.String("binary", binPath),
	)

	return Command{Binary: binPath}, nil
}
