package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess stands in for the engine. It is a no-op unless the test
// binary was re-executed by helperRunner.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("SCALOOR_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 {
		if args[0] == "--" {
			args = args[1:]

			break
		}
		args = args[1:]
	}

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "no helper mode")
		os.Exit(2)
	}

	switch args[0] {
	case "echo":
		fmt.Println(strings.Join(args[1:], " "))
	case "stderr":
		fmt.Fprintln(os.Stderr, strings.Join(args[1:], " "))
	case "argc":
		fmt.Println(strconv.Itoa(len(args) - 1))
	case "pwd":
		wd, _ := os.Getwd()
		fmt.Println(wd)
	case "env":
		fmt.Println(os.Getenv(args[1]))
	case "fail":
		fmt.Println("1.5")
		os.Exit(3)
	case "sleep":
		time.Sleep(time.Minute)
	case "spawn":
		// Start a sleeping grandchild, record its pid, then hang.
		child := exec.Command(os.Args[0],
			"-test.run=^TestHelperProcess$", "--", "sleep")
		if err := child.Start(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}

		pid := strconv.Itoa(child.Process.Pid)
		if err := os.WriteFile(args[1], []byte(pid), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}

		time.Sleep(time.Minute)
	default:
		fmt.Fprintf(os.Stderr, "unknown helper mode %q\n", args[0])
		os.Exit(2)
	}

	os.Exit(0)
}

func helperRunner(format OutputFormat, timeout time.Duration) *Runner {
	return NewRunner(
		Command{
			Binary: os.Args[0],
			Args:   []string{"-test.run=^TestHelperProcess$", "--"},
		},
		"",
		[]string{"SCALOOR_HELPER_PROCESS=1"},
		format,
		timeout,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestRunParsesPlainOutput(t *testing.T) {
	r := helperRunner(FormatPlain, 0)

	got, err := r.Run(context.Background(), []string{"echo", "3.14"})
	require.NoError(t, err)
	assert.Equal(t, 3.14, got)
}

func TestRunCombinesStderr(t *testing.T) {
	r := helperRunner(FormatPlain, 0)

	got, err := r.Run(context.Background(), []string{"stderr", "0.25"})
	require.NoError(t, err)
	assert.Equal(t, 0.25, got)
}

func TestRunPassesArguments(t *testing.T) {
	r := helperRunner(FormatPlain, 0)

	got, err := r.Run(context.Background(),
		[]string{"argc", "small", "pipeline", "4"})
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)
}

func TestRunParseErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"extra text", []string{"echo", "3.14", "extra"}},
		{"not a number", []string{"echo", "not-a-number"}},
		{"empty", []string{"echo"}},
	}

	r := helperRunner(FormatPlain, 0)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Run(context.Background(), tt.args)
			require.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestRunNonZeroExit(t *testing.T) {
	r := helperRunner(FormatPlain, 0)

	_, err := r.Run(context.Background(), []string{"fail"})
	require.ErrorIs(t, err, ErrInvocation)
	assert.Contains(t, err.Error(), "fail")
}

func TestRunMissingBinary(t *testing.T) {
	r := NewRunner(
		Command{Binary: "scaloor-no-such-engine"},
		"", nil, FormatPlain, 0,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	_, err := r.Run(context.Background(), []string{"small"})
	require.ErrorIs(t, err, ErrInvocation)
}

func TestRunTimeout(t *testing.T) {
	r := helperRunner(FormatPlain, 200*time.Millisecond)

	start := time.Now()
	_, err := r.Run(context.Background(), []string{"sleep"})
	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 30*time.Second)
}

func TestRunWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	r := helperRunner(FormatPlain, 0)
	r.Dir = dir

	// The helper prints its working directory, which is not a number.
	_, err := r.Run(context.Background(), []string{"pwd"})
	require.ErrorIs(t, err, ErrParse)
	assert.Contains(t, err.Error(), dir)
}

func TestRunExtraEnvironment(t *testing.T) {
	r := helperRunner(FormatPlain, 0)
	r.Env = append(r.Env, "SCALOOR_TEST_SECONDS=7.5")

	got, err := r.Run(context.Background(),
		[]string{"env", "SCALOOR_TEST_SECONDS"})
	require.NoError(t, err)
	assert.Equal(t, 7.5, got)
}

func TestRunJSONFormat(t *testing.T) {
	r := helperRunner(FormatJSON, 0)

	got, err := r.Run(context.Background(),
		[]string{"echo", `{"seconds":`, "1.75}"})
	require.NoError(t, err)
	assert.Equal(t, 1.75, got)
}
