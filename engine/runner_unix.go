//go:build unix

package engine

import (
	"os/exec"
	"syscall"
)

// isolate starts the engine in its own process group and kills the whole
// group when the context ends, so processes the engine spawned (the compiled
// binary under `go run`, for instance) cannot outlive a timed-out sample.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
