//go:build !unix

package engine

import "os/exec"

// isolate is a no-op where process groups are unavailable; cancellation
// kills only the engine process itself.
func isolate(*exec.Cmd) {}
