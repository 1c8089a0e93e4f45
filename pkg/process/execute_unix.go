//go:build !windows

package process

import (
	"os"
	"os/exec"
	"syscall"
)

func terminateProcess(process *os.Process) error {
	if process == nil {
		return os.ErrProcessDone
	}
	return process.Signal(syscall.SIGTERM)
}

// exitStatus reports 128+N for a child killed by signal N, as shells do.
func exitStatus(exitErr *exec.ExitError) int {
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal())
	}
	if code := exitErr.ExitCode(); code > 0 {
		return code
	}
	return 1
}
