//go:build windows

package process

import (
	"os"
	"os/exec"
)

// No SIGTERM on Windows, console children get killed outright
func terminateProcess(process *os.Process) error {
	if process == nil {
		return os.ErrProcessDone
	}
	return process.Kill()
}

func exitStatus(exitErr *exec.ExitError) int {
	if code := exitErr.ExitCode(); code > 0 {
		return code
	}
	return 1
}
