//go:build !windows

package jmeter

import (
	"os/exec"
	"syscall"
)

// killProcessTree starts cmd in its own process group and makes context
// cancellation kill the group.
func killProcessTree(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
