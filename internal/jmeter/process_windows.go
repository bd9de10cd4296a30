//go:build windows

package jmeter

import (
	"os/exec"
	"strconv"
)

// killProcessTree makes context cancellation terminate cmd and every
// process it started.
func killProcessTree(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		err := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(cmd.Process.Pid)).Run()
		if err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
}
