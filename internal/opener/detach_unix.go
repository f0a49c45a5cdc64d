//go:build !windows

package opener

import (
	"os/exec"
	"syscall"
)

// detach puts the child in its own session so it survives the UI
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
