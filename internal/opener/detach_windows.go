//go:build windows

package opener

import "os/exec"

func detach(cmd *exec.Cmd) {}
