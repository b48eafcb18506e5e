//go:build !windows

package service

import (
	"os/exec"
	"syscall"
)

// setDetachAttrs puts the child in its own session so it has no controlling
// terminal and never receives the hang-up signal when the invoking terminal
// session ends.
func setDetachAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
