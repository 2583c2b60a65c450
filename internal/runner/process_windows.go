//go:build windows

package runner

import (
	"os/exec"
	"syscall"
)

// configureCmd hides the console window a child would otherwise flash open
// when launched from the desktop shell.
func configureCmd(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
}
