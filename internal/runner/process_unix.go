//go:build !windows

package runner

import "os/exec"

// configureCmd is a no-op outside Windows; children share our session so a
// terminal interrupt reaches them too.
func configureCmd(cmd *exec.Cmd) {}
