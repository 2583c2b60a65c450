package containerizer

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"workbench/internal/runner"
)

// RuntimeDownloadURL is where the operator gets Docker Desktop.
const RuntimeDownloadURL = "https://www.docker.com/products/docker-desktop/"

// Prerequisites is the outcome of the two runtime probes. Running is only
// probed when Installed is true.
type Prerequisites struct {
	Installed bool   `json:"installed" yaml:"installed"`
	Running   bool   `json:"running" yaml:"running"`
	Location  string `json:"location,omitempty" yaml:"location,omitempty"`
}

// Ready reports whether the stack can be provisioned.
func (p Prerequisites) Ready() bool {
	return p.Installed && p.Running
}

// Overridable in tests.
var (
	lookPath = exec.LookPath
	statFile = os.Stat
	goos     = runtime.GOOS
	getenv   = os.Getenv
)

// RuntimeProbe detects the container runtime on this host.
type RuntimeProbe struct {
	exec Executor
}

// NewRuntimeProbe returns a probe that uses exec for the liveness check.
func NewRuntimeProbe(exec Executor) *RuntimeProbe {
	return &RuntimeProbe{exec: exec}
}

// Check runs the installed probe and, when it passes, the running probe.
func (r *RuntimeProbe) Check(ctx context.Context) Prerequisites {
	var p Prerequisites
	p.Location, p.Installed = r.installed()
	if !p.Installed {
		return p
	}
	p.Running = r.running(ctx)
	return p
}

func (r *RuntimeProbe) installed() (string, bool) {
	for _, candidate := range desktopPaths() {
		if fi, err := statFile(candidate); err == nil && !fi.IsDir() {
			return candidate, true
		}
	}
	if p, err := lookPath("docker"); err == nil {
		return p, true
	}
	return "", false
}

// running asks the engine for its info; any nonzero exit means not running.
func (r *RuntimeProbe) running(ctx context.Context) bool {
	res := r.exec.Run(ctx, runner.Execution{Command: "docker", Args: []string{"info"}})
	return res.Success()
}

func desktopPaths() []string {
	switch goos {
	case "windows":
		var out []string
		for _, env := range []string{"ProgramFiles", "ProgramW6432"} {
			if root := getenv(env); root != "" {
				out = append(out, filepath.Join(root, "Docker", "Docker", "Docker Desktop.exe"))
			}
		}
		return append(out, `C:\Program Files\Docker\Docker\Docker Desktop.exe`)
	case "darwin":
		return []string{"/Applications/Docker.app/Contents/MacOS/Docker Desktop"}
	default:
		return []string{"/opt/docker-desktop/bin/com.docker.backend"}
	}
}
