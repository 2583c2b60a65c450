// Package runner spawns external commands and streams their combined output.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"workbench/pkg/logging"
)

// SpawnFailedExitCode is reported when the command could not be started at all.
const SpawnFailedExitCode = -1

const (
	maxLineBytes = 1024 * 1024
	waitDelay    = 5 * time.Second
)

// Sink receives each output line as it arrives, without the trailing newline.
type Sink func(line string)

// Execution describes one external-command invocation. Args are passed as a
// literal vector; no shell ever interprets them.
type Execution struct {
	Command string
	Args    []string
	Dir     string
	Env     []string // appended to the inherited environment; these entries win on duplicate keys
	Sink    Sink
}

// String renders the invocation for logs.
func (e Execution) String() string {
	return strings.TrimSpace(e.Command + " " + strings.Join(e.Args, " "))
}

// Result is the outcome of an Execution. ExitCode 0 is the only success.
type Result struct {
	ExitCode int
	Output   string
	// SpawnErr is set when the process never started; ExitCode is then SpawnFailedExitCode.
	SpawnErr error
}

// Success reports whether the command exited with code 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Runner runs executions. The zero value is ready to use.
type Runner struct{}

// New returns a Runner.
func New() *Runner {
	return &Runner{}
}

// Run starts the command, streams stdout and stderr line by line to the sink,
// and waits for it to exit. It never returns an error: every failure is
// expressed through the exit code.
func (r *Runner) Run(ctx context.Context, e Execution) Result {
	cmd := exec.CommandContext(ctx, e.Command, e.Args...)
	cmd.Dir = e.Dir
	if len(e.Env) > 0 {
		cmd.Env = append(cmd.Environ(), e.Env...)
	}
	cmd.WaitDelay = waitDelay
	configureCmd(cmd)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	var (
		output strings.Builder
		wg     sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			line := scanner.Text()
			output.WriteString(line)
			output.WriteByte('\n')
			if e.Sink != nil {
				e.Sink(line)
			}
		}
		// drain anything past an over-long line so the child never blocks on a full pipe
		_, _ = io.Copy(io.Discard, pr)
	}()

	logging.Debug("Runner", "Executing %s", e)

	if err := cmd.Start(); err != nil {
		pw.Close()
		wg.Wait()
		msg := fmt.Sprintf("failed to start %s: %v", e.Command, err)
		if e.Sink != nil {
			e.Sink(msg)
		}
		logging.Debug("Runner", "%s", msg)
		return Result{ExitCode: SpawnFailedExitCode, Output: msg + "\n", SpawnErr: err}
	}

	waitErr := cmd.Wait()
	pw.Close()
	wg.Wait()

	res := Result{Output: output.String()}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) && exitErr.ExitCode() >= 0 {
			res.ExitCode = exitErr.ExitCode()
		} else {
			// killed by a signal or the context
			res.ExitCode = SpawnFailedExitCode
		}
	}
	logging.Debug("Runner", "%s exited with code %d", e.Command, res.ExitCode)
	return res
}
