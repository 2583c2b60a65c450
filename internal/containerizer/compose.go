// Package containerizer drives the container runtime that hosts the stack:
// docker compose invocations, stack-definition loading, engine queries and
// the installed/running prerequisite probes.
package containerizer

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"workbench/internal/runner"

	"github.com/compose-spec/compose-go/v2/dotenv"
)

const (
	// ProjectName is the compose project every invocation is scoped to.
	ProjectName = "workbench"
	// DefaultLogTail bounds how many lines Logs returns per service.
	DefaultLogTail = 100
)

// Executor runs an external command. *runner.Runner satisfies it.
type Executor interface {
	Run(ctx context.Context, e runner.Execution) runner.Result
}

// Compose issues docker compose subcommands against one stack definition.
// Every invocation names the environment file and stack file explicitly and
// carries the file's keys in the process environment, where compose gives
// them precedence over same-named variables of the invoking shell.
type Compose struct {
	exec      Executor
	binary    string
	stackFile string
	envFile   string
}

// NewCompose returns a Compose bound to stackFile and envFile.
func NewCompose(exec Executor, stackFile, envFile string) *Compose {
	return &Compose{exec: exec, binary: "docker", stackFile: stackFile, envFile: envFile}
}

// Pull fetches every service image.
func (c *Compose) Pull(ctx context.Context, sink runner.Sink) runner.Result {
	return c.run(ctx, sink, "pull")
}

// Up starts the stack detached, rebuilding local images. Compose treats an
// already-running service as up to date.
func (c *Compose) Up(ctx context.Context, sink runner.Sink) runner.Result {
	return c.run(ctx, sink, "up", "-d", "--build")
}

// Down stops and removes the stack's containers. Running it against a stack
// that is not up exits 0.
func (c *Compose) Down(ctx context.Context, sink runner.Sink) runner.Result {
	return c.run(ctx, sink, "down")
}

// Logs returns the last tail lines of one service.
func (c *Compose) Logs(ctx context.Context, service string, tail int, sink runner.Sink) runner.Result {
	if tail <= 0 {
		tail = DefaultLogTail
	}
	return c.run(ctx, sink, "logs", "--no-color", "--tail", strconv.Itoa(tail), service)
}

// args returns the full argument vector for a compose subcommand.
func (c *Compose) args(sub ...string) []string {
	args := []string{"compose", "--env-file", c.envFile, "-f", c.stackFile, "-p", ProjectName}
	return append(args, sub...)
}

// env returns the environment descriptor as sorted KEY=VALUE pairs.
func (c *Compose) env() ([]string, error) {
	values, err := dotenv.Read(c.envFile)
	if err != nil {
		return nil, fmt.Errorf("read environment descriptor: %w", err)
	}
	env := make([]string, 0, len(values))
	for k, v := range values {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env, nil
}

func (c *Compose) run(ctx context.Context, sink runner.Sink, sub ...string) runner.Result {
	env, err := c.env()
	if err != nil {
		return runner.Result{ExitCode: runner.SpawnFailedExitCode, SpawnErr: err}
	}
	return c.exec.Run(ctx, runner.Execution{
		Command: c.binary,
		Args:    c.args(sub...),
		Env:     env,
		Sink:    sink,
	})
}
