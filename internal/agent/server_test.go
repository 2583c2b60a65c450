package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"workbench/internal/containerizer"
	"workbench/internal/health"
	"workbench/internal/orchestrator"
	"workbench/internal/registrar"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrchestrator struct {
	prereqs  containerizer.Prerequisites
	startRes orchestrator.StartResult
	logs     string
	tail     int
	err      error
}

func (s *stubOrchestrator) CheckPrerequisites(context.Context) (containerizer.Prerequisites, error) {
	return s.prereqs, s.err
}

func (s *stubOrchestrator) StartStack(context.Context) (orchestrator.StartResult, error) {
	return s.startRes, s.err
}

func (s *stubOrchestrator) Stop(context.Context) error { return s.err }

func (s *stubOrchestrator) Logs(_ context.Context, service string, tail int) (string, error) {
	s.tail = tail
	if service != "webui" {
		return "", fmt.Errorf("%w %q", containerizer.ErrUnknownService, service)
	}
	return s.logs, s.err
}

func (s *stubOrchestrator) Status(context.Context) (orchestrator.Status, error) {
	return orchestrator.Status{State: orchestrator.StateServicesReady, WebUIURL: "http://127.0.0.1:3000"}, s.err
}

func (s *stubOrchestrator) WebUIURL() (string, error) { return "http://127.0.0.1:3000", s.err }

func call(t *testing.T, srv *Server, name string, args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args

	for _, entry := range srv.tools() {
		if entry.tool.Name != name {
			continue
		}
		res, err := entry.handler(context.Background(), req)
		require.NoError(t, err)
		require.NotEmpty(t, res.Content)
		text, ok := res.Content[0].(mcp.TextContent)
		require.True(t, ok)
		return text.Text, res.IsError
	}
	t.Fatalf("tool %s not registered", name)
	return "", false
}

func TestTools(t *testing.T) {
	srv := NewServer(&stubOrchestrator{}, "test")

	names := map[string]bool{}
	for _, entry := range srv.tools() {
		names[entry.tool.Name] = true
	}
	for _, want := range []string{"stack_status", "stack_start", "stack_stop", "stack_logs", "setup_check", "webui_url"} {
		assert.True(t, names[want], want)
	}
	assert.Len(t, names, 6)
}

func TestStackStart(t *testing.T) {
	orch := &stubOrchestrator{startRes: orchestrator.StartResult{
		Probe:   health.Outcome{Ready: true, Attempts: 3},
		Warning: &registrar.Warning{Step: registrar.StepAuthenticate, Err: errors.New("sign-in answered 500")},
	}}
	text, isErr := call(t, NewServer(orch, "test"), "stack_start", nil)

	assert.False(t, isErr)
	assert.Contains(t, text, "after 3 health check(s)")
	assert.Contains(t, text, "registration skipped")
}

func TestBusyIsToolError(t *testing.T) {
	srv := NewServer(&stubOrchestrator{err: orchestrator.ErrBusy}, "test")

	for _, name := range []string{"stack_start", "stack_stop", "setup_check"} {
		text, isErr := call(t, srv, name, nil)
		assert.True(t, isErr, name)
		assert.Contains(t, text, orchestrator.ErrBusy.Error(), name)
	}
}

func TestStackLogs(t *testing.T) {
	orch := &stubOrchestrator{logs: "webui | listening\n"}
	srv := NewServer(orch, "test")

	text, isErr := call(t, srv, "stack_logs", map[string]any{"service": "webui"})
	assert.False(t, isErr)
	assert.Equal(t, "webui | listening\n", text)
	assert.Equal(t, containerizer.DefaultLogTail, orch.tail)

	_, isErr = call(t, srv, "stack_logs", map[string]any{"service": "webui", "tail": float64(5)})
	assert.False(t, isErr)
	assert.Equal(t, 5, orch.tail)

	text, isErr = call(t, srv, "stack_logs", map[string]any{"service": "postgres"})
	assert.True(t, isErr)
	assert.Contains(t, text, "unknown service")

	_, isErr = call(t, srv, "stack_logs", map[string]any{})
	assert.True(t, isErr)

	_, isErr = call(t, srv, "stack_logs", map[string]any{"service": "webui", "tail": "ten"})
	assert.True(t, isErr)
}

func TestSetupCheck(t *testing.T) {
	tests := []struct {
		name    string
		prereqs containerizer.Prerequisites
		want    string
	}{
		{name: "missing", want: containerizer.RuntimeDownloadURL},
		{name: "stopped", prereqs: containerizer.Prerequisites{Installed: true, Location: "/usr/bin/docker"}, want: "not running"},
		{name: "ready", prereqs: containerizer.Prerequisites{Installed: true, Running: true, Location: "/usr/bin/docker"}, want: "and running"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, isErr := call(t, NewServer(&stubOrchestrator{prereqs: tt.prereqs}, "test"), "setup_check", nil)
			assert.False(t, isErr)
			assert.Contains(t, text, tt.want)
		})
	}
}

func TestStatusAndURL(t *testing.T) {
	srv := NewServer(&stubOrchestrator{}, "test")

	text, isErr := call(t, srv, "stack_status", nil)
	assert.False(t, isErr)
	assert.Contains(t, text, `"state": "ServicesReady"`)

	text, isErr = call(t, srv, "webui_url", nil)
	assert.False(t, isErr)
	assert.Equal(t, "http://127.0.0.1:3000", text)
}
