package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"workbench/internal/containerizer"

	"github.com/mark3labs/mcp-go/mcp"
)

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.orch.Status(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get status: %v", err)), nil
	}
	return jsonResult(st)
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.orch.StartStack(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Start failed: %v", err)), nil
	}

	msg := fmt.Sprintf("Services ready after %d health check(s)", res.Probe.Attempts)
	if res.Warning != nil {
		msg += fmt.Sprintf("\nFile access registration skipped: %v", res.Warning)
	}
	return mcp.NewToolResultText(msg), nil
}

func (s *Server) handleStop(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.orch.Stop(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Stop failed: %v", err)), nil
	}
	return mcp.NewToolResultText("Services stopped"), nil
}

func (s *Server) handleLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	service, err := request.RequireString("service")
	if err != nil {
		return mcp.NewToolResultError("service parameter is required"), nil
	}

	tail := containerizer.DefaultLogTail
	if raw, ok := request.GetArguments()["tail"]; ok {
		n, ok := raw.(float64)
		if !ok || n < 1 {
			return mcp.NewToolResultError("tail must be a positive number"), nil
		}
		tail = int(n)
	}

	out, err := s.orch.Logs(ctx, service, tail)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read logs: %v", err)), nil
	}
	if strings.TrimSpace(out) == "" {
		return mcp.NewToolResultText(fmt.Sprintf("No log output for %s", service)), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) handleSetupCheck(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := s.orch.CheckPrerequisites(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Check failed: %v", err)), nil
	}

	switch {
	case !p.Installed:
		return mcp.NewToolResultText(fmt.Sprintf("Docker Desktop is not installed. Download it from %s", containerizer.RuntimeDownloadURL)), nil
	case !p.Running:
		return mcp.NewToolResultText(fmt.Sprintf("Docker is installed at %s but not running", p.Location)), nil
	default:
		return mcp.NewToolResultText(fmt.Sprintf("Docker is installed at %s and running", p.Location)), nil
	}
}

func (s *Server) handleWebUIURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := s.orch.WebUIURL()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load configuration: %v", err)), nil
	}
	return mcp.NewToolResultText(url), nil
}
