package agent

import (
	"context"
	"os"

	"workbench/internal/containerizer"
	"workbench/internal/orchestrator"
	"workbench/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const serverName = "workbench"

// Orchestrator is the subset of the stack orchestrator the tools call.
type Orchestrator interface {
	CheckPrerequisites(ctx context.Context) (containerizer.Prerequisites, error)
	StartStack(ctx context.Context) (orchestrator.StartResult, error)
	Stop(ctx context.Context) error
	Logs(ctx context.Context, service string, tail int) (string, error)
	Status(ctx context.Context) (orchestrator.Status, error)
	WebUIURL() (string, error)
}

// Server is an MCP server backed by an Orchestrator.
type Server struct {
	orch Orchestrator
	mcp  *server.MCPServer
}

// NewServer creates the MCP server and registers every tool.
func NewServer(orch Orchestrator, version string) *Server {
	s := &Server{
		orch: orch,
		mcp: server.NewMCPServer(
			serverName,
			version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}
	for _, t := range s.tools() {
		s.mcp.AddTool(t.tool, t.handler)
	}
	return s
}

// ServeStdio serves MCP on stdin/stdout until ctx is cancelled or stdin closes.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcp)
	logging.Debug("MCP", "Listening on stdio with %d tools", len(s.tools()))
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

type toolEntry struct {
	tool    mcp.Tool
	handler server.ToolHandlerFunc
}

func (s *Server) tools() []toolEntry {
	return []toolEntry{
		{
			tool: mcp.NewTool("stack_status",
				mcp.WithDescription("Show the orchestrator state, the web UI address and the stack's containers"),
			),
			handler: s.handleStatus,
		},
		{
			tool: mcp.NewTool("stack_start",
				mcp.WithDescription("Start all services and wait until the web UI answers its health check"),
			),
			handler: s.handleStart,
		},
		{
			tool: mcp.NewTool("stack_stop",
				mcp.WithDescription("Stop all services of the stack"),
			),
			handler: s.handleStop,
		},
		{
			tool: mcp.NewTool("stack_logs",
				mcp.WithDescription("Show the most recent log lines of one service"),
				mcp.WithString("service",
					mcp.Required(),
					mcp.Description("Service name from the stack definition, e.g. webui"),
				),
				mcp.WithNumber("tail",
					mcp.Description("Number of lines to return (default 100)"),
				),
			),
			handler: s.handleLogs,
		},
		{
			tool: mcp.NewTool("setup_check",
				mcp.WithDescription("Check whether Docker Desktop is installed and running"),
			),
			handler: s.handleSetupCheck,
		},
		{
			tool: mcp.NewTool("webui_url",
				mcp.WithDescription("Return the address of the local web UI"),
			),
			handler: s.handleWebUIURL,
		},
	}
}
