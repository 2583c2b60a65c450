// Package agent exposes the stack orchestrator as MCP (Model Context Protocol)
// tools so an assistant can inspect and drive the local stack.
//
// The server speaks MCP over stdio and is started by `workbench mcp`:
//
//	srv := agent.NewServer(orch, version)
//	if err := srv.ServeStdio(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Tools:
//
//	stack_status   state, web UI address and containers
//	stack_start    run the start sequence and wait for readiness
//	stack_stop     stop all services
//	stack_logs     tail a service's logs
//	setup_check    probe the container runtime
//	webui_url      the web UI address
//
// Tool failures, including a busy orchestrator, are returned as error
// results rather than protocol errors.
package agent
