package cmd

import (
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the stack controls as MCP tools over stdio",
	Long: `Serve the stack controls as MCP tools over stdio so an assistant can
check, start, stop and inspect the local stack.

Logs are written to stderr and the log file; stdout carries the protocol.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	return application.RunMCP(ctx, rootCmd.Version)
}
