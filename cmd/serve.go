package cmd

import (
	"fmt"

	"workbench/internal/api"

	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the workbench operations over local HTTP",
	Long: `Expose the workbench operations over a local HTTP API for a desktop shell.

Operations are served as JSON under /api, and the progress event stream is
available as server-sent events on /api/events. Only one lifecycle operation
runs at a time; a second one is answered with 409 Conflict.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", api.DefaultAddr, "Listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	fmt.Fprintf(cmd.ErrOrStderr(), "Listening on http://%s\n", serveAddr)
	return application.RunServer(ctx, serveAddr)
}
