package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"workbench/internal/app"
	"workbench/internal/reporting"

	"github.com/spf13/cobra"
)

var (
	// dataDir overrides the per-user application data directory.
	dataDir string
	// stackFile points at the compose file describing the stack.
	stackFile string
	// debug enables verbose logging across the application.
	debug bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "workbench",
	Short: "Provision and run a local LLM stack",
	Long: `workbench provisions and runs a local LLM stack: a chat web UI, a local
inference server and a file-access service, all started through Docker
Compose from one stack definition.

It checks that Docker Desktop is installed and running, keeps the stack
configuration in a single JSON file, starts the services, waits for the
web UI to become healthy and registers the file-access tool with it.`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. failed steps, invalid configuration)
	SilenceUsage: true,
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "workbench version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Application data directory (default: per-user config dir, or $WORKBENCH_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&stackFile, "stack-file", "", "Stack definition file (default: $"+app.StackFileEnv+" or "+app.DefaultStackFile+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}

// newApplication bootstraps services from the persistent flags. Logs go to
// stderr so stdout carries only command output.
func newApplication(cmd *cobra.Command) (*app.Application, error) {
	return app.NewApplication(app.NewConfig(dataDir, stackFile, debug), cmd.ErrOrStderr())
}

// commandContext returns the command's context, cancelled on interrupt.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// withConsole prints the event stream to the command's output while fn runs.
func withConsole(cmd *cobra.Command, application *app.Application, fn func() error) error {
	console := reporting.NewConsoleReporter(application.Services().Bus, cmd.OutOrStdout())
	err := fn()
	console.Close()
	return err
}
