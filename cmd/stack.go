package cmd

import (
	"fmt"

	"workbench/internal/cli"
	"workbench/internal/containerizer"

	"github.com/atotto/clipboard"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	logsTail           int
	statusOutputFormat string
	psOutputFormat     string
	urlCopy            bool
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull the images of every service",
	Args:  cobra.NoArgs,
	RunE:  runPull,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the stack and wait until the web UI is ready",
	Long: `Start the stack and wait until the web UI is ready.

The environment file is rewritten from the configuration, the stack
definition is validated against it, the services are started, and the
web UI health endpoint is polled until it answers. Once ready, the
file-access tool is registered with the web UI; a failed registration is
reported as a warning and does not fail the command.`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop all services",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

var logsCmd = &cobra.Command{
	Use:   "logs <service>",
	Short: "Show the most recent log lines of a service",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogs,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stack state and its containers",
	Long: `Show the stack state and its containers.

A fresh invocation has no operation history of its own, so the state is
derived from the containers the engine reports and marked as such.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List the stack's containers",
	Args:  cobra.NoArgs,
	RunE:  runPs,
}

var urlCmd = &cobra.Command{
	Use:   "url",
	Short: "Print the web UI address",
	Args:  cobra.NoArgs,
	RunE:  runURL,
}

func init() {
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(psCmd)
	rootCmd.AddCommand(urlCmd)

	logsCmd.Flags().IntVar(&logsTail, "tail", containerizer.DefaultLogTail, "Number of lines to show")
	statusCmd.Flags().StringVarP(&statusOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	psCmd.Flags().StringVarP(&psOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	urlCmd.Flags().BoolVar(&urlCopy, "copy", false, "Copy the URL to the clipboard")
}

func runPull(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	return withConsole(cmd, application, func() error {
		return application.Services().Orchestrator.PullImages(ctx)
	})
}

func runStart(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	orch := application.Services().Orchestrator
	err = withConsole(cmd, application, func() error {
		res, err := orch.StartStack(ctx)
		if err != nil {
			return err
		}
		if res.Warning != nil {
			color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "Warning: %v\n", res.Warning)
		}
		return nil
	})
	if err != nil {
		return err
	}

	url, err := orch.WebUIURL()
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Web UI ready at %s\n", url)
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	return withConsole(cmd, application, func() error {
		return application.Services().Orchestrator.Stop(ctx)
	})
}

func runLogs(cmd *cobra.Command, args []string) error {
	if logsTail < 1 {
		return fmt.Errorf("--tail must be positive")
	}
	application, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	out, err := application.Services().Orchestrator.Logs(ctx, args[0], logsTail)
	fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

func runStatus(cmd *cobra.Command, args []string) error {
	printer, err := cli.NewPrinter(cmd.OutOrStdout(), statusOutputFormat)
	if err != nil {
		return err
	}

	application, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	st, err := application.Services().Orchestrator.Status(ctx)
	if err != nil {
		return err
	}
	return printer.Status(st)
}

func runPs(cmd *cobra.Command, args []string) error {
	printer, err := cli.NewPrinter(cmd.OutOrStdout(), psOutputFormat)
	if err != nil {
		return err
	}

	application, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	containers, err := application.Services().Orchestrator.Containers(ctx)
	if err != nil {
		return err
	}
	return printer.Containers(containers)
}

func runURL(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	url, err := application.Services().Orchestrator.WebUIURL()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), url)

	if urlCopy {
		if err := clipboard.WriteAll(url); err != nil {
			return fmt.Errorf("failed to copy URL: %w", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Copied to clipboard")
	}
	return nil
}
