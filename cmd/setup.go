package cmd

import (
	"errors"
	"fmt"
	"strings"

	"workbench/internal/cli"
	"workbench/internal/containerizer"
	"workbench/internal/orchestrator"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

var (
	setupOutputFormat string
	setupInstallDest  string
	setupCopy         bool
)

var errRuntimeNotReady = errors.New("Docker is not ready")

// setupCmd groups the first-run provisioning steps
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Prepare this machine to run the stack",
	Long: `Prepare this machine to run the stack.

Available commands:
  check              - Check that Docker Desktop is installed and running
  install            - Download and install a prerequisite artifact
  open-runtime-page  - Show where to download Docker Desktop`,
}

var setupCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that Docker Desktop is installed and running",
	Long: `Check that Docker Desktop is installed and running.

Docker counts as installed when Docker Desktop is found at its usual
location or a docker executable is on the PATH, and as running when
'docker info' succeeds. The command exits non-zero when Docker is not ready.`,
	Args: cobra.NoArgs,
	RunE: runSetupCheck,
}

var setupInstallCmd = &cobra.Command{
	Use:   "install [artifact]",
	Short: "Download and install a prerequisite artifact",
	Long: fmt.Sprintf(`Download a prerequisite installer, record its SHA-256 digest next to it
and run it unattended.

Known artifacts: %s (default vcredist).`, strings.Join(orchestrator.ArtifactNames(), ", ")),
	Args: cobra.MaximumNArgs(1),
	RunE: runSetupInstall,
}

var setupOpenRuntimePageCmd = &cobra.Command{
	Use:   "open-runtime-page",
	Short: "Show where to download Docker Desktop",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), containerizer.RuntimeDownloadURL)
		if setupCopy {
			if err := clipboard.WriteAll(containerizer.RuntimeDownloadURL); err != nil {
				return fmt.Errorf("failed to copy URL: %w", err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Copied to clipboard")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)

	setupCmd.AddCommand(setupCheckCmd)
	setupCmd.AddCommand(setupInstallCmd)
	setupCmd.AddCommand(setupOpenRuntimePageCmd)

	setupCheckCmd.Flags().StringVarP(&setupOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	setupInstallCmd.Flags().StringVar(&setupInstallDest, "dest", "", "Download directory (default: <data-dir>/downloads)")
	setupOpenRuntimePageCmd.Flags().BoolVar(&setupCopy, "copy", false, "Copy the URL to the clipboard")
}

func runSetupCheck(cmd *cobra.Command, args []string) error {
	printer, err := cli.NewPrinter(cmd.OutOrStdout(), setupOutputFormat)
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

	p, err := application.Services().Orchestrator.CheckPrerequisites(ctx)
	if err != nil {
		return err
	}
	if err := printer.Prerequisites(p); err != nil {
		return err
	}
	if !p.Ready() {
		return errRuntimeNotReady
	}
	return nil
}

func runSetupInstall(cmd *cobra.Command, args []string) error {
	name := "vcredist"
	if len(args) == 1 {
		name = args[0]
	}
	spec, err := orchestrator.LookupArtifact(name)
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

	return withConsole(cmd, application, func() error {
		_, err := application.Services().Orchestrator.InstallArtifact(ctx, spec, setupInstallDest)
		return err
	})
}
