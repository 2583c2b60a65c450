package cmd

import (
	"fmt"
	"strings"

	"workbench/internal/cli"
	"workbench/internal/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	configOutputFormat string
	configReveal       bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change the stack configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stack configuration",
	Long: `Print the stack configuration. The file-access API key is masked unless
--reveal is given.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set key=value...",
	Short: "Change one or more configuration values",
	Long: fmt.Sprintf(`Change one or more configuration values and save the result.

Keys: %s
allowedFolders takes a comma-separated list.`, strings.Join(config.Keys(), ", ")),
	Args: cobra.MinimumNArgs(1),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the locations of the files workbench manages",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)

	configShowCmd.Flags().StringVarP(&configOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	configShowCmd.Flags().BoolVar(&configReveal, "reveal", false, "Show secrets in clear text")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	printer, err := cli.NewPrinter(cmd.OutOrStdout(), configOutputFormat)
	if err != nil {
		return err
	}

	application, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	cfg, err := application.Services().Orchestrator.Config()
	if err != nil {
		return err
	}
	return printer.Config(cfg, configReveal)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	orch := application.Services().Orchestrator
	cfg, err := orch.Config()
	if err != nil {
		return err
	}

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("%w: expected key=value, got %q", config.ErrInvalid, arg)
		}
		if err := cfg.Set(key, value); err != nil {
			return err
		}
	}

	warnings, err := orch.SaveConfig(cfg)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "Warning: %s\n", w)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Configuration saved")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	paths, err := config.ResolvePaths(dataDir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Data directory: %s\n", paths.DataDir)
	fmt.Fprintf(out, "Configuration:  %s\n", paths.ConfigFile)
	fmt.Fprintf(out, "Environment:    %s\n", paths.EnvFile)
	fmt.Fprintf(out, "Log file:       %s\n", paths.LogFile)
	fmt.Fprintf(out, "Downloads:      %s\n", paths.DownloadsDir)
	return nil
}
