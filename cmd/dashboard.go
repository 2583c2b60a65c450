package cmd

import (
	"workbench/internal/color"

	"github.com/spf13/cobra"
)

var dashboardTheme string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Run the interactive terminal dashboard",
	Long: `Run the interactive terminal dashboard.

The dashboard shows the stack state, the prerequisite check, download
progress and the running log, and drives the same operations as the
command line: check, pull, start, stop and copying the web UI address.`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().StringVar(&dashboardTheme, "theme", string(color.ThemeAuto), "Color theme (auto, dark, light)")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	theme, err := color.ParseTheme(dashboardTheme)
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

	return application.RunDashboard(ctx, theme)
}
