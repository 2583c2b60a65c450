package cmd

import (
	"fmt"

	"workbench/internal/fetch"
	"workbench/internal/orchestrator"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var downloadDest string

var downloadCmd = &cobra.Command{
	Use:   "download <artifact>",
	Short: "Download an artifact without installing it",
	Long: `Download an artifact, following redirects, and record its SHA-256 digest
in a .sha256 file next to it.`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

var verifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Check a downloaded file against its recorded digest",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(verifyCmd)

	downloadCmd.Flags().StringVar(&downloadDest, "dest", "", "Download directory (default: <data-dir>/downloads)")
}

func runDownload(cmd *cobra.Command, args []string) error {
	spec, err := orchestrator.LookupArtifact(args[0])
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

	var artifact fetch.Artifact
	err = withConsole(cmd, application, func() error {
		artifact, err = application.Services().Orchestrator.DownloadArtifact(ctx, spec, downloadDest)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", artifact.Path, artifact.Digest)
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	path := args[0]
	recorded, err := fetch.ReadSidecar(path)
	if err != nil {
		return err
	}
	actual, err := fetch.Verify(path)
	if err != nil {
		return err
	}
	if actual != recorded {
		return fmt.Errorf("digest mismatch for %s: recorded %s, actual %s", path, recorded, actual)
	}
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "OK %s\n", actual)
	return nil
}
