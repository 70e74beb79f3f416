package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/mattsolo1/lmbench/pkg/benchmark"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		output     string
		overwrite  bool
		matlab     bool
		forceLocal bool
	)

	cmd := &cobra.Command{
		Use:   "run <experiment>",
		Short: "Run a benchmark experiment",
		Long: `Run every method of an experiment and write the results.

The experiment is a predefined name or a path to an experiment file.
Results go to <experiment>-results unless --output is given.

If the cache directory or the Matlab binary is not configured yet, you are
asked for it and the run continues.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := benchmark.Request{
				Experiment:   args[0],
				OutputDir:    output,
				Overwrite:    overwrite,
				MatlabExport: matlab,
				ForceLocal:   forceLocal,
			}
			if err := a.recoverer(cmd).Run(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Finished %s\n", color.GreenString("✓"), req.Experiment)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Directory to write results to")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace the output directory if it exists")
	cmd.Flags().BoolVar(&matlab, "mat", false, "Also export results in Matlab format")
	cmd.Flags().BoolVar(&forceLocal, "force", false, "Recompute results even if they are cached")
	return cmd
}

func newUploadCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "upload <experiment>",
		Short: "Run a predefined experiment and upload the results",
		Long: `Run a predefined experiment and upload each method's results to the CDN.

Uploading needs cdn_url in the configuration and the LMBENCH_CDN_ACCESS_KEY
environment variable. Results that are already uploaded are only replaced
with --force.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmp, err := os.MkdirTemp("", "lmbench-upload-")
			if err != nil {
				return fmt.Errorf("create temporary output directory: %w", err)
			}
			defer os.RemoveAll(tmp)

			req := benchmark.Request{
				Experiment:  args[0],
				OutputDir:   filepath.Join(tmp, "results"),
				Upload:      true,
				UploadForce: force,
			}
			if err := a.recoverer(cmd).Run(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Uploaded %s\n", color.GreenString("✓"), req.Experiment)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace results that are already uploaded")
	return cmd
}
