package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/mattsolo1/lmbench/pkg/benchmark"
	"github.com/spf13/cobra"
)

func newBBoxCmd(a *app) *cobra.Command {
	var opts benchmark.BBoxOptions

	cmd := &cobra.Command{
		Use:   "bbox <detector> <pattern>",
		Short: "Save bounding boxes for a set of images",
		Long: `Run a detector over every image matching a glob pattern and save one
bounding box file next to each image.

Examples:
  lmbench bbox dlib_frontal './lfpw/testset/*.png'

  # Fall back to the ground truth landmarks where the detector fails
  lmbench bbox dlib_frontal './lfpw/testset/*.png' --synthesize`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := a.service().SaveBoundingBoxes(cmd.Context(), args[0], args[1], opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Wrote %d bounding boxes (%d synthesized, %d already present)\n",
				color.GreenString("✓"), summary.Written, summary.Synthesized, summary.Skipped)
			if len(summary.Problematic) > 0 {
				fmt.Fprintf(out, "%s No bounding box for %d images:\n", color.YellowString("⚠"), len(summary.Problematic))
				for _, img := range summary.Problematic {
					fmt.Fprintf(out, "   %s\n", img)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Synthesize, "synthesize", false, "Synthesize boxes from ground truth landmarks when detection fails")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "Replace existing bounding box files")
	return cmd
}
