package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newTestCmd(a *app) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Check the configuration and every predefined definition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.service().SelfTest(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, c := range report.Checks {
				switch {
				case !c.Passed():
					fmt.Fprintf(out, "%s %s: %v\n", color.RedString("✗"), c.Name, c.Err)
				case verbose:
					fmt.Fprintf(out, "%s %s\n", color.GreenString("✓"), c.Name)
				}
			}

			if !report.OK() {
				fmt.Fprintf(out, "\n%d of %d checks failed\n", len(report.Failed()), len(report.Checks))
				return &ExitError{Code: 1}
			}
			fmt.Fprintf(out, "%s All %d checks passed\n", color.GreenString("✓"), len(report.Checks))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show every check, not only failures")
	return cmd
}
