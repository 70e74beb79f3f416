package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattsolo1/lmbench/pkg/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config [key] [value]",
		Short: "Show or update the lmbench configuration",
		Long: fmt.Sprintf(`Show or update the lmbench configuration.

Known keys: %s

Examples:
  # Show the configuration
  lmbench config

  # Show one value
  lmbench config cache_dir

  # Set a value
  lmbench config cache_dir /data/lmbench`, strings.Join(config.Keys(), ", ")),
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch len(args) {
			case 0:
				return showConfig(cmd, a.store)
			case 1:
				value, err := a.store.Get(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			}

			out := cmd.OutOrStdout()
			if err := a.store.Validate(args[0], args[1]); err != nil {
				fmt.Fprintf(out, "%s %v\n", color.RedString("✗"), err)
				return &ExitError{Code: 1}
			}
			if err := a.store.Set(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(out, "* Updated %s\n", a.store.Path())
			return nil
		},
	}
}

func showConfig(cmd *cobra.Command, store *config.Store) error {
	out := cmd.OutOrStdout()
	data, err := os.ReadFile(store.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(out, "No configuration file at %s\n", store.Path())
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	fmt.Fprintf(out, "# %s\n%s", store.Path(), data)
	return nil
}
