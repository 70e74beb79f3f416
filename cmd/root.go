// Package cmd implements the lmbench command line.
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattsolo1/lmbench/pkg/benchmark"
	"github.com/mattsolo1/lmbench/pkg/config"
	"github.com/mattsolo1/lmbench/pkg/exec"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagConfig        = "config"
	flagPredefinedDir = "predefined-dir"
	flagLogLevel      = "log-level"
	keyCDNAccessKey   = "cdn_access_key"
)

// app holds what every subcommand shares.
type app struct {
	v        *viper.Viper
	log      *logrus.Logger
	executor exec.CommandExecutor
	store    *config.Store

	// Set by tests.
	uploader benchmark.Uploader
	prompter Prompter
}

func newApp() *app {
	v := viper.New()
	v.SetEnvPrefix("lmbench")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return &app{v: v, log: log, executor: &exec.RealCommandExecutor{}}
}

// setup reads the global flags once cobra has parsed them.
func (a *app) setup(stderr io.Writer) error {
	level, err := logrus.ParseLevel(a.v.GetString(flagLogLevel))
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	a.log.SetLevel(level)
	a.log.SetOutput(stderr)

	path := a.v.GetString(flagConfig)
	if path == "" {
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	a.store = config.Open(path)
	return nil
}

func (a *app) service() *benchmark.Local {
	opts := []benchmark.Option{benchmark.WithCDNAccessKey(a.v.GetString(keyCDNAccessKey))}
	if a.uploader != nil {
		opts = append(opts, benchmark.WithUploader(a.uploader))
	}
	registry := benchmark.NewRegistry(a.v.GetString(flagPredefinedDir))
	return benchmark.NewLocal(registry, a.store, a.executor, a.log, opts...)
}

func (a *app) recoverer(cmd *cobra.Command) *Recoverer {
	prompter := a.prompter
	if prompter == nil {
		prompter = newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	}
	return &Recoverer{
		Service:  a.service(),
		Store:    a.store,
		Prompter: prompter,
		Out:      cmd.OutOrStdout(),
	}
}

// NewRootCmd builds the lmbench command tree.
func NewRootCmd(version string) *cobra.Command {
	return newRootCmd(version, newApp())
}

func newRootCmd(version string, a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "lmbench",
		Short: "Benchmark deformable model fitting methods",
		Long: `lmbench runs face landmark fitting methods against landmarked image
datasets and reports how they perform.

Experiments, datasets and methods are referenced by predefined name or by
path to a YAML definition file.

Examples:
  # List everything that is predefined
  lmbench list

  # Run a predefined experiment
  lmbench run lfpw_sdm_dlib

  # Set the cache directory
  lmbench config cache_dir /data/lmbench`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.String(flagConfig, "", "Configuration file (default $HOME/.lmbench/config.yml)")
	flags.String(flagPredefinedDir, "predefined", "Directory holding the predefined definitions")
	flags.String(flagLogLevel, "warn", "Log level: debug, info, warn or error")
	_ = a.v.BindPFlags(flags)
	_ = a.v.BindEnv(keyCDNAccessKey)

	root.AddCommand(
		newRunCmd(a),
		newUploadCmd(a),
		newListCmd(a),
		newBBoxCmd(a),
		newTestCmd(a),
		newConfigCmd(a),
	)
	return root
}
