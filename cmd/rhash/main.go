package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	recursivehasher "github.com/mattkeenan/recursivehasher/pkg"
)

var appVersion = "dev"

// app holds the state shared by every command of one invocation
type app struct {
	configDir string
	overrides []string
	verbose   int

	config *recursivehasher.Config
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rhash [DIRECTORY]",
		Short: "Hash directory trees and compare the results",
		Long: `rhash records a content digest for every file under a directory and
compares two such datasets to find files that were altered, added or removed.

Without arguments rhash starts an interactive menu. Given a directory it
analyzes that directory straight away.`,
		Version:           appVersion,
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runInteractive(cmd.Context(), a, cmd.InOrStdin(), cmd.OutOrStdout())
			}
			info, err := os.Stat(args[0])
			if err != nil || !info.IsDir() {
				return fmt.Errorf("%s is not a valid directory", args[0])
			}
			return runAnalyze(a, args[0], cmd.OutOrStdout())
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configDir, "config-dir", recursivehasher.DefaultConfigDir(), "configuration directory")
	rootCmd.PersistentFlags().StringArrayVarP(&a.overrides, "option", "o", nil, "override a configuration value (key:value)")
	rootCmd.PersistentFlags().CountVarP(&a.verbose, "verbose", "v", "increase verbosity (repeatable)")

	rootCmd.AddCommand(newAnalyzeCmd(a), newCompareCmd(a))
	return rootCmd
}

func newAnalyzeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze DIRECTORY",
		Short: "Hash every file under DIRECTORY and save the dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(a, args[0], cmd.OutOrStdout())
		},
	}
}

func newCompareCmd(a *app) *cobra.Command {
	var copyFiles bool
	cmd := &cobra.Command{
		Use:   "compare DATASET_A DATASET_B",
		Short: "Compare two saved datasets and save their differences",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd.Context(), a, args[0], args[1], copyFiles, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&copyFiles, "copy", false, "copy differing files into the results directory")
	return cmd
}

// setup runs the platform checks, loads configuration and initialises logging
func (a *app) setup(cmd *cobra.Command, args []string) error {
	checkPlatform(cmd.ErrOrStderr())
	if err := checkKernelVersion(); err != nil {
		return err
	}

	cfg, err := recursivehasher.LoadConfig(a.configDir)
	if err != nil {
		return err
	}
	if err := cfg.ApplyOverrides(a.overrides); err != nil {
		return err
	}
	if a.verbose > 0 {
		if err := cfg.ApplyOverrides([]string{fmt.Sprintf("level:%d", a.verbose)}); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	recursivehasher.InitLogging(cfg.GetVerboseConfig())
	a.config = cfg
	return nil
}

func main() {
	ctx, stop := setupSignalHandler(context.Background())
	defer stop()

	if err := fang.Execute(ctx, newRootCmd(&app{})); err != nil {
		stop()
		os.Exit(1)
	}
}
