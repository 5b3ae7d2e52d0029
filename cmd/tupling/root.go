package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"umd-lhcb/tupling/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

// defaultConfigFile is read when present and --config is not given.
const defaultConfigFile = "tupling.yaml"

var rootCmd = &cobra.Command{
	Use:   "tupling",
	Short: "Tupling - cut expressions and cutflows over ntuples",
	Long: `Tupling evaluates boolean cut expressions over columnar ntuple data and
produces cutflow tables from ordered selection rules.

Data files are YAML fixtures (.yaml, .yml) or SQLite databases (.db, .sqlite),
one table per tree and one column per branch. Several files are concatenated
per branch.

Configuration is read from tupling.yaml (or --config) and overridden by
TUPLING_* environment variables.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return teardown(cmd.Context())
	},
}

// Execute runs the root command and exits with the code for its error.
func Execute() {
	if code := run(os.Args[1:], os.Stderr); code != cli.ExitOK {
		os.Exit(code)
	}
}

// run executes args and reports a failure, prefixed by the failing command,
// on stderr. It returns the process exit code.
func run(args []string, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return cli.ExitOK
	}

	cerr := cli.NewCommandError(cmd.CommandPath(), err)
	fmt.Fprintln(stderr, cerr)
	return cerr.ExitCode()
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return cli.NewConfigError("flags", err.Error())
	})
}
