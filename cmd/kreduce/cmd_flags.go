package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"kreduce/pkg/bundle"
	"kreduce/pkg/console"
	"kreduce/pkg/kbuild"
	"kreduce/pkg/logging"
	"kreduce/pkg/reduce"
)

var (
	flagsDir string
	flagsBin string
)

var flagsLogger *slog.Logger

var flagsCmd = &cobra.Command{
	Use:   "flags [-- <extra llvm-reduce args...>]",
	Short: "Reduce the flag list with llvm-reduce",
	Long: `Read flags.txt and test.sh from the bundle directory and hand them to
llvm-reduce, using test.sh as the interestingness test. llvm-reduce's exit
code is passed through unchanged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flagsLogger = logging.NewLoggerFromEnv()

		b, err := bundle.Load(flagsDir, true)
		if err != nil {
			return err
		}

		runner, err := reduce.NewLLVMReduce(flagsBin)
		if err != nil {
			return failStage(exitReducer, err)
		}

		console.Info("Reducing %s with llvm-reduce", b.Flags)
		flagsLogger.Info("starting reducer",
			"component", "reduce",
			"operation", "flags",
			"bin", runner.Bin,
			"dir", flagsDir)

		// llvm-reduce runs inside the bundle directory, so bare names suffice.
		reduceArgs := append([]string{"--test", bundle.ScriptName, bundle.FlagsName}, args...)
		if _, err := runner.Reduce(flagsDir, reduceArgs...); err != nil {
			return passThrough(err)
		}
		console.Success("llvm-reduce finished")
		return nil
	},
}

// passThrough surfaces a reducer's own exit code; anything that is not a
// clean child exit becomes a launch failure.
func passThrough(err error) error {
	var execErr *kbuild.ExecError
	if errors.As(err, &execErr) {
		return failStage(execErr.ExitCode(), err)
	}
	return failStage(exitReducer, err)
}

func init() {
	flagsCmd.Flags().StringVarP(&flagsDir, "path", "p", ".", "Directory containing the reproducer bundle")
	flagsCmd.Flags().StringVarP(&flagsBin, "llvm-reduce-bin", "b", "", "Path to the llvm-reduce binary (default: resolve from PATH)")

	rootCmd.AddCommand(flagsCmd)
}
