package main

import (
	"bytes"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"kreduce/pkg/bundle"
	"kreduce/pkg/console"
	"kreduce/pkg/logging"
	"kreduce/pkg/reduce"
)

var (
	codeDir    string
	codeTarget string
	codeBin    string
)

var codeLogger *slog.Logger

var codeCmd = &cobra.Command{
	Use:   "code [-- <extra cvise args...>]",
	Short: "Reduce the preprocessed source with C-Vise",
	Long: `Locate the .i file and test.sh in the bundle directory and hand them to
C-Vise, using test.sh as the interestingness test. C-Vise's exit code is
passed through unchanged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		codeLogger = logging.NewLoggerFromEnv()

		b, err := bundle.Load(codeDir, false)
		if err != nil {
			return err
		}
		source, err := bundle.FindSource(codeDir, codeTarget)
		if err != nil {
			return err
		}

		runner, err := reduce.NewCvise(codeBin)
		if err != nil {
			return failStage(exitReducer, err)
		}

		console.Info("Reducing %s with C-Vise", filepath.Base(source))
		codeLogger.Info("starting reducer",
			"component", "reduce",
			"operation", "code",
			"bin", runner.Bin,
			"source", source)

		// cvise wants bare file names relative to its working directory.
		reduceArgs := append([]string{filepath.Base(b.Script), filepath.Base(source)}, args...)
		output, err := runner.Reduce(codeDir, reduceArgs...)
		if bytes.Contains(output, []byte("cannot run")) {
			console.Error("C-Vise could not run the interestingness test; edit the last line of %s", b.Script)
		}
		if err != nil {
			return passThrough(err)
		}
		console.Success("C-Vise finished")
		return nil
	},
}

func init() {
	codeCmd.Flags().StringVarP(&codeDir, "path", "p", ".", "Directory containing the reproducer bundle")
	codeCmd.Flags().StringVarP(&codeTarget, "target", "t", "", "Which .i file to reduce when several exist")
	codeCmd.Flags().StringVarP(&codeBin, "cvise-bin", "b", "", "Path to the cvise binary (default: resolve from PATH)")

	rootCmd.AddCommand(codeCmd)
}
