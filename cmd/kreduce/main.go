package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"kreduce/pkg/console"
)

var rootCmd = &cobra.Command{
	Use:   "kreduce",
	Short: "Kernel test-case reduction helper",
	Long: `kreduce: kernel test-case reduction helper
Prepares a minimal reproducer (preprocessed source, test script, flags file)
from a Linux kernel build target, then drives the external reducers over it.
Intended flow is prep -> code (C-Vise) or prep -> flags (llvm-reduce).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		console.Error("%v", err)
		var se *stageError
		if errors.As(err, &se) {
			os.Exit(se.code)
		}
		os.Exit(exitUsage)
	}
}
