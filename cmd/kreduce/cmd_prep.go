package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"kreduce/pkg/bundle"
	"kreduce/pkg/console"
	"kreduce/pkg/csource"
	"kreduce/pkg/extract"
	"kreduce/pkg/kbuild"
	"kreduce/pkg/logging"
)

var (
	prepBuildRoot string
	prepOutputDir string
	prepForce     bool
	prepPolicy    string
	prepNoGoFast  bool
)

var prepLogger *slog.Logger

var prepCmd = &cobra.Command{
	Use:   "prep <target> [-- <custom build command...>]",
	Short: "Build a target and assemble its reproducer bundle",
	Long: `Build one kernel target with verbose output, extract the compiler
invocation that compiled it, and write a reproducer bundle (preprocessed .i
file, test.sh, flags.txt) into the output directory.

The default build command is "make -j<ncpu> V=1". Pass a custom one after
--, e.g.:

  kreduce prep lib/string.o -p ~/src/linux -- make -j8 LLVM=1`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prepLogger = logging.NewLoggerFromEnv()

		positional := args
		var custom []string
		if dash := cmd.ArgsLenAtDash(); dash >= 0 {
			positional = args[:dash]
			custom = args[dash:]
		}
		if len(positional) != 1 {
			return fmt.Errorf("expected exactly one target, got %d; put the build command after --", len(positional))
		}

		target, err := kbuild.ParseTarget(positional[0])
		if err != nil {
			return err
		}
		policy, err := extract.ParsePolicy(prepPolicy)
		if err != nil {
			return err
		}

		return runPrep(target, custom, policy)
	},
}

func runPrep(target kbuild.Target, custom []string, policy extract.MatchPolicy) error {
	compiler, err := kbuild.DetectCompiler(prepBuildRoot)
	if err != nil {
		return err
	}
	console.Info("Using CC=%s", compiler)

	buildCmd := custom
	if len(buildCmd) == 0 {
		buildCmd = kbuild.DefaultCommand()
	} else {
		before := len(buildCmd)
		buildCmd = kbuild.EnsureVerbose(buildCmd)
		if len(buildCmd) != before {
			console.Info("Adding V=1 to build command")
		}
	}
	if err := kbuild.ValidateCommand(buildCmd); err != nil {
		return err
	}

	console.Info("Building %s...", target.Object())
	prepLogger.Info("running build",
		"component", "kbuild",
		"operation", "build",
		"target", target.Object(),
		"build_root", prepBuildRoot)

	invoker := &kbuild.Invoker{BuildRoot: prepBuildRoot, Command: buildCmd}
	buildLog, err := invoker.Build(target.Object())
	if err != nil {
		return failStage(exitBuild, err)
	}
	if buildLog.ExitCode != 0 {
		console.Warn("build exited with code %d; trying to extract a compile command anyway", buildLog.ExitCode)
	}

	cc, err := extract.Extract(buildLog.Output, target.Source(), policy)
	if err != nil {
		if buildLog.ExitCode != 0 {
			return failStage(exitBuild, &kbuild.ExecError{
				Stage:  "build",
				Args:   buildCmd,
				Output: tail(buildLog.Output, 4096),
				Code:   buildLog.ExitCode,
			})
		}
		return failStage(exitExtract, err)
	}
	prepLogger.Info("compile command extracted",
		"component", "extract",
		"compiler", cc.Compiler,
		"source", cc.Source,
		"flags", len(cc.Flags))

	if err := confirmOverwrites(target); err != nil {
		return err
	}

	fs := extract.Classify(cc.Flags)
	console.Info("Preprocessing %s...", cc.Source)
	b, err := bundle.Assemble(cc, fs, bundle.Options{
		BuildRoot: prepBuildRoot,
		OutputDir: prepOutputDir,
		Compiler:  compiler,
		GoFast:    !prepNoGoFast,
	})
	if err != nil {
		var execErr *kbuild.ExecError
		if errors.As(err, &execErr) && execErr.Stage == "preprocess" {
			return failStage(exitPreprocess, err)
		}
		return failStage(exitWrite, err)
	}

	inspectBundle(b.Source)

	console.Success("Wrote %s", b.Flags)
	console.Success("Wrote %s", b.Script)
	console.Success("Wrote %s", b.Source)
	console.Todo("Now, edit the last line of test.sh with an interestingness test\n" +
		"that captures the behavior you are after. Then reduce with:\n" +
		"  $ kreduce code     # C-Vise on the .i file\n" +
		"  $ kreduce flags    # llvm-reduce on the flag list")
	return nil
}

// confirmOverwrites prompts before clobbering an existing bundle unless -f
// was given.
func confirmOverwrites(target kbuild.Target) error {
	if prepForce {
		return nil
	}
	for _, name := range []string{bundle.ScriptName, target.Preprocessed()} {
		path := filepath.Join(prepOutputDir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if !console.Confirm("%s already exists. Overwrite it?", path) {
			return fmt.Errorf("not overwriting %s", path)
		}
	}
	return nil
}

// inspectBundle parses the generated .i file and reports its shape. A
// translation unit full of parse errors usually means the wrong log line
// won; warn now instead of midway through a reduction.
func inspectBundle(path string) {
	report, err := csource.Inspect(path)
	if err != nil {
		console.Warn("could not inspect %s: %v", filepath.Base(path), err)
		return
	}
	prepLogger.Info("translation unit inspected",
		"component", "csource",
		"functions", report.Functions,
		"lines", report.Lines,
		"parse_errors", report.ParseErrors)
	console.Info("%s: %d functions, %d lines", filepath.Base(path), report.Functions, report.Lines)
	if report.ParseErrors > 0 {
		console.Warn("%s has %d parse errors; the extracted compile command may be wrong", filepath.Base(path), report.ParseErrors)
	}
}

func tail(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[len(b)-n:]
}

func init() {
	prepCmd.Flags().StringVarP(&prepBuildRoot, "build-root", "p", ".", "Path to the kernel source tree")
	prepCmd.Flags().StringVarP(&prepOutputDir, "output", "o", ".", "Output directory for the reproducer bundle (created if missing)")
	prepCmd.Flags().BoolVarP(&prepForce, "force", "f", false, "Overwrite existing bundle files without prompting")
	prepCmd.Flags().StringVar(&prepPolicy, "policy", "prefer-compile", "Compile-line match policy: prefer-compile, last-match or strict")
	prepCmd.Flags().BoolVar(&prepNoGoFast, "no-go-fast", false, "Disable -Wfatal-errors in test.sh (slows down C-Vise greatly)")

	rootCmd.AddCommand(prepCmd)
}
