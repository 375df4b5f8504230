// Package kbuild runs the kernel build system for a single target and
// captures its verbose output for compile-command extraction.
package kbuild

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// BuildLog is the combined stdout/stderr of one build invocation. A non-zero
// exit code is recorded rather than treated as fatal: a verbose build often
// prints the compile command we need before failing somewhere downstream.
type BuildLog struct {
	Output   []byte
	ExitCode int
}

// Invoker runs the build command for one target inside the build root.
type Invoker struct {
	BuildRoot string
	Command   []string
}

// DefaultCommand is the build command used when the caller does not supply
// one: make -j<ncpu> V=1.
func DefaultCommand() []string {
	return []string{"make", fmt.Sprintf("-j%d", runtime.NumCPU()), "V=1"}
}

// EnsureVerbose appends V=1 when the command does not already carry it.
// Without V=1 the build log never shows the compiler invocation.
func EnsureVerbose(cmd []string) []string {
	for _, part := range cmd {
		if part == "V=1" {
			return cmd
		}
	}
	return append(append([]string{}, cmd...), "V=1")
}

// ValidateCommand rejects build commands that already name a target file;
// the target is a separate argument.
func ValidateCommand(cmd []string) error {
	if len(cmd) == 0 {
		return errors.New("empty build command")
	}
	for _, part := range cmd {
		if strings.HasSuffix(part, ".i") || strings.HasSuffix(part, ".o") {
			return fmt.Errorf("build command must not name a target (%s); pass the target as a separate argument", part)
		}
	}
	return nil
}

// Build runs the configured command with the target appended and captures
// combined output. The returned error is non-nil only when the build could
// not be started at all; an unsuccessful build still yields its log.
func (inv *Invoker) Build(target string) (*BuildLog, error) {
	if fi, err := os.Stat(inv.BuildRoot); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("build root %s is not a directory", inv.BuildRoot)
	}

	args := append(append([]string{}, inv.Command[1:]...), target)
	cmd := exec.Command(inv.Command[0], args...)
	cmd.Dir = inv.BuildRoot

	output, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &BuildLog{Output: output, ExitCode: exitErr.ExitCode()}, nil
		}
		return nil, &ExecError{
			Stage:  "build",
			Args:   append([]string{inv.Command[0]}, args...),
			Output: output,
			Code:   -1,
		}
	}

	return &BuildLog{Output: output}, nil
}
