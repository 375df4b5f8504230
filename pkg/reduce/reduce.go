// Package reduce launches the external reducers over a prepared bundle.
// It is a pass-through: arguments are forwarded, the exit code is surfaced,
// and no reducer output is interpreted beyond a tee for diagnostics.
package reduce

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"kreduce/pkg/kbuild"
)

// Runner wraps one external reducer binary.
type Runner struct {
	Name string
	Bin  string
}

// NewCvise locates the C-Vise binary, preferring an explicit path over PATH
// lookup.
func NewCvise(bin string) (*Runner, error) {
	return newRunner("cvise", bin)
}

// NewLLVMReduce locates the llvm-reduce binary.
func NewLLVMReduce(bin string) (*Runner, error) {
	return newRunner("llvm-reduce", bin)
}

func newRunner(name, bin string) (*Runner, error) {
	if bin == "" {
		var err error
		bin, err = exec.LookPath(name)
		if err != nil {
			return nil, fmt.Errorf("%s binary not found in PATH: %w", name, err)
		}
	} else if _, err := os.Stat(bin); err != nil {
		return nil, fmt.Errorf("%s binary not found at path: %s", name, bin)
	}
	return &Runner{Name: name, Bin: bin}, nil
}

// Reduce runs the reducer in dir with inherited stdio, the reduction being
// interactive and long-running. Stdout is additionally captured so callers
// can look for known complaints (C-Vise reporting an unusable
// interestingness test). On a non-zero exit the returned error is an
// ExecError carrying the child's exit code for pass-through.
func (r *Runner) Reduce(dir string, args ...string) ([]byte, error) {
	var captured bytes.Buffer
	cmd := exec.Command(r.Bin, args...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = io.MultiWriter(os.Stdout, &captured)
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return captured.Bytes(), &kbuild.ExecError{
				Stage: r.Name,
				Args:  append([]string{r.Bin}, args...),
				Code:  exitErr.ExitCode(),
			}
		}
		return captured.Bytes(), fmt.Errorf("starting %s: %w", r.Name, err)
	}
	return captured.Bytes(), nil
}
