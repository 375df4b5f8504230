package kbuild

import (
	"fmt"
	"strings"
)

// ExecError is returned when a child process exits non-zero or fails to
// start. It keeps the combined output around so the failing stage can be
// debugged from the error message alone.
type ExecError struct {
	Stage  string
	Args   []string
	Output []byte
	Code   int
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s: %q exited with code %d", e.Stage, strings.Join(e.Args, " "), e.Code)
	if len(e.Output) == 0 {
		return msg
	}
	return fmt.Sprintf("%s\n%s", msg, e.Output)
}

// ExitCode returns the child's exit code, for callers that pass it through.
func (e *ExecError) ExitCode() int { return e.Code }
