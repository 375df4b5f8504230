package main

// Exit codes, one per failing stage. The flags and code subcommands pass
// the external reducer's own exit code through instead.
const (
	exitUsage      = 1
	exitBuild      = 2
	exitExtract    = 3
	exitPreprocess = 4
	exitWrite      = 5
	exitReducer    = 6
)

type stageError struct {
	code int
	err  error
}

func (e *stageError) Error() string { return e.err.Error() }

func (e *stageError) Unwrap() error { return e.err }

func failStage(code int, err error) error {
	return &stageError{code: code, err: err}
}
