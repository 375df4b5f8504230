// Package extract scrapes a verbose build log for the compiler invocation
// that built one target and splits its flags into categories.
package extract

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kballard/go-shellquote"
)

// CompileCommand is the compiler invocation recovered from the build log.
// Flags excludes the compiler word, the source file and the -c/-o output
// plumbing, so it can be reused for both preprocessing and recompilation.
type CompileCommand struct {
	Compiler string
	Flags    []string
	Source   string
}

var (
	// ErrNoCompileCommand means no log line both mentioned the target and
	// invoked a recognizable compiler.
	ErrNoCompileCommand = errors.New("no compile command found in build log")
	// ErrAmbiguous means the chosen policy refused to pick between several
	// candidate lines.
	ErrAmbiguous = errors.New("multiple compile command candidates")
)

// MatchPolicy decides which candidate line wins when a verbose log contains
// several invocations mentioning the target (dependency scans, dry runs,
// the real compile step).
type MatchPolicy int

const (
	// PreferCompile picks the last candidate carrying -c, falling back to
	// the last candidate overall. This is the default: the final -c line is
	// the real compile step.
	PreferCompile MatchPolicy = iota
	// LastMatch picks the last candidate unconditionally.
	LastMatch
	// Strict fails with ErrAmbiguous unless exactly one candidate exists.
	Strict
)

// ParsePolicy maps the CLI spelling of a policy to its value.
func ParsePolicy(name string) (MatchPolicy, error) {
	switch name {
	case "prefer-compile":
		return PreferCompile, nil
	case "last-match":
		return LastMatch, nil
	case "strict":
		return Strict, nil
	}
	return 0, fmt.Errorf("unknown match policy %q (want prefer-compile, last-match or strict)", name)
}

// compilerRe matches the basename of a compiler word: cc, gcc, clang, a
// cross prefix like aarch64-linux-gnu-gcc, or a versioned clang-18.
var compilerRe = regexp.MustCompile(`^(?:[\w.+]+(?:-[\w.+]+)*-)?(?:cc|gcc|clang)(?:-[\d.]+)?$`)

type candidate struct {
	cmd      CompileCommand
	hasDashC bool
}

// Extract scans the build log for the invocation compiling source (a
// relative path like lib/string.c) and parses the winning line into a
// CompileCommand. Lines are tokenized with POSIX shell word splitting, so
// quoted flags containing spaces survive intact.
func Extract(log []byte, source string, policy MatchPolicy) (*CompileCommand, error) {
	object := strings.TrimSuffix(source, filepath.Ext(source)) + ".o"

	var candidates []candidate
	scanner := bufio.NewScanner(bytes.NewReader(log))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, source) && !strings.Contains(line, object) {
			continue
		}
		cand, ok := parseLine(line, source)
		if !ok {
			continue
		}
		candidates = append(candidates, cand)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning build log: %w", err)
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoCompileCommand, source)
	}

	switch policy {
	case LastMatch:
		return &candidates[len(candidates)-1].cmd, nil
	case PreferCompile:
		for i := len(candidates) - 1; i >= 0; i-- {
			if candidates[i].hasDashC {
				return &candidates[i].cmd, nil
			}
		}
		return &candidates[len(candidates)-1].cmd, nil
	case Strict:
		if len(candidates) > 1 {
			return nil, fmt.Errorf("%w: %d lines match %s", ErrAmbiguous, len(candidates), source)
		}
		return &candidates[0].cmd, nil
	}
	return nil, fmt.Errorf("unknown match policy %d", policy)
}

// parseLine tokenizes a log line and recovers the compiler word, the source
// word and everything in between. Lines that cannot be shell-split (make
// echoes unbalanced quotes in places) or contain no compiler word are
// skipped rather than treated as errors.
func parseLine(line, source string) (candidate, bool) {
	words, err := shellquote.Split(line)
	if err != nil {
		return candidate{}, false
	}

	ccIdx := -1
	for i, w := range words {
		if compilerRe.MatchString(filepath.Base(w)) {
			ccIdx = i
			break
		}
	}
	if ccIdx < 0 {
		return candidate{}, false
	}

	srcIdx := -1
	for i := len(words) - 1; i > ccIdx; i-- {
		if words[i] == source || filepath.Base(words[i]) == filepath.Base(source) && strings.HasSuffix(words[i], filepath.Ext(source)) {
			srcIdx = i
			break
		}
	}
	if srcIdx < 0 {
		return candidate{}, false
	}

	cand := candidate{cmd: CompileCommand{
		Compiler: words[ccIdx],
		Source:   words[srcIdx],
	}}
	for i := ccIdx + 1; i < len(words); i++ {
		switch {
		case i == srcIdx:
		case words[i] == "-c":
			cand.hasDashC = true
		case words[i] == "-o":
			i++ // skip the output path too
		default:
			cand.cmd.Flags = append(cand.cmd.Flags, words[i])
		}
	}
	return cand, true
}
