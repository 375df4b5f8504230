// Package bundle turns an extracted compile command into the on-disk
// reproducer set consumed by the external reducers: a preprocessed
// translation unit, an interestingness test script and a flags file.
package bundle

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kballard/go-shellquote"

	"kreduce/pkg/extract"
	"kreduce/pkg/kbuild"
)

const (
	ScriptName = "test.sh"
	FlagsName  = "flags.txt"
)

// Bundle holds the absolute paths of the three reproducer files.
type Bundle struct {
	Source string
	Script string
	Flags  string
}

// Options configures one assembly run.
type Options struct {
	BuildRoot string
	OutputDir string
	Compiler  kbuild.Compiler
	// GoFast adds -Wfatal-errors to the test script's compile line, which
	// speeds up C-Vise runs considerably.
	GoFast bool
}

// linemarkerRe matches preprocessor linemarkers ("# 12 \"file.h\"" and the
// bare "# ..." forms). Stripping them shrinks the reducer's starting point.
// See https://gcc.gnu.org/wiki/A_guide_to_testcase_reduction.
var linemarkerRe = regexp.MustCompile(`(?m)^# .*$`)

// Assemble preprocesses the compile command into <base>.i and writes the
// companion test.sh and flags.txt next to it. Assembly is all-or-nothing:
// any failure removes whatever was already written, so a later flags/code
// run never sees a half-written bundle.
func Assemble(cc *extract.CompileCommand, fs extract.FlagSet, opts Options) (*Bundle, error) {
	outDir, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(cc.Source), filepath.Ext(cc.Source))
	b := &Bundle{
		Source: filepath.Join(outDir, base+".i"),
		Script: filepath.Join(outDir, ScriptName),
		Flags:  filepath.Join(outDir, FlagsName),
	}

	var written []string
	fail := func(err error) (*Bundle, error) {
		for _, path := range written {
			os.Remove(path)
		}
		return nil, err
	}

	if err := preprocess(cc, opts.BuildRoot, b.Source); err != nil {
		return fail(err)
	}
	written = append(written, b.Source)

	if err := stripLinemarkers(b.Source); err != nil {
		return fail(fmt.Errorf("cleaning %s: %w", filepath.Base(b.Source), err))
	}

	if err := writeFlags(b.Flags, fs); err != nil {
		return fail(err)
	}
	written = append(written, b.Flags)

	if err := writeScript(b, opts, base); err != nil {
		return fail(err)
	}

	return b, nil
}

// preprocess reruns the extracted compile command with -E substituted for
// compilation, writing the expanded translation unit straight to dest. The
// full flag set is kept: preprocessing still needs every -I and -D.
func preprocess(cc *extract.CompileCommand, buildRoot, dest string) error {
	args := append(append([]string{}, cc.Flags...), "-E", "-o", dest, cc.Source)
	cmd := exec.Command(cc.Compiler, args...)
	cmd.Dir = buildRoot
	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(dest) // the compiler may have created a partial file
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return &kbuild.ExecError{
			Stage:  "preprocess",
			Args:   append([]string{cc.Compiler}, args...),
			Output: output,
			Code:   code,
		}
	}
	return nil
}

func stripLinemarkers(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, linemarkerRe.ReplaceAll(raw, nil), 0o644)
}

// writeFlags writes one flag per line in the classifier's flattened order,
// shell-quoting any flag that needs it so test.sh can cat the file into a
// command line.
func writeFlags(path string, fs extract.FlagSet) error {
	var sb strings.Builder
	for _, flag := range fs.CleanForRecompile() {
		sb.WriteString(shellquote.Join(flag))
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", FlagsName, err)
	}
	return nil
}

// writeScript writes the interestingness test skeleton. The flags path must
// be absolute: reducers copy the working file into scratch directories and
// run the script from there.
func writeScript(b *Bundle, opts Options, base string) error {
	goFast := ""
	if opts.GoFast {
		goFast = " -Wfatal-errors"
	}
	script := fmt.Sprintf(`#!/usr/bin/env bash
CC_CMD() {
    %s $(cat %s)%s -c %s.i
}
CC_CMD 2>&1 | grep "<your test here>"
`, opts.Compiler, b.Flags, goFast, base)

	if err := os.WriteFile(b.Script, []byte(script), 0o755); err != nil {
		return fmt.Errorf("writing %s: %w", ScriptName, err)
	}
	return nil
}

// Load locates an existing bundle in dir without touching it. Missing files
// are reported by name so the user knows to run prep first; FindSource
// handles the .i lookup separately, so Load only insists on the script and,
// when asked, the flags file.
func Load(dir string, needFlags bool) (*Bundle, error) {
	b := &Bundle{
		Script: filepath.Join(dir, ScriptName),
		Flags:  filepath.Join(dir, FlagsName),
	}
	if _, err := os.Stat(b.Script); err != nil {
		return nil, fmt.Errorf("missing %s in %s: run kreduce prep first", ScriptName, dir)
	}
	if needFlags {
		if _, err := os.Stat(b.Flags); err != nil {
			return nil, fmt.Errorf("missing %s in %s: run kreduce prep first", FlagsName, dir)
		}
	}
	return b, nil
}

// FindSource locates the .i file for a code reduction. With several .i
// files present the caller has to disambiguate with an explicit name.
func FindSource(dir, explicit string) (string, error) {
	if explicit != "" {
		path := filepath.Join(dir, explicit)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("target %s does not exist", path)
		}
		return path, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.i"))
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no .i files in %s: run kreduce prep first", dir)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("%d .i files in %s: pick one with --target", len(matches), dir)
}
