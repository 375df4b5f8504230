package bundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kreduce/pkg/extract"
	"kreduce/pkg/kbuild"
)

// fakeCompiler writes a stand-in compiler script that emits a tiny
// preprocessed unit (linemarkers included) to whatever -o names.
func fakeCompiler(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cc")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

const preprocessScript = `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
    if [ "$1" = "-o" ]; then out="$2"; shift; fi
    shift
done
printf '# 1 "lib/string.c"\nint strlen_ok;\n# 5 "include/linux/string.h"\nint f(void) { return 0; }\n' > "$out"
`

func testCommand(t *testing.T) *extract.CompileCommand {
	return &extract.CompileCommand{
		Compiler: fakeCompiler(t, preprocessScript),
		Flags:    []string{"-I./include", "-D__KERNEL__", "-Wall", "-O2"},
		Source:   "lib/string.c",
	}
}

func TestAssembleWritesBundle(t *testing.T) {
	cc := testCommand(t)
	outDir := filepath.Join(t.TempDir(), "out") // does not exist yet
	b, err := Assemble(cc, extract.Classify(cc.Flags), Options{
		BuildRoot: t.TempDir(),
		OutputDir: outDir,
		Compiler:  kbuild.GCC,
		GoFast:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outDir, "string.i"), b.Source)

	source, err := os.ReadFile(b.Source)
	require.NoError(t, err)
	assert.Contains(t, string(source), "int f(void)")
	assert.NotContains(t, string(source), `# 1 "lib/string.c"`, "linemarkers are stripped")

	flags, err := os.ReadFile(b.Flags)
	require.NoError(t, err)
	assert.Equal(t, "-Wall\n-O2\n", string(flags), "includes and defines are dropped for recompilation")

	script, err := os.ReadFile(b.Script)
	require.NoError(t, err)
	assert.Contains(t, string(script), "#!/usr/bin/env bash")
	assert.Contains(t, string(script), "gcc $(cat "+b.Flags+") -Wfatal-errors -c string.i")
	assert.Contains(t, string(script), `grep "<your test here>"`)

	info, err := os.Stat(b.Script)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestAssembleNoGoFast(t *testing.T) {
	cc := testCommand(t)
	outDir := t.TempDir()
	b, err := Assemble(cc, extract.Classify(cc.Flags), Options{
		BuildRoot: t.TempDir(),
		OutputDir: outDir,
		Compiler:  kbuild.Clang,
	})
	require.NoError(t, err)

	script, err := os.ReadFile(b.Script)
	require.NoError(t, err)
	assert.Contains(t, string(script), "clang $(cat "+b.Flags+") -c string.i")
	assert.NotContains(t, string(script), "-Wfatal-errors")
}

func TestAssembleDeterministicFlags(t *testing.T) {
	cc := testCommand(t)
	var contents []string
	for i := 0; i < 2; i++ {
		outDir := t.TempDir()
		b, err := Assemble(cc, extract.Classify(cc.Flags), Options{
			BuildRoot: t.TempDir(),
			OutputDir: outDir,
			Compiler:  kbuild.GCC,
			GoFast:    true,
		})
		require.NoError(t, err)
		raw, err := os.ReadFile(b.Flags)
		require.NoError(t, err)
		contents = append(contents, string(raw))
	}
	assert.Equal(t, contents[0], contents[1])
}

func TestAssemblePreprocessFailureLeavesNothing(t *testing.T) {
	cc := testCommand(t)
	cc.Compiler = fakeCompiler(t, "#!/bin/sh\necho 'fatal error: oops' 1>&2\nexit 1\n")
	outDir := t.TempDir()

	_, err := Assemble(cc, extract.Classify(cc.Flags), Options{
		BuildRoot: t.TempDir(),
		OutputDir: outDir,
		Compiler:  kbuild.GCC,
	})
	require.Error(t, err)

	var execErr *kbuild.ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "preprocess", execErr.Stage)
	assert.Contains(t, string(execErr.Output), "fatal error")

	entries, readErr := os.ReadDir(outDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "failed assembly must not leave partial files")
}

func TestAssembleQuotesAwkwardFlags(t *testing.T) {
	cc := testCommand(t)
	cc.Flags = append(cc.Flags, "-fmacro-prefix-map=a b=c")
	outDir := t.TempDir()
	b, err := Assemble(cc, extract.Classify(cc.Flags), Options{
		BuildRoot: t.TempDir(),
		OutputDir: outDir,
		Compiler:  kbuild.GCC,
	})
	require.NoError(t, err)

	flags, err := os.ReadFile(b.Flags)
	require.NoError(t, err)
	assert.Contains(t, string(flags), "'-fmacro-prefix-map=a b=c'")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ScriptName)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ScriptName), []byte("#!/bin/sh\n"), 0o755))
	_, err = Load(dir, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), FlagsName)

	_, err = Load(dir, false)
	require.NoError(t, err, "code reduction does not need flags.txt")

	require.NoError(t, os.WriteFile(filepath.Join(dir, FlagsName), []byte("-Wall\n"), 0o644))
	b, err := Load(dir, true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ScriptName), b.Script)
}

func TestFindSource(t *testing.T) {
	dir := t.TempDir()

	_, err := FindSource(dir, "")
	require.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "string.i"), nil, 0o644))
	got, err := FindSource(dir, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "string.i"), got)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "memcpy.i"), nil, 0o644))
	_, err = FindSource(dir, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--target")

	got, err = FindSource(dir, "memcpy.i")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "memcpy.i"), got)

	_, err = FindSource(dir, "missing.i")
	require.Error(t, err)
}
