package csource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTU(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "string.i")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInspectCountsFunctions(t *testing.T) {
	report, err := Inspect(writeTU(t, `
typedef unsigned long size_t;

size_t strlen(const char *s)
{
	const char *sc;

	for (sc = s; *sc != '\0'; ++sc)
		;
	return sc - s;
}

int strcmp_stub(const char *a, const char *b)
{
	return 0;
}
`))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Functions)
	assert.Equal(t, 0, report.ParseErrors)
	assert.Greater(t, report.Lines, 10)
}

func TestInspectReportsParseErrors(t *testing.T) {
	report, err := Inspect(writeTU(t, "int broken( {\n@@@\n"))
	require.NoError(t, err)
	assert.Greater(t, report.ParseErrors, 0)
}

func TestInspectMissingFile(t *testing.T) {
	_, err := Inspect(filepath.Join(t.TempDir(), "nope.i"))
	require.Error(t, err)
}
