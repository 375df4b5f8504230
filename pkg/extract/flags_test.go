package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyCategories(t *testing.T) {
	fs := Classify([]string{
		"-nostdinc",
		"-I./include",
		"-isystem", "/usr/lib/gcc/include",
		"-D__KERNEL__",
		"-U_FORTIFY_SOURCE",
		"-Wall",
		"-Wno-format-security",
		"-Wp,-MMD,lib/.string.o.d",
		"-O2",
	})

	assert.Equal(t, []string{"-I./include", "-isystem", "/usr/lib/gcc/include"}, fs.Includes)
	assert.Equal(t, []string{"-D__KERNEL__", "-U_FORTIFY_SOURCE"}, fs.Defines)
	assert.Equal(t, []string{"-Wall", "-Wno-format-security"}, fs.Warnings)
	assert.Equal(t, []string{"-nostdinc", "-Wp,-MMD,lib/.string.o.d", "-O2"}, fs.Other)
}

func TestClassifyAttachesValueToPrecedingFlag(t *testing.T) {
	fs := Classify([]string{"-include", "include/linux/compiler_types.h", "-MF", "lib/.string.o.d", "-O2"})
	assert.Equal(t, []string{"-include", "include/linux/compiler_types.h"}, fs.Includes)
	assert.Equal(t, []string{"-MF", "lib/.string.o.d", "-O2"}, fs.Other)
}

// flatten(classify(flags)) must keep every flag exactly once, with
// intra-category order intact.
func TestFlattenRoundTrip(t *testing.T) {
	flags := []string{
		"-Wp,-MMD,lib/.string.o.d", "-nostdinc", "-I./include", "-D__KERNEL__",
		"-Wall", "-O2", "-Wframe-larger-than=2048", "-Ui386", "-iquote", "crypto",
		"-fno-strict-aliasing",
	}
	flat := Classify(flags).Flatten()
	require.Len(t, flat, len(flags))

	seen := map[string]int{}
	for _, f := range flat {
		seen[f]++
	}
	for _, f := range flags {
		assert.Equal(t, 1, seen[f], "flag %q", f)
	}

	// original relative order inside each category
	assert.Equal(t, []string{"-I./include", "-iquote", "crypto"}, Classify(flags).Includes)
	assert.Equal(t, []string{"-D__KERNEL__", "-Ui386"}, Classify(flags).Defines)
	assert.Equal(t, []string{"-Wall", "-Wframe-larger-than=2048"}, Classify(flags).Warnings)
}

func TestCleanForRecompile(t *testing.T) {
	fs := Classify([]string{
		"-I./include",
		"-D__KERNEL__",
		"-Wp,-MMD,lib/.string.o.d",
		"-Wall",
		"-Werror",
		"-Werror=implicit-function-declaration",
		"-MF", "lib/.string.o.d",
		"./some/relative/thing",
		"-O2",
		"-E",
	})
	got := fs.CleanForRecompile()
	assert.Equal(t, []string{"-Wall", "-O2"}, got)
}
