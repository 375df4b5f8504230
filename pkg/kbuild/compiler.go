package kbuild

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Compiler is the C compiler family the kernel build is configured for.
type Compiler string

const (
	GCC   Compiler = "gcc"
	Clang Compiler = "clang"
)

// DetectCompiler reads .config in the build root and reports whether the
// tree is configured for gcc or clang. The options sit near the top of the
// file, so the scan stops at the first hit.
func DetectCompiler(buildRoot string) (Compiler, error) {
	configPath := filepath.Join(buildRoot, ".config")
	f, err := os.Open(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no .config found at %s: configure the kernel build or point --build-root at a configured tree", configPath)
		}
		return "", fmt.Errorf("reading %s: %w", configPath, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "CONFIG_CC_IS_CLANG=y":
			return Clang, nil
		case "CONFIG_CC_IS_GCC=y":
			return GCC, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading %s: %w", configPath, err)
	}

	return "", fmt.Errorf("%s declares neither CONFIG_CC_IS_GCC=y nor CONFIG_CC_IS_CLANG=y", configPath)
}
