package kbuild

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Target identifies one translation unit in the kernel tree, independent of
// which form (source, object, preprocessed) a particular step needs.
type Target struct {
	stem string // e.g. lib/string
}

// ParseTarget normalizes a user-supplied target. Accepted forms are
// lib/string, lib/string.c, lib/string.o and lib/string.i; anything with a
// different suffix is rejected rather than silently mangled.
func ParseTarget(raw string) (Target, error) {
	cleaned := filepath.ToSlash(strings.TrimSpace(raw))
	if cleaned == "" {
		return Target{}, fmt.Errorf("empty target")
	}

	ext := filepath.Ext(cleaned)
	switch ext {
	case "", ".c", ".o", ".i":
	default:
		return Target{}, fmt.Errorf("target %s has %s extension; use .c, .o, .i or no extension", raw, ext)
	}

	return Target{stem: strings.TrimSuffix(cleaned, ext)}, nil
}

// Source returns the relative source path, e.g. lib/string.c.
func (t Target) Source() string { return t.stem + ".c" }

// Object returns the relative object path, e.g. lib/string.o. This is the
// form handed to the build system.
func (t Target) Object() string { return t.stem + ".o" }

// Preprocessed returns the bundle file name, e.g. string.i.
func (t Target) Preprocessed() string { return filepath.Base(t.stem) + ".i" }

func (t Target) String() string { return t.Object() }
