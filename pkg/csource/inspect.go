// Package csource sanity-checks a preprocessed translation unit before it
// is handed to a reducer. A .i file that does not parse as C usually means
// the wrong log line was extracted, and catching that here is much cheaper
// than a wasted multi-hour C-Vise run.
package csource

import (
	"bytes"
	"fmt"
	"os"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
)

// Report summarizes one translation unit.
type Report struct {
	Functions   int
	Lines       int
	ParseErrors int
}

// Inspect parses the file with the tree-sitter C grammar and counts
// function definitions and parse errors.
func Inspect(path string) (*Report, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	language := sitter.NewLanguage(tree_sitter_c.Language())
	if err := parser.SetLanguage(language); err != nil {
		return nil, err
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s", path)
	}

	report := &Report{Lines: bytes.Count(content, []byte{'\n'})}
	walk(tree.RootNode(), report)
	return report, nil
}

func walk(node *sitter.Node, report *Report) {
	if node.Kind() == "function_definition" {
		report.Functions++
	}
	if node.IsError() {
		report.ParseErrors++
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		walk(node.Child(i), report)
	}
}
