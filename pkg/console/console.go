// Package console prints the user-facing status lines. Diagnostic logging
// goes through pkg/logging instead; this is only the interactive voice of
// the tool.
package console

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	infoTag    = color.New(color.FgBlue).Sprint("[INFO]")
	warnTag    = color.New(color.FgYellow).Sprint("[WARNING]")
	successTag = color.New(color.FgGreen).Sprint("[SUCCESS]")
	errorTag   = color.New(color.FgRed).Sprint("[ERROR]")
	todoTag    = color.New(color.FgMagenta, color.Bold).Sprint("[TODO]")
)

func Info(format string, a ...any) {
	fmt.Printf("%s %s\n", infoTag, fmt.Sprintf(format, a...))
}

func Warn(format string, a ...any) {
	fmt.Printf("%s %s\n", warnTag, fmt.Sprintf(format, a...))
}

func Success(format string, a ...any) {
	fmt.Printf("%s %s\n", successTag, fmt.Sprintf(format, a...))
}

func Error(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorTag, fmt.Sprintf(format, a...))
}

func Todo(format string, a ...any) {
	fmt.Printf("%s %s\n", todoTag, fmt.Sprintf(format, a...))
}

// Confirm asks a y/n question on stdin and returns true for y.
// Any answer other than y or n repeats the question.
func Confirm(format string, a ...any) bool {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("%s %s (y/n): ", warnTag, fmt.Sprintf(format, a...))
		answer, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y":
			return true
		case "n":
			return false
		}
	}
}
