package extract

import "strings"

// FlagSet partitions compiler flags into categories for flags-only
// reduction. Order within a category follows the original invocation; flag
// order can change compiler behavior, so no category is ever sorted.
type FlagSet struct {
	Includes []string
	Defines  []string
	Warnings []string
	Other    []string
}

var includePrefixes = []string{
	"-I", "-iquote", "-isystem", "-idirafter", "-include", "-imacros",
}

// Classify partitions flags into include paths, macro definitions, warning
// controls and everything else. A word that does not start with a dash is an
// argument of the preceding flag and stays in that flag's category, so
// pairs like "-include file.h" or "-MF dep.d" never split across
// categories.
func Classify(flags []string) FlagSet {
	var fs FlagSet
	last := &fs.Other
	for _, flag := range flags {
		if !strings.HasPrefix(flag, "-") {
			*last = append(*last, flag)
			continue
		}
		dst := &fs.Other
		switch {
		case isIncludeFlag(flag):
			dst = &fs.Includes
		case strings.HasPrefix(flag, "-D") || strings.HasPrefix(flag, "-U"):
			dst = &fs.Defines
		case isWarningFlag(flag):
			dst = &fs.Warnings
		}
		*dst = append(*dst, flag)
		last = dst
	}
	return fs
}

// Flatten reassembles the categories in a fixed order: includes, defines,
// warnings, other. Every classified flag appears exactly once.
func (fs FlagSet) Flatten() []string {
	out := make([]string, 0, len(fs.Includes)+len(fs.Defines)+len(fs.Warnings)+len(fs.Other))
	out = append(out, fs.Includes...)
	out = append(out, fs.Defines...)
	out = append(out, fs.Warnings...)
	out = append(out, fs.Other...)
	return out
}

// CleanForRecompile drops the flags that only matter before preprocessing.
// The bundle's .i file already has every include and macro expanded, so
// include paths, defines and preprocessor pass-throughs would be dead
// weight in flags.txt — and -Werror plus relative-path junk get in the way
// of the interestingness test.
func (fs FlagSet) CleanForRecompile() []string {
	var out []string
	for _, flag := range fs.Warnings {
		if strings.HasPrefix(flag, "-Werror") {
			continue
		}
		out = append(out, flag)
	}
	skipArg := false
	for _, flag := range fs.Other {
		if skipArg && !strings.HasPrefix(flag, "-") {
			skipArg = false
			continue
		}
		skipArg = false
		if strings.HasPrefix(flag, "-Wp,") || flag == "-E" || strings.HasPrefix(flag, "./") {
			continue
		}
		if flag == "-MF" || flag == "-MT" || flag == "-MQ" {
			skipArg = true
			continue
		}
		out = append(out, flag)
	}
	return out
}

func isIncludeFlag(flag string) bool {
	for _, prefix := range includePrefixes {
		if strings.HasPrefix(flag, prefix) {
			return true
		}
	}
	return false
}

func isWarningFlag(flag string) bool {
	if !strings.HasPrefix(flag, "-W") {
		return false
	}
	// -Wp,/-Wa,/-Wl, forward options to other tools; not warning control.
	switch {
	case strings.HasPrefix(flag, "-Wp,"), strings.HasPrefix(flag, "-Wa,"), strings.HasPrefix(flag, "-Wl,"):
		return false
	}
	return true
}
