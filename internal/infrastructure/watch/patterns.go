package watch

import (
	"path/filepath"
)

// DefaultExcludes skips temporary files written next to the data file.
var DefaultExcludes = []string{".*", "*~", "*.tmp", "*.swp"}

// PatternFilter filters file paths based on include/exclude glob patterns
// matched against the base name.
type PatternFilter struct {
	Include []string
	Exclude []string
}

func NewPatternFilter(include, exclude []string) *PatternFilter {
	return &PatternFilter{
		Include: include,
		Exclude: exclude,
	}
}

// Matches returns true if no exclude matches and, when includes are set,
// at least one include does.
func (f *PatternFilter) Matches(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range f.Exclude {
		if matched, _ := filepath.Match(pattern, base); matched {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, pattern := range f.Include {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
