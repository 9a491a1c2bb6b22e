package mirror

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter decides which files take part in a mirror run by matching their
// slash-separated relative paths against a glob pattern. An empty pattern
// admits everything.
type Filter struct {
	normalizedPattern string
	isEmpty           bool
}

// NewFilter creates a filter for the given doublestar pattern
// (`**/*.jpg` style). Matching is case-insensitive.
func NewFilter(pattern string) *Filter {
	return &Filter{
		normalizedPattern: strings.ToLower(pattern),
		isEmpty:           pattern == "",
	}
}

// Include reports whether the file at the given relative path takes part in
// counting, copying, and deletion.
func (f *Filter) Include(relativePath string) bool {
	if f.isEmpty {
		return true
	}

	normalized := strings.ToLower(filepath.ToSlash(relativePath))

	matched, err := doublestar.Match(f.normalizedPattern, normalized)
	if err != nil {
		// An invalid pattern admits nothing.
		return false
	}

	return matched
}
