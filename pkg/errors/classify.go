package errors

import (
	"errors"
	"io"
	"io/fs"
	"strings"
	"syscall"
)

// Classify maps an error to its failure category. Structured causes win:
// sentinel and errno checks run first, message patterns are the fallback for
// errors that arrive flattened to strings (remote backends, exec output).
func Classify(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return CategoryPath
	case errors.Is(err, fs.ErrPermission):
		return CategoryPermission
	case errors.Is(err, syscall.ENAMETOOLONG):
		return CategoryPath
	case errors.Is(err, syscall.ENOSPC):
		return CategoryDiskSpace
	case errors.Is(err, syscall.ENOTEMPTY):
		return CategoryDelete
	case errors.Is(err, io.ErrShortWrite), errors.Is(err, io.ErrUnexpectedEOF):
		return CategoryCopy
	}

	return matchMessage(err.Error())
}

// messagePatterns categorize errors whose cause chain carries no sentinel.
// Checked in a fixed order so overlapping patterns resolve deterministically.
//
//nolint:gochecknoglobals // Shared lookup table, never mutated.
var messagePatterns = []struct {
	category ErrorCategory
	patterns []string
}{
	{CategoryPermission, []string{
		"permission denied",
		"access denied",
		"operation not permitted",
	}},
	{CategoryDiskSpace, []string{
		"no space left on device",
		"disk full",
		"quota exceeded",
	}},
	{CategoryPath, []string{
		"no such file or directory",
		"file does not exist",
		"file name too long",
		"path does not exist",
	}},
	{CategoryDelete, []string{
		"directory not empty",
		"cannot remove",
	}},
	{CategoryCopy, []string{
		"short write",
		"input/output error",
		"i/o error",
		"unexpected eof",
		"copy interrupted",
	}},
}

func matchMessage(msg string) ErrorCategory {
	lower := strings.ToLower(msg)

	for _, entry := range messagePatterns {
		for _, pattern := range entry.patterns {
			if strings.Contains(lower, pattern) {
				return entry.category
			}
		}
	}

	return CategoryUnknown
}
