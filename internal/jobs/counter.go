package jobs

import "fmt"

// FileCount aggregates file and byte totals. Counts combine with Add; the
// zero value is the identity, so totals across any number of jobs fold from
// zero in any order. The figures are a progress denominator, not a
// reservation: the tree may change between counting and running.
type FileCount struct {
	Files int64
	Bytes int64
}

// Add returns the pairwise sum of both counts.
func (c FileCount) Add(other FileCount) FileCount {
	return FileCount{
		Files: c.Files + other.Files,
		Bytes: c.Bytes + other.Bytes,
	}
}

// String renders the count as a human-readable figure.
func (c FileCount) String() string {
	return fmt.Sprintf("%d files (%s)", c.Files, formatBytes(c.Bytes))
}

// formatBytes formats bytes into human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
