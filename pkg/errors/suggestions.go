package errors

import "fmt"

// SuggestionGenerator produces actionable suggestions for an error category.
type SuggestionGenerator interface {
	Generate(category ErrorCategory, affectedPath string) []string
}

// NewSuggestionGenerator creates a SuggestionGenerator with the built-in
// per-category advice.
func NewSuggestionGenerator() SuggestionGenerator {
	return &suggestionGenerator{}
}

// suggestionGenerator is the concrete implementation of SuggestionGenerator.
type suggestionGenerator struct{}

// Generate returns suggestions for the category, personalized with the
// affected path when one is known.
func (g *suggestionGenerator) Generate(category ErrorCategory, affectedPath string) []string {
	switch category {
	case CategoryPermission:
		return g.permission(affectedPath)
	case CategoryDiskSpace:
		return g.diskSpace()
	case CategoryPath:
		return g.path(affectedPath)
	case CategoryDelete:
		return g.delete(affectedPath)
	case CategoryCopy:
		return g.copy()
	case CategoryUnknown:
		return g.unknown()
	default:
		return g.unknown()
	}
}

func (g *suggestionGenerator) permission(path string) []string {
	suggestions := []string{
		"Check that you have read access to the source and write access to the target",
	}

	if path != "" {
		suggestions = append(suggestions, fmt.Sprintf("Inspect permissions with 'ls -la %s'", path))
	}

	suggestions = append(suggestions,
		"Run with --preview to list the paths the jobs would touch",
	)

	return suggestions
}

func (g *suggestionGenerator) diskSpace() []string {
	return []string{
		"Free up space on the target medium",
		"Check available space with 'df -h'",
		"Narrow the job with a --pattern glob to copy fewer files",
	}
}

func (g *suggestionGenerator) path(path string) []string {
	suggestions := []string{
		"Verify the source and target paths in the manifest exist",
	}

	if path != "" {
		suggestions = append(suggestions, fmt.Sprintf("Check the path with 'ls %s'", path))
	}

	suggestions = append(suggestions, "Paths containing $(VAR) require the variable to be set in the environment")

	return suggestions
}

func (g *suggestionGenerator) delete(path string) []string {
	suggestions := []string{
		"Check whether another process is holding files open in the directory",
	}

	if path != "" {
		suggestions = append(suggestions, fmt.Sprintf("List contents with 'ls -la %s'", path))
	}

	return suggestions
}

func (g *suggestionGenerator) copy() []string {
	return []string{
		"Check the target medium has enough free space",
		"Re-run the job - the interrupted file was cleaned up and will be copied again",
		"Check system logs if the same file fails repeatedly",
	}
}

func (g *suggestionGenerator) unknown() []string {
	return []string{
		"Re-run with --log-file to capture the full failure detail",
		"Check system resources (disk space, memory, permissions)",
	}
}
