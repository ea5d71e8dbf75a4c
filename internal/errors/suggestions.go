package errors

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// maxNameSuggestions caps the "did you mean" entries.
const maxNameSuggestions = 3

// ErrorSuggestion represents a suggestion for fixing an error
type ErrorSuggestion struct {
	Title       string
	Description string
	Command     string
	Example     string
}

// EncodingSuggestions suggests supported names resembling an unknown one,
// best match first, followed by a pointer to the full list.
func EncodingSuggestions(name string, supported []string) []ErrorSuggestion {
	var suggestions []ErrorSuggestion

	pattern := strings.TrimSpace(name)
	if pattern != "" {
		for i, match := range fuzzy.Find(pattern, supported) {
			if i == maxNameSuggestions {
				break
			}
			suggestions = append(suggestions, ErrorSuggestion{
				Title:   "Did you mean '" + match.Str + "'?",
				Command: "charsetcop -e " + match.Str + " <paths...>",
			})
		}
	}

	return append(suggestions, ErrorSuggestion{
		Title:       "List supported encodings",
		Description: "Names are case-insensitive and IANA aliases such as 'latin1' are accepted",
		Command:     "charsetcop encodings",
	})
}

// RootPathSuggestions explains what a usable root path looks like.
func RootPathSuggestions(path string) []ErrorSuggestion {
	return []ErrorSuggestion{
		{
			Title:       "Check the path exists",
			Description: "Roots must be regular files or directories; devices, sockets and pipes are rejected",
			Command:     "ls -ld " + path,
		},
		{
			Title:       "Record bad roots instead of failing",
			Description: "With strict_roots disabled the path is listed under errors and the scan goes on",
			Example:     "CHARSETCOP_SCAN_STRICT_ROOTS=false charsetcop <paths...>",
		},
	}
}

// FormatSuggestions formats suggestions into a user-friendly string
func FormatSuggestions(title string, suggestions []ErrorSuggestion) string {
	if len(suggestions) == 0 {
		return title
	}

	var output strings.Builder
	output.WriteString(title + "\n\n")
	output.WriteString("Suggestions:\n")

	for i, suggestion := range suggestions {
		output.WriteString(fmt.Sprintf("  %d. %s\n", i+1, suggestion.Title))
		if suggestion.Description != "" {
			output.WriteString(fmt.Sprintf("     %s\n", suggestion.Description))
		}
		if suggestion.Command != "" {
			output.WriteString(fmt.Sprintf("     Run: %s\n", suggestion.Command))
		}
		if suggestion.Example != "" {
			output.WriteString(fmt.Sprintf("     Example: %s\n", suggestion.Example))
		}
	}

	return strings.TrimRight(output.String(), "\n")
}

// EnhancedError wraps an error with suggestions
type EnhancedError struct {
	OriginalError error
	Title         string
	Suggestions   []ErrorSuggestion
}

// Error implements the error interface
func (e *EnhancedError) Error() string {
	return FormatSuggestions(e.Title, e.Suggestions)
}

// Unwrap returns the original error
func (e *EnhancedError) Unwrap() error {
	return e.OriginalError
}

// NewEnhancedError creates a new enhanced error with suggestions
func NewEnhancedError(title string, originalError error, suggestions []ErrorSuggestion) *EnhancedError {
	return &EnhancedError{
		OriginalError: originalError,
		Title:         title,
		Suggestions:   suggestions,
	}
}
