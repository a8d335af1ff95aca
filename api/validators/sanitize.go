package validators

import "strings"

func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}

// SanitizeList trims every entry, drops blanks and caps each entry at maxLen.
func SanitizeList(input []string, maxLen int) []string {
	if len(input) == 0 {
		return input
	}
	out := make([]string, 0, len(input))
	for _, item := range input {
		if clean := SanitizeString(item, maxLen); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}
