package builtin

import "strings"

// containsWord reports whether text contains word as a whole word,
// case-insensitively and ignoring surrounding punctuation.
func containsWord(text, word string) bool {
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if strings.Trim(w, ".,!?;:'\"") == word {
			return true
		}
	}
	return false
}
