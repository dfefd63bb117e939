package conversation

import "strings"

var customizationKeywords = []string{
	"change",
	"modify",
	"adjust",
	"customize",
	"edit",
	"don't have",
	"dont have",
	"no oven",
	"no gas",
}

// DetectsCustomizationIntent reports whether text asks for a recipe to be
// changed. Matching is a case-insensitive substring search over a fixed
// keyword list.
func DetectsCustomizationIntent(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range customizationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
