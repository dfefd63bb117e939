package vision

import (
	"strings"
)

// ParseIngredients parses a model response of the form "tomato, onion, garlic".
// Newlines are treated like commas so list-style answers also work. Preamble
// fragments, bullets and duplicates are dropped; order is preserved.
func ParseIngredients(raw string) []string {
	raw = strings.ReplaceAll(raw, "\n", ",")
	seen := make(map[string]bool)
	items := make([]string, 0)

	for _, part := range strings.Split(raw, ",") {
		name := cleanName(part)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, name)
	}

	return items
}

func cleanName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "-*• ")
	s = strings.TrimRight(s, ". ")
	if s == "" {
		return ""
	}
	// Skip common headers or non-item fragments
	if strings.HasPrefix(s, "Here") || strings.HasPrefix(s, "I see") || strings.HasPrefix(s, "Based on") {
		return ""
	}
	if strings.HasSuffix(s, ":") {
		return ""
	}
	return s
}
