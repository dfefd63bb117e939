package conversation

import (
	"fmt"
	"strings"

	"github.com/vbonduro/whatthefridge/internal/domain"
)

const (
	systemRole      = "You are a helpful cooking assistant."
	maxContextTitle = 3
	helpSuffix      = "\n\nPlease help the user with their cooking question."
)

// contextLines returns the context block for s. The first line is always the
// system role; every other line appears only when its field is set.
func contextLines(s *domain.Session) []string {
	lines := []string{systemRole}

	if len(s.Ingredients) > 0 {
		lines = append(lines, "The user has these ingredients: "+strings.Join(s.Ingredients, ", "))
	}
	if s.Craving != "" {
		lines = append(lines, "They are looking for: "+s.Craving)
	}
	if len(s.Recipes) > 0 {
		n := min(len(s.Recipes), maxContextTitle)
		titles := make([]string, 0, n)
		for _, r := range s.Recipes[:n] {
			title := r.Title
			if title == "" {
				title = "Unknown"
			}
			titles = append(titles, title)
		}
		lines = append(lines, "Available recipes: "+strings.Join(titles, ", "))
	}
	if s.ServingSize > 0 {
		lines = append(lines, fmt.Sprintf("Serving size: %d people", s.ServingSize))
	}
	if s.CookingMethod != "" {
		lines = append(lines, "Cooking method available: "+s.CookingMethod)
	}
	return lines
}

// BuildPrompt composes the text sent to the backend for message. When the
// session has nothing beyond the system role, message is sent as is.
// hasHistory reports whether earlier turns accompany the prompt.
func BuildPrompt(s *domain.Session, message string, hasHistory bool) string {
	lines := contextLines(s)
	if len(lines) == 1 {
		return message
	}

	prompt := strings.Join(lines, "\n") + "\n\nUser: " + message
	if !hasHistory {
		prompt += helpSuffix
	}
	return prompt
}
