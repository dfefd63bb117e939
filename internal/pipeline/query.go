package pipeline

import "strings"

// Formulate builds the search query for a set of ingredients. An empty
// ingredient list still yields a well-formed query.
func Formulate(ingredients []string, craving string) string {
	query := "Recipe using " + strings.Join(ingredients, ", ")
	if craving != "" {
		query += " for " + craving
	}
	return query
}
