package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormulate(t *testing.T) {
	tests := []struct {
		name        string
		ingredients []string
		craving     string
		want        string
	}{
		{"with craving", []string{"egg", "rice"}, "breakfast", "Recipe using egg, rice for breakfast"},
		{"without craving", []string{"tomato"}, "", "Recipe using tomato"},
		{"no ingredients", nil, "", "Recipe using "},
		{"no ingredients with craving", nil, "soup", "Recipe using  for soup"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Formulate(tt.ingredients, tt.craving))
		})
	}
}

func TestFormulateContainsEachIngredientOnce(t *testing.T) {
	ingredients := []string{"chicken", "garlic", "lemon"}
	q := Formulate(ingredients, "")
	for _, ing := range ingredients {
		assert.Equal(t, 1, strings.Count(q, ing), ing)
	}
	assert.NotContains(t, q, " for ")
}
