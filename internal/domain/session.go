package domain

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// Step tracks how far a session has progressed through the workflow.
type Step int

const (
	StepStart Step = iota
	StepIngredientsProcessed
	StepRecipesFound
	StepDetailsExtracted
	StepChatCompleted
)

func (s Step) String() string {
	switch s {
	case StepStart:
		return "start"
	case StepIngredientsProcessed:
		return "ingredients_processed"
	case StepRecipesFound:
		return "recipes_found"
	case StepDetailsExtracted:
		return "details_extracted"
	case StepChatCompleted:
		return "chat_completed"
	default:
		return "unknown"
	}
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversational turn. History is append-only.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NoSelection is the SelectedIndex of a session with no selected recipe.
const NoSelection = -1

// Session is the unit of persistence and mutation across the workflow.
// Error is sticky: once set, later pipeline stages skip their work.
type Session struct {
	ID            string
	Ingredients   []string
	Craving       string
	SearchQuery   string
	Recipes       []*Recipe
	SelectedIndex int
	History       []Message
	CurrentStep   Step
	Error         string

	ServingSize   int
	CookingMethod string
	Utensils      []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewSession(ingredients []string, craving string) *Session {
	now := time.Now()
	return &Session{
		Ingredients:   ingredients,
		Craving:       craving,
		SelectedIndex: NoSelection,
		CurrentStep:   StepStart,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// SelectedRecipe returns the selected recipe. It points into Recipes, so
// changes made through it are visible in the recipe list.
func (s *Session) SelectedRecipe() *Recipe {
	if s.SelectedIndex < 0 || s.SelectedIndex >= len(s.Recipes) {
		return nil
	}
	return s.Recipes[s.SelectedIndex]
}

// Select marks Recipes[i] as the selected recipe.
func (s *Session) Select(i int) {
	if i >= 0 && i < len(s.Recipes) {
		s.SelectedIndex = i
	}
}

func (s *Session) Failed() bool {
	return s.Error != ""
}

// Append adds a message to the end of the history.
func (s *Session) Append(role Role, content string) {
	s.History = append(s.History, Message{Role: role, Content: content})
}

// RecipesBySource returns the recipes from the given source, in order.
func (s *Session) RecipesBySource(src Source) []*Recipe {
	var out []*Recipe
	for _, r := range s.Recipes {
		if r.Source == src {
			out = append(out, r)
		}
	}
	return out
}

// Clone returns a deep copy of s. Stores hand out clones so that a caller
// mutating its copy cannot race with another request.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Ingredients = cloneStrings(s.Ingredients)
	c.Utensils = cloneStrings(s.Utensils)
	if s.Recipes != nil {
		c.Recipes = make([]*Recipe, len(s.Recipes))
		for i, r := range s.Recipes {
			c.Recipes[i] = r.Clone()
		}
	}
	if s.History != nil {
		c.History = append([]Message(nil), s.History...)
	}
	return &c
}
