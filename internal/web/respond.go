package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/vbonduro/whatthefridge/internal/domain"
)

// recipeView is the wire form of a recipe.
type recipeView struct {
	Title       string   `json:"title"`
	Source      string   `json:"source"`
	URL         string   `json:"url"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
	Description string   `json:"description,omitempty"`
	VideoID     string   `json:"video_id,omitempty"`
	Transcript  string   `json:"transcript,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
	Steps       []string `json:"steps"`
	Customized  string   `json:"customized,omitempty"`
}

const customizedSource = "customized"

func toRecipeView(r *domain.Recipe) recipeView {
	title := r.Title
	if title == "" {
		title = "Unknown"
	}
	steps := r.Steps
	if steps == nil {
		steps = []string{}
	}
	return recipeView{
		Title:       title,
		Source:      string(r.Source),
		URL:         r.URL,
		Thumbnail:   r.Thumbnail,
		Description: r.Description,
		VideoID:     r.VideoID(),
		Transcript:  r.Transcript(),
		Ingredients: r.Ingredients,
		Steps:       steps,
		Customized:  r.Customized,
	}
}

func toRecipeViews(recipes []*domain.Recipe) []recipeView {
	out := make([]recipeView, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, toRecipeView(r))
	}
	return out
}

// customizedView presents a customization as a recipe whose only step is the
// rewritten text.
func customizedView(r *domain.Recipe) recipeView {
	title := r.Title
	if title == "" {
		title = "Customized Recipe"
	}
	return recipeView{
		Title:  title,
		Source: customizedSource,
		Steps:  []string{r.Customized},
	}
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, errorResponse{Detail: detail})
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
