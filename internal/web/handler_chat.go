package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/vbonduro/whatthefridge/internal/domain"
	"github.com/vbonduro/whatthefridge/internal/service"
)

const maxChatBody = 64 * 1024

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
	ServingSize    int    `json:"serving_size,omitempty"`
	CookingMethod  string `json:"cooking_method,omitempty"`
}

type chatResponse struct {
	Response       string       `json:"response"`
	ConversationID string       `json:"conversation_id"`
	UpdatedRecipes []recipeView `json:"updated_recipes,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ConversationID == "" {
		s.writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	if req.ServingSize < 0 {
		s.writeError(w, http.StatusBadRequest, "serving_size must be positive")
		return
	}

	sess, err := s.service.Chat(r.Context(), req.ConversationID, req.Message, service.Preferences{
		ServingSize:   req.ServingSize,
		CookingMethod: strings.TrimSpace(req.CookingMethod),
	})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "Conversation not found")
		return
	case errors.Is(err, service.ErrEmptyMessage):
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	case err != nil:
		s.logger.Error("chat failed", "session_id", req.ConversationID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}
	if sess.Failed() {
		s.writeError(w, http.StatusInternalServerError, sess.Error)
		return
	}

	resp := chatResponse{ConversationID: sess.ID}
	if n := len(sess.History); n > 0 && sess.History[n-1].Role == domain.RoleAssistant {
		resp.Response = sess.History[n-1].Content
	}
	if sel := sess.SelectedRecipe(); sel != nil && sel.Customized != "" {
		resp.UpdatedRecipes = []recipeView{customizedView(sel)}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecipes(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("conversation_id")
	recipes, err := s.service.Recipes(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	if err != nil {
		s.logger.Error("list recipes failed", "session_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list recipes")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"recipes": toRecipeViews(recipes)})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("video_id")
	transcript, err := s.service.Transcript(r.Context(), videoID)
	if errors.Is(err, domain.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Transcript not available")
		return
	}
	if err != nil {
		s.logger.Error("fetch transcript failed", "video_id", videoID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to fetch transcript")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"transcript": transcript, "video_id": videoID})
}
