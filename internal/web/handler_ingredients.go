package web

import (
	"errors"
	"io"
	"net/http"
	"strings"
)

const maxPhotoSize = 50 * 1024 * 1024 // 50 MB

// allowedImageTypes is the set of MIME types accepted for uploaded photos.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniff spec (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

type ingredientsResponse struct {
	Recipes        []recipeView `json:"recipes"`
	ConversationID string       `json:"conversation_id"`
}

// handleSubmitIngredients accepts a form with repeated "ingredients" fields,
// an optional "craving" and an optional "image" file.
func (s *Server) handleSubmitIngredients(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			s.writeError(w, http.StatusBadRequest, "failed to parse form")
			return
		}
		if err := r.ParseForm(); err != nil {
			s.writeError(w, http.StatusBadRequest, "failed to parse form")
			return
		}
	}

	ingredients := r.Form["ingredients"]
	craving := r.FormValue("craving")

	imageData, mimeType, err := s.readImage(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(imageData) == 0 && !hasNonBlank(ingredients) {
		s.writeError(w, http.StatusBadRequest, "ingredients or image required")
		return
	}

	sess, err := s.service.SubmitIngredients(r.Context(), ingredients, craving, imageData, mimeType)
	if err != nil {
		s.logger.Error("submit ingredients failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to process ingredients")
		return
	}
	if sess.Failed() {
		s.writeError(w, http.StatusInternalServerError, sess.Error)
		return
	}

	s.writeJSON(w, http.StatusOK, ingredientsResponse{
		Recipes:        toRecipeViews(sess.Recipes),
		ConversationID: sess.ID,
	})
}

var errUnsupportedImage = errors.New("unsupported image format")

// readImage returns the uploaded image, or nil when the form has none.
func (s *Server) readImage(r *http.Request) ([]byte, string, error) {
	if r.MultipartForm == nil {
		return nil, "", nil
	}
	file, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", errors.New("invalid image field")
	}
	defer closeWithLog(file, "upload file", s.logger)

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", errors.New("failed to read image")
	}
	if len(data) == 0 {
		return nil, "", nil
	}

	mimeType, ok := allowedImageMIME(data)
	if !ok {
		return nil, "", errUnsupportedImage
	}
	return data, mimeType, nil
}

func hasNonBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
