package vision

import (
	"context"
)

// IngredientPrompt is the shared prompt used by all vision adapters.
const IngredientPrompt = `Analyze this image and list all the food ingredients you can see.
Return only a comma-separated list of ingredient names, nothing else.
Example: tomato, onion, garlic, chicken, salt, pepper`

// Recognizer turns a photo of food into a list of ingredient names. An image
// the model can read but that shows no food yields an empty list and no error.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, mimeType string) ([]string, error)
}

// NormalizeMIME maps browser MIME types to the image types the hosted model
// APIs accept. Unknown types are coerced to jpeg.
func NormalizeMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
