package domain

// Source identifies which kind of provider a recipe came from.
type Source string

const (
	SourceVideo Source = "video"
	SourceWeb   Source = "web"
)

// Recipe is one candidate result. The common fields live on the base record;
// Video is the variant part and is non-nil exactly when Source is SourceVideo.
// Enrichment fields only ever grow: see Apply.
type Recipe struct {
	Title       string        `json:"title"`
	Source      Source        `json:"source"`
	URL         string        `json:"url"`
	Thumbnail   string        `json:"thumbnail,omitempty"`
	Video       *VideoDetails `json:"video,omitempty"`
	Description string        `json:"description,omitempty"`
	Ingredients []string      `json:"ingredients,omitempty"`
	Steps       []string      `json:"steps,omitempty"`
	Customized  string        `json:"customized,omitempty"`
}

// VideoDetails holds the fields that exist only for video recipes.
type VideoDetails struct {
	ID         string `json:"video_id"`
	Transcript string `json:"transcript,omitempty"`
}

func NewVideoRecipe(videoID, title, url, thumbnail string) *Recipe {
	return &Recipe{
		Title:     title,
		Source:    SourceVideo,
		URL:       url,
		Thumbnail: thumbnail,
		Video:     &VideoDetails{ID: videoID},
	}
}

func NewWebRecipe(title, url string) *Recipe {
	return &Recipe{
		Title:  title,
		Source: SourceWeb,
		URL:    url,
	}
}

// VideoID returns the video id, or "" for non-video recipes.
func (r *Recipe) VideoID() string {
	if r.Video == nil {
		return ""
	}
	return r.Video.ID
}

// Transcript returns the transcript, or "" when none has been fetched.
func (r *Recipe) Transcript() string {
	if r.Video == nil {
		return ""
	}
	return r.Video.Transcript
}

// ReferenceText is the text a customization is based on: the transcript when
// one exists, otherwise the title.
func (r *Recipe) ReferenceText() string {
	if t := r.Transcript(); t != "" {
		return t
	}
	return r.Title
}

// Patch is a typed partial update produced by enrichment. A nil field was not
// produced and leaves the recipe untouched.
type Patch struct {
	Title       *string
	Transcript  *string
	Description *string
	Ingredients []string
	Steps       []string
}

// IsEmpty reports whether the patch carries no fields.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Transcript == nil && p.Description == nil &&
		p.Ingredients == nil && p.Steps == nil
}

// Apply merges p into r field by field. Empty values are ignored so a
// previously populated field is never cleared, which makes repeated
// enrichment of the same recipe safe. Transcript is ignored on non-video
// recipes.
func (r *Recipe) Apply(p Patch) {
	if p.Title != nil && *p.Title != "" {
		r.Title = *p.Title
	}
	if p.Transcript != nil && *p.Transcript != "" && r.Video != nil {
		r.Video.Transcript = *p.Transcript
	}
	if p.Description != nil && *p.Description != "" {
		r.Description = *p.Description
	}
	if len(p.Ingredients) > 0 {
		r.Ingredients = append([]string(nil), p.Ingredients...)
	}
	if len(p.Steps) > 0 {
		r.Steps = append([]string(nil), p.Steps...)
	}
}

// Clone returns a deep copy of r.
func (r *Recipe) Clone() *Recipe {
	if r == nil {
		return nil
	}
	c := *r
	if r.Video != nil {
		v := *r.Video
		c.Video = &v
	}
	c.Ingredients = cloneStrings(r.Ingredients)
	c.Steps = cloneStrings(r.Steps)
	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
