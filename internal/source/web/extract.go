package web

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/gocolly/colly/v2"
	"github.com/tidwall/gjson"

	"github.com/vbonduro/whatthefridge/internal/source"
)

var (
	ingredientSelectors = []string{
		"li.ingredient",
		"li.ingredients",
		`li[itemprop="recipeIngredient"]`,
		"li.recipe-ingredient",
	}
	instructionSelectors = []string{
		"li.instruction",
		"li.instructions",
		"li.step",
		`li[itemprop="recipeInstructions"]`,
	}

	numberedStep = regexp.MustCompile(`\n\s*\d+[.)]\s*`)
)

const (
	maxNumberedSteps  = 5
	minNumberedLength = 20
)

// Extractor scrapes a recipe page. Structured schema.org data is preferred;
// common list markup and numbered paragraphs are the fallbacks.
type Extractor struct {
	userAgent string
	logger    *slog.Logger
}

func NewExtractor(userAgent string, logger *slog.Logger) *Extractor {
	return &Extractor{userAgent: userAgent, logger: logger}
}

// Extract returns source.ErrNoContent when the page has neither a title nor
// any instructions.
func (x *Extractor) Extract(ctx context.Context, pageURL string) (*source.Page, error) {
	c := colly.NewCollector(
		colly.UserAgent(x.userAgent),
		colly.StdlibContext(ctx),
	)

	var structured *source.Page
	c.OnHTML(`script[type="application/ld+json"]`, func(e *colly.HTMLElement) {
		if structured != nil {
			return
		}
		structured = parseRecipeSchema(e.Text)
	})

	markup := &source.Page{}
	c.OnHTML("html", func(e *colly.HTMLElement) {
		markup.Title = strings.TrimSpace(e.DOM.Find("h1").First().Text())
		if markup.Title == "" {
			markup.Title = strings.TrimSpace(e.DOM.Find("title").First().Text())
		}
		markup.Description = strings.TrimSpace(e.ChildAttr(`meta[name="description"]`, "content"))
		markup.Ingredients = firstMatch(e, ingredientSelectors)
		markup.Instructions = firstMatch(e, instructionSelectors)
		if len(markup.Instructions) == 0 {
			markup.Instructions = numberedParagraphs(e.DOM.Find("body").Text())
		}
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("web: failed to fetch %s: %w", pageURL, err)
	}

	page := merge(structured, markup)
	if page.Title == "" && len(page.Instructions) == 0 {
		return nil, source.ErrNoContent
	}
	x.logger.Debug("page extracted", "url", pageURL, "structured", structured != nil,
		"ingredients", len(page.Ingredients), "instructions", len(page.Instructions))
	return page, nil
}

// merge fills the gaps in the structured data with what the markup gave.
func merge(structured, markup *source.Page) *source.Page {
	if structured == nil {
		return markup
	}
	page := *structured
	if page.Title == "" {
		page.Title = markup.Title
	}
	if page.Description == "" {
		page.Description = markup.Description
	}
	if len(page.Ingredients) == 0 {
		page.Ingredients = markup.Ingredients
	}
	if len(page.Instructions) == 0 {
		page.Instructions = markup.Instructions
	}
	return &page
}

func firstMatch(e *colly.HTMLElement, selectors []string) []string {
	for _, sel := range selectors {
		if texts := nonEmpty(e.ChildTexts(sel)); len(texts) > 0 {
			return texts
		}
	}
	return nil
}

// numberedParagraphs splits free text on "1." / "2)" style markers that start
// a line and keeps the first few substantial fragments.
func numberedParagraphs(text string) []string {
	parts := numberedStep.Split(text, -1)
	if len(parts) < 2 {
		return nil
	}
	var steps []string
	for _, p := range parts[1:min(len(parts), maxNumberedSteps+1)] {
		if p = strings.TrimSpace(p); len(p) > minNumberedLength {
			steps = append(steps, p)
		}
	}
	return steps
}

// parseRecipeSchema finds a schema.org Recipe in one ld+json block. The block
// may hold the recipe itself, an array of entities, or an @graph.
func parseRecipeSchema(raw string) *source.Page {
	doc := gjson.Parse(strings.TrimSpace(raw))
	if !doc.IsObject() && !doc.IsArray() {
		return nil
	}

	var recipe gjson.Result
	var find func(v gjson.Result) bool
	find = func(v gjson.Result) bool {
		switch {
		case v.IsArray():
			for _, item := range v.Array() {
				if find(item) {
					return true
				}
			}
		case v.IsObject():
			if isRecipeType(v.Get("@type")) {
				recipe = v
				return true
			}
			if g := v.Get("@graph"); g.Exists() {
				return find(g)
			}
		}
		return false
	}
	if !find(doc) {
		return nil
	}

	page := &source.Page{
		Title:        strings.TrimSpace(recipe.Get("name").String()),
		Description:  strings.TrimSpace(recipe.Get("description").String()),
		Ingredients:  nonEmpty(stringsOf(recipe.Get("recipeIngredient"))),
		Instructions: nonEmpty(instructionsOf(recipe.Get("recipeInstructions"))),
	}
	return page
}

func isRecipeType(t gjson.Result) bool {
	if t.IsArray() {
		for _, v := range t.Array() {
			if v.String() == "Recipe" {
				return true
			}
		}
		return false
	}
	return t.String() == "Recipe"
}

func stringsOf(v gjson.Result) []string {
	if !v.IsArray() {
		if s := v.String(); s != "" {
			return []string{s}
		}
		return nil
	}
	var out []string
	for _, item := range v.Array() {
		out = append(out, item.String())
	}
	return out
}

// instructionsOf flattens recipeInstructions, which may be a plain string, a
// list of strings, HowToStep objects, or HowToSection objects of steps.
func instructionsOf(v gjson.Result) []string {
	switch {
	case v.IsArray():
		var out []string
		for _, item := range v.Array() {
			out = append(out, instructionsOf(item)...)
		}
		return out
	case v.IsObject():
		if items := v.Get("itemListElement"); items.Exists() {
			return instructionsOf(items)
		}
		if text := v.Get("text"); text.Exists() {
			return []string{text.String()}
		}
		return []string{v.Get("name").String()}
	default:
		if s := v.String(); s != "" {
			return []string{s}
		}
		return nil
	}
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
