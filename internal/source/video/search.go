// Package video finds recipe videos and extracts their transcripts by
// scraping the public video site pages.
package video

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/gocolly/colly/v2"
	"github.com/tidwall/gjson"

	"github.com/vbonduro/whatthefridge/internal/domain"
)

const (
	DefaultBaseURL = "https://www.youtube.com"
	unknownTitle   = "Unknown Recipe"
)

const searchResultsPath = "contents.twoColumnSearchResultsRenderer.primaryContents.sectionListRenderer.contents"

type Searcher struct {
	baseURL   string
	userAgent string
	logger    *slog.Logger
}

func NewSearcher(baseURL, userAgent string, logger *slog.Logger) *Searcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Searcher{baseURL: strings.TrimRight(baseURL, "/"), userAgent: userAgent, logger: logger}
}

// Search returns at most limit video recipes for query. Results embedded in
// the page's initial data are preferred; plain watch links are the fallback.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]*domain.Recipe, error) {
	if limit <= 0 {
		return []*domain.Recipe{}, nil
	}

	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.StdlibContext(ctx),
	)

	var fromData, fromLinks []*domain.Recipe
	seenData := make(map[string]bool)
	seenLinks := make(map[string]bool)

	c.OnHTML("script", func(e *colly.HTMLElement) {
		data, ok := scriptVar(e.Text, "ytInitialData")
		if !ok {
			return
		}
		gjson.Get(data, searchResultsPath).ForEach(func(_, section gjson.Result) bool {
			section.Get("itemSectionRenderer.contents").ForEach(func(_, item gjson.Result) bool {
				vr := item.Get("videoRenderer")
				id := vr.Get("videoId").String()
				if id == "" || seenData[id] {
					return true
				}
				seenData[id] = true
				fromData = append(fromData, domain.NewVideoRecipe(id, titleOr(vr.Get("title.runs.0.text").String()), watchURL(id), lastThumbnail(vr)))
				return len(fromData) < limit
			})
			return len(fromData) < limit
		})
	})

	c.OnHTML(`a[href*="/watch?v="]`, func(e *colly.HTMLElement) {
		id := videoIDFromHref(e.Attr("href"))
		if id == "" || seenLinks[id] || len(fromLinks) >= limit {
			return
		}
		seenLinks[id] = true
		title := e.Attr("title")
		if title == "" {
			title = strings.TrimSpace(e.Text)
		}
		fromLinks = append(fromLinks, domain.NewVideoRecipe(id, titleOr(title), watchURL(id), thumbnailURL(id)))
	})

	searchURL := s.baseURL + "/results?search_query=" + url.QueryEscape(query+" recipe cooking")
	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("video: failed to search: %w", err)
	}

	results := fromData
	if len(results) == 0 {
		results = fromLinks
	}
	if len(results) > limit {
		results = results[:limit]
	}
	s.logger.Debug("video search complete", "query", query, "results", len(results), "from_initial_data", len(fromData) > 0)
	if results == nil {
		results = []*domain.Recipe{}
	}
	return results, nil
}

func watchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func thumbnailURL(id string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", id)
}

func lastThumbnail(vr gjson.Result) string {
	thumbs := vr.Get("thumbnail.thumbnails").Array()
	if len(thumbs) == 0 {
		return ""
	}
	return thumbs[len(thumbs)-1].Get("url").String()
}

func titleOr(title string) string {
	if title = strings.TrimSpace(title); title != "" {
		return title
	}
	return unknownTitle
}

// videoIDFromHref extracts the v parameter from a watch link.
func videoIDFromHref(href string) string {
	_, rest, ok := strings.Cut(href, "watch?v=")
	if !ok {
		return ""
	}
	id, _, _ := strings.Cut(rest, "&")
	return id
}

// scriptVar returns the JSON assigned to name inside an inline script, for
// example `var ytInitialData = {...};`. The returned text may carry trailing
// script after the value; gjson stops reading at the end of the value.
func scriptVar(script, name string) (string, bool) {
	i := strings.Index(script, name)
	if i < 0 {
		return "", false
	}
	rest := script[i+len(name):]
	j := strings.IndexByte(rest, '{')
	if j < 0 || strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest[:j]), "=")) != "" {
		return "", false
	}
	return rest[j:], true
}
