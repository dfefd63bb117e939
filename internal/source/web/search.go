// Package web finds recipe pages through a web search engine and extracts
// structured recipe content from them.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/gocolly/colly/v2"

	"github.com/vbonduro/whatthefridge/internal/domain"
)

const DefaultSearchURL = "https://html.duckduckgo.com"

type Searcher struct {
	baseURL   string
	userAgent string
	logger    *slog.Logger
}

func NewSearcher(baseURL, userAgent string, logger *slog.Logger) *Searcher {
	if baseURL == "" {
		baseURL = DefaultSearchURL
	}
	return &Searcher{baseURL: strings.TrimRight(baseURL, "/"), userAgent: userAgent, logger: logger}
}

// Search returns at most limit web recipes for query, in result page order.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]*domain.Recipe, error) {
	results := []*domain.Recipe{}
	if limit <= 0 {
		return results, nil
	}

	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.StdlibContext(ctx),
	)

	seen := make(map[string]bool)
	c.OnHTML("a.result__a", func(e *colly.HTMLElement) {
		if len(results) >= limit {
			return
		}
		link := resultLink(e.Attr("href"))
		title := strings.TrimSpace(e.Text)
		if link == "" || title == "" || seen[link] {
			return
		}
		seen[link] = true
		results = append(results, domain.NewWebRecipe(title, link))
	})

	searchURL := s.baseURL + "/html/?q=" + url.QueryEscape(query+" recipe")
	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("web: failed to search: %w", err)
	}

	s.logger.Debug("web search complete", "query", query, "results", len(results))
	return results, nil
}

// resultLink unwraps the search engine's redirect links
// (//duckduckgo.com/l/?uddg=<target>) and drops links to its own pages,
// which are ads or navigation rather than results.
func resultLink(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if strings.HasSuffix(u.Hostname(), "duckduckgo.com") {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return href
}
