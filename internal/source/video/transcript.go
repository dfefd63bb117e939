package video

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gocolly/colly/v2"
	"github.com/tidwall/gjson"

	"github.com/vbonduro/whatthefridge/internal/source"
)

const (
	captionTracksPath = "captions.playerCaptionsTracklistRenderer.captionTracks"
	maxFetchTries     = 3
)

type captionTrack struct {
	BaseURL      string
	LanguageCode string
}

// TranscriptClient fetches video transcripts from the caption tracks listed
// on a video's watch page.
type TranscriptClient struct {
	baseURL       string
	userAgent     string
	languages     []string
	retryInterval time.Duration
	logger        *slog.Logger
}

func NewTranscriptClient(baseURL, userAgent string, languages []string, logger *slog.Logger) *TranscriptClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &TranscriptClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		userAgent:     userAgent,
		languages:     languages,
		retryInterval: backoff.DefaultInitialInterval,
		logger:        logger,
	}
}

// Transcript returns the caption text of videoID. Preferred languages are
// tried first, then every other track. source.ErrNoContent is returned when
// no track yields any text.
func (t *TranscriptClient) Transcript(ctx context.Context, videoID string) (string, error) {
	if videoID == "" {
		return "", fmt.Errorf("video: empty video id")
	}

	tracks, err := t.withRetry(ctx, func() ([]captionTrack, error) {
		return t.captionTracks(ctx, videoID)
	})
	if err != nil {
		return "", fmt.Errorf("video: failed to load caption tracks for %s: %w", videoID, err)
	}
	if len(tracks) == 0 {
		return "", source.ErrNoContent
	}

	for _, track := range orderTracks(tracks, t.languages) {
		text, err := t.withRetryText(ctx, track.BaseURL)
		if err != nil {
			t.logger.Debug("caption track failed", "video_id", videoID, "language", track.LanguageCode, "error", err)
			continue
		}
		if text != "" {
			return text, nil
		}
	}
	return "", source.ErrNoContent
}

func (t *TranscriptClient) withRetry(ctx context.Context, op backoff.Operation[[]captionTrack]) ([]captionTrack, error) {
	return backoff.Retry(ctx, op, backoff.WithBackOff(t.newBackOff()), backoff.WithMaxTries(maxFetchTries))
}

func (t *TranscriptClient) withRetryText(ctx context.Context, trackURL string) (string, error) {
	return backoff.Retry(ctx, func() (string, error) {
		return t.trackText(ctx, trackURL)
	}, backoff.WithBackOff(t.newBackOff()), backoff.WithMaxTries(maxFetchTries))
}

func (t *TranscriptClient) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.retryInterval
	return b
}

func (t *TranscriptClient) captionTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	c := colly.NewCollector(
		colly.UserAgent(t.userAgent),
		colly.StdlibContext(ctx),
	)

	var tracks []captionTrack
	var found bool
	c.OnHTML("script", func(e *colly.HTMLElement) {
		if found {
			return
		}
		data, ok := scriptVar(e.Text, "ytInitialPlayerResponse")
		if !ok {
			return
		}
		found = true
		gjson.Get(data, captionTracksPath).ForEach(func(_, tr gjson.Result) bool {
			if u := tr.Get("baseUrl").String(); u != "" {
				tracks = append(tracks, captionTrack{BaseURL: u, LanguageCode: tr.Get("languageCode").String()})
			}
			return true
		})
	})

	if err := c.Visit(t.baseURL + "/watch?v=" + url.QueryEscape(videoID)); err != nil {
		return nil, err
	}
	return tracks, nil
}

func (t *TranscriptClient) trackText(ctx context.Context, trackURL string) (string, error) {
	c := colly.NewCollector(
		colly.UserAgent(t.userAgent),
		colly.StdlibContext(ctx),
	)

	var parts []string
	c.OnXML("//text", func(e *colly.XMLElement) {
		if s := strings.TrimSpace(html.UnescapeString(e.Text)); s != "" {
			parts = append(parts, s)
		}
	})

	if err := c.Visit(t.absolute(trackURL)); err != nil {
		return "", err
	}
	return strings.Join(parts, " "), nil
}

// absolute resolves caption URLs, which may be relative to the site root.
func (t *TranscriptClient) absolute(u string) string {
	if strings.HasPrefix(u, "/") {
		return t.baseURL + u
	}
	return u
}

// orderTracks puts tracks matching the preferred languages first, in
// preference order, followed by the remaining tracks in page order. A
// preference of "en" also matches regional variants such as "en-GB".
func orderTracks(tracks []captionTrack, preferred []string) []captionTrack {
	ordered := make([]captionTrack, 0, len(tracks))
	used := make([]bool, len(tracks))

	for _, lang := range preferred {
		lang = strings.ToLower(lang)
		for i, tr := range tracks {
			code := strings.ToLower(tr.LanguageCode)
			if used[i] || (code != lang && !strings.HasPrefix(code, lang+"-")) {
				continue
			}
			used[i] = true
			ordered = append(ordered, tr)
		}
	}
	for i, tr := range tracks {
		if !used[i] {
			ordered = append(ordered, tr)
		}
	}
	return ordered
}
