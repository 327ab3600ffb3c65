package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"newslens/internal/core"
	"newslens/internal/logger"
)

// rss mirrors the news feed's XML envelope. Field decoding tolerates both
// CDATA and plain-text content; encoding/xml handles either transparently.
type rss struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Title string    `xml:"title"`
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

// pubDateFormats are tried in order when parsing item timestamps.
var pubDateFormats = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
}

// NewsRSSProvider implements Provider against the Google News RSS search
// endpoint, parameterized per country and language.
type NewsRSSProvider struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// NewNewsRSSProvider creates a provider with the given HTTP client.
// A nil client gets a 30s-timeout default; per-request deadlines come from
// the caller's context.
func NewNewsRSSProvider(client *http.Client, userAgent string) *NewsRSSProvider {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if userAgent == "" {
		userAgent = "newslens/1.0"
	}
	return &NewsRSSProvider{
		client:    client,
		baseURL:   "https://news.google.com/rss/search",
		userAgent: userAgent,
	}
}

// GetName returns the name of this provider.
func (p *NewsRSSProvider) GetName() string {
	return "Google News RSS"
}

// Search fetches the country feed and parses its item list.
func (p *NewsRSSProvider) Search(ctx context.Context, query string, country core.CountrySpec, maxResults int) ([]core.SearchResult, error) {
	feedURL := p.buildFeedURL(query, country)

	req, err := http.NewRequestWithContext(ctx, "GET", feedURL, nil)
	if err != nil {
		return nil, core.WrapError(core.ErrSearchPermanent, err, "failed to create feed request")
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml")

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, core.WrapError(core.ErrCancelled, ctx.Err(), "search cancelled for %s", country.Code)
		}
		return nil, core.WrapError(core.ErrSearchTransient, err, "feed request failed for %s", country.Code)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		kind := core.ErrSearchPermanent
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			kind = core.ErrSearchTransient
		}
		return nil, core.NewError(kind, "feed for %s returned status %d", country.Code, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.WrapError(core.ErrSearchTransient, err, "failed to read feed for %s", country.Code)
	}

	results, err := ParseFeed(body, country, maxResults)
	if err != nil {
		return nil, err
	}

	logger.Debug("news feed parsed", "country", country.Code, "results", len(results))
	return results, nil
}

// buildFeedURL constructs the country-parameterized search feed URL.
func (p *NewsRSSProvider) buildFeedURL(query string, country core.CountrySpec) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", country.Language)
	params.Set("gl", country.Code)
	params.Set("ceid", fmt.Sprintf("%s:%s", country.Code, country.Language))
	return p.baseURL + "?" + params.Encode()
}

// ParseFeed decodes a feed payload into SearchResults tagged with the search
// country. Items without a usable link are skipped. Parsing the same payload
// repeatedly yields identical results apart from generated IDs.
func ParseFeed(payload []byte, country core.CountrySpec, maxResults int) ([]core.SearchResult, error) {
	var feed rss
	if err := xml.Unmarshal(payload, &feed); err != nil {
		return nil, core.WrapError(core.ErrSearchTransient, err, "failed to parse feed for %s", country.Code)
	}

	var results []core.SearchResult
	for _, item := range feed.Channel.Items {
		if maxResults > 0 && len(results) >= maxResults {
			break
		}
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}
		title, source := splitSource(strings.TrimSpace(item.Title))
		results = append(results, core.SearchResult{
			ID:          uuid.NewString(),
			Title:       title,
			Source:      source,
			CountryCode: country.Code,
			Language:    country.Language,
			URL:         link,
			PublishedAt: parsePubDate(item.PubDate),
			Snippet:     cleanSnippet(item.Description),
		})
	}
	return results, nil
}

// splitSource separates the source name from a raw feed title. The feed
// appends the publication after the last " - "; when that suffix is missing
// the source is "Unknown".
func splitSource(raw string) (title, source string) {
	idx := strings.LastIndex(raw, " - ")
	if idx <= 0 || idx+3 >= len(raw) {
		return raw, "Unknown"
	}
	return strings.TrimSpace(raw[:idx]), strings.TrimSpace(raw[idx+3:])
}

func parsePubDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, format := range pubDateFormats {
		if t, err := time.Parse(format, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// cleanSnippet strips markup from a description field.
func cleanSnippet(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	var sb strings.Builder
	inTag := false
	for _, r := range raw {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	s := strings.ReplaceAll(sb.String(), "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&#39;", "'")
	s = strings.ReplaceAll(s, "&quot;", "\"")
	return strings.TrimSpace(s)
}
