// Package extract hydrates selected search results with article content,
// running fetches in bounded-parallel batches through a scoped session.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"newslens/internal/core"
	"newslens/internal/langdetect"
)

// ContentFetcher opens scoped fetch sessions. The session abstracts whatever
// resource pool backs content retrieval (HTTP client, headless browser, ...).
type ContentFetcher interface {
	OpenSession(ctx context.Context) (FetchSession, error)
}

// FetchSession retrieves cleaned article text. Callers must Close it on
// every exit path; Close is idempotent.
type FetchSession interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) (core.ExtractedContent, error)
	Close() error
}

// mainContentSelectors are tried in order when locating the article body.
var mainContentSelectors = []string{
	"article",
	"main",
	".main-content", ".entry-content", ".post-content", ".post-body", ".article-body",
	"[role='main']",
	".content", "#content",
}

var whitespaceRegex = regexp.MustCompile(`[ \t]{2,}`)
var blankLinesRegex = regexp.MustCompile(`(\n\s*){2,}`)

// HTTPFetcher is the default ContentFetcher: plain HTTP with goquery-based
// boilerplate removal. Sessions share the fetcher's client.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	minLength int // Bodies shorter than this are not counted as successes
}

// NewHTTPFetcher creates an HTTPFetcher. minLength gates extraction success;
// zero uses a 300-character default.
func NewHTTPFetcher(client *http.Client, userAgent string, minLength int) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if userAgent == "" {
		userAgent = "newslens/1.0"
	}
	if minLength <= 0 {
		minLength = 300
	}
	return &HTTPFetcher{client: client, userAgent: userAgent, minLength: minLength}
}

// OpenSession returns a session bound to this fetcher.
func (f *HTTPFetcher) OpenSession(ctx context.Context) (FetchSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.WrapError(core.ErrCancelled, err, "fetch session open cancelled")
	}
	return &httpSession{fetcher: f}, nil
}

type httpSession struct {
	fetcher *HTTPFetcher
	closed  bool
}

// Fetch downloads the page and extracts its main text content.
func (s *httpSession) Fetch(ctx context.Context, rawURL string, timeout time.Duration) (core.ExtractedContent, error) {
	if s.closed {
		return core.ExtractedContent{}, fmt.Errorf("fetch on closed session")
	}

	start := time.Now()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return failure(rawURL, core.ErrExtractionFailed, start), nil
	}
	req.Header.Set("User-Agent", s.fetcher.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.fetcher.client.Do(req)
	if err != nil {
		kind := core.ErrExtractionFailed
		if ctx.Err() == context.DeadlineExceeded {
			kind = core.ErrExtractionTimeout
		}
		return failure(rawURL, kind, start), nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return failure(rawURL, core.ErrExtractionFailed, start), nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		kind := core.ErrExtractionFailed
		if ctx.Err() == context.DeadlineExceeded {
			kind = core.ErrExtractionTimeout
		}
		return failure(rawURL, kind, start), nil
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	content := ExtractFromHTML(string(body), finalURL, s.fetcher.minLength)
	content.Duration = time.Since(start)
	return content, nil
}

// Close marks the session unusable. Idempotent.
func (s *httpSession) Close() error {
	s.closed = true
	return nil
}

func failure(url string, kind core.ErrorKind, start time.Time) core.ExtractedContent {
	return core.ExtractedContent{
		FinalURL:  url,
		Method:    core.MethodNone,
		Duration:  time.Since(start),
		Success:   false,
		ErrorKind: kind,
	}
}

// ExtractFromHTML pulls the main text content out of an HTML document.
// Extraction tries the readability-style selectors first, falls back to
// page metadata, and finally to the whole body text.
func ExtractFromHTML(html, finalURL string, minLength int) core.ExtractedContent {
	content := core.ExtractedContent{FinalURL: finalURL, Method: core.MethodNone}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		content.ErrorKind = core.ErrExtractionFailed
		return content
	}

	// Remove common non-content elements before text extraction.
	doc.Find("script, style, nav, footer, header, aside, form, iframe, noscript, .sidebar, #sidebar, .ad, .advertisement, .popup, .modal, .cookie-banner").Remove()

	content.Excerpt = extractExcerpt(doc)
	content.Byline = extractByline(doc)

	body, method := extractBody(doc)
	if len(body) < minLength {
		if content.Excerpt != "" && len(content.Excerpt) >= minLength {
			body, method = content.Excerpt, core.MethodMetadata
		}
	}

	content.Body = body
	content.Method = method
	if len(body) >= minLength {
		content.Success = true
		detection, _ := langdetect.New().Detect(body)
		content.Language = detection.Lang
	} else {
		content.ErrorKind = core.ErrExtractionFailed
	}
	return content
}

func extractBody(doc *goquery.Document) (string, core.ExtractionMethod) {
	for _, selector := range mainContentSelectors {
		if text := collectText(doc.Find(selector).First()); text != "" {
			return text, core.MethodReadability
		}
	}
	if text := collectText(doc.Find("body")); text != "" {
		return text, core.MethodRawText
	}
	return "", core.MethodNone
}

// collectText walks block elements under sel, preserving paragraph breaks.
func collectText(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	var sb strings.Builder
	sel.Find("p, h1, h2, h3, h4, h5, h6, li, blockquote, pre").Each(func(_ int, item *goquery.Selection) {
		if text := strings.TrimSpace(item.Text()); text != "" {
			sb.WriteString(text)
			sb.WriteString("\n\n")
		}
	})
	text := sb.String()
	if text == "" {
		text = strings.TrimSpace(sel.Text())
	}
	text = whitespaceRegex.ReplaceAllString(text, " ")
	text = blankLinesRegex.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}

func extractExcerpt(doc *goquery.Document) string {
	if og, ok := doc.Find("meta[property='og:description']").Attr("content"); ok {
		if og = strings.TrimSpace(og); og != "" {
			return og
		}
	}
	if desc, ok := doc.Find("meta[name='description']").Attr("content"); ok {
		return strings.TrimSpace(desc)
	}
	return ""
}

func extractByline(doc *goquery.Document) string {
	if author, ok := doc.Find("meta[name='author']").Attr("content"); ok {
		if author = strings.TrimSpace(author); author != "" {
			return author
		}
	}
	if byline := strings.TrimSpace(doc.Find("[rel='author']").First().Text()); byline != "" {
		return byline
	}
	return ""
}
