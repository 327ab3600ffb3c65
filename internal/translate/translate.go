// Package translate provides the Translator contract and a default HTTP
// implementation backed by the public Google Translate endpoint.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Translator translates text between languages. Failures are expected and
// handled by callers; translation is always best-effort in the pipeline.
type Translator interface {
	Translate(ctx context.Context, text, srcLang, dstLang string) (string, error)
}

// HTTPTranslator translates via the unauthenticated translate endpoint.
type HTTPTranslator struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// NewHTTPTranslator creates a translator with a 10s request timeout.
func NewHTTPTranslator() *HTTPTranslator {
	return &HTTPTranslator{
		client:    &http.Client{Timeout: 10 * time.Second},
		baseURL:   "https://translate.googleapis.com/translate_a/single",
		userAgent: "newslens/1.0",
	}
}

// Translate translates text from srcLang to dstLang. The endpoint responds
// with a nested JSON array; the first element holds segment pairs.
func (t *HTTPTranslator) Translate(ctx context.Context, text, srcLang, dstLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty text")
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", srcLang)
	params.Set("tl", dstLang)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, "GET", t.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create translate request: %w", err)
	}
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read translate response: %w", err)
	}

	return parseSegments(body)
}

// parseSegments extracts translated text from the endpoint's nested-array
// response: [[["translated","original",...], ...], ...].
func parseSegments(body []byte) (string, error) {
	var outer []json.RawMessage
	if err := json.Unmarshal(body, &outer); err != nil {
		return "", fmt.Errorf("unexpected translate response shape: %w", err)
	}
	if len(outer) == 0 {
		return "", fmt.Errorf("empty translate response")
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(outer[0], &segments); err != nil {
		return "", fmt.Errorf("unexpected translate segment shape: %w", err)
	}

	var sb strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		var piece string
		if err := json.Unmarshal(seg[0], &piece); err != nil {
			continue
		}
		sb.WriteString(piece)
	}

	result := strings.TrimSpace(sb.String())
	if result == "" {
		return "", fmt.Errorf("translate response carried no text")
	}
	return result, nil
}

// Noop is a Translator that always fails, forcing callers onto their
// original-text fallback. Useful for tests and offline runs.
type Noop struct{}

// Translate always returns an error.
func (Noop) Translate(ctx context.Context, text, srcLang, dstLang string) (string, error) {
	return "", fmt.Errorf("translation disabled")
}
