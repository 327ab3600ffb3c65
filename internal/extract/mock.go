package extract

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"newslens/internal/core"
)

// MockFetcher is an offline ContentFetcher producing deterministic synthetic
// bodies per URL. Used by tests and the CLI's offline mode.
type MockFetcher struct {
	mu       sync.Mutex
	failFor  map[string]core.ErrorKind
	sessions int
}

// NewMockFetcher creates a mock fetcher where every fetch succeeds.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{failFor: make(map[string]core.ErrorKind)}
}

// FailURL makes fetches of the given URL report the error kind.
func (f *MockFetcher) FailURL(url string, kind core.ErrorKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failFor[url] = kind
}

// Sessions reports how many sessions were opened.
func (f *MockFetcher) Sessions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions
}

func (f *MockFetcher) OpenSession(ctx context.Context) (FetchSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.WrapError(core.ErrCancelled, err, "mock session open cancelled")
	}
	f.mu.Lock()
	f.sessions++
	f.mu.Unlock()
	return &mockFetchSession{fetcher: f}, nil
}

type mockFetchSession struct {
	fetcher *MockFetcher
	closed  bool
}

func (s *mockFetchSession) Fetch(ctx context.Context, url string, _ time.Duration) (core.ExtractedContent, error) {
	if s.closed {
		return core.ExtractedContent{}, fmt.Errorf("fetch on closed session")
	}
	if err := ctx.Err(); err != nil {
		return core.ExtractedContent{}, core.WrapError(core.ErrCancelled, err, "mock fetch cancelled")
	}

	s.fetcher.mu.Lock()
	kind, fail := s.fetcher.failFor[url]
	s.fetcher.mu.Unlock()
	if fail {
		return core.ExtractedContent{FinalURL: url, Success: false, ErrorKind: kind}, nil
	}

	body := strings.Repeat(fmt.Sprintf("Synthetic coverage of %s with consistent reporting across outlets. ", url), 60)
	return core.ExtractedContent{
		FinalURL: url,
		Body:     body,
		Excerpt:  "Synthetic excerpt for " + url,
		Language: "en",
		Method:   core.MethodReadability,
		Success:  true,
	}, nil
}

func (s *mockFetchSession) Close() error {
	s.closed = true
	return nil
}
