package search

import (
	"context"
	"sync"

	"newslens/internal/core"
)

// MockProvider implements Provider for testing and offline runs. Results and
// errors are configured per country code.
type MockProvider struct {
	mu      sync.Mutex
	results map[string][]core.SearchResult
	errs    map[string]error
	queries []string
}

// NewMockProvider creates an empty mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		results: make(map[string][]core.SearchResult),
		errs:    make(map[string]error),
	}
}

// SetResults configures the candidates returned for a country.
func (m *MockProvider) SetResults(countryCode string, results []core.SearchResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[countryCode] = results
}

// SetError configures the error returned for a country.
func (m *MockProvider) SetError(countryCode string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[countryCode] = err
}

// Queries returns every query string the provider has seen.
func (m *MockProvider) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.queries))
	copy(out, m.queries)
	return out
}

// GetName returns the name of this provider.
func (m *MockProvider) GetName() string {
	return "Mock"
}

// Search returns the configured results for the country, truncated to
// maxResults, honoring context cancellation.
func (m *MockProvider) Search(ctx context.Context, query string, country core.CountrySpec, maxResults int) ([]core.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.WrapError(core.ErrCancelled, err, "mock search cancelled")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)

	if err := m.errs[country.Code]; err != nil {
		return nil, err
	}

	results := m.results[country.Code]
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	out := make([]core.SearchResult, len(results))
	copy(out, results)
	for i := range out {
		out[i].CountryCode = country.Code
		out[i].Language = country.Language
	}
	return out, nil
}
