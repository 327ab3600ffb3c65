// Package search queries syndicated news feeds for coverage of a story, one
// request per configured country, and fans the requests out in parallel.
package search

import (
	"context"

	"newslens/internal/core"
)

// Provider performs a country-and-language-parameterized news search.
type Provider interface {
	// Search returns at most maxResults candidates for the query in the
	// given country, preserving the feed's relevance order.
	Search(ctx context.Context, query string, country core.CountrySpec, maxResults int) ([]core.SearchResult, error)

	// GetName returns the name of the search provider.
	GetName() string
}

// retryable classifies a search error as worth retrying. HTTP 5xx, 429, and
// network errors are transient; other 4xx responses are permanent.
func retryable(err error) bool {
	kind := core.KindOf(err)
	return kind == core.ErrSearchTransient || kind == ""
}
