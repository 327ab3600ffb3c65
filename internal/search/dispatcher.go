package search

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"newslens/internal/core"
	"newslens/internal/logger"
)

// Dispatcher fans a query out to one search task per configured country.
// Tasks are independent: a country that errors or times out contributes an
// empty slice and never aborts its siblings.
type Dispatcher struct {
	provider      Provider
	timeout       time.Duration
	retryAttempts int
	backoffBase   time.Duration
}

// NewDispatcher creates a dispatcher around a search provider.
func NewDispatcher(provider Provider, timeout time.Duration, retryAttempts int) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	return &Dispatcher{
		provider:      provider,
		timeout:       timeout,
		retryAttempts: retryAttempts,
		backoffBase:   500 * time.Millisecond,
	}
}

// Dispatch issues one search per country in targets.PerCountry (skipping
// zero counts) and returns the merged candidate list, each result tagged with
// its search country. Within a country the feed order is preserved; across
// countries results are concatenated in sorted country-code order so repeated
// runs produce the same sequence.
//
// The stage fails only when every country returns empty (NoSearchResults) or
// the context is cancelled.
func (d *Dispatcher) Dispatch(ctx context.Context, plan core.QueryPlan, targets core.SelectionTargets, catalog core.CountryCatalog) ([]core.SearchResult, error) {
	codes := make([]string, 0, len(targets.PerCountry))
	for code, count := range targets.PerCountry {
		if count <= 0 {
			continue
		}
		if _, ok := catalog.Lookup(code); !ok {
			logger.Warn("skipping country missing from catalog", "country", code)
			continue
		}
		codes = append(codes, code)
	}
	sort.Strings(codes)

	if len(codes) == 0 {
		return nil, core.NewError(core.ErrNoSearchResults, "no countries configured for search")
	}

	perCountry := make(map[string][]core.SearchResult, len(codes))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	for _, code := range codes {
		spec, _ := catalog.Lookup(code)
		maxResults := targets.PerCountry[code] + targets.BufferPerCountry

		group.Go(func() error {
			results := d.searchCountry(groupCtx, plan.SearchText, spec, maxResults)
			mu.Lock()
			perCountry[spec.Code] = results
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait() // Tasks never return errors; failures yield empty slices.

	if err := ctx.Err(); err != nil {
		return nil, core.WrapError(core.ErrCancelled, err, "search dispatch cancelled")
	}

	var merged []core.SearchResult
	for _, code := range codes {
		merged = append(merged, perCountry[code]...)
	}

	if len(merged) == 0 {
		return nil, core.NewError(core.ErrNoSearchResults, "no search results from any of %d countries", len(codes))
	}
	return merged, nil
}

// searchCountry runs one country's search with per-attempt timeout and
// bounded exponential backoff between attempts. All failures degrade to an
// empty result set.
func (d *Dispatcher) searchCountry(ctx context.Context, query string, country core.CountrySpec, maxResults int) []core.SearchResult {
	var lastErr error
	for attempt := 0; attempt < d.retryAttempts; attempt++ {
		if attempt > 0 {
			backoff := d.backoffBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
		results, err := d.provider.Search(attemptCtx, query, country, maxResults)
		cancel()

		if err == nil {
			return results
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(err) {
			break
		}
	}

	logger.Warn("country search failed", "country", country.Code, "error", errString(lastErr))
	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
