package search

import (
	"context"
	"testing"
	"time"

	"newslens/internal/core"
)

func testCatalog() core.CountryCatalog {
	return core.NewCountryCatalog([]core.CountrySpec{
		{Code: "US", Name: "United States", Language: "en"},
		{Code: "BR", Name: "Brazil", Language: "pt"},
		{Code: "DE", Name: "Germany", Language: "de"},
	})
}

func makeResults(prefix string, n int) []core.SearchResult {
	out := make([]core.SearchResult, n)
	for i := range out {
		out[i] = core.SearchResult{
			ID:    prefix + string(rune('a'+i)),
			Title: prefix + " headline number " + string(rune('0'+i)),
			URL:   "https://example.com/" + prefix + "/" + string(rune('a'+i)),
		}
	}
	return out
}

func TestDispatchMergesCountries(t *testing.T) {
	provider := NewMockProvider()
	provider.SetResults("US", makeResults("us", 3))
	provider.SetResults("BR", makeResults("br", 2))

	d := NewDispatcher(provider, time.Second, 1)
	targets := core.SelectionTargets{
		PerCountry:       map[string]int{"US": 2, "BR": 2},
		BufferPerCountry: 1,
	}

	results, err := d.Dispatch(context.Background(), core.QueryPlan{SearchText: "central bank"}, targets, testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 merged results, got %d", len(results))
	}
	// Sorted country order: BR before US.
	if results[0].CountryCode != "BR" {
		t.Errorf("expected BR results first, got %s", results[0].CountryCode)
	}
	if results[2].CountryCode != "US" {
		t.Errorf("expected US results after BR, got %s", results[2].CountryCode)
	}
}

func TestDispatchCapsAtRequestedPlusBuffer(t *testing.T) {
	provider := NewMockProvider()
	provider.SetResults("US", makeResults("us", 9))

	d := NewDispatcher(provider, time.Second, 1)
	targets := core.SelectionTargets{
		PerCountry:       map[string]int{"US": 2},
		BufferPerCountry: 1,
	}

	results, err := d.Dispatch(context.Background(), core.QueryPlan{SearchText: "q"}, targets, testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected requested+buffer=3 results, got %d", len(results))
	}
}

func TestDispatchOneCountryFailingDoesNotAbortOthers(t *testing.T) {
	provider := NewMockProvider()
	provider.SetResults("US", makeResults("us", 2))
	provider.SetError("BR", core.NewError(core.ErrSearchPermanent, "feed for BR returned status 403"))

	d := NewDispatcher(provider, time.Second, 2)
	targets := core.SelectionTargets{PerCountry: map[string]int{"US": 2, "BR": 2}}

	results, err := d.Dispatch(context.Background(), core.QueryPlan{SearchText: "q"}, targets, testCatalog())
	if err != nil {
		t.Fatalf("sibling failure must not fail the stage: %v", err)
	}
	for _, r := range results {
		if r.CountryCode == "BR" {
			t.Error("failed country must contribute no results")
		}
	}
	if len(results) != 2 {
		t.Errorf("expected 2 US results, got %d", len(results))
	}
}

func TestDispatchAllEmptyIsNoSearchResults(t *testing.T) {
	provider := NewMockProvider()
	provider.SetError("US", core.NewError(core.ErrSearchPermanent, "status 404"))
	provider.SetError("BR", core.NewError(core.ErrSearchPermanent, "status 404"))

	d := NewDispatcher(provider, time.Second, 1)
	targets := core.SelectionTargets{PerCountry: map[string]int{"US": 2, "BR": 2}}

	_, err := d.Dispatch(context.Background(), core.QueryPlan{SearchText: "q"}, targets, testCatalog())
	if core.KindOf(err) != core.ErrNoSearchResults {
		t.Errorf("expected no_search_results, got %v", err)
	}
}

func TestDispatchSkipsZeroCountCountries(t *testing.T) {
	provider := NewMockProvider()
	provider.SetResults("US", makeResults("us", 2))
	provider.SetResults("DE", makeResults("de", 2))

	d := NewDispatcher(provider, time.Second, 1)
	targets := core.SelectionTargets{PerCountry: map[string]int{"US": 2, "DE": 0}}

	results, err := d.Dispatch(context.Background(), core.QueryPlan{SearchText: "q"}, targets, testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range results {
		if r.CountryCode == "DE" {
			t.Error("zero-count country must be skipped")
		}
	}
}

func TestDispatchRetriesTransientErrors(t *testing.T) {
	provider := &flakyProvider{failures: 1, results: makeResults("us", 1)}

	d := NewDispatcher(provider, time.Second, 2)
	d.backoffBase = time.Millisecond
	targets := core.SelectionTargets{PerCountry: map[string]int{"US": 1}}

	results, err := d.Dispatch(context.Background(), core.QueryPlan{SearchText: "q"}, targets, testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected retry to recover the result, got %d results", len(results))
	}
	if provider.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", provider.calls)
	}
}

func TestDispatchDoesNotRetryPermanentErrors(t *testing.T) {
	provider := &flakyProvider{failures: 10, permanent: true}

	d := NewDispatcher(provider, time.Second, 3)
	d.backoffBase = time.Millisecond
	targets := core.SelectionTargets{PerCountry: map[string]int{"US": 1}}

	_, err := d.Dispatch(context.Background(), core.QueryPlan{SearchText: "q"}, targets, testCatalog())
	if core.KindOf(err) != core.ErrNoSearchResults {
		t.Fatalf("expected no_search_results, got %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("permanent error must not be retried, saw %d attempts", provider.calls)
	}
}

func TestDispatchCancellation(t *testing.T) {
	provider := NewMockProvider()
	provider.SetResults("US", makeResults("us", 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDispatcher(provider, time.Second, 1)
	targets := core.SelectionTargets{PerCountry: map[string]int{"US": 1}}

	_, err := d.Dispatch(ctx, core.QueryPlan{SearchText: "q"}, targets, testCatalog())
	if core.KindOf(err) != core.ErrCancelled {
		t.Errorf("expected cancelled, got %v", err)
	}
}

// flakyProvider fails the first N calls, then succeeds.
type flakyProvider struct {
	failures  int
	permanent bool
	results   []core.SearchResult
	calls     int
}

func (f *flakyProvider) GetName() string { return "flaky" }

func (f *flakyProvider) Search(ctx context.Context, query string, country core.CountrySpec, maxResults int) ([]core.SearchResult, error) {
	f.calls++
	if f.calls <= f.failures {
		if f.permanent {
			return nil, core.NewError(core.ErrSearchPermanent, "status 403")
		}
		return nil, core.NewError(core.ErrSearchTransient, "status 503")
	}
	return f.results, nil
}
