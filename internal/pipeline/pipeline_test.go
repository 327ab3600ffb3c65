package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"newslens/internal/analysis"
	"newslens/internal/core"
	"newslens/internal/extract"
	"newslens/internal/langdetect"
	"newslens/internal/progress"
	"newslens/internal/queryplan"
	"newslens/internal/search"
	"newslens/internal/selection"
)

type recordingTranslator struct {
	out   string
	calls int
}

func (t *recordingTranslator) Translate(ctx context.Context, text, srcLang, dstLang string) (string, error) {
	t.calls++
	return t.out, nil
}

// testHarness wires real stage implementations over mock transports.
type testHarness struct {
	provider   *search.MockProvider
	fetcher    *extract.MockFetcher
	backend    *analysis.MockBackend
	translator *recordingTranslator
	pipeline   *Pipeline
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	targets := core.SelectionTargets{
		PerCountry:       map[string]int{"US": 2, "BR": 2},
		BufferPerCountry: 1,
		MaxForAnalysis:   8,
	}
	catalog := core.NewCountryCatalog([]core.CountrySpec{
		{Code: "US", Name: "United States", Language: "en"},
		{Code: "BR", Name: "Brazil", Language: "pt"},
	})

	h := &testHarness{
		provider:   search.NewMockProvider(),
		fetcher:    extract.NewMockFetcher(),
		backend:    analysis.NewMockBackend("mock"),
		translator: &recordingTranslator{out: "central bank raises rates"},
	}

	planner := queryplan.NewPlanner(langdetect.New(), h.translator)
	dispatcher := search.NewDispatcher(h.provider, time.Second, 0)
	selector := selectorAdapter{selector: selection.NewSelector(targets)}
	extractor := extract.NewExtractor(h.fetcher, extract.Options{BatchSize: 2, RetryLowQuality: false})
	router := analysis.NewRouter([]analysis.ModelBackend{h.backend}, 1, time.Millisecond)
	analyzer := analysis.NewAnalyzer(router)

	h.pipeline = New(planner, dispatcher, selector, extractor, analyzer, targets, catalog)
	return h
}

func (h *testHarness) seedSearch(perCountry int) {
	for _, code := range []string{"US", "BR"} {
		var results []core.SearchResult
		for i := 0; i < perCountry; i++ {
			results = append(results, core.SearchResult{
				ID:     fmt.Sprintf("%s-%d", code, i),
				Title:  fmt.Sprintf("Coverage variant %d from %s outlets", i+1, code),
				Source: code + " Daily",
				URL:    fmt.Sprintf("https://%s.example.com/story-%d", code, i+1),
			})
		}
		h.provider.SetResults(code, results)
	}
}

func inputArticle() core.Article {
	return core.Article{
		URL:              "https://ex.com/a",
		Title:            "Central bank raises rates",
		DeclaredLanguage: "en",
	}
}

func TestAnalyzeHappyPathTwoCountries(t *testing.T) {
	h := newHarness(t)
	h.seedSearch(3)

	artifact, err := h.pipeline.Analyze(context.Background(), inputArticle())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if artifact.ID == "" {
		t.Error("artifact missing id")
	}
	if len(artifact.Articles) != 4 {
		t.Fatalf("expected 4 selected articles, got %d", len(artifact.Articles))
	}
	if len(artifact.Outcomes) != 4 {
		t.Fatalf("expected 4 stage outcomes, got %d", len(artifact.Outcomes))
	}
	for _, o := range artifact.Outcomes {
		if !o.Success {
			t.Errorf("stage %d failed: %s", o.StageID, o.ErrorMsg)
		}
	}
	switch artifact.Stages.Stage1.TrustSignal {
	case core.TrustHighAgreement, core.TrustSomeConflicts, core.TrustMajorDisputes:
	default:
		t.Errorf("invalid trust signal %q", artifact.Stages.Stage1.TrustSignal)
	}
	if n := len(artifact.Stages.Stage2.Consensus); n < 1 || n > 4 {
		t.Errorf("consensus length %d outside [1,4]", n)
	}
	if artifact.Metadata.ArticlesAnalyzed != 4 {
		t.Errorf("articles_analyzed = %d", artifact.Metadata.ArticlesAnalyzed)
	}
	// requested+buffer caps each country at 3.
	if artifact.Metadata.ArticlesInput != 6 {
		t.Errorf("articles_input = %d", artifact.Metadata.ArticlesInput)
	}
	if artifact.Metadata.ModelProvider != "mock" {
		t.Errorf("model provider %q", artifact.Metadata.ModelProvider)
	}
	if artifact.Metadata.TotalDurationMs < 0 {
		t.Error("negative total duration")
	}
}

func TestAnalyzePartialExtraction(t *testing.T) {
	h := newHarness(t)
	h.seedSearch(3)
	// Two of the four selected articles time out during extraction.
	h.fetcher.FailURL("https://US.example.com/story-1", core.ErrExtractionTimeout)
	h.fetcher.FailURL("https://BR.example.com/story-1", core.ErrExtractionTimeout)

	artifact, err := h.pipeline.Analyze(context.Background(), inputArticle())
	if err != nil {
		t.Fatalf("analysis should proceed on 2 successes: %v", err)
	}
	if artifact.Metadata.ArticlesAnalyzed != 2 {
		t.Errorf("articles_analyzed = %d, want 2", artifact.Metadata.ArticlesAnalyzed)
	}
	failures := 0
	for _, a := range artifact.Articles {
		if !a.Content.Success {
			failures++
			if a.Content.ErrorKind != core.ErrExtractionTimeout {
				t.Errorf("failure kind %q", a.Content.ErrorKind)
			}
		}
	}
	if failures != 2 {
		t.Errorf("expected 2 recorded failures, got %d", failures)
	}
	if len(artifact.Outcomes) != 4 {
		t.Errorf("all four stages should still be attempted, got %d", len(artifact.Outcomes))
	}
}

func TestAnalyzeNonCriticalStageFallback(t *testing.T) {
	h := newHarness(t)
	h.seedSearch(3)
	h.backend.Queue("", nil) // stage 1
	h.backend.Queue("", nil) // stage 2
	h.backend.Queue("not json at all", nil)

	artifact, err := h.pipeline.Analyze(context.Background(), inputArticle())
	if err != nil {
		t.Fatalf("non-critical failure must not surface: %v", err)
	}
	if artifact.Outcomes[2].Success {
		t.Error("stage 3 outcome should record the failure")
	}
	if artifact.Stages.Stage3 == nil || len(artifact.Stages.Stage3.FactualDisputes) != 0 {
		t.Error("stage 3 payload should be the empty substitution")
	}
	if !artifact.Outcomes[0].Success || !artifact.Outcomes[1].Success || !artifact.Outcomes[3].Success {
		t.Error("stages 1, 2, 4 should be unaffected")
	}
}

func TestAnalyzeCriticalStageFailure(t *testing.T) {
	h := newHarness(t)
	h.seedSearch(3)
	h.backend.Queue("", nil) // stage 1 succeeds
	h.backend.Queue("", core.NewError(core.ErrBackendAuth, "401 unauthorized"))

	bus := progress.NewBus(64)
	h.pipeline.WithProgress(bus)

	artifact, err := h.pipeline.Analyze(context.Background(), inputArticle())
	if !core.IsKind(err, core.ErrCriticalStageFailed) {
		t.Fatalf("expected critical stage failure, got %v", err)
	}
	if len(artifact.Outcomes) != 2 {
		t.Fatalf("stages 3 and 4 must not run, got %d outcomes", len(artifact.Outcomes))
	}
	if h.backend.Calls() != 2 {
		t.Errorf("expected exactly 2 model calls, got %d", h.backend.Calls())
	}

	bus.Close()
	sawStage2Error := false
	for event := range bus.Events() {
		if event.StageID == 2 && event.Status == core.StatusError {
			sawStage2Error = true
		}
	}
	if !sawStage2Error {
		t.Error("progress bus should carry the stage 2 error event")
	}
}

func TestAnalyzeTranslationPath(t *testing.T) {
	h := newHarness(t)
	h.seedSearch(3)

	artifact, err := h.pipeline.Analyze(context.Background(), core.Article{
		URL:              "https://ex.com/b",
		Title:            "Banco central eleva os juros para conter os preços",
		DeclaredLanguage: "pt",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !artifact.Query.WasTranslated {
		t.Error("query should be marked translated")
	}
	if artifact.Query.DetectedSourceLanguage != "pt" {
		t.Errorf("detected language %q", artifact.Query.DetectedSourceLanguage)
	}
	if artifact.Query.SearchText != "central bank raises rates" {
		t.Errorf("search text %q", artifact.Query.SearchText)
	}
	for _, q := range h.provider.Queries() {
		if q != "central bank raises rates" {
			t.Errorf("country search used untranslated query %q", q)
		}
	}
	if !artifact.Metadata.WasTranslated {
		t.Error("metadata should record the translation")
	}
}

func TestAnalyzeZeroCoverage(t *testing.T) {
	h := newHarness(t)
	// No seeded results: every country comes back empty.

	artifact, err := h.pipeline.Analyze(context.Background(), inputArticle())
	if !core.IsKind(err, core.ErrNoSearchResults) {
		t.Fatalf("expected no_search_results, got %v", err)
	}
	if artifact.Query.SearchText == "" {
		t.Error("query plan should be recorded before the failure")
	}
	if len(artifact.Articles) != 0 || len(artifact.Outcomes) != 0 {
		t.Error("no extraction or analysis should have run")
	}
}

func TestAnalyzeCancellation(t *testing.T) {
	h := newHarness(t)
	h.seedSearch(3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.pipeline.Analyze(ctx, inputArticle())
	if !core.IsKind(err, core.ErrCancelled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestAnalyzeEmitsOrderedProgress(t *testing.T) {
	h := newHarness(t)
	h.seedSearch(3)

	bus := progress.NewBus(128)
	h.pipeline.WithProgress(bus)

	if _, err := h.pipeline.Analyze(context.Background(), inputArticle()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bus.Close()

	lastPercent := -1
	var steps []string
	for event := range bus.Events() {
		if event.StageID == 0 {
			if event.Percent < lastPercent {
				t.Errorf("progress went backwards: %d after %d", event.Percent, lastPercent)
			}
			lastPercent = event.Percent
			steps = append(steps, event.Step)
		}
	}
	if len(steps) == 0 || steps[len(steps)-1] != "done" {
		t.Errorf("expected a trailing done event, got %v", steps)
	}
	if lastPercent != 100 {
		t.Errorf("final percent %d", lastPercent)
	}
}
