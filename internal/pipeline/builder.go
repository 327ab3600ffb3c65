package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"newslens/internal/analysis"
	"newslens/internal/config"
	"newslens/internal/core"
	"newslens/internal/extract"
	"newslens/internal/langdetect"
	"newslens/internal/logger"
	"newslens/internal/queryplan"
	"newslens/internal/search"
	"newslens/internal/selection"
	"newslens/internal/translate"
)

// selectorAdapter bridges the selection package's concrete result into the
// pipeline's interface without a package cycle.
type selectorAdapter struct {
	selector *selection.Selector
}

func (a selectorAdapter) Select(input core.Article, candidates []core.SearchResult) SelectionResult {
	r := a.selector.Select(input, candidates)
	return SelectionResult{Selected: r.Selected, Shortfall: r.Shortfall}
}

// NewFromConfig assembles the production pipeline: RSS search, HTTP
// extraction, and the configured model backend chain.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	catalog := core.NewCountryCatalog(cfg.Countries())
	targets := cfg.Selection.Targets()

	planner := queryplan.NewPlanner(langdetect.New(), translate.NewHTTPTranslator())
	provider := search.NewNewsRSSProvider(nil, cfg.Search.UserAgent)
	dispatcher := search.NewDispatcher(provider, cfg.Search.Timeout(), cfg.Search.RetryAttempts)
	selector := selectorAdapter{selector: selection.NewSelector(targets)}

	fetcher := extract.NewHTTPFetcher(nil, cfg.Search.UserAgent, cfg.Extraction.Quality.MinContentLength)
	extractor := extract.NewExtractor(fetcher, extract.Options{
		BatchSize:       cfg.Extraction.BatchSize,
		TimeoutPerItem:  cfg.Extraction.TimeoutDuration(),
		RetryLowQuality: cfg.Extraction.RetryLowQuality,
		MinQualityScore: cfg.Extraction.Quality.MinQualityScore,
		Gates: extract.Gates{
			MaxContentLength: cfg.Extraction.Quality.MaxContentLength,
			MinWordCount:     cfg.Extraction.Quality.MinWordCount,
			MaxHTMLRatio:     cfg.Extraction.Quality.MaxHTMLRatio,
		},
	})

	backends, err := buildBackends(ctx, cfg)
	if err != nil {
		return nil, err
	}
	router := analysis.NewRouter(backends, cfg.Analysis.MaxRetries, cfg.Analysis.RetryBase())
	analyzer := analysis.NewAnalyzer(router)

	return New(planner, dispatcher, selector, extractor, analyzer, targets, catalog), nil
}

// NewOffline assembles a pipeline whose search, fetch, and model collaborators
// are all local mocks. Used by the CLI's offline mode.
func NewOffline(cfg *config.Config) *Pipeline {
	catalog := core.NewCountryCatalog(cfg.Countries())
	targets := cfg.Selection.Targets()

	planner := queryplan.NewPlanner(langdetect.New(), translate.Noop{})

	mockSearch := search.NewMockProvider()
	for code, n := range targets.PerCountry {
		spec, ok := catalog.Lookup(code)
		if !ok {
			continue
		}
		var results []core.SearchResult
		for i := 0; i < n+targets.BufferPerCountry; i++ {
			results = append(results, core.SearchResult{
				ID:     uuid.NewString(),
				Title:  fmt.Sprintf("Offline coverage sample %d from %s", i+1, spec.Name),
				Source: spec.Name + " Daily",
				URL:    fmt.Sprintf("https://example.%s/story-%d", strings.ToLower(code), i+1),
			})
		}
		mockSearch.SetResults(code, results)
	}
	dispatcher := search.NewDispatcher(mockSearch, cfg.Search.Timeout(), 0)
	selector := selectorAdapter{selector: selection.NewSelector(targets)}

	extractor := extract.NewExtractor(extract.NewMockFetcher(), extract.Options{
		BatchSize:      cfg.Extraction.BatchSize,
		TimeoutPerItem: cfg.Extraction.TimeoutDuration(),
	})

	router := analysis.NewRouter([]analysis.ModelBackend{analysis.NewMockBackend("mock")}, 0, 0)
	analyzer := analysis.NewAnalyzer(router)

	return New(planner, dispatcher, selector, extractor, analyzer, targets, catalog)
}

// buildBackends creates the ordered model backend chain from the preferred
// model list, with the configured primary provider moved to the front.
// Unknown entries are skipped with a warning.
func buildBackends(ctx context.Context, cfg *config.Config) ([]analysis.ModelBackend, error) {
	var backends []analysis.ModelBackend
	for _, name := range backendOrder(cfg) {
		switch name {
		case "gemini":
			model := cfg.Analysis.GeminiModel
			if model == "" {
				model = analysis.DefaultGeminiModel
			}
			backend, err := analysis.NewGeminiBackend(ctx, cfg.Analysis.GeminiAPIKey, model, generationParams(cfg, model))
			if err != nil {
				logger.Warn("gemini backend unavailable", "error", err.Error())
				continue
			}
			backends = append(backends, backend)
		case "ollama":
			model := cfg.Analysis.OllamaModel
			if model == "" {
				model = analysis.DefaultOllamaModel
			}
			backends = append(backends, analysis.NewOllamaBackend(cfg.Analysis.OllamaBaseURL, model, generationParams(cfg, model)))
		case "mock":
			backends = append(backends, analysis.NewMockBackend("mock"))
		default:
			logger.Warn("unknown model backend in preferred_models", "name", name)
		}
	}
	if len(backends) == 0 {
		return nil, core.NewError(core.ErrBackendUnavailable, "no usable model backends configured")
	}
	return backends, nil
}

// backendOrder returns the preferred model list with the primary provider tag
// (analysis.model_provider) pinned to the front when it names a list entry.
func backendOrder(cfg *config.Config) []string {
	models := cfg.Analysis.PreferredModels
	primary := cfg.Analysis.ModelProvider
	if primary == "" {
		return models
	}
	ordered := make([]string, 0, len(models))
	rest := make([]string, 0, len(models))
	for _, name := range models {
		if name == primary {
			ordered = append(ordered, name)
		} else {
			rest = append(rest, name)
		}
	}
	if len(ordered) == 0 {
		logger.Warn("analysis.model_provider not in preferred_models", "provider", primary)
	}
	return append(ordered, rest...)
}

// generationParams looks up the per-model knobs for a model id and pairs them
// with the configured compression hint.
func generationParams(cfg *config.Config, model string) analysis.GenerationParams {
	p := cfg.Analysis.Models[model]
	return analysis.GenerationParams{
		Temperature:    p.Temperature,
		TopK:           p.TopK,
		TopP:           p.TopP,
		ThinkingBudget: p.ThinkingBudget,
		Compression:    cfg.Analysis.CompressionLevel,
	}
}
