// Package pipeline wires the planning, search, selection, extraction, and
// analysis stages into the single Analyze entry point.
package pipeline

import (
	"context"

	"newslens/internal/analysis"
	"newslens/internal/core"
)

// QueryPlanner produces the search query plan for an input article.
type QueryPlanner interface {
	Plan(ctx context.Context, article core.Article) (core.QueryPlan, error)
}

// SearchDispatcher fans the query out across the configured countries.
type SearchDispatcher interface {
	Dispatch(ctx context.Context, plan core.QueryPlan, targets core.SelectionTargets, catalog core.CountryCatalog) ([]core.SearchResult, error)
}

// CandidateSelector filters and balances candidates for analysis.
type CandidateSelector interface {
	Select(input core.Article, candidates []core.SearchResult) SelectionResult
}

// SelectionResult mirrors the selector output without importing it here;
// the selection package's Result satisfies the adapter below.
type SelectionResult struct {
	Selected  []core.SearchResult
	Shortfall map[string]int
}

// ContentExtractor hydrates candidates with article content.
type ContentExtractor interface {
	ExtractAll(ctx context.Context, candidates []core.SearchResult) ([]core.ScoredArticle, error)
}

// CoverageAnalyzer runs the model stages over the extracted articles.
type CoverageAnalyzer interface {
	Analyze(ctx context.Context, inputTitle string, articles []core.ScoredArticle) (analysis.Result, error)
}
