package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"newslens/internal/analysis"
	"newslens/internal/core"
	"newslens/internal/logger"
	"newslens/internal/progress"
)

// Pipeline runs the full coverage comparison: plan, search, select, extract,
// analyze. Stages are strictly sequential; failures follow the fail-forward
// rules of each stage.
type Pipeline struct {
	planner    QueryPlanner
	dispatcher SearchDispatcher
	selector   CandidateSelector
	extractor  ContentExtractor
	analyzer   CoverageAnalyzer
	targets    core.SelectionTargets
	catalog    core.CountryCatalog
	bus        *progress.Bus // Optional; nil disables progress events
}

// New assembles a pipeline from its five stage collaborators.
func New(planner QueryPlanner, dispatcher SearchDispatcher, selector CandidateSelector,
	extractor ContentExtractor, analyzer CoverageAnalyzer,
	targets core.SelectionTargets, catalog core.CountryCatalog) *Pipeline {
	return &Pipeline{
		planner:    planner,
		dispatcher: dispatcher,
		selector:   selector,
		extractor:  extractor,
		analyzer:   analyzer,
		targets:    targets,
		catalog:    catalog,
	}
}

// WithProgress attaches a progress bus. Events are emitted non-blocking;
// nothing in the pipeline waits on the consumer. When the analyzer is the
// concrete four-stage implementation, per-stage events are forwarded too.
func (p *Pipeline) WithProgress(bus *progress.Bus) *Pipeline {
	p.bus = bus
	if a, ok := p.analyzer.(*analysis.Analyzer); ok {
		a.OnStage = func(o core.StageOutcome) {
			status := core.StatusCompleted
			if !o.Success {
				status = core.StatusError
			}
			bus.Emit(core.ProgressEvent{
				StageID: o.StageID,
				Step:    o.Name,
				Status:  status,
				Message: o.ErrorMsg,
				Percent: 72 + o.StageID*6,
			})
		}
	}
	return p
}

// Analyze runs the pipeline for one input article and assembles the final
// artifact. On error the artifact built so far is returned alongside it so
// callers can inspect partial results.
func (p *Pipeline) Analyze(ctx context.Context, article core.Article) (core.AnalysisArtifact, error) {
	start := time.Now()
	artifact := core.AnalysisArtifact{
		ID: uuid.NewString(),
		Input: core.ArtifactInput{
			URL:      article.URL,
			Title:    article.Title,
			Source:   article.Source,
			Language: article.DeclaredLanguage,
		},
	}

	// Stage A: query planning.
	p.emit(0, "plan", core.StatusActive, "planning search query", 2)
	plan, err := p.planner.Plan(ctx, article)
	if err != nil {
		p.emit(0, "plan", core.StatusError, err.Error(), 2)
		return artifact, err
	}
	artifact.Query = plan
	artifact.Input.Language = plan.DetectedSourceLanguage
	p.emit(0, "plan", core.StatusCompleted, "query ready", 10)

	// Stage B: country fan-out search.
	p.emit(0, "search", core.StatusActive, "searching country feeds", 12)
	candidates, err := p.dispatcher.Dispatch(ctx, plan, p.targets, p.catalog)
	if err != nil {
		p.emit(0, "search", core.StatusError, err.Error(), 12)
		return artifact, err
	}
	artifact.Metadata.ArticlesInput = len(candidates)
	p.emit(0, "search", core.StatusCompleted, "search complete", 30)

	// Stage C: selection. Shortfalls are advisory.
	p.emit(0, "select", core.StatusActive, "selecting candidates", 32)
	selection := p.selector.Select(article, candidates)
	if len(selection.Shortfall) > 0 {
		logger.Warn("coverage shortfall", "countries", len(selection.Shortfall))
	}
	p.emit(0, "select", core.StatusCompleted, "candidates selected", 40)

	// Stage D: extraction. Partial results survive the error path.
	p.emit(0, "extract", core.StatusActive, "extracting article content", 42)
	articles, err := p.extractor.ExtractAll(ctx, selection.Selected)
	artifact.Articles = articles
	if err != nil {
		p.emit(0, "extract", core.StatusError, err.Error(), 42)
		return artifact, err
	}
	for _, a := range articles {
		if a.Content.Success {
			artifact.Metadata.ArticlesAnalyzed++
		}
	}
	p.emit(0, "extract", core.StatusCompleted, "content extracted", 70)

	// Stage E: four-stage analysis.
	p.emit(0, "analyze", core.StatusActive, "running analysis stages", 72)
	result, err := p.analyzer.Analyze(ctx, article.Title, articles)
	artifact.Stages = result.Payloads
	artifact.Outcomes = result.Outcomes
	p.fillMetadata(&artifact, plan, result.Provider, start)
	if err != nil {
		p.emit(0, "analyze", core.StatusError, err.Error(), 72)
		return artifact, err
	}
	p.emit(0, "analyze", core.StatusCompleted, "analysis complete", 98)

	p.emit(0, "done", core.StatusCompleted, "artifact ready", 100)
	logger.Info("analysis artifact produced",
		"id", artifact.ID,
		"articles_analyzed", artifact.Metadata.ArticlesAnalyzed,
		"provider", artifact.Metadata.ModelProvider,
		"duration_ms", artifact.Metadata.TotalDurationMs)
	return artifact, nil
}

func (p *Pipeline) fillMetadata(artifact *core.AnalysisArtifact, plan core.QueryPlan, provider string, start time.Time) {
	artifact.Metadata.ModelProvider = provider
	artifact.Metadata.WasTranslated = plan.WasTranslated
	artifact.Metadata.Timestamp = time.Now().UTC()
	artifact.Metadata.TotalDurationMs = time.Since(start).Milliseconds()
	for _, o := range artifact.Outcomes {
		if o.StageID >= 1 && o.StageID <= 4 {
			artifact.Metadata.StageDurationsMs[o.StageID-1] = o.Duration.Milliseconds()
		}
	}
}

func (p *Pipeline) emit(stageID int, step string, status core.ProgressStatus, message string, percent int) {
	if p.bus == nil {
		return
	}
	p.bus.Emit(core.ProgressEvent{
		StageID: stageID,
		Step:    step,
		Status:  status,
		Message: message,
		Percent: percent,
	})
}
