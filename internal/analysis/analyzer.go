package analysis

import (
	"context"
	"time"

	"google.golang.org/genai"

	"newslens/internal/core"
	"newslens/internal/logger"
)

// Stage names as they appear in outcomes and progress events.
var stageNames = [4]string{
	"context_trust",
	"consensus",
	"factual_disputes",
	"perspective_differences",
}

// Result is the analyzer's output: the four typed payloads plus per-stage
// outcomes. Provider names the backend that served stage 1.
type Result struct {
	Payloads core.StagePayloads
	Outcomes []core.StageOutcome
	Provider string
}

// Analyzer runs the four model stages strictly in order. Stages 1 and 2 are
// critical: a final failure halts the run. Stages 3 and 4 substitute their
// empty payloads on failure so the report is still produced.
type Analyzer struct {
	router  *Router
	OnStage func(core.StageOutcome) // Optional per-stage notification
}

// NewAnalyzer creates an analyzer over the given backend router.
func NewAnalyzer(router *Router) *Analyzer {
	return &Analyzer{router: router}
}

// Analyze runs all four stages over the extracted articles. On a critical
// stage failure the partial Result accumulated so far is returned with a
// CriticalAnalysisStageFailed error.
func (a *Analyzer) Analyze(ctx context.Context, inputTitle string, articles []core.ScoredArticle) (Result, error) {
	result := Result{}
	articleBlock := FormatArticleBlock(articles)

	stages := []struct {
		id       int
		critical bool
		prompt   string
		schema   *genai.Schema
		decode   func([]byte) error
		onFail   func()
	}{
		{
			id: 1, critical: true,
			prompt: BuildStage1Prompt(inputTitle, articleBlock),
			schema: Stage1Schema(),
			decode: func(data []byte) error {
				var p core.Stage1Payload
				if err := decodeStage1(data, &p); err != nil {
					return err
				}
				result.Payloads.Stage1 = &p
				return nil
			},
		},
		{
			id: 2, critical: true,
			prompt: BuildStage2Prompt(articleBlock),
			schema: Stage2Schema(),
			decode: func(data []byte) error {
				var p core.Stage2Payload
				if err := decodeStage2(data, &p); err != nil {
					return err
				}
				result.Payloads.Stage2 = &p
				return nil
			},
		},
		{
			id: 3, critical: false,
			prompt: BuildStage3Prompt(articleBlock),
			schema: Stage3Schema(),
			decode: func(data []byte) error {
				var p core.Stage3Payload
				if err := decodeStage3(data, &p); err != nil {
					return err
				}
				result.Payloads.Stage3 = &p
				return nil
			},
			onFail: func() { result.Payloads.Stage3 = &core.Stage3Payload{FactualDisputes: []core.FactualDispute{}} },
		},
		{
			id: 4, critical: false,
			prompt: BuildStage4Prompt(articleBlock),
			schema: Stage4Schema(),
			decode: func(data []byte) error {
				var p core.Stage4Payload
				if err := decodeStage4(data, &p); err != nil {
					return err
				}
				result.Payloads.Stage4 = &p
				return nil
			},
			onFail: func() { result.Payloads.Stage4 = &core.Stage4Payload{CoverageAngles: []core.CoverageAngle{}} },
		},
	}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return result, core.WrapError(core.ErrCancelled, err, "analysis cancelled before stage %d", stage.id)
		}

		start := time.Now()
		provider, err := a.router.RunStage(ctx, stage.prompt, stage.schema, stage.decode)

		outcome := core.StageOutcome{
			StageID:  stage.id,
			Name:     stageNames[stage.id-1],
			Critical: stage.critical,
			Success:  err == nil,
			Provider: provider,
			Duration: time.Since(start),
		}
		if err != nil {
			outcome.ErrorKind = core.KindOf(err)
			outcome.ErrorMsg = err.Error()
		}
		result.Outcomes = append(result.Outcomes, outcome)
		if a.OnStage != nil {
			a.OnStage(outcome)
		}

		if err != nil {
			if core.IsKind(err, core.ErrCancelled) {
				return result, err
			}
			if stage.critical {
				return result, core.WrapError(core.ErrCriticalStageFailed, err, "critical stage %d (%s) failed on all providers", stage.id, outcome.Name)
			}
			logger.Warn("non-critical analysis stage failed, substituting empty result",
				"stage", outcome.Name, "error", err.Error())
			stage.onFail()
			continue
		}

		if stage.id == 1 {
			result.Provider = provider
		}
		logger.Debug("analysis stage complete", "stage", outcome.Name, "provider", provider,
			"duration_ms", outcome.Duration.Milliseconds())
	}

	return result, nil
}
