// Package queryplan builds the search query for an input article: detect the
// title's language, translate it to the canonical search language when
// needed, and hand the trimmed result to the dispatcher.
package queryplan

import (
	"context"
	"strings"

	"newslens/internal/core"
	"newslens/internal/langdetect"
	"newslens/internal/logger"
	"newslens/internal/translate"
)

// CanonicalLanguage is the language all search queries are issued in.
const CanonicalLanguage = "en"

// DefaultConfidenceFloor is the minimum detector confidence accepted before
// falling back to the script-range heuristic.
const DefaultConfidenceFloor = 0.6

// Planner produces a QueryPlan from an input article. Detection and
// translation are best-effort collaborators; neither can fail the pipeline.
type Planner struct {
	detector        langdetect.Detector
	translator      translate.Translator
	confidenceFloor float64
}

// NewPlanner creates a Planner. A nil detector falls back to the built-in
// heuristic; a nil translator disables translation (original title is used).
func NewPlanner(detector langdetect.Detector, translator translate.Translator) *Planner {
	if detector == nil {
		detector = langdetect.New()
	}
	if translator == nil {
		translator = translate.Noop{}
	}
	return &Planner{
		detector:        detector,
		translator:      translator,
		confidenceFloor: DefaultConfidenceFloor,
	}
}

// WithConfidenceFloor overrides the detection confidence floor.
func (p *Planner) WithConfidenceFloor(floor float64) *Planner {
	if floor > 0 {
		p.confidenceFloor = floor
	}
	return p
}

// Plan builds the query plan for the article. Only an empty title fails.
func (p *Planner) Plan(ctx context.Context, article core.Article) (core.QueryPlan, error) {
	title := strings.TrimSpace(article.Title)
	if title == "" {
		return core.QueryPlan{}, core.NewError(core.ErrInvalidInput, "article title is empty")
	}

	lang := normalizeLang(article.DeclaredLanguage)
	if lang == "" {
		lang = p.detectLanguage(title)
	}

	plan := core.QueryPlan{
		SearchText:             title,
		DetectedSourceLanguage: lang,
	}

	if lang == CanonicalLanguage {
		return plan, nil
	}

	translated, err := p.translator.Translate(ctx, title, lang, CanonicalLanguage)
	if err != nil || strings.TrimSpace(translated) == "" {
		// Best-effort: search with the original title.
		logger.Warn("title translation failed, using original", "lang", lang, "error", errString(err))
		return plan, nil
	}

	plan.SearchText = strings.TrimSpace(translated)
	plan.WasTranslated = true
	return plan, nil
}

// detectLanguage runs the detector and accepts its answer only above the
// confidence floor; otherwise the deterministic script heuristic decides.
func (p *Planner) detectLanguage(title string) string {
	detection, err := p.detector.Detect(title)
	if err == nil && detection.Confidence >= p.confidenceFloor {
		if lang := normalizeLang(detection.Lang); lang != "" {
			return lang
		}
	}
	if err != nil {
		logger.Debug("language detection failed, using script heuristic", "error", err.Error())
	}
	if lang, _ := langdetect.DetectScript(title); lang != "" {
		return lang
	}
	return CanonicalLanguage
}

// normalizeLang reduces language tags such as "pt-BR" or "zh-CN" to their
// ISO 639-1 base code.
func normalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return ""
	}
	if idx := strings.IndexAny(lang, "-_"); idx > 0 {
		lang = lang[:idx]
	}
	if len(lang) != 2 {
		return ""
	}
	return lang
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
