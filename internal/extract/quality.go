package extract

import (
	"fmt"

	"newslens/internal/core"
)

// Quality score contributions. The score is a sum of bounded terms; identical
// content always produces an identical score.
const (
	scoreSuccess     = 30.0
	scoreLengthIdeal = 25.0 // 3000-8000 chars, the sweet spot for analysis
	scoreLengthGood  = 15.0 // 1000-3000 or 8000-15000 chars
	scoreLengthShort = 8.0  // 300-1000 chars
	scoreExcerpt     = 10.0
	scoreWordsIdeal  = 15.0 // 400-2500 words
	scoreWordsShort  = 8.0  // 150-400 words
	scoreReadability = 15.0
	scoreMetadata    = 8.0
	scoreRawText     = 3.0
	priorWeight      = 0.2
)

// Gates are the content checks applied to successful extractions before they
// enter analysis. A zero value disables the corresponding check.
type Gates struct {
	MaxContentLength int     // Longest acceptable body in characters
	MinWordCount     int     // Fewest acceptable whitespace-separated words
	MaxHTMLRatio     float64 // Largest acceptable share of residual markup characters
}

// Check returns an empty string when the content passes every gate, or a
// short reason describing the first gate it failed. Unsuccessful content is
// not re-judged.
func (g Gates) Check(content core.ExtractedContent) string {
	if !content.Success {
		return ""
	}
	if g.MaxContentLength > 0 && len(content.Body) > g.MaxContentLength {
		return fmt.Sprintf("body length %d exceeds %d", len(content.Body), g.MaxContentLength)
	}
	if g.MinWordCount > 0 {
		if words := content.WordCount(); words < g.MinWordCount {
			return fmt.Sprintf("word count %d below %d", words, g.MinWordCount)
		}
	}
	if g.MaxHTMLRatio > 0 {
		if ratio := htmlRatio(content.Body); ratio > g.MaxHTMLRatio {
			return fmt.Sprintf("markup ratio %.2f exceeds %.2f", ratio, g.MaxHTMLRatio)
		}
	}
	return ""
}

// htmlRatio reports the share of angle-bracket characters in the body. A
// clean extraction leaves none behind; leftovers mean the selector grabbed
// markup instead of text.
func htmlRatio(body string) float64 {
	if body == "" {
		return 0
	}
	markup := 0
	for _, r := range body {
		if r == '<' || r == '>' {
			markup++
		}
	}
	return float64(markup) / float64(len(body))
}

// Score computes the quality score for extracted content. prior is an
// optional caller-supplied contribution (0 when unused) weighted at 0.2.
func Score(content core.ExtractedContent, prior float64) float64 {
	if !content.Success {
		return 0
	}

	score := scoreSuccess

	switch length := len(content.Body); {
	case length >= 3000 && length <= 8000:
		score += scoreLengthIdeal
	case (length >= 1000 && length < 3000) || (length > 8000 && length <= 15000):
		score += scoreLengthGood
	case length >= 300 && length < 1000:
		score += scoreLengthShort
	}

	if content.Excerpt != "" {
		score += scoreExcerpt
	}

	switch words := content.WordCount(); {
	case words >= 400 && words <= 2500:
		score += scoreWordsIdeal
	case words >= 150 && words < 400:
		score += scoreWordsShort
	}

	switch content.Method {
	case core.MethodReadability:
		score += scoreReadability
	case core.MethodMetadata:
		score += scoreMetadata
	case core.MethodRawText:
		score += scoreRawText
	}

	if prior > 0 {
		score += prior * priorWeight
	}

	return score
}
