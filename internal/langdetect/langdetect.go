// Package langdetect provides a lightweight language detector for short text
// such as headlines. Non-Latin scripts are identified by Unicode ranges;
// Latin-script languages are separated by stop-word evidence.
package langdetect

import (
	"strings"
	"unicode"
)

// Detection is one language candidate with its confidence in [0, 1].
type Detection struct {
	Lang       string  // ISO 639-1 code
	Confidence float64 // Share of evidence supporting this candidate
}

// Detector detects the language of a text fragment.
type Detector interface {
	Detect(text string) (Detection, error)
}

// stopWords maps Latin-script languages to high-frequency function words.
// Headlines are short, so even a single hit is meaningful evidence.
var stopWords = map[string][]string{
	"en": {"the", "and", "of", "to", "in", "for", "with", "on", "as", "is", "are", "after", "over"},
	"pt": {"de", "que", "não", "uma", "com", "para", "por", "mais", "como", "dos", "após", "são"},
	"es": {"el", "la", "los", "las", "que", "de", "en", "por", "con", "para", "una", "tras", "más"},
	"de": {"der", "die", "das", "und", "für", "mit", "von", "nach", "über", "bei", "ein", "eine", "nicht"},
	"fr": {"le", "la", "les", "des", "une", "et", "dans", "pour", "sur", "avec", "est", "après", "aux"},
	"it": {"il", "lo", "la", "gli", "che", "di", "per", "con", "una", "del", "della", "più", "dopo"},
}

// HeuristicDetector is a zero-dependency Detector usable as the default
// collaborator and as the fallback when an external detector declines.
type HeuristicDetector struct{}

// New returns a HeuristicDetector.
func New() *HeuristicDetector {
	return &HeuristicDetector{}
}

// Detect classifies text by script range first, then by stop-word evidence
// for Latin scripts. It never fails; unknown text is reported as English
// with low confidence.
func (d *HeuristicDetector) Detect(text string) (Detection, error) {
	if lang, conf := detectByScript(text); lang != "" {
		return Detection{Lang: lang, Confidence: conf}, nil
	}
	return detectLatin(text), nil
}

// DetectScript exposes the pure script-range classification, used directly by
// the query planner when an external detector reports low confidence.
func DetectScript(text string) (string, float64) {
	return detectByScript(text)
}

func detectByScript(text string) (string, float64) {
	var total, han, kana, hangul, cyrillic, arabic, hebrew, devanagari int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		total++
		switch {
		case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			kana++
		case unicode.Is(unicode.Han, r):
			han++
		case unicode.Is(unicode.Hangul, r):
			hangul++
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.Is(unicode.Hebrew, r):
			hebrew++
		case unicode.Is(unicode.Devanagari, r):
			devanagari++
		}
	}
	if total == 0 {
		return "", 0
	}

	ratio := func(n int) float64 { return float64(n) / float64(total) }
	switch {
	case kana > 0 && ratio(kana+han) > 0.5:
		return "ja", ratio(kana + han)
	case han > 0 && ratio(han) > 0.5:
		return "zh", ratio(han)
	case hangul > 0 && ratio(hangul) > 0.5:
		return "ko", ratio(hangul)
	case cyrillic > 0 && ratio(cyrillic) > 0.5:
		return "ru", ratio(cyrillic)
	case arabic > 0 && ratio(arabic) > 0.5:
		return "ar", ratio(arabic)
	case hebrew > 0 && ratio(hebrew) > 0.5:
		return "he", ratio(hebrew)
	case devanagari > 0 && ratio(devanagari) > 0.5:
		return "hi", ratio(devanagari)
	}
	return "", 0
}

func detectLatin(text string) Detection {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return Detection{Lang: "en", Confidence: 0.1}
	}

	hits := make(map[string]int)
	totalHits := 0
	for _, word := range words {
		word = strings.Trim(word, ".,;:!?\"'()[]")
		for lang, list := range stopWords {
			for _, sw := range list {
				if word == sw {
					hits[lang]++
					totalHits++
				}
			}
		}
	}

	if totalHits == 0 {
		return Detection{Lang: "en", Confidence: 0.3}
	}

	best, bestCount := "en", 0
	for lang, count := range hits {
		if count > bestCount || (count == bestCount && lang < best) {
			best, bestCount = lang, count
		}
	}
	conf := float64(bestCount) / float64(len(words))
	if conf > 1 {
		conf = 1
	}
	// A couple of stop-word hits on a short headline is strong evidence.
	if bestCount >= 2 && conf < 0.7 {
		conf = 0.7
	}
	return Detection{Lang: best, Confidence: conf}
}
