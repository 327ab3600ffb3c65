package queryplan

import (
	"context"
	"errors"
	"strings"
	"testing"

	"newslens/internal/core"
	"newslens/internal/langdetect"
)

// mockDetector returns a fixed detection.
type mockDetector struct {
	detection langdetect.Detection
	err       error
}

func (m *mockDetector) Detect(text string) (langdetect.Detection, error) {
	return m.detection, m.err
}

// mockTranslator records calls and returns a fixed result.
type mockTranslator struct {
	result string
	err    error
	calls  int
	src    string
	dst    string
}

func (m *mockTranslator) Translate(ctx context.Context, text, srcLang, dstLang string) (string, error) {
	m.calls++
	m.src, m.dst = srcLang, dstLang
	return m.result, m.err
}

func TestPlanEmptyTitleFails(t *testing.T) {
	planner := NewPlanner(nil, nil)

	_, err := planner.Plan(context.Background(), core.Article{Title: "   "})
	if err == nil {
		t.Fatal("expected error for whitespace title")
	}
	if core.KindOf(err) != core.ErrInvalidInput {
		t.Errorf("expected invalid_input, got %s", core.KindOf(err))
	}
}

func TestPlanEnglishTitleSkipsTranslation(t *testing.T) {
	tr := &mockTranslator{result: "should not be used"}
	planner := NewPlanner(nil, tr)

	plan, err := planner.Plan(context.Background(), core.Article{
		Title:            "  Central bank raises rates  ",
		DeclaredLanguage: "en",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.SearchText != "Central bank raises rates" {
		t.Errorf("expected trimmed title, got %q", plan.SearchText)
	}
	if plan.WasTranslated {
		t.Error("english title must not be translated")
	}
	if tr.calls != 0 {
		t.Errorf("translator called %d times for english input", tr.calls)
	}
}

func TestPlanTranslatesDeclaredPortuguese(t *testing.T) {
	tr := &mockTranslator{result: "Central bank raises interest rates"}
	planner := NewPlanner(nil, tr)

	plan, err := planner.Plan(context.Background(), core.Article{
		Title:            "Banco central eleva os juros",
		DeclaredLanguage: "pt",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plan.WasTranslated {
		t.Error("expected wasTranslated=true")
	}
	if plan.DetectedSourceLanguage != "pt" {
		t.Errorf("expected detected language pt, got %s", plan.DetectedSourceLanguage)
	}
	if plan.SearchText != "Central bank raises interest rates" {
		t.Errorf("unexpected search text %q", plan.SearchText)
	}
	if tr.src != "pt" || tr.dst != "en" {
		t.Errorf("expected pt->en translation, got %s->%s", tr.src, tr.dst)
	}
}

func TestPlanTranslationFailureFallsBackToOriginal(t *testing.T) {
	tr := &mockTranslator{err: errors.New("endpoint down")}
	planner := NewPlanner(nil, tr)

	plan, err := planner.Plan(context.Background(), core.Article{
		Title:            "Banco central eleva os juros",
		DeclaredLanguage: "pt",
	})
	if err != nil {
		t.Fatalf("translation failure must not fail the plan: %v", err)
	}
	if plan.WasTranslated {
		t.Error("expected wasTranslated=false after failure")
	}
	if plan.SearchText != "Banco central eleva os juros" {
		t.Errorf("expected original title, got %q", plan.SearchText)
	}
}

func TestPlanLowConfidenceUsesScriptHeuristic(t *testing.T) {
	// Detector claims French with low confidence for a Japanese headline;
	// the script heuristic must win.
	det := &mockDetector{detection: langdetect.Detection{Lang: "fr", Confidence: 0.2}}
	tr := &mockTranslator{result: "BOJ raises rates"}
	planner := NewPlanner(det, tr)

	plan, err := planner.Plan(context.Background(), core.Article{Title: "日銀が金利を引き上げた"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.DetectedSourceLanguage != "ja" {
		t.Errorf("expected script heuristic to pick ja, got %s", plan.DetectedSourceLanguage)
	}
	if !plan.WasTranslated {
		t.Error("expected translation for non-english title")
	}
}

func TestPlanDetectorErrorIsRecovered(t *testing.T) {
	det := &mockDetector{err: errors.New("detector offline")}
	planner := NewPlanner(det, nil)

	plan, err := planner.Plan(context.Background(), core.Article{Title: "Markets rally on rate cut hopes"})
	if err != nil {
		t.Fatalf("detector failure must not fail the plan: %v", err)
	}
	if plan.DetectedSourceLanguage != "en" {
		t.Errorf("expected en fallback, got %s", plan.DetectedSourceLanguage)
	}
}

func TestNormalizeLangVariants(t *testing.T) {
	tests := map[string]string{
		"pt-BR": "pt",
		"zh-CN": "zh",
		"zh_tw": "zh",
		"EN":    "en",
		"":      "",
		"eng":   "",
	}
	for input, expected := range tests {
		if got := normalizeLang(input); got != expected {
			t.Errorf("normalizeLang(%q) = %q, expected %q", input, got, expected)
		}
	}
}

func TestPlanTrimsTranslation(t *testing.T) {
	tr := &mockTranslator{result: "  Translated headline \n"}
	planner := NewPlanner(nil, tr)

	plan, err := planner.Plan(context.Background(), core.Article{
		Title:            "Überschrift des Tages",
		DeclaredLanguage: "de",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(plan.SearchText) != plan.SearchText {
		t.Errorf("search text not trimmed: %q", plan.SearchText)
	}
}
