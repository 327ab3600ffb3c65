package pipeline

import (
	"context"
	"testing"

	"newslens/internal/config"
)

func backendConfig(preferred []string, primary string) *config.Config {
	cfg := &config.Config{}
	cfg.Analysis.PreferredModels = preferred
	cfg.Analysis.ModelProvider = primary
	return cfg
}

func TestBuildBackendsPinsPrimaryProvider(t *testing.T) {
	cfg := backendConfig([]string{"mock", "ollama"}, "ollama")

	backends, err := buildBackends(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(backends) != 2 {
		t.Fatalf("expected 2 backends, got %d", len(backends))
	}
	if backends[0].Name() != "ollama" {
		t.Errorf("primary provider not first: %s", backends[0].Name())
	}
	if backends[1].Name() != "mock" {
		t.Errorf("remaining chain out of order: %s", backends[1].Name())
	}
}

func TestBuildBackendsKeepsListOrderWithoutPrimary(t *testing.T) {
	cfg := backendConfig([]string{"mock", "ollama"}, "")

	backends, err := buildBackends(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backends[0].Name() != "mock" || backends[1].Name() != "ollama" {
		t.Errorf("preferred order not preserved: %s, %s", backends[0].Name(), backends[1].Name())
	}
}

func TestBuildBackendsUnknownPrimaryFallsBackToList(t *testing.T) {
	cfg := backendConfig([]string{"mock"}, "claude")

	backends, err := buildBackends(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(backends) != 1 || backends[0].Name() != "mock" {
		t.Errorf("list should survive an unknown primary tag: %v", backends)
	}
}

func TestGenerationParamsCarryModelKnobsAndCompression(t *testing.T) {
	cfg := &config.Config{}
	cfg.Analysis.CompressionLevel = "short"
	cfg.Analysis.Models = map[string]config.ModelParams{
		"llama3.2:3b": {Temperature: 0.8, TopK: 20, TopP: 0.95, ThinkingBudget: 128},
	}

	params := generationParams(cfg, "llama3.2:3b")
	if params.Temperature != 0.8 || params.TopK != 20 || params.TopP != 0.95 || params.ThinkingBudget != 128 {
		t.Errorf("model knobs not carried: %+v", params)
	}
	if params.Compression != "short" {
		t.Errorf("compression hint lost: %q", params.Compression)
	}

	unknown := generationParams(cfg, "other-model")
	if unknown.Temperature != 0 || unknown.Compression != "short" {
		t.Errorf("unknown model should get zero knobs with the hint: %+v", unknown)
	}
}
