package analysis

import (
	"testing"
)

func TestGenerateConfigForwardsModelParams(t *testing.T) {
	b := &GeminiBackend{model: "test-model", params: GenerationParams{
		Temperature:    0.7,
		TopK:           40,
		TopP:           0.9,
		ThinkingBudget: 256,
		Compression:    "short",
	}}

	schema := Stage1Schema()
	config := b.generateConfig(schema)

	if config.Temperature == nil || *config.Temperature != 0.7 {
		t.Errorf("temperature not forwarded: %v", config.Temperature)
	}
	if config.TopK == nil || *config.TopK != 40 {
		t.Errorf("top_k not forwarded: %v", config.TopK)
	}
	if config.TopP == nil || *config.TopP != 0.9 {
		t.Errorf("top_p not forwarded: %v", config.TopP)
	}
	if config.ThinkingConfig == nil || config.ThinkingConfig.ThinkingBudget == nil || *config.ThinkingConfig.ThinkingBudget != 256 {
		t.Error("thinking budget not forwarded")
	}
	if config.MaxOutputTokens != 1024 {
		t.Errorf("short compression should cap output at 1024 tokens, got %d", config.MaxOutputTokens)
	}
	if config.ResponseMIMEType != "application/json" || config.ResponseSchema != schema {
		t.Error("structured output constraints lost")
	}
}

func TestGenerateConfigDefaults(t *testing.T) {
	b := &GeminiBackend{model: "test-model"}

	config := b.generateConfig(Stage2Schema())

	if config.Temperature == nil || *config.Temperature != 0.2 {
		t.Errorf("unconfigured temperature should default to 0.2, got %v", config.Temperature)
	}
	if config.TopK != nil || config.TopP != nil || config.ThinkingConfig != nil {
		t.Error("unconfigured knobs must stay unset")
	}
	if config.MaxOutputTokens != 0 {
		t.Errorf("no compression hint should leave the budget unset, got %d", config.MaxOutputTokens)
	}
}

func TestMaxTokensForCompression(t *testing.T) {
	tests := []struct {
		level string
		want  int32
	}{
		{"short", 1024},
		{"medium", 4096},
		{"long", 8192},
		{"", 0},
		{"verbose", 0},
	}
	for _, tt := range tests {
		if got := maxTokensForCompression(tt.level); got != tt.want {
			t.Errorf("level %q: expected %d, got %d", tt.level, tt.want, got)
		}
	}
}
