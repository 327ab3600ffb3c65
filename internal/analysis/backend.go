// Package analysis runs the four schema-constrained model stages that turn
// extracted articles into a cross-country coverage comparison.
package analysis

import (
	"context"

	"google.golang.org/genai"
)

// GenerationParams are the per-model knobs a backend forwards with each
// request. Zero values leave the backend's own default in place. Compression
// is the configured response-length hint (short, medium, long).
type GenerationParams struct {
	Temperature    float32
	TopK           int
	TopP           float32
	ThinkingBudget int
	Compression    string
}

// maxTokensForCompression maps the compression hint onto a response token
// budget. Unknown or empty hints leave the budget unset.
func maxTokensForCompression(level string) int32 {
	switch level {
	case "short":
		return 1024
	case "medium":
		return 4096
	case "long":
		return 8192
	default:
		return 0
	}
}

// ModelBackend is one model provider capable of schema-constrained JSON
// generation. Implementations classify their failures into the backend
// error kinds so the router can decide between retry and fallback.
type ModelBackend interface {
	// Name identifies the provider in outcomes and metadata.
	Name() string
	// Available reports whether the backend can serve requests right now.
	Available(ctx context.Context) bool
	// Generate produces the model's raw JSON text for the prompt, constrained
	// by the given response schema.
	Generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}
