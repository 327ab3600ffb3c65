package analysis

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/genai"

	"newslens/internal/core"
)

// DefaultGeminiModel is the Gemini model used when none is configured.
const DefaultGeminiModel = "gemini-flash-lite-latest"

// GeminiBackend generates schema-constrained JSON through the Gemini API.
type GeminiBackend struct {
	client *genai.Client
	model  string
	params GenerationParams
}

// NewGeminiBackend creates a Gemini backend. The API key is required; model
// defaults to DefaultGeminiModel. params are forwarded verbatim with every
// request.
func NewGeminiBackend(ctx context.Context, apiKey, model string, params GenerationParams) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, core.NewError(core.ErrBackendAuth, "gemini API key is required, set GEMINI_API_KEY")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, core.WrapError(core.ErrBackendUnavailable, err, "failed to create Gemini client")
	}

	return &GeminiBackend{client: client, model: model, params: params}, nil
}

func (b *GeminiBackend) Name() string { return "gemini" }

// Available reports true when the client exists; actual reachability is
// discovered on the first Generate call.
func (b *GeminiBackend) Available(ctx context.Context) bool {
	return b.client != nil && ctx.Err() == nil
}

// Generate sends the prompt with the response schema enforced and returns the
// raw JSON text.
func (b *GeminiBackend) Generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	resp, err := b.client.Models.GenerateContent(ctx, b.model, contents, b.generateConfig(schema))
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text := resp.Text()
	if text == "" {
		return "", core.NewError(core.ErrModelJSONParse, "empty response from gemini")
	}
	return text, nil
}

// generateConfig renders the configured per-model knobs into the request
// config. Temperature defaults to 0.2 when unconfigured; the stages need
// mostly deterministic output.
func (b *GeminiBackend) generateConfig(schema *genai.Schema) *genai.GenerateContentConfig {
	temperature := b.params.Temperature
	if temperature <= 0 {
		temperature = 0.2
	}
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	if b.params.TopK > 0 {
		config.TopK = genai.Ptr(float32(b.params.TopK))
	}
	if b.params.TopP > 0 {
		config.TopP = genai.Ptr(b.params.TopP)
	}
	if b.params.ThinkingBudget > 0 {
		config.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(int32(b.params.ThinkingBudget))}
	}
	if budget := maxTokensForCompression(b.params.Compression); budget > 0 {
		config.MaxOutputTokens = budget
	}
	return config
}

func classifyGeminiError(err error) error {
	if errors.Is(err, context.Canceled) {
		return core.WrapError(core.ErrCancelled, err, "gemini call cancelled")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return core.WrapError(core.ErrBackendTimeout, err, "gemini call timed out")
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return core.WrapError(core.ErrBackendAuth, err, "gemini rejected credentials")
		case apiErr.Code == http.StatusTooManyRequests:
			return core.WrapError(core.ErrBackendRate, err, "gemini rate limit")
		case apiErr.Code >= 500:
			return core.WrapError(core.ErrBackendServer, err, "gemini server error %d", apiErr.Code)
		case apiErr.Code >= 400:
			return core.WrapError(core.ErrBackendUnavailable, err, "gemini rejected request %d", apiErr.Code)
		}
	}
	return core.WrapError(core.ErrBackendNetwork, err, "gemini request failed")
}
