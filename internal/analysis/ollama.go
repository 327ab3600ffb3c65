package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"google.golang.org/genai"

	"newslens/internal/core"
)

// Defaults for the local Ollama backend.
const (
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultOllamaModel   = "llama3.2:3b"
)

// OllamaBackend generates JSON through a local Ollama server. The response
// schema is enforced via Ollama's structured-output format parameter.
type OllamaBackend struct {
	baseURL    string
	model      string
	params     GenerationParams
	httpClient *http.Client
}

// NewOllamaBackend creates an Ollama backend with defaults applied. params
// are forwarded verbatim as request options.
func NewOllamaBackend(baseURL, model string, params GenerationParams) *OllamaBackend {
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	return &OllamaBackend{
		baseURL:    baseURL,
		model:      model,
		params:     params,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (b *OllamaBackend) Name() string { return "ollama" }

// Available probes the Ollama tags endpoint.
func (b *OllamaBackend) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, "GET", b.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// Generate posts a non-streaming completion with the schema as the format
// constraint and returns the raw JSON text.
func (b *OllamaBackend) Generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	requestBody := map[string]any{
		"model":   b.model,
		"prompt":  prompt + "\n\nRespond with JSON only, matching the required structure exactly.",
		"stream":  false,
		"format":  schemaToJSONSchema(schema),
		"options": b.requestOptions(),
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", core.WrapError(core.ErrBackendUnavailable, err, "failed to encode ollama request")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", b.baseURL+"/api/generate", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", core.WrapError(core.ErrBackendUnavailable, err, "failed to build ollama request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", core.WrapError(core.ErrCancelled, err, "ollama call cancelled")
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", core.WrapError(core.ErrBackendTimeout, err, "ollama call timed out")
		}
		return "", core.WrapError(core.ErrBackendNetwork, err, "ollama not reachable")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		kind := core.ErrBackendServer
		if resp.StatusCode == http.StatusTooManyRequests {
			kind = core.ErrBackendRate
		} else if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			kind = core.ErrBackendUnavailable
		}
		return "", core.NewError(kind, "ollama request failed: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", core.WrapError(core.ErrModelJSONParse, err, "failed to decode ollama response")
	}
	if response.Response == "" {
		return "", core.NewError(core.ErrModelJSONParse, "empty response from ollama")
	}
	return response.Response, nil
}

// requestOptions renders the configured per-model knobs into Ollama request
// options. Temperature defaults to 0.2 when unconfigured.
func (b *OllamaBackend) requestOptions() map[string]any {
	temperature := b.params.Temperature
	if temperature <= 0 {
		temperature = 0.2
	}
	options := map[string]any{"temperature": temperature}
	if b.params.TopK > 0 {
		options["top_k"] = b.params.TopK
	}
	if b.params.TopP > 0 {
		options["top_p"] = b.params.TopP
	}
	if budget := maxTokensForCompression(b.params.Compression); budget > 0 {
		options["num_predict"] = budget
	}
	return options
}

// schemaToJSONSchema converts a genai response schema into the plain JSON
// Schema form Ollama's format parameter expects.
func schemaToJSONSchema(s *genai.Schema) map[string]any {
	if s == nil {
		return nil
	}
	out := map[string]any{"type": jsonSchemaType(s.Type)}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = schemaToJSONSchema(prop)
		}
		out["properties"] = props
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	if s.Items != nil {
		out["items"] = schemaToJSONSchema(s.Items)
	}
	return out
}

func jsonSchemaType(t genai.Type) string {
	switch t {
	case genai.TypeObject:
		return "object"
	case genai.TypeArray:
		return "array"
	case genai.TypeString:
		return "string"
	case genai.TypeNumber:
		return "number"
	case genai.TypeInteger:
		return "integer"
	case genai.TypeBoolean:
		return "boolean"
	default:
		return fmt.Sprintf("%v", t)
	}
}
