package analysis

import (
	"context"
	"time"

	"google.golang.org/genai"

	"newslens/internal/core"
	"newslens/internal/logger"
)

// Retry defaults for a single provider within one stage.
const (
	DefaultRetries     = 2
	DefaultBackoffBase = time.Second
	backoffFactor      = 2
)

// Router walks an ordered list of model backends. Within a provider,
// transient failures retry with exponential backoff; non-retriable failures
// (auth, invalid request, schema or parse violations) move straight to the
// next provider.
type Router struct {
	backends    []ModelBackend
	retries     int
	backoffBase time.Duration
}

// NewRouter creates a router over the ordered backend chain.
func NewRouter(backends []ModelBackend, retries int, backoffBase time.Duration) *Router {
	if retries < 0 {
		retries = DefaultRetries
	}
	if backoffBase <= 0 {
		backoffBase = DefaultBackoffBase
	}
	return &Router{backends: backends, retries: retries, backoffBase: backoffBase}
}

// RunStage generates text for the prompt and hands it to decode, which
// unmarshals and validates the payload. Decode failures count against the
// current provider (without in-provider retry) and trigger fallback. Returns
// the serving provider's name, or the last error when every provider failed.
func (r *Router) RunStage(ctx context.Context, prompt string, schema *genai.Schema, decode func([]byte) error) (string, error) {
	if len(r.backends) == 0 {
		return "", core.NewError(core.ErrBackendUnavailable, "no model backends configured")
	}

	var lastErr error
	for _, backend := range r.backends {
		if err := ctx.Err(); err != nil {
			return "", core.WrapError(core.ErrCancelled, err, "analysis cancelled")
		}
		if !backend.Available(ctx) {
			logger.Warn("model backend unavailable, trying next", "provider", backend.Name())
			lastErr = core.NewError(core.ErrBackendUnavailable, "%s backend unavailable", backend.Name())
			continue
		}

		text, err := r.generateWithRetry(ctx, backend, prompt, schema)
		if err != nil {
			if core.IsKind(err, core.ErrCancelled) {
				return "", err
			}
			logger.Warn("model backend failed, trying next", "provider", backend.Name(), "error", err.Error())
			lastErr = err
			continue
		}

		if err := decode([]byte(text)); err != nil {
			// A malformed or schema-violating payload is a provider-level
			// failure: no in-provider retry, but the chain continues.
			logger.Warn("model output rejected, trying next provider", "provider", backend.Name(), "error", err.Error())
			lastErr = err
			continue
		}
		return backend.Name(), nil
	}

	return "", lastErr
}

// generateWithRetry runs one provider with exponential backoff on transient
// failures.
func (r *Router) generateWithRetry(ctx context.Context, backend ModelBackend, prompt string, schema *genai.Schema) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			delay := r.backoffBase
			for i := 1; i < attempt; i++ {
				delay *= backoffFactor
			}
			select {
			case <-ctx.Done():
				return "", core.WrapError(core.ErrCancelled, ctx.Err(), "analysis cancelled during backoff")
			case <-time.After(delay):
			}
		}

		text, err := backend.Generate(ctx, prompt, schema)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !retriableBackendError(err) {
			break
		}
	}
	return "", lastErr
}

// retriableBackendError reports whether the failure is worth another attempt
// against the same provider.
func retriableBackendError(err error) bool {
	switch core.KindOf(err) {
	case core.ErrBackendRate, core.ErrBackendNetwork, core.ErrBackendServer, core.ErrBackendTimeout:
		return true
	default:
		return false
	}
}
