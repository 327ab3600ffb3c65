package analysis

import (
	"context"
	"encoding/json"
	"sync"

	"google.golang.org/genai"

	"newslens/internal/core"
)

// MockBackend is a canned-response backend for tests and offline runs. It
// serves queued responses per call index, falling back to plausible defaults.
type MockBackend struct {
	mu        sync.Mutex
	name      string
	available bool
	responses []string // Consumed in order; exhausted queue uses defaults
	errs      []error  // Parallel to responses; nil entries succeed
	calls     int
}

// NewMockBackend creates an available mock provider.
func NewMockBackend(name string) *MockBackend {
	if name == "" {
		name = "mock"
	}
	return &MockBackend{name: name, available: true}
}

// Queue appends a canned response (or error) for a future Generate call.
func (m *MockBackend) Queue(response string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, response)
	m.errs = append(m.errs, err)
}

// SetAvailable toggles the availability probe.
func (m *MockBackend) SetAvailable(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = v
}

// Calls reports how many Generate calls were made.
func (m *MockBackend) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockBackend) Name() string { return m.name }

func (m *MockBackend) Available(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available && ctx.Err() == nil
}

func (m *MockBackend) Generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", core.WrapError(core.ErrCancelled, err, "mock backend cancelled")
	}

	m.mu.Lock()
	idx := m.calls
	m.calls++
	var response string
	var err error
	if idx < len(m.responses) {
		response, err = m.responses[idx], m.errs[idx]
	}
	m.mu.Unlock()

	if err != nil {
		return "", err
	}
	if response != "" {
		return response, nil
	}
	return defaultResponseFor(schema), nil
}

// defaultResponseFor synthesizes a minimal valid payload for the known stage
// schemas, keyed on a distinguishing property name.
func defaultResponseFor(schema *genai.Schema) string {
	var payload any
	switch {
	case schema != nil && schema.Properties["trust_signal"] != nil:
		payload = core.Stage1Payload{
			StorySummary: "Multiple outlets report the same development with minor differences in detail.",
			TrustSignal:  core.TrustHighAgreement,
			ReaderAction: "Read confidently; cross-check specific figures if they matter to you.",
		}
	case schema != nil && schema.Properties["consensus"] != nil:
		payload = core.Stage2Payload{Consensus: []core.ConsensusFact{{
			Fact:    "The event described in the headline took place as reported.",
			Sources: []string{"Source A", "Source B"},
		}}}
	case schema != nil && schema.Properties["factual_disputes"] != nil:
		payload = core.Stage3Payload{FactualDisputes: []core.FactualDispute{}}
	default:
		payload = core.Stage4Payload{CoverageAngles: []core.CoverageAngle{}}
	}
	data, _ := json.Marshal(payload)
	return string(data)
}
