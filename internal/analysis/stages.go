package analysis

import (
	"encoding/json"
	"strings"

	"newslens/internal/core"
)

// Payload list caps, enforced after decoding.
const (
	maxConsensusFacts  = 4
	maxFactualDisputes = 3
	maxCoverageAngles  = 3
)

func decodeStage1(data []byte, out *core.Stage1Payload) error {
	var payload core.Stage1Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return core.WrapError(core.ErrModelJSONParse, err, "stage 1 output is not valid JSON")
	}
	if strings.TrimSpace(payload.StorySummary) == "" {
		return core.NewError(core.ErrModelSchemaViolation, "stage 1 missing story_summary")
	}
	if strings.TrimSpace(payload.ReaderAction) == "" {
		return core.NewError(core.ErrModelSchemaViolation, "stage 1 missing reader_action")
	}
	switch payload.TrustSignal {
	case core.TrustHighAgreement, core.TrustSomeConflicts, core.TrustMajorDisputes:
	default:
		return core.NewError(core.ErrModelSchemaViolation, "stage 1 trust_signal %q is not a known value", payload.TrustSignal)
	}
	*out = payload
	return nil
}

func decodeStage2(data []byte, out *core.Stage2Payload) error {
	var payload core.Stage2Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return core.WrapError(core.ErrModelJSONParse, err, "stage 2 output is not valid JSON")
	}
	// Drop malformed entries rather than rejecting the whole payload; a fact
	// needs text and at least two confirming sources to mean anything.
	kept := payload.Consensus[:0]
	for _, fact := range payload.Consensus {
		if strings.TrimSpace(fact.Fact) == "" || len(fact.Sources) < 2 {
			continue
		}
		kept = append(kept, fact)
	}
	if len(kept) > maxConsensusFacts {
		kept = kept[:maxConsensusFacts]
	}
	payload.Consensus = kept
	*out = payload
	return nil
}

func decodeStage3(data []byte, out *core.Stage3Payload) error {
	var payload core.Stage3Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return core.WrapError(core.ErrModelJSONParse, err, "stage 3 output is not valid JSON")
	}
	kept := payload.FactualDisputes[:0]
	for _, d := range payload.FactualDisputes {
		if strings.TrimSpace(d.What) == "" || strings.TrimSpace(d.ClaimA) == "" || strings.TrimSpace(d.ClaimB) == "" {
			continue
		}
		kept = append(kept, d)
	}
	if len(kept) > maxFactualDisputes {
		kept = kept[:maxFactualDisputes]
	}
	payload.FactualDisputes = kept
	*out = payload
	return nil
}

func decodeStage4(data []byte, out *core.Stage4Payload) error {
	var payload core.Stage4Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return core.WrapError(core.ErrModelJSONParse, err, "stage 4 output is not valid JSON")
	}
	kept := payload.CoverageAngles[:0]
	for _, a := range payload.CoverageAngles {
		if strings.TrimSpace(a.Angle) == "" || strings.TrimSpace(a.Group1) == "" || strings.TrimSpace(a.Group2) == "" {
			continue
		}
		kept = append(kept, a)
	}
	if len(kept) > maxCoverageAngles {
		kept = kept[:maxCoverageAngles]
	}
	payload.CoverageAngles = kept
	*out = payload
	return nil
}
