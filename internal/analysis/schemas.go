package analysis

import "google.golang.org/genai"

// Stage1Schema constrains the Context & Trust stage output.
func Stage1Schema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"story_summary": {
				Type:        genai.TypeString,
				Description: "What the story is about, 25 words or fewer",
			},
			"trust_signal": {
				Type:        genai.TypeString,
				Description: "Overall agreement level across sources",
				Enum:        []string{"high_agreement", "some_conflicts", "major_disputes"},
			},
			"reader_action": {
				Type:        genai.TypeString,
				Description: "How a reader should approach this coverage, 20 words or fewer",
			},
		},
		Required: []string{"story_summary", "trust_signal", "reader_action"},
	}
}

// Stage2Schema constrains the Consensus stage output.
func Stage2Schema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"consensus": {
				Type:        genai.TypeArray,
				Description: "Up to 4 facts that at least two sources independently confirm",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"fact": {
							Type:        genai.TypeString,
							Description: "The agreed fact, stated neutrally",
						},
						"sources": {
							Type:        genai.TypeArray,
							Description: "Names of the confirming sources, at least two",
							Items:       &genai.Schema{Type: genai.TypeString},
						},
					},
					Required: []string{"fact", "sources"},
				},
			},
		},
		Required: []string{"consensus"},
	}
}

// Stage3Schema constrains the Factual Disputes stage output.
func Stage3Schema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"factual_disputes": {
				Type:        genai.TypeArray,
				Description: "Up to 3 direct factual contradictions between source groups; empty when none exist",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"what": {
							Type:        genai.TypeString,
							Description: "The disputed point",
						},
						"claim_a": {
							Type:        genai.TypeString,
							Description: "What the first group of sources claims",
						},
						"claim_b": {
							Type:        genai.TypeString,
							Description: "What the second group of sources claims",
						},
						"sources_a": {
							Type:        genai.TypeArray,
							Description: "Sources making claim A",
							Items:       &genai.Schema{Type: genai.TypeString},
						},
						"sources_b": {
							Type:        genai.TypeArray,
							Description: "Sources making claim B",
							Items:       &genai.Schema{Type: genai.TypeString},
						},
					},
					Required: []string{"what", "claim_a", "claim_b", "sources_a", "sources_b"},
				},
			},
		},
		Required: []string{"factual_disputes"},
	}
}

// Stage4Schema constrains the Perspective Differences stage output.
func Stage4Schema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"coverage_angles": {
				Type:        genai.TypeArray,
				Description: "Up to 3 differences in framing or emphasis between source groups; empty when coverage is uniform",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"angle": {
							Type:        genai.TypeString,
							Description: "The dimension along which coverage differs",
						},
						"group1": {
							Type:        genai.TypeString,
							Description: "How the first group frames the story",
						},
						"group1_sources": {
							Type:        genai.TypeArray,
							Description: "Sources in the first group",
							Items:       &genai.Schema{Type: genai.TypeString},
						},
						"group2": {
							Type:        genai.TypeString,
							Description: "How the second group frames the story",
						},
						"group2_sources": {
							Type:        genai.TypeArray,
							Description: "Sources in the second group",
							Items:       &genai.Schema{Type: genai.TypeString},
						},
					},
					Required: []string{"angle", "group1", "group1_sources", "group2", "group2_sources"},
				},
			},
		},
		Required: []string{"coverage_angles"},
	}
}
