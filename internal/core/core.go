package core

import "time"

// Article is the input article under analysis, built by the caller.
type Article struct {
	URL              string `json:"url"`               // Absolute URL of the article (required)
	Title            string `json:"title"`             // Title text (required, non-empty after trim)
	Body             string `json:"body"`              // Optional body text
	DeclaredLanguage string `json:"declared_language"` // Optional ISO 639-1 language code
	Source           string `json:"source"`            // Optional source/publication name
}

// CountrySpec is one entry of the country catalog. Immutable.
type CountrySpec struct {
	Code     string `json:"code" mapstructure:"code"`         // ISO 3166-1 alpha-2 country code
	Name     string `json:"name" mapstructure:"name"`         // Human-readable country name
	Language string `json:"language" mapstructure:"language"` // Search language for this country (ISO 639-1)
	Group    string `json:"group" mapstructure:"group"`       // UI-grouping hint (e.g., "americas", "europe")
}

// SelectionTargets describes how many candidates each country should contribute.
// The Selector enforces MaxForAnalysis; the per-country sum may exceed it.
type SelectionTargets struct {
	PerCountry       map[string]int // Requested article count per country code
	BufferPerCountry int            // Extra candidates fetched to absorb extraction failures
	MaxForAnalysis   int            // Hard cap on articles entering analysis
	AllowFallback    bool           // Fill shortfalls from other countries when one runs short
}

// QueryPlan is the output of the query-planning stage.
type QueryPlan struct {
	SearchText             string `json:"search_text"`              // Trimmed (possibly translated) title used as the query
	DetectedSourceLanguage string `json:"detected_source_language"` // Normalized ISO 639-1 code of the input title
	WasTranslated          bool   `json:"was_translated"`           // Whether SearchText is a translation
}

// SearchResult is one candidate returned by the news search. Immutable after creation.
type SearchResult struct {
	ID          string    `json:"id"`           // Unique identifier for the candidate
	Title       string    `json:"title"`        // Raw title from the feed
	Source      string    `json:"source"`       // Source/publication name ("Unknown" when not derivable)
	CountryCode string    `json:"country_code"` // Country the search was issued for
	Language    string    `json:"language"`     // Search language used
	URL         string    `json:"url"`          // Canonical article URL
	PublishedAt time.Time `json:"published_at"` // Publication timestamp (zero when unparseable)
	Snippet     string    `json:"snippet"`      // Optional description/snippet
}

// ExtractionMethod tags how an article body was obtained.
type ExtractionMethod string

const (
	MethodReadability ExtractionMethod = "readability" // Main-content selector match
	MethodMetadata    ExtractionMethod = "metadata"    // og:description / meta fallback
	MethodRawText     ExtractionMethod = "raw"         // Whole-body text as last resort
	MethodNone        ExtractionMethod = ""            // Extraction failed
)

// ExtractedContent is the result of fetching one SearchResult.
// When Success is true, Body length is at least the configured minimum.
type ExtractedContent struct {
	FinalURL  string           `json:"final_url"` // URL after redirects
	Body      string           `json:"body"`      // Plain-text article body
	Excerpt   string           `json:"excerpt"`   // Short excerpt/description when available
	Byline    string           `json:"byline"`    // Author attribution when available
	Language  string           `json:"language"`  // Detected content language
	Method    ExtractionMethod `json:"method"`    // How the body was obtained
	Duration  time.Duration    `json:"duration"`  // Wall-clock fetch+extract time
	Success   bool             `json:"success"`   // Whether extraction produced usable content
	ErrorKind ErrorKind        `json:"error_kind,omitempty"`
}

// WordCount returns the number of whitespace-separated tokens in the body.
func (e ExtractedContent) WordCount() int {
	n := 0
	inWord := false
	for _, r := range e.Body {
		switch r {
		case ' ', '\n', '\t', '\r':
			inWord = false
		default:
			if !inWord {
				n++
				inWord = true
			}
		}
	}
	return n
}

// ScoredArticle pairs a SearchResult with its extracted content and memoized
// quality score. Failure entries keep Success=false content with the error kind.
type ScoredArticle struct {
	Result       SearchResult     `json:"result"`
	Content      ExtractedContent `json:"content"`
	QualityScore float64          `json:"quality_score"`
}

// Trust signal values emitted by analysis stage 1.
const (
	TrustHighAgreement = "high_agreement"
	TrustSomeConflicts = "some_conflicts"
	TrustMajorDisputes = "major_disputes"
)

// Stage1Payload is the Context & Trust stage output.
type Stage1Payload struct {
	StorySummary string `json:"story_summary"` // What the story is about, <=25 words
	TrustSignal  string `json:"trust_signal"`  // One of the Trust* values
	ReaderAction string `json:"reader_action"` // Suggested reader posture, <=20 words
}

// ConsensusFact is one cross-source agreed fact.
type ConsensusFact struct {
	Fact    string   `json:"fact"`
	Sources []string `json:"sources"` // At least two confirming source names
}

// Stage2Payload is the Consensus stage output.
type Stage2Payload struct {
	Consensus []ConsensusFact `json:"consensus"` // Up to 4 items
}

// FactualDispute is one direct contradiction between two source groups.
type FactualDispute struct {
	What     string   `json:"what"`
	ClaimA   string   `json:"claim_a"`
	ClaimB   string   `json:"claim_b"`
	SourcesA []string `json:"sources_a"`
	SourcesB []string `json:"sources_b"`
}

// Stage3Payload is the Factual Disputes stage output. May be empty.
type Stage3Payload struct {
	FactualDisputes []FactualDispute `json:"factual_disputes"` // Up to 3 items
}

// CoverageAngle is one difference in framing between two source groups.
type CoverageAngle struct {
	Angle         string   `json:"angle"`
	Group1        string   `json:"group1"`
	Group1Sources []string `json:"group1_sources"`
	Group2        string   `json:"group2"`
	Group2Sources []string `json:"group2_sources"`
}

// Stage4Payload is the Perspective Differences stage output. May be empty.
type Stage4Payload struct {
	CoverageAngles []CoverageAngle `json:"coverage_angles"` // Up to 3 items
}

// StageOutcome records the result of one analysis stage.
type StageOutcome struct {
	StageID   int           `json:"stage_id"` // 1..4
	Name      string        `json:"name"`
	Critical  bool          `json:"critical"`
	Success   bool          `json:"success"`
	Provider  string        `json:"provider,omitempty"` // Backend that produced the payload
	Duration  time.Duration `json:"duration"`
	ErrorKind ErrorKind     `json:"error_kind,omitempty"`
	ErrorMsg  string        `json:"error_msg,omitempty"`
}

// StagePayloads holds the four typed stage payloads. A nil non-critical entry
// means the stage failed and its empty result stands in for it.
type StagePayloads struct {
	Stage1 *Stage1Payload `json:"stage1"`
	Stage2 *Stage2Payload `json:"stage2"`
	Stage3 *Stage3Payload `json:"stage3"`
	Stage4 *Stage4Payload `json:"stage4"`
}

// ArtifactInput echoes the analyzed input article.
type ArtifactInput struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Source   string `json:"source,omitempty"`
	Language string `json:"language,omitempty"`
}

// ArtifactMetadata aggregates run-level measurements.
type ArtifactMetadata struct {
	ModelProvider    string    `json:"model_provider"`
	ArticlesAnalyzed int       `json:"articles_analyzed"` // Successful extractions entering analysis
	ArticlesInput    int       `json:"articles_input"`    // Candidates returned by search
	TotalDurationMs  int64     `json:"total_duration_ms"`
	StageDurationsMs [4]int64  `json:"stage_durations_ms"`
	WasTranslated    bool      `json:"was_translated"`
	Timestamp        time.Time `json:"timestamp"`
}

// AnalysisArtifact is the pipeline's final, immutable output.
type AnalysisArtifact struct {
	ID       string           `json:"id"`
	Input    ArtifactInput    `json:"input"`
	Query    QueryPlan        `json:"query"`
	Articles []ScoredArticle  `json:"articles"`
	Stages   StagePayloads    `json:"stages"`
	Outcomes []StageOutcome   `json:"outcomes"`
	Metadata ArtifactMetadata `json:"metadata"`
}

// ProgressStatus is the lifecycle state of one progress step.
type ProgressStatus string

const (
	StatusPending   ProgressStatus = "pending"
	StatusActive    ProgressStatus = "active"
	StatusCompleted ProgressStatus = "completed"
	StatusError     ProgressStatus = "error"
)

// ProgressEvent is delivered to the external progress listener.
type ProgressEvent struct {
	StageID int            `json:"stage_id"` // 0 for pipeline-level events
	Step    string         `json:"step"`
	Status  ProgressStatus `json:"status"`
	Message string         `json:"message"`
	Percent int            `json:"percent"` // 0-100 coarse overall progress
}
