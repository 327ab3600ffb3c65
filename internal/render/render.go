// Package render turns an analysis artifact into a readable markdown report.
package render

import (
	"fmt"
	"strings"
	"time"

	"newslens/internal/core"
)

var trustHeadlines = map[string]string{
	core.TrustHighAgreement: "Sources largely agree",
	core.TrustSomeConflicts: "Sources agree on the core, differ on details",
	core.TrustMajorDisputes: "Sources disagree on central facts",
}

// Markdown renders the artifact as a markdown report.
func Markdown(artifact core.AnalysisArtifact) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Coverage comparison: %s\n\n", artifact.Input.Title))
	sb.WriteString(fmt.Sprintf("Input: <%s>\n\n", artifact.Input.URL))

	if s1 := artifact.Stages.Stage1; s1 != nil {
		sb.WriteString("## The story\n\n")
		sb.WriteString(s1.StorySummary + "\n\n")
		headline := trustHeadlines[s1.TrustSignal]
		if headline == "" {
			headline = s1.TrustSignal
		}
		sb.WriteString(fmt.Sprintf("**Trust signal:** %s (`%s`)\n\n", headline, s1.TrustSignal))
		sb.WriteString(fmt.Sprintf("**Suggested approach:** %s\n\n", s1.ReaderAction))
	}

	if s2 := artifact.Stages.Stage2; s2 != nil && len(s2.Consensus) > 0 {
		sb.WriteString("## What sources agree on\n\n")
		for _, fact := range s2.Consensus {
			sb.WriteString(fmt.Sprintf("- %s _(confirmed by %s)_\n", fact.Fact, strings.Join(fact.Sources, ", ")))
		}
		sb.WriteString("\n")
	}

	if s3 := artifact.Stages.Stage3; s3 != nil && len(s3.FactualDisputes) > 0 {
		sb.WriteString("## Factual disputes\n\n")
		for _, d := range s3.FactualDisputes {
			sb.WriteString(fmt.Sprintf("### %s\n\n", d.What))
			sb.WriteString(fmt.Sprintf("- %s — %s\n", strings.Join(d.SourcesA, ", "), d.ClaimA))
			sb.WriteString(fmt.Sprintf("- %s — %s\n\n", strings.Join(d.SourcesB, ", "), d.ClaimB))
		}
	}

	if s4 := artifact.Stages.Stage4; s4 != nil && len(s4.CoverageAngles) > 0 {
		sb.WriteString("## Different angles\n\n")
		for _, a := range s4.CoverageAngles {
			sb.WriteString(fmt.Sprintf("### %s\n\n", a.Angle))
			sb.WriteString(fmt.Sprintf("- %s: %s\n", strings.Join(a.Group1Sources, ", "), a.Group1))
			sb.WriteString(fmt.Sprintf("- %s: %s\n\n", strings.Join(a.Group2Sources, ", "), a.Group2))
		}
	}

	sb.WriteString("## Articles compared\n\n")
	for _, a := range artifact.Articles {
		if a.Content.Success {
			sb.WriteString(fmt.Sprintf("- [%s](%s) — %s (%s), quality %.0f\n",
				a.Result.Title, a.Result.URL, a.Result.Source, a.Result.CountryCode, a.QualityScore))
		} else {
			sb.WriteString(fmt.Sprintf("- %s — %s (%s), extraction failed: %s\n",
				a.Result.Title, a.Result.Source, a.Result.CountryCode, a.Content.ErrorKind))
		}
	}
	sb.WriteString("\n")

	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("_%d of %d articles analyzed · provider %s · %s in %s_\n",
		artifact.Metadata.ArticlesAnalyzed,
		len(artifact.Articles),
		artifact.Metadata.ModelProvider,
		artifact.Metadata.Timestamp.Format(time.RFC3339),
		(time.Duration(artifact.Metadata.TotalDurationMs) * time.Millisecond).String()))

	return sb.String()
}
