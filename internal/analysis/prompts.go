package analysis

import (
	"fmt"
	"strings"

	"newslens/internal/core"
)

const maxArticleChars = 4000

// FormatArticleBlock renders the successfully extracted articles into the
// numbered block shared by all four stage prompts. Articles are identified by
// source name and country so the model can attribute claims.
func FormatArticleBlock(articles []core.ScoredArticle) string {
	var sb strings.Builder
	n := 0
	for _, a := range articles {
		if !a.Content.Success {
			continue
		}
		n++
		body := a.Content.Body
		if len(body) > maxArticleChars {
			body = body[:maxArticleChars] + "..."
		}
		sb.WriteString(fmt.Sprintf("ARTICLE %d\nSource: %s (%s)\nTitle: %s\n\n%s\n\n---\n\n",
			n, a.Result.Source, a.Result.CountryCode, a.Result.Title, body))
	}
	return sb.String()
}

// BuildStage1Prompt asks for the story summary, trust signal, and reader action.
func BuildStage1Prompt(inputTitle, articleBlock string) string {
	return fmt.Sprintf(`You are comparing how news outlets from different countries cover the same story.

ORIGINAL HEADLINE: %s

COVERAGE FROM MULTIPLE COUNTRIES:
---
%s
---

Assess the coverage as a whole:

1. STORY SUMMARY: State what the story is about in 25 words or fewer, neutrally.
2. TRUST SIGNAL: Classify the overall agreement across sources:
   - high_agreement: sources largely report the same facts
   - some_conflicts: sources agree on the core but differ on details
   - major_disputes: sources directly contradict each other on central facts
3. READER ACTION: In 20 words or fewer, tell a reader how to approach this coverage (e.g. read confidently, cross-check specific numbers, wait for confirmation).

Base every judgment only on the articles above.`, inputTitle, articleBlock)
}

// BuildStage2Prompt asks for cross-source consensus facts.
func BuildStage2Prompt(articleBlock string) string {
	return fmt.Sprintf(`You are identifying facts that independent news sources agree on.

COVERAGE FROM MULTIPLE COUNTRIES:
---
%s
---

List up to 4 concrete facts that AT LEAST TWO different sources independently confirm. For each fact:
- State it neutrally and specifically (names, numbers, dates where given)
- List the names of the confirming sources (minimum two)

Only include facts explicitly supported by the articles. Do not infer or generalize. Fewer strong facts beat many weak ones.`, articleBlock)
}

// BuildStage3Prompt asks for direct factual contradictions.
func BuildStage3Prompt(articleBlock string) string {
	return fmt.Sprintf(`You are finding direct factual contradictions between news sources covering the same story.

COVERAGE FROM MULTIPLE COUNTRIES:
---
%s
---

List up to 3 cases where sources make INCOMPATIBLE factual claims about the same point (different numbers, different actors, different outcomes). For each:
- what: the disputed point
- claim_a / sources_a: the first claim and who makes it
- claim_b / sources_b: the conflicting claim and who makes it

Differences in emphasis or framing are NOT disputes; only report claims that cannot both be true. Return an empty list when there are none.`, articleBlock)
}

// BuildStage4Prompt asks for differences in framing between source groups.
func BuildStage4Prompt(articleBlock string) string {
	return fmt.Sprintf(`You are comparing how news sources from different countries FRAME the same story.

COVERAGE FROM MULTIPLE COUNTRIES:
---
%s
---

List up to 3 meaningful differences in angle, emphasis, or framing between groups of sources. For each:
- angle: the dimension along which coverage differs (e.g. economic impact vs political blame)
- group1 / group1_sources: how the first group frames it and which sources
- group2 / group2_sources: how the second group frames it and which sources

Groups often align with country but need not. Report only clear, supportable differences; return an empty list when coverage is uniform.`, articleBlock)
}
