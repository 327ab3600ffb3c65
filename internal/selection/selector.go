// Package selection chooses a country-balanced subset of search candidates
// under the analysis-size cap.
package selection

import (
	"sort"
	"strings"

	"newslens/internal/core"
	"newslens/internal/logger"
)

// MinTitleLength is the shortest candidate title accepted for analysis.
const MinTitleLength = 10

// Result is the selector's output. Shortfall lists countries whose usable
// candidate count came in under the requested count; it is advisory and does
// not fail the stage.
type Result struct {
	Selected  []core.SearchResult
	Shortfall map[string]int // country code -> missing count
}

// Selector implements the dedupe / filter / balance / trim algorithm.
type Selector struct {
	targets core.SelectionTargets
}

// NewSelector creates a selector for the given targets.
func NewSelector(targets core.SelectionTargets) *Selector {
	return &Selector{targets: targets}
}

// Select filters and balances candidates. The returned subset satisfies:
// pairwise-distinct URLs and normalized titles, no candidate equal to the
// input article, every title at least MinTitleLength characters, size at most
// MaxForAnalysis, and a round-robin country interleave so the first N entries
// cover N distinct countries.
func (s *Selector) Select(input core.Article, candidates []core.SearchResult) Result {
	inputURL := normalizeURL(input.URL)

	// Group per country, preserving feed (relevance) order, deduplicating by
	// canonical URL and normalized title across the whole selection.
	seenURL := make(map[string]bool)
	seenTitle := make(map[string]bool)
	grouped := make(map[string][]core.SearchResult)
	for _, c := range candidates {
		if c.URL == "" || len(strings.TrimSpace(c.Title)) < MinTitleLength {
			continue
		}
		urlKey := normalizeURL(c.URL)
		if urlKey == inputURL {
			continue
		}
		titleKey := normalizeTitle(c.Title)
		if seenURL[urlKey] || seenTitle[titleKey] {
			continue
		}
		seenURL[urlKey] = true
		seenTitle[titleKey] = true
		grouped[c.CountryCode] = append(grouped[c.CountryCode], c)
	}

	codes := sortedCodes(s.targets.PerCountry)

	// Per-country take, recording shortfalls.
	taken := make(map[string][]core.SearchResult, len(codes))
	leftovers := make(map[string][]core.SearchResult)
	shortfall := make(map[string]int)
	for _, code := range codes {
		requested := s.targets.PerCountry[code]
		if requested <= 0 {
			continue
		}
		available := grouped[code]
		if len(available) > requested {
			taken[code] = available[:requested]
			leftovers[code] = available[requested:]
		} else {
			taken[code] = available
			if missing := requested - len(available); missing > 0 {
				shortfall[code] = missing
			}
		}
	}

	if len(shortfall) > 0 {
		logger.Warn("insufficient coverage for some countries", "shortfall", shortfall)
	}

	if s.targets.AllowFallback {
		fillShortfalls(taken, leftovers, shortfall, codes)
	}

	total := 0
	for _, code := range codes {
		total += len(taken[code])
	}
	if total > s.targets.MaxForAnalysis {
		s.trimProportionally(taken, codes)
	}

	selected := interleave(taken, codes)
	if len(selected) > s.targets.MaxForAnalysis {
		selected = selected[:s.targets.MaxForAnalysis]
	}

	return Result{Selected: selected, Shortfall: shortfall}
}

// fillShortfalls redistributes leftover candidates (beyond a country's own
// request) to cover other countries' missing slots, in sorted-country order.
func fillShortfalls(taken, leftovers map[string][]core.SearchResult, shortfall map[string]int, codes []string) {
	missing := 0
	for _, n := range shortfall {
		missing += n
	}
	for missing > 0 {
		progressed := false
		for _, code := range codes {
			if missing == 0 {
				break
			}
			extra := leftovers[code]
			if len(extra) == 0 {
				continue
			}
			taken[code] = append(taken[code], extra[0])
			leftovers[code] = extra[1:]
			missing--
			progressed = true
		}
		if !progressed {
			break
		}
	}
}

// trimProportionally reduces per-country takes so the total fits
// MaxForAnalysis: each country keeps max(1, floor(max * target/totalRequested))
// of its take. A final flat truncation in interleaved order handles rounding
// overshoot while keeping every contributing country's first pick.
func (s *Selector) trimProportionally(taken map[string][]core.SearchResult, codes []string) {
	totalRequested := 0
	for _, code := range codes {
		totalRequested += s.targets.PerCountry[code]
	}
	if totalRequested == 0 {
		return
	}
	for _, code := range codes {
		keep := s.targets.MaxForAnalysis * s.targets.PerCountry[code] / totalRequested
		if keep < 1 {
			keep = 1
		}
		if len(taken[code]) > keep {
			taken[code] = taken[code][:keep]
		}
	}
}

// interleave emits candidates round-robin over countries so the first N items
// cover N distinct countries before any country repeats. Countries iterate in
// sorted order for deterministic output.
func interleave(taken map[string][]core.SearchResult, codes []string) []core.SearchResult {
	var out []core.SearchResult
	for round := 0; ; round++ {
		emitted := false
		for _, code := range codes {
			if round < len(taken[code]) {
				out = append(out, taken[code][round])
				emitted = true
			}
		}
		if !emitted {
			return out
		}
	}
}

func sortedCodes(perCountry map[string]int) []string {
	codes := make([]string, 0, len(perCountry))
	for code := range perCountry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// normalizeTitle lowercases and strips all whitespace, giving the dedupe key.
func normalizeTitle(title string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(title) {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// normalizeURL strips a trailing slash and lowercases the scheme+host part
// conservatively by lowercasing the whole string; canonical feed URLs do not
// carry case-significant paths in practice.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, "/")
	return strings.ToLower(raw)
}
