package selection

import (
	"testing"

	"newslens/internal/core"
)

func candidate(country, url, title string) core.SearchResult {
	return core.SearchResult{
		CountryCode: country,
		URL:         url,
		Title:       title,
		Language:    "en",
	}
}

func defaultTargets() core.SelectionTargets {
	return core.SelectionTargets{
		PerCountry:       map[string]int{"US": 2, "BR": 2},
		BufferPerCountry: 1,
		MaxForAnalysis:   8,
	}
}

func TestSelectDeduplicatesByURLAndTitle(t *testing.T) {
	s := NewSelector(defaultTargets())

	candidates := []core.SearchResult{
		candidate("US", "https://a.com/one", "Central bank raises rates"),
		candidate("US", "https://a.com/one", "A different headline entirely"),  // dup URL
		candidate("US", "https://a.com/two", "Central Bank  Raises   Rates"),  // dup normalized title
		candidate("US", "https://a.com/three", "Another angle on the story"),
	}

	result := s.Select(core.Article{URL: "https://input.example/x"}, candidates)
	if len(result.Selected) != 2 {
		t.Fatalf("expected 2 after dedupe, got %d", len(result.Selected))
	}

	urls := make(map[string]bool)
	titles := make(map[string]bool)
	for _, r := range result.Selected {
		if urls[r.URL] {
			t.Errorf("duplicate URL in selection: %s", r.URL)
		}
		if titles[normalizeTitle(r.Title)] {
			t.Errorf("duplicate normalized title in selection: %s", r.Title)
		}
		urls[r.URL] = true
		titles[normalizeTitle(r.Title)] = true
	}
}

func TestSelectDropsInputURLAndShortTitles(t *testing.T) {
	s := NewSelector(defaultTargets())

	candidates := []core.SearchResult{
		candidate("US", "https://input.example/x", "Same story as the input article"),
		candidate("US", "https://a.com/short", "Too short"),
		candidate("US", "https://a.com/keep", "A perfectly valid headline"),
	}

	result := s.Select(core.Article{URL: "https://input.example/x/"}, candidates)
	if len(result.Selected) != 1 {
		t.Fatalf("expected 1 surviving candidate, got %d", len(result.Selected))
	}
	if result.Selected[0].URL != "https://a.com/keep" {
		t.Errorf("wrong survivor: %s", result.Selected[0].URL)
	}
}

func TestSelectRespectsPerCountryCounts(t *testing.T) {
	s := NewSelector(defaultTargets())

	var candidates []core.SearchResult
	for i := 0; i < 5; i++ {
		candidates = append(candidates,
			candidate("US", "https://us.com/"+string(rune('a'+i)), "US headline variant number "+string(rune('a'+i))),
			candidate("BR", "https://br.com/"+string(rune('a'+i)), "BR headline variant number "+string(rune('a'+i))),
		)
	}

	result := s.Select(core.Article{URL: "https://input.example"}, candidates)
	counts := map[string]int{}
	for _, r := range result.Selected {
		counts[r.CountryCode]++
	}
	if counts["US"] != 2 || counts["BR"] != 2 {
		t.Errorf("expected 2 per country, got %v", counts)
	}
	if len(result.Shortfall) != 0 {
		t.Errorf("no shortfall expected, got %v", result.Shortfall)
	}
}

func TestSelectEnforcesMaxForAnalysisProportionally(t *testing.T) {
	targets := core.SelectionTargets{
		PerCountry:     map[string]int{"US": 6, "BR": 2},
		MaxForAnalysis: 4,
	}
	s := NewSelector(targets)

	var candidates []core.SearchResult
	for i := 0; i < 6; i++ {
		candidates = append(candidates, candidate("US", "https://us.com/"+string(rune('a'+i)), "US headline variant number "+string(rune('a'+i))))
	}
	for i := 0; i < 2; i++ {
		candidates = append(candidates, candidate("BR", "https://br.com/"+string(rune('a'+i)), "BR headline variant number "+string(rune('a'+i))))
	}

	result := s.Select(core.Article{URL: "https://input.example"}, candidates)
	if len(result.Selected) > 4 {
		t.Fatalf("selection exceeds cap: %d", len(result.Selected))
	}

	counts := map[string]int{}
	for _, r := range result.Selected {
		counts[r.CountryCode]++
	}
	// Proportional rule keeps every contributing country at >= 1 slot.
	if counts["BR"] < 1 {
		t.Errorf("BR lost its guaranteed slot: %v", counts)
	}
	if counts["US"] < counts["BR"] {
		t.Errorf("proportional trim inverted the ratio: %v", counts)
	}
}

func TestSelectInterleavesCountries(t *testing.T) {
	targets := core.SelectionTargets{
		PerCountry:     map[string]int{"US": 2, "BR": 2, "DE": 2},
		MaxForAnalysis: 10,
	}
	s := NewSelector(targets)

	var candidates []core.SearchResult
	for _, cc := range []string{"US", "BR", "DE"} {
		for i := 0; i < 2; i++ {
			candidates = append(candidates, candidate(cc, "https://"+cc+".com/"+string(rune('a'+i)), cc+" headline variant number "+string(rune('a'+i))))
		}
	}

	result := s.Select(core.Article{URL: "https://input.example"}, candidates)
	if len(result.Selected) != 6 {
		t.Fatalf("expected 6 selected, got %d", len(result.Selected))
	}

	// First 3 must cover 3 distinct countries.
	seen := map[string]bool{}
	for _, r := range result.Selected[:3] {
		if seen[r.CountryCode] {
			t.Errorf("country %s repeated before all countries appeared once", r.CountryCode)
		}
		seen[r.CountryCode] = true
	}
}

func TestSelectReportsShortfall(t *testing.T) {
	s := NewSelector(defaultTargets())

	candidates := []core.SearchResult{
		candidate("US", "https://us.com/a", "Only one valid US headline"),
	}

	result := s.Select(core.Article{URL: "https://input.example"}, candidates)
	if result.Shortfall["US"] != 1 {
		t.Errorf("expected US shortfall 1, got %v", result.Shortfall)
	}
	if result.Shortfall["BR"] != 2 {
		t.Errorf("expected BR shortfall 2, got %v", result.Shortfall)
	}
	if len(result.Selected) != 1 {
		t.Errorf("shortfall is advisory; selection should proceed with %d", len(result.Selected))
	}
}

func TestSelectFallbackFillsFromOtherCountries(t *testing.T) {
	targets := core.SelectionTargets{
		PerCountry:     map[string]int{"US": 2, "BR": 2},
		MaxForAnalysis: 4,
		AllowFallback:  true,
	}
	s := NewSelector(targets)

	var candidates []core.SearchResult
	for i := 0; i < 4; i++ {
		candidates = append(candidates, candidate("US", "https://us.com/"+string(rune('a'+i)), "US headline variant number "+string(rune('a'+i))))
	}
	// BR contributes nothing.

	result := s.Select(core.Article{URL: "https://input.example"}, candidates)
	if len(result.Selected) != 4 {
		t.Errorf("fallback should fill BR's slots from US leftovers, got %d", len(result.Selected))
	}
	if result.Shortfall["BR"] != 2 {
		t.Errorf("shortfall must still be reported, got %v", result.Shortfall)
	}
}

func TestSelectIsDeterministic(t *testing.T) {
	s := NewSelector(defaultTargets())

	candidates := []core.SearchResult{
		candidate("BR", "https://br.com/a", "BR headline variant number one"),
		candidate("US", "https://us.com/a", "US headline variant number one"),
		candidate("US", "https://us.com/b", "US headline variant number two"),
		candidate("BR", "https://br.com/b", "BR headline variant number two"),
	}

	first := s.Select(core.Article{URL: "https://input.example"}, candidates)
	for i := 0; i < 5; i++ {
		again := s.Select(core.Article{URL: "https://input.example"}, candidates)
		if len(again.Selected) != len(first.Selected) {
			t.Fatal("selection size changed between runs")
		}
		for j := range again.Selected {
			if again.Selected[j].URL != first.Selected[j].URL {
				t.Fatalf("selection order changed between runs at %d", j)
			}
		}
	}
}

func TestNormalizeTitle(t *testing.T) {
	a := normalizeTitle("Central Bank  Raises\tRates")
	b := normalizeTitle("central bank raises rates")
	if a != b {
		t.Errorf("expected equal keys, got %q vs %q", a, b)
	}
}
