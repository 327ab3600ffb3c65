package handlers

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"newslens/internal/config"
	"newslens/internal/core"
)

var (
	groupStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	codeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	langStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// NewCountriesCmd creates the countries listing command
func NewCountriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List the countries searched for coverage",
		Long: `Display the country catalog used by the search stage, grouped by region.
Per-country article targets come from selection.per_country in the config.`,
		Run: func(cmd *cobra.Command, args []string) {
			runCountries(config.Get())
		},
	}
}

func runCountries(cfg *config.Config) {
	specs := cfg.Countries()
	targets := cfg.Selection.Targets()

	byGroup := make(map[string][]core.CountrySpec)
	for _, spec := range specs {
		byGroup[spec.Group] = append(byGroup[spec.Group], spec)
	}
	groups := make([]string, 0, len(byGroup))
	for group := range byGroup {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	for _, group := range groups {
		fmt.Println(groupStyle.Render(group))
		members := byGroup[group]
		sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
		for _, spec := range members {
			line := fmt.Sprintf("  %s %s %s",
				codeStyle.Render(spec.Code), spec.Name, langStyle.Render("("+spec.Language+")"))
			if n, ok := targets.PerCountry[spec.Code]; ok && n > 0 {
				line += fmt.Sprintf("  target: %d", n)
			}
			fmt.Println(line)
		}
		fmt.Println()
	}
	fmt.Printf("%d countries configured\n", len(specs))
}
