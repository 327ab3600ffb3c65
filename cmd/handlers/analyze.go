package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"newslens/internal/config"
	"newslens/internal/core"
	"newslens/internal/logger"
	"newslens/internal/pipeline"
	"newslens/internal/progress"
	"newslens/internal/render"
	"newslens/internal/store"
	"newslens/internal/tui"
)

// NewAnalyzeCmd creates the analyze command
func NewAnalyzeCmd() *cobra.Command {
	analyzeCmd := &cobra.Command{
		Use:   "analyze [url]",
		Short: "Compare cross-country coverage of one article",
		Long: `Run the full comparison pipeline for a single article: plan the search
query, search news feeds per country, extract the candidate articles, and
run the four analysis stages.

Example:
  newslens analyze https://example.com/article --title "Central bank raises rates"
  newslens analyze https://example.com/article --title "..." --interactive
  newslens analyze https://example.com/article --title "..." --json -o result.json`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			title, _ := cmd.Flags().GetString("title")
			source, _ := cmd.Flags().GetString("source")
			lang, _ := cmd.Flags().GetString("lang")
			mock, _ := cmd.Flags().GetBool("mock")
			interactive, _ := cmd.Flags().GetBool("interactive")
			noCache, _ := cmd.Flags().GetBool("no-cache")
			asJSON, _ := cmd.Flags().GetBool("json")
			outputFile, _ := cmd.Flags().GetString("output")

			article := core.Article{
				URL:              args[0],
				Title:            strings.TrimSpace(title),
				Source:           source,
				DeclaredLanguage: lang,
			}
			if article.Title == "" {
				fmt.Fprintln(os.Stderr, "Error: --title is required")
				os.Exit(1)
			}

			opts := analyzeOptions{
				mock:        mock,
				interactive: interactive,
				noCache:     noCache,
				asJSON:      asJSON,
				outputFile:  outputFile,
			}
			if err := runAnalyze(article, opts); err != nil {
				logger.Error("Analysis failed", err, "url", article.URL)
				os.Exit(1)
			}
		},
	}

	analyzeCmd.Flags().StringP("title", "t", "", "Title of the input article (required)")
	analyzeCmd.Flags().String("source", "", "Source/publication name of the input article")
	analyzeCmd.Flags().String("lang", "", "Declared language of the input article (ISO 639-1)")
	analyzeCmd.Flags().Bool("mock", false, "Run fully offline against built-in mock collaborators")
	analyzeCmd.Flags().BoolP("interactive", "i", false, "Show live progress in a terminal view")
	analyzeCmd.Flags().Bool("no-cache", false, "Skip the result cache for this run")
	analyzeCmd.Flags().Bool("json", false, "Print the raw artifact as JSON instead of a report")
	analyzeCmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")

	return analyzeCmd
}

type analyzeOptions struct {
	mock        bool
	interactive bool
	noCache     bool
	asJSON      bool
	outputFile  string
}

func runAnalyze(article core.Article, opts analyzeOptions) error {
	cfg := config.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Cached runs are only consulted for real (non-mock) analyses.
	var cacheStore *store.Store
	var cacheKey string
	if cfg.Cache.Enabled && !opts.noCache && !opts.mock {
		s, err := store.NewStore(cfg.Cache.Directory, cfg.Cache.TTLDuration())
		if err != nil {
			logger.Warn("cache disabled", "error", err.Error())
		} else {
			cacheStore = s
			defer func() {
				if err := cacheStore.Close(); err != nil {
					logger.Warn("failed to close cache store", "error", err.Error())
				}
			}()
			cacheKey = store.CacheKey(article.URL, configFingerprint(cfg))
			if artifact, hit, err := cacheStore.GetArtifact(cacheKey); err != nil {
				logger.Warn("cache lookup failed", "error", err.Error())
			} else if hit {
				fmt.Fprintln(os.Stderr, "Using cached analysis")
				return writeArtifact(artifact, opts)
			}
		}
	}

	var p *pipeline.Pipeline
	if opts.mock {
		p = pipeline.NewOffline(cfg)
	} else {
		built, err := pipeline.NewFromConfig(ctx, cfg)
		if err != nil {
			return err
		}
		p = built
	}

	bus := progress.NewBus(0)
	p.WithProgress(bus)

	type outcome struct {
		artifact core.AnalysisArtifact
		err      error
	}
	results := make(chan outcome, 1)
	go func() {
		artifact, err := p.Analyze(ctx, article)
		bus.Close()
		results <- outcome{artifact: artifact, err: err}
	}()

	if opts.interactive {
		if err := tui.Run(bus); err != nil {
			logger.Warn("progress view failed", "error", err.Error())
			go bus.Forward(nil)
		}
		// Quitting the view cancels a still-running pipeline.
		cancel()
	} else {
		bus.Forward(progress.ListenerFunc(printProgress))
	}

	res := <-results
	if res.err != nil {
		// Partial artifacts are still worth showing in JSON mode.
		if opts.asJSON && res.artifact.ID != "" {
			_ = writeArtifact(res.artifact, opts)
		}
		return res.err
	}

	if cacheStore != nil {
		if err := cacheStore.PutArtifact(cacheKey, res.artifact); err != nil {
			logger.Warn("failed to cache artifact", "error", err.Error())
		}
	}
	return writeArtifact(res.artifact, opts)
}

var (
	percentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	failLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func printProgress(event core.ProgressEvent) {
	switch event.Status {
	case core.StatusActive:
		fmt.Fprintf(os.Stderr, "  %s %s...\n",
			percentStyle.Render(fmt.Sprintf("[%3d%%]", event.Percent)), event.Message)
	case core.StatusError:
		fmt.Fprintln(os.Stderr, failLineStyle.Render(
			fmt.Sprintf("  [%3d%%] %s failed: %s", event.Percent, event.Step, event.Message)))
	}
}

func writeArtifact(artifact core.AnalysisArtifact, opts analyzeOptions) error {
	var out string
	if opts.asJSON {
		payload, err := json.MarshalIndent(artifact, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode artifact: %w", err)
		}
		out = string(payload) + "\n"
	} else {
		out = render.Markdown(artifact)
	}

	if opts.outputFile != "" {
		if err := os.WriteFile(opts.outputFile, []byte(out), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Printf("Report written to %s\n", opts.outputFile)
		return nil
	}
	fmt.Print(out)
	return nil
}

// configFingerprint folds the settings that change the analysis outcome into
// a stable string for cache keying.
func configFingerprint(cfg *config.Config) string {
	codes := make([]string, 0, len(cfg.Selection.PerCountry))
	for code := range cfg.Selection.PerCountry {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var sb strings.Builder
	for _, code := range codes {
		fmt.Fprintf(&sb, "%s=%d;", code, cfg.Selection.PerCountry[code])
	}
	fmt.Fprintf(&sb, "buffer=%d;max=%d;fallback=%t;",
		cfg.Selection.BufferPerCountry, cfg.Selection.MaxForAnalysis, cfg.Selection.AllowFallback)
	fmt.Fprintf(&sb, "models=%s;compression=%s",
		strings.Join(cfg.Analysis.PreferredModels, ","), cfg.Analysis.CompressionLevel)
	return sb.String()
}
