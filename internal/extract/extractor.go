package extract

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"newslens/internal/core"
	"newslens/internal/logger"
)

// MinSuccessfulExtractions is the smallest number of successfully extracted
// articles a comparative analysis can run on.
const MinSuccessfulExtractions = 2

// Options configures the extraction stage.
type Options struct {
	BatchSize       int           // In-flight fetch bound (default 5)
	TimeoutPerItem  time.Duration // Wall-clock per article (default 15s)
	RetryLowQuality bool          // Refetch once when below MinQualityScore
	MinQualityScore float64       // Quality floor triggering the retry (default 60)
	QualityPrior    float64       // Optional caller-supplied score prior
	Gates           Gates         // Content gates applied before analysis
}

// DefaultOptions returns the stage defaults.
func DefaultOptions() Options {
	return Options{
		BatchSize:       5,
		TimeoutPerItem:  15 * time.Second,
		RetryLowQuality: true,
		MinQualityScore: 60,
	}
}

func (o Options) withDefaults() Options {
	if o.BatchSize < 1 {
		o.BatchSize = 5
	}
	if o.TimeoutPerItem <= 0 {
		o.TimeoutPerItem = 15 * time.Second
	}
	if o.MinQualityScore <= 0 {
		o.MinQualityScore = 60
	}
	return o
}

// Extractor hydrates search results with article content in sequential
// batches; within a batch every item fetches concurrently.
type Extractor struct {
	fetcher ContentFetcher
	opts    Options
}

// NewExtractor creates an extractor around a ContentFetcher.
func NewExtractor(fetcher ContentFetcher, opts Options) *Extractor {
	return &Extractor{fetcher: fetcher, opts: opts.withDefaults()}
}

// ExtractAll fetches every candidate and returns one ScoredArticle per input
// in input order, including failure entries. The fetch session is released on
// every exit path. The stage errs when fewer than MinSuccessfulExtractions
// articles extracted successfully, or on cancellation; the partial results
// are returned alongside the error either way.
func (e *Extractor) ExtractAll(ctx context.Context, candidates []core.SearchResult) ([]core.ScoredArticle, error) {
	articles := make([]core.ScoredArticle, len(candidates))
	for i, c := range candidates {
		articles[i] = core.ScoredArticle{Result: c}
	}
	if len(candidates) == 0 {
		return articles, core.NewError(core.ErrInsufficientExtracted, "no candidates to extract")
	}

	session, err := e.fetcher.OpenSession(ctx)
	if err != nil {
		return articles, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn("fetch session close failed", "error", cerr.Error())
		}
	}()

	for start := 0; start < len(candidates); start += e.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return articles, core.WrapError(core.ErrCancelled, err, "extraction cancelled")
		}

		end := start + e.opts.BatchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		group, groupCtx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			idx := i
			group.Go(func() error {
				articles[idx] = e.extractOne(groupCtx, session, candidates[idx])
				return nil
			})
		}
		_ = group.Wait() // Tasks never return errors; failures are recorded per item.
	}

	if err := ctx.Err(); err != nil {
		return articles, core.WrapError(core.ErrCancelled, err, "extraction cancelled")
	}

	succeeded := 0
	for _, a := range articles {
		if a.Content.Success {
			succeeded++
		}
	}
	logger.Info("extraction complete", "candidates", len(candidates), "succeeded", succeeded)

	if succeeded < MinSuccessfulExtractions {
		return articles, core.NewError(core.ErrInsufficientExtracted,
			"only %d of %d articles extracted successfully (need %d)", succeeded, len(candidates), MinSuccessfulExtractions)
	}
	return articles, nil
}

// extractOne fetches a single candidate, retrying once when the result is
// usable but below the quality floor. The higher-scoring result wins. The
// winner still has to clear the content gates to stay successful.
func (e *Extractor) extractOne(ctx context.Context, session FetchSession, candidate core.SearchResult) core.ScoredArticle {
	content := e.fetch(ctx, session, candidate.URL)
	score := Score(content, e.opts.QualityPrior)

	if content.Success && e.opts.RetryLowQuality && score < e.opts.MinQualityScore && ctx.Err() == nil {
		retried := e.fetch(ctx, session, candidate.URL)
		if retryScore := Score(retried, e.opts.QualityPrior); retryScore > score {
			content, score = retried, retryScore
		}
	}

	if reason := e.opts.Gates.Check(content); reason != "" {
		logger.Warn("extraction rejected by content gate", "url", candidate.URL, "reason", reason)
		content = core.ExtractedContent{
			FinalURL:  content.FinalURL,
			Duration:  content.Duration,
			Method:    content.Method,
			Success:   false,
			ErrorKind: core.ErrContentQuality,
		}
		score = 0
	}

	return core.ScoredArticle{Result: candidate, Content: content, QualityScore: score}
}

func (e *Extractor) fetch(ctx context.Context, session FetchSession, url string) core.ExtractedContent {
	content, err := session.Fetch(ctx, url, e.opts.TimeoutPerItem)
	if err != nil {
		kind := core.KindOf(err)
		if kind == "" {
			kind = core.ErrExtractionFailed
		}
		return core.ExtractedContent{
			FinalURL:  url,
			Success:   false,
			Method:    core.MethodNone,
			ErrorKind: kind,
		}
	}
	return content
}
