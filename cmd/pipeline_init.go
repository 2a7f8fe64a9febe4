package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/archive"
	"github.com/sells-group/insight-cli/internal/config"
	"github.com/sells-group/insight-cli/internal/cost"
	"github.com/sells-group/insight-cli/internal/extract"
	"github.com/sells-group/insight-cli/internal/fetch"
	"github.com/sells-group/insight-cli/internal/insight"
	"github.com/sells-group/insight-cli/internal/llm"
	"github.com/sells-group/insight-cli/internal/pipeline"
	"github.com/sells-group/insight-cli/internal/render"
)

// initPipeline builds every client and stage from c. mode is passed to
// config validation ("generate" or "serve").
func initPipeline(ctx context.Context, c *config.Config, mode string) (*pipeline.Pipeline, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	calc := cost.NewCalculator(cost.RatesFromConfig(c.Pricing))

	searcher, err := fetch.NewSearcher(c.Search)
	if err != nil {
		return nil, eris.Wrap(err, "init searcher")
	}
	fetcher := fetch.NewFetcher(searcher, fetch.Options{
		MaxResults:        c.Search.MaxResults,
		RequestsPerMinute: c.Search.RequestsPerMinute,
		Cost:              calc,
	})

	completer, err := llm.NewCompleter(ctx, c.LLM)
	if err != nil {
		return nil, eris.Wrap(err, "init completer")
	}

	synth := insight.NewSynthesizer(fetcher, completer, calc, c.Insight.MaxDocumentChars)
	summ := insight.NewSummarizer(completer, calc, c.LLM.SummaryMaxTokens)

	// Archive is optional; a bad store only disables it.
	var arch pipeline.Archiver
	if c.Archive.S3.Enabled() {
		store, err := archive.New(c.Archive.S3)
		if err != nil {
			zap.L().Warn("archive init failed, reports will not be archived", zap.Error(err))
		} else if err := store.EnsureBucket(ctx); err != nil {
			zap.L().Warn("archive bucket unavailable, reports will not be archived", zap.Error(err))
		} else {
			arch = store
		}
	}

	zap.L().Info("pipeline ready",
		zap.String("search_provider", searcher.Name()),
		zap.String("llm_provider", completer.Name()),
		zap.Bool("archive", arch != nil),
	)

	return pipeline.New(
		synth,
		summ,
		render.New(c.Render),
		extract.New(c.Extract),
		arch,
		c.Render.Heading,
	), nil
}
