package fetch

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/insight-cli/internal/cost"
	"github.com/sells-group/insight-cli/internal/model"
)

// Sentinel titles and descriptions returned when a lookup cannot produce
// real content.
const (
	NoURLTitle        = "No URL provided"
	NoDescription     = "No description available"
	NoTitle           = "No title available"
	NoDataTitle       = "No data found"
	NoDataDescription = "Could not fetch data from URL"
	ErrorTitle        = "Error"
	ErrorPrefix       = "Error scraping website: "
)

// Options configures a Fetcher.
type Options struct {
	MaxResults        int
	RequestsPerMinute int
	Cost              *cost.Calculator
}

// Fetcher resolves URLs to WebContentRecords. It never returns an error.
type Fetcher struct {
	searcher   Searcher
	limiter    *rate.Limiter
	maxResults int
	cost       *cost.Calculator
}

// NewFetcher creates a Fetcher around s.
func NewFetcher(s Searcher, opts Options) *Fetcher {
	f := &Fetcher{
		searcher:   s,
		maxResults: opts.MaxResults,
		cost:       opts.Cost,
	}
	if f.maxResults <= 0 {
		f.maxResults = 2
	}
	if opts.RequestsPerMinute > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), 1)
	}
	return f
}

// Fetch looks up targetURL and returns a fully populated record. Every
// failure mode maps to a sentinel record.
func (f *Fetcher) Fetch(ctx context.Context, log *zap.Logger, targetURL string) (rec model.WebContentRecord) {
	if log == nil {
		log = zap.L()
	}

	targetURL = strings.TrimSpace(targetURL)
	if targetURL == "" {
		log.Warn("fetch: no URL provided")
		return model.WebContentRecord{Title: NoURLTitle, Description: NoDescription}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("fetch: provider panicked", zap.String("url", targetURL), zap.Any("panic", r))
			rec = errorRecord(fmt.Sprint(r))
		}
	}()

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			log.Error("fetch: rate limiter wait", zap.String("url", targetURL), zap.Error(err))
			return errorRecord(err.Error())
		}
	}

	resp, err := f.searcher.Search(ctx, targetURL, f.maxResults)
	if err != nil {
		log.Error("fetch: search failed",
			zap.String("url", targetURL),
			zap.String("provider", f.searcher.Name()),
			zap.Error(err),
		)
		return errorRecord(err.Error())
	}

	if f.cost != nil {
		log.Debug("cost attribution",
			zap.String("provider", f.searcher.Name()),
			zap.Float64("estimated_cost_usd", f.cost.Search(f.searcher.Name(), resp.Tokens)),
		)
	}

	if len(resp.Results) == 0 {
		log.Warn("fetch: no data found", zap.String("url", targetURL))
		return model.WebContentRecord{Title: NoDataTitle, Description: NoDataDescription}
	}

	first := resp.Results[0]
	rec = model.WebContentRecord{Title: first.Title, Description: first.Content}
	if strings.TrimSpace(rec.Title) == "" {
		rec.Title = NoTitle
	}
	if strings.TrimSpace(rec.Description) == "" {
		rec.Description = NoDescription
	}

	log.Info("fetch: content retrieved",
		zap.String("url", targetURL),
		zap.String("provider", f.searcher.Name()),
		zap.String("title", rec.Title),
	)
	return rec
}

func errorRecord(msg string) model.WebContentRecord {
	return model.WebContentRecord{Title: ErrorTitle, Description: ErrorPrefix + msg}
}
