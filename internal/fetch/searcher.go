// Package fetch turns a URL into a title/description record through a
// hosted search or summarization service.
package fetch

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/insight-cli/internal/config"
	"github.com/sells-group/insight-cli/pkg/jina"
	"github.com/sells-group/insight-cli/pkg/perplexity"
	"github.com/sells-group/insight-cli/pkg/tavily"
)

// Result is one ranked search hit.
type Result struct {
	Title   string
	Content string
}

// Response holds the hits of one lookup. Tokens is set by providers that
// bill per token.
type Response struct {
	Results []Result
	Tokens  int
}

// Searcher looks up content about a URL.
type Searcher interface {
	Search(ctx context.Context, targetURL string, maxResults int) (*Response, error)
	Name() string
}

// Query builds the search query sent for a URL.
func Query(targetURL string) string {
	return "summarize content and key information from " + targetURL
}

// NewSearcher builds the Searcher selected by cfg.Provider.
func NewSearcher(cfg config.SearchConfig) (Searcher, error) {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	hc := &http.Client{Timeout: timeout}

	switch cfg.Provider {
	case "", "tavily":
		opts := []tavily.Option{tavily.WithHTTPClient(hc), tavily.WithSearchDepth(cfg.Tavily.SearchDepth)}
		if cfg.Tavily.BaseURL != "" {
			opts = append(opts, tavily.WithBaseURL(cfg.Tavily.BaseURL))
		}
		return NewTavily(tavily.NewClient(cfg.Tavily.Key, opts...)), nil
	case "jina":
		opts := []jina.Option{jina.WithHTTPClient(hc)}
		if cfg.Jina.SearchBaseURL != "" {
			opts = append(opts, jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))
		}
		return NewJina(jina.NewClient(cfg.Jina.Key, opts...)), nil
	case "perplexity":
		opts := []perplexity.Option{perplexity.WithHTTPClient(hc), perplexity.WithModel(cfg.Perplexity.Model)}
		if cfg.Perplexity.BaseURL != "" {
			opts = append(opts, perplexity.WithBaseURL(cfg.Perplexity.BaseURL))
		}
		return NewPerplexity(perplexity.NewClient(cfg.Perplexity.Key, opts...)), nil
	case "direct":
		return NewDirect(hc), nil
	default:
		return nil, eris.Errorf("fetch: unknown search provider %q", cfg.Provider)
	}
}
