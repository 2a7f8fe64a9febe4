package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"github.com/rotisserie/eris"
)

const (
	maxPageBytes   = 2 << 20
	maxExcerptRune = 1000
)

// Direct fetches the page itself and extracts its title and lead text with
// readability. It needs no API key.
type Direct struct {
	client *http.Client
}

// NewDirect creates a Direct searcher using hc.
func NewDirect(hc *http.Client) *Direct {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Direct{client: hc}
}

// Name returns the provider name.
func (d *Direct) Name() string { return "direct" }

// Search GETs targetURL and returns at most one result.
func (d *Direct) Search(ctx context.Context, targetURL string, _ int) (*Response, error) {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return nil, eris.Wrap(err, "direct: parse url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "direct: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; InsightBot/1.0)")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "direct: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("direct: status %d", resp.StatusCode)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxPageBytes), parsed)
	if err != nil {
		return nil, eris.Wrap(err, "direct: parse page")
	}

	content := strings.TrimSpace(article.Excerpt)
	if content == "" {
		content = truncateRunes(strings.Join(strings.Fields(article.TextContent), " "), maxExcerptRune)
	}
	if article.Title == "" && content == "" {
		return &Response{}, nil
	}
	return &Response{Results: []Result{{Title: strings.TrimSpace(article.Title), Content: content}}}, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
