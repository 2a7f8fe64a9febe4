package fetch

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/insight-cli/pkg/jina"
	"github.com/sells-group/insight-cli/pkg/perplexity"
	"github.com/sells-group/insight-cli/pkg/tavily"
)

// Tavily searches with the Tavily API.
type Tavily struct {
	client tavily.Client
}

// NewTavily wraps a Tavily client.
func NewTavily(client tavily.Client) *Tavily {
	return &Tavily{client: client}
}

// Name returns the provider name.
func (t *Tavily) Name() string { return "tavily" }

// Search queries Tavily for targetURL.
func (t *Tavily) Search(ctx context.Context, targetURL string, maxResults int) (*Response, error) {
	resp, err := t.client.Search(ctx, tavily.SearchRequest{
		Query:      Query(targetURL),
		MaxResults: maxResults,
	})
	if err != nil {
		return nil, err
	}

	out := &Response{Results: make([]Result, 0, len(resp.Results))}
	for _, r := range resp.Results {
		out.Results = append(out.Results, Result{Title: r.Title, Content: r.Content})
	}
	return out, nil
}

// Jina searches with Jina AI Search.
type Jina struct {
	client jina.Client
}

// NewJina wraps a Jina client.
func NewJina(client jina.Client) *Jina {
	return &Jina{client: client}
}

// Name returns the provider name.
func (j *Jina) Name() string { return "jina" }

// Search queries s.jina.ai for targetURL.
func (j *Jina) Search(ctx context.Context, targetURL string, maxResults int) (*Response, error) {
	resp, err := j.client.Search(ctx, Query(targetURL), jina.WithMaxResults(maxResults))
	if err != nil {
		return nil, err
	}

	out := &Response{Results: make([]Result, 0, len(resp.Data)), Tokens: resp.Tokens()}
	for _, r := range resp.Data {
		content := r.Content
		if content == "" {
			content = r.Description
		}
		out.Results = append(out.Results, Result{Title: r.Title, Content: content})
	}
	return out, nil
}

// Perplexity asks a Perplexity online model to summarize the URL. The
// answer becomes the description; the first cited source supplies the title.
type Perplexity struct {
	client perplexity.Client
}

// NewPerplexity wraps a Perplexity client.
func NewPerplexity(client perplexity.Client) *Perplexity {
	return &Perplexity{client: client}
}

// Name returns the provider name.
func (p *Perplexity) Name() string { return "perplexity" }

// Search asks Perplexity about targetURL. An empty answer yields no results.
func (p *Perplexity) Search(ctx context.Context, targetURL string, _ int) (*Response, error) {
	resp, err := p.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Messages: []perplexity.Message{{Role: "user", Content: Query(targetURL)}},
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, eris.New("perplexity: empty response")
	}

	text := resp.Text()
	if text == "" {
		return &Response{}, nil
	}

	title := targetURL
	if len(resp.SearchResults) > 0 && resp.SearchResults[0].Title != "" {
		title = resp.SearchResults[0].Title
	}
	return &Response{
		Results: []Result{{Title: title, Content: text}},
		Tokens:  resp.Usage.PromptTokens + resp.Usage.CompletionTokens,
	}, nil
}
