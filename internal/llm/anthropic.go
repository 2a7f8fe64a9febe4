package llm

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/insight-cli/pkg/anthropic"
)

// Anthropic completes prompts through the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic wraps an Anthropic client for the given model.
func NewAnthropic(client anthropic.Client, model string) *Anthropic {
	return &Anthropic{client: client, model: model}
}

// Name returns the provider name.
func (a *Anthropic) Name() string { return "anthropic" }

// Complete sends req as a single user message.
func (a *Anthropic) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   int64(req.MaxTokens),
		Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, eris.Wrap(err, "llm: anthropic complete")
	}

	model := resp.Model
	if model == "" {
		model = a.model
	}
	return &Response{
		Text:         resp.Text(),
		Model:        model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}
