package llm

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rotisserie/eris"

	"github.com/sells-group/insight-cli/internal/config"
)

// generator is the subset of an eino chat model used here.
type generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// OpenAI completes prompts against any OpenAI-compatible endpoint (Groq by
// default) through the eino chat model.
type OpenAI struct {
	chat  generator
	model string
}

// NewOpenAI builds an eino chat model from cfg.
func NewOpenAI(ctx context.Context, cfg config.OpenAIConfig) (*OpenAI, error) {
	chat, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.Key,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, eris.Wrap(err, "llm: new openai chat model")
	}
	return &OpenAI{chat: chat, model: cfg.Model}, nil
}

// Name returns the provider name.
func (o *OpenAI) Name() string { return "openai" }

// Complete sends req as a single user message.
func (o *OpenAI) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	opts := []model.Option{model.WithMaxTokens(req.MaxTokens)}
	if req.Temperature != nil {
		opts = append(opts, model.WithTemperature(float32(*req.Temperature)))
	}

	msg, err := o.chat.Generate(ctx, []*schema.Message{schema.UserMessage(req.Prompt)}, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "llm: openai complete")
	}
	if msg == nil {
		return nil, eris.New("llm: openai returned no message")
	}

	resp := &Response{Text: msg.Content, Model: o.model}
	if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
		resp.InputTokens = int64(msg.ResponseMeta.Usage.PromptTokens)
		resp.OutputTokens = int64(msg.ResponseMeta.Usage.CompletionTokens)
	}
	return resp, nil
}
