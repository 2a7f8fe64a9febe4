package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insight-cli/internal/config"
	"github.com/sells-group/insight-cli/pkg/anthropic"
)

func TestAnthropic_Complete(t *testing.T) {
	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-haiku-4-5-20251001" &&
			req.MaxTokens == 500 &&
			req.Temperature != nil && *req.Temperature == 0.7 &&
			len(req.Messages) == 1 && req.Messages[0].Content == "hello"
	})).Return(&anthropic.MessageResponse{
		Model:   "claude-haiku-4-5-20251001",
		Content: []anthropic.ContentBlock{{Type: "text", Text: "insight"}},
		Usage:   anthropic.TokenUsage{InputTokens: 10, OutputTokens: 3},
	}, nil).Once()

	c := NewAnthropic(client, "claude-haiku-4-5-20251001")
	resp, err := c.Complete(context.Background(), Request{Prompt: "hello", Temperature: Float(0.7), MaxTokens: 500})

	require.NoError(t, err)
	assert.Equal(t, "insight", resp.Text)
	assert.Equal(t, int64(10), resp.InputTokens)
	assert.Equal(t, int64(3), resp.OutputTokens)
	assert.Equal(t, "anthropic", c.Name())
	client.AssertExpectations(t)
}

func TestAnthropic_CompleteError(t *testing.T) {
	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, errors.New("overloaded")).Once()

	c := NewAnthropic(client, "m")
	_, err := c.Complete(context.Background(), Request{Prompt: "p", Temperature: Float(0.5), MaxTokens: 10})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
	client.AssertNumberOfCalls(t, "CreateMessage", 1)
}

func TestOpenAI_Complete(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything,
		mock.MatchedBy(func(msgs []*schema.Message) bool {
			return len(msgs) == 1 && msgs[0].Role == schema.User && msgs[0].Content == "prompt"
		}),
		mock.MatchedBy(func(o *model.Options) bool {
			return o.Temperature != nil && *o.Temperature == float32(0.2) &&
				o.MaxTokens != nil && *o.MaxTokens == 1024
		}),
	).Return(&schema.Message{
		Role:    schema.Assistant,
		Content: "summary",
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{PromptTokens: 40, CompletionTokens: 8},
		},
	}, nil).Once()

	c := &OpenAI{chat: gen, model: "llama-3.1-8b-instant"}
	resp, err := c.Complete(context.Background(), Request{Prompt: "prompt", Temperature: Float(0.2), MaxTokens: 1024})

	require.NoError(t, err)
	assert.Equal(t, "summary", resp.Text)
	assert.Equal(t, "llama-3.1-8b-instant", resp.Model)
	assert.Equal(t, int64(40), resp.InputTokens)
	assert.Equal(t, int64(8), resp.OutputTokens)
	gen.AssertExpectations(t)
}

func TestOpenAI_CompleteNoUsage(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(&schema.Message{Content: "text"}, nil)

	c := &OpenAI{chat: gen, model: "m"}
	resp, err := c.Complete(context.Background(), Request{Prompt: "p", Temperature: Float(0), MaxTokens: 1})

	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.InputTokens)
}

func TestOpenAI_CompleteError(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("rate limited")).Once()

	c := &OpenAI{chat: gen, model: "m"}
	_, err := c.Complete(context.Background(), Request{Prompt: "p", Temperature: Float(0.7), MaxTokens: 500})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm: openai complete")
	gen.AssertNumberOfCalls(t, "Generate", 1)
}

func TestComplete_InvalidRequest(t *testing.T) {
	c := &OpenAI{chat: &mockGenerator{}, model: "m"}

	tests := []struct {
		name string
		req  Request
		want string
	}{
		{name: "zero max tokens", req: Request{Temperature: Float(0.5)}, want: "max tokens"},
		{name: "negative temperature", req: Request{Temperature: Float(-0.1), MaxTokens: 10}, want: "temperature"},
		{name: "temperature above one", req: Request{Temperature: Float(1.5), MaxTokens: 10}, want: "temperature"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Complete(context.Background(), tt.req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewCompleter(t *testing.T) {
	ctx := context.Background()

	c, err := NewCompleter(ctx, config.LLMConfig{
		Provider: "openai",
		OpenAI:   config.OpenAIConfig{Key: "k", BaseURL: "http://localhost", Model: "m"},
	})
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Name())

	c, err = NewCompleter(ctx, config.LLMConfig{
		Provider:  "anthropic",
		Anthropic: config.AnthropicConfig{Key: "k", Model: "m"},
	})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", c.Name())

	_, err = NewCompleter(ctx, config.LLMConfig{Provider: "bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestOpenAI_CompleteProviderDefaultTemperature(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything, mock.MatchedBy(func(o *model.Options) bool {
		return o.Temperature == nil && o.MaxTokens != nil && *o.MaxTokens == 1024
	})).Return(&schema.Message{Content: "short"}, nil).Once()

	c := &OpenAI{chat: gen, model: "m"}
	resp, err := c.Complete(context.Background(), Request{Prompt: "p", MaxTokens: 1024})

	require.NoError(t, err)
	assert.Equal(t, "short", resp.Text)
	gen.AssertExpectations(t)
}
