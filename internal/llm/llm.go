// Package llm adapts hosted chat-completion providers to a single
// Completer used by the insight package.
package llm

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/insight-cli/internal/config"
	"github.com/sells-group/insight-cli/pkg/anthropic"
)

// Request is one single-turn completion call. A nil Temperature leaves the
// provider default in place.
type Request struct {
	Prompt      string
	Temperature *float64
	MaxTokens   int
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Response is the text and accounting of a completion.
type Response struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Completer sends a prompt to a hosted model. Implementations never retry.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Name() string
}

// NewCompleter builds the Completer selected by cfg.Provider.
func NewCompleter(ctx context.Context, cfg config.LLMConfig) (Completer, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAI(ctx, cfg.OpenAI)
	case "anthropic":
		return NewAnthropic(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model), nil
	default:
		return nil, eris.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

func validate(req Request) error {
	if req.MaxTokens <= 0 {
		return eris.New("llm: max tokens must be > 0")
	}
	if t := req.Temperature; t != nil && (*t < 0 || *t > 1) {
		return eris.Errorf("llm: temperature %.2f out of range [0,1]", *t)
	}
	return nil
}
