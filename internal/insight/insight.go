// Package insight assembles sales-insight prompts, invokes the completion
// provider, and condenses the result on request.
package insight

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/cost"
	"github.com/sells-group/insight-cli/internal/fault"
	"github.com/sells-group/insight-cli/internal/llm"
	"github.com/sells-group/insight-cli/internal/model"
)

// Bounds accepted for completion parameters.
const (
	MinMaxTokens = 100
	MaxMaxTokens = 2000
)

// Fetcher resolves a URL to a content record. It must never fail.
type Fetcher interface {
	Fetch(ctx context.Context, log *zap.Logger, url string) model.WebContentRecord
}

// Params controls one synthesis call.
type Params struct {
	Mode        model.Mode
	Temperature float64
	MaxTokens   int
}

// Validate checks the completion parameters.
func (p Params) Validate() error {
	if _, err := model.ParseMode(string(p.Mode)); err != nil {
		return err
	}
	if p.Temperature < 0 || p.Temperature > 1 {
		return eris.Errorf("insight: temperature %.2f must be between 0 and 1", p.Temperature)
	}
	if p.MaxTokens < MinMaxTokens || p.MaxTokens > MaxMaxTokens {
		return eris.Errorf("insight: max tokens %d must be between %d and %d", p.MaxTokens, MinMaxTokens, MaxMaxTokens)
	}
	return nil
}

// Synthesizer produces GeneratedInsights.
type Synthesizer struct {
	fetcher          Fetcher
	completer        llm.Completer
	cost             *cost.Calculator
	maxDocumentChars int
}

// NewSynthesizer creates a Synthesizer. calc may be nil.
func NewSynthesizer(f Fetcher, c llm.Completer, calc *cost.Calculator, maxDocumentChars int) *Synthesizer {
	return &Synthesizer{
		fetcher:          f,
		completer:        c,
		cost:             calc,
		maxDocumentChars: maxDocumentChars,
	}
}

// Synthesize fetches company and competitor content, fills the prompt for
// p.Mode, and returns the completion text verbatim. Competitor fetches run
// sequentially in list order. Nothing is cached and nothing is retried.
func (s *Synthesizer) Synthesize(ctx context.Context, log *zap.Logger, req *model.InsightRequest, p Params) (*model.GeneratedInsight, error) {
	if log == nil {
		log = zap.L()
	}
	if req == nil {
		return nil, fault.Invalid("synthesize", model.ErrMissingRequired)
	}
	if err := req.Validate(); err != nil {
		return nil, fault.Invalid("synthesize", err)
	}
	if err := p.Validate(); err != nil {
		log.Error("Error generating insights", zap.Error(err))
		return nil, fault.Synthesis("synthesize", err)
	}
	mode, _ := model.ParseMode(string(p.Mode))

	company := s.fetcher.Fetch(ctx, log, req.CompanyURL)
	competitors := make([]model.WebContentRecord, 0, len(req.Competitors))
	for _, u := range req.Competitors {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		competitors = append(competitors, s.fetcher.Fetch(ctx, log, u))
	}

	slots := Slots{
		CompanyTitle:       company.Title,
		CompanyDescription: company.Description,
		ProductName:        req.ProductName,
		ProductCategory:    req.ProductCategory,
		Competitors:        competitors,
		ValueProposition:   req.ValueProposition,
		TargetCustomer:     req.TargetCustomer,
	}
	if req.Document != nil {
		slots.Document = truncate(strings.TrimSpace(req.Document.Text), s.maxDocumentChars)
	}

	text, err := BuildPrompt(ctx, mode, slots)
	if err != nil {
		log.Error("Error generating insights", zap.Error(err))
		return nil, fault.Synthesis("synthesize", err)
	}

	resp, err := s.completer.Complete(ctx, llm.Request{
		Prompt:      text,
		Temperature: llm.Float(p.Temperature),
		MaxTokens:   p.MaxTokens,
	})
	if err != nil {
		log.Error("Error generating insights", zap.String("provider", s.completer.Name()), zap.Error(err))
		return nil, fault.Synthesis("synthesize", err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		err := eris.New("insight: completion returned no text")
		log.Error("Error generating insights", zap.Error(err))
		return nil, fault.Synthesis("synthesize", err)
	}

	if s.cost != nil {
		s.cost.LogCompletion(log, resp.Model, "synthesize", resp.InputTokens, resp.OutputTokens)
	}
	log.Info("Generated Insights:\n" + resp.Text)

	return &model.GeneratedInsight{
		Text:  resp.Text,
		Mode:  mode,
		Model: resp.Model,
		Usage: model.TokenUsage{InputTokens: resp.InputTokens, OutputTokens: resp.OutputTokens},
	}, nil
}

// Summarizer condenses already-generated text with a second completion.
type Summarizer struct {
	completer llm.Completer
	cost      *cost.Calculator
	maxTokens int
}

// NewSummarizer creates a Summarizer bounded to maxTokens output tokens.
func NewSummarizer(c llm.Completer, calc *cost.Calculator, maxTokens int) *Summarizer {
	return &Summarizer{completer: c, cost: calc, maxTokens: maxTokens}
}

// Summarize returns a concise summary of text. The provider's default
// temperature is used.
func (s *Summarizer) Summarize(ctx context.Context, log *zap.Logger, text string) (string, error) {
	if log == nil {
		log = zap.L()
	}
	if strings.TrimSpace(text) == "" {
		return "", fault.Synthesis("summarize", eris.New("insight: nothing to summarize"))
	}

	resp, err := s.completer.Complete(ctx, llm.Request{
		Prompt:    SummaryPrompt(text),
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		log.Error("Error summarizing insights", zap.Error(err))
		return "", fault.Synthesis("summarize", err)
	}

	if s.cost != nil {
		s.cost.LogCompletion(log, resp.Model, "summarize", resp.InputTokens, resp.OutputTokens)
	}
	log.Info("Generated Summary:\n" + resp.Text)
	return resp.Text, nil
}
