// Package cost estimates the spend of completion and search calls.
package cost

import (
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/config"
)

// Rates holds per-provider pricing configuration.
type Rates struct {
	Models     map[string]ModelRate
	Tavily     TavilyRate
	Jina       JinaRate
	Perplexity PerplexityRate
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64
	Output float64
}

// TavilyRate holds Tavily pricing.
type TavilyRate struct {
	PerSearch float64
}

// JinaRate holds Jina Search pricing.
type JinaRate struct {
	PerMTok float64
}

// PerplexityRate holds Perplexity pricing.
type PerplexityRate struct {
	PerQuery float64
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Completion computes the cost of a completion call. Unknown models cost 0.
func (c *Calculator) Completion(model string, input, output int64) float64 {
	rate, ok := c.rates.Models[model]
	if !ok {
		return 0
	}
	return (float64(input)/1e6)*rate.Input + (float64(output)/1e6)*rate.Output
}

// Search returns the cost of one search call for the named provider.
// Jina is billed by tokens; the others per request.
func (c *Calculator) Search(provider string, tokens int) float64 {
	switch provider {
	case "tavily":
		return c.rates.Tavily.PerSearch
	case "perplexity":
		return c.rates.Perplexity.PerQuery
	case "jina":
		return (float64(tokens) / 1e6) * c.rates.Jina.PerMTok
	default:
		return 0
	}
}

// LogCompletion logs token usage and estimated cost with structured fields.
func (c *Calculator) LogCompletion(log *zap.Logger, model, phase string, input, output int64) {
	log.Info("cost attribution",
		zap.String("model", model),
		zap.String("phase", phase),
		zap.Int64("input_tokens", input),
		zap.Int64("output_tokens", output),
		zap.Float64("estimated_cost_usd", c.Completion(model, input, output)),
	)
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Models: map[string]ModelRate{
			"claude-haiku-4-5-20251001":  {Input: 0.80, Output: 4.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
			"claude-opus-4-6":            {Input: 15.00, Output: 75.00},
			"llama-3.1-8b-instant":       {Input: 0.05, Output: 0.08},
			"llama-3.3-70b-versatile":    {Input: 0.59, Output: 0.79},
			"gpt-4o-mini":                {Input: 0.15, Output: 0.60},
		},
		Tavily:     TavilyRate{PerSearch: 0.008},
		Jina:       JinaRate{PerMTok: 0.02},
		Perplexity: PerplexityRate{PerQuery: 0.005},
	}
}

// RatesFromConfig overlays configured pricing on the defaults.
func RatesFromConfig(cfg config.PricingConfig) Rates {
	rates := DefaultRates()
	for _, m := range cfg.Models {
		if m.Model == "" {
			continue
		}
		rates.Models[m.Model] = ModelRate{Input: m.Input, Output: m.Output}
	}
	if cfg.Tavily.PerSearch > 0 {
		rates.Tavily.PerSearch = cfg.Tavily.PerSearch
	}
	if cfg.Jina.PerMTok > 0 {
		rates.Jina.PerMTok = cfg.Jina.PerMTok
	}
	if cfg.Perplexity.PerQuery > 0 {
		rates.Perplexity.PerQuery = cfg.Perplexity.PerQuery
	}
	return rates
}
