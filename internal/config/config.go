package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	LLM     LLMConfig     `yaml:"llm" mapstructure:"llm"`
	Insight InsightConfig `yaml:"insight" mapstructure:"insight"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Render  RenderConfig  `yaml:"render" mapstructure:"render"`
	Archive ArchiveConfig `yaml:"archive" mapstructure:"archive"`
	Pricing PricingConfig `yaml:"pricing" mapstructure:"pricing"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SearchConfig selects and configures the content search provider.
type SearchConfig struct {
	Provider          string           `yaml:"provider" mapstructure:"provider"`
	MaxResults        int              `yaml:"max_results" mapstructure:"max_results"`
	RequestsPerMinute int              `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	TimeoutSecs       int              `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Tavily            TavilyConfig     `yaml:"tavily" mapstructure:"tavily"`
	Jina              JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Perplexity        PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
}

// TavilyConfig holds Tavily search API settings.
type TavilyConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	SearchDepth string `yaml:"search_depth" mapstructure:"search_depth"`
}

// JinaConfig holds Jina AI Search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// LLMConfig selects and configures the completion provider.
type LLMConfig struct {
	Provider         string          `yaml:"provider" mapstructure:"provider"`
	Temperature      float64         `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens        int             `yaml:"max_tokens" mapstructure:"max_tokens"`
	SummaryMaxTokens int             `yaml:"summary_max_tokens" mapstructure:"summary_max_tokens"`
	OpenAI           OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	Anthropic        AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
}

// OpenAIConfig configures any OpenAI-compatible chat completion endpoint.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// InsightConfig configures prompt assembly.
type InsightConfig struct {
	MaxDocumentChars int `yaml:"max_document_chars" mapstructure:"max_document_chars"`
}

// ExtractConfig configures uploaded document extraction.
type ExtractConfig struct {
	MaxPages int   `yaml:"max_pages" mapstructure:"max_pages"`
	MaxBytes int64 `yaml:"max_bytes" mapstructure:"max_bytes"`
}

// RenderConfig configures the PDF report layout.
type RenderConfig struct {
	PreserveParagraphs bool   `yaml:"preserve_paragraphs" mapstructure:"preserve_paragraphs"`
	Heading            string `yaml:"heading" mapstructure:"heading"`
	DefaultFilename    string `yaml:"default_filename" mapstructure:"default_filename"`
}

// ArchiveConfig configures optional report archiving.
type ArchiveConfig struct {
	S3 S3Config `yaml:"s3" mapstructure:"s3"`
}

// S3Config holds S3-compatible object storage settings.
type S3Config struct {
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
	Bucket    string `yaml:"bucket" mapstructure:"bucket"`
	Region    string `yaml:"region" mapstructure:"region"`
	UseSSL    bool   `yaml:"use_ssl" mapstructure:"use_ssl"`
}

// Enabled reports whether enough settings are present to archive reports.
func (c S3Config) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

// PricingConfig holds per-provider pricing rates.
type PricingConfig struct {
	Models     []ModelPricing    `yaml:"models" mapstructure:"models"`
	Tavily     TavilyPricing     `yaml:"tavily" mapstructure:"tavily"`
	Jina       JinaPricing       `yaml:"jina" mapstructure:"jina"`
	Perplexity PerplexityPricing `yaml:"perplexity" mapstructure:"perplexity"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Model  string  `yaml:"model" mapstructure:"model"`
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// TavilyPricing holds Tavily pricing.
type TavilyPricing struct {
	PerSearch float64 `yaml:"per_search" mapstructure:"per_search"`
}

// JinaPricing holds Jina pricing.
type JinaPricing struct {
	PerMTok float64 `yaml:"per_mtok" mapstructure:"per_mtok"`
}

// PerplexityPricing holds Perplexity pricing.
type PerplexityPricing struct {
	PerQuery float64 `yaml:"per_query" mapstructure:"per_query"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"`
	SessionDir string `yaml:"session_dir" mapstructure:"session_dir"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("INSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("search.provider", "tavily")
	v.SetDefault("search.max_results", 2)
	v.SetDefault("search.requests_per_minute", 0)
	v.SetDefault("search.timeout_secs", 30)
	v.SetDefault("search.tavily.key", "")
	v.SetDefault("search.tavily.base_url", "https://api.tavily.com")
	v.SetDefault("search.tavily.search_depth", "basic")
	v.SetDefault("search.jina.key", "")
	v.SetDefault("search.jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("search.perplexity.key", "")
	v.SetDefault("search.perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("search.perplexity.model", "sonar")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 500)
	v.SetDefault("llm.summary_max_tokens", 1024)
	v.SetDefault("llm.openai.key", "")
	v.SetDefault("llm.openai.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.openai.model", "llama-3.1-8b-instant")
	v.SetDefault("llm.anthropic.key", "")
	v.SetDefault("llm.anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("insight.max_document_chars", 4000)
	v.SetDefault("extract.max_pages", 0)
	v.SetDefault("extract.max_bytes", 20<<20)
	v.SetDefault("render.preserve_paragraphs", true)
	v.SetDefault("render.heading", "Sales Insights Summary")
	v.SetDefault("render.default_filename", "Account_Insights.pdf")
	v.SetDefault("archive.s3.endpoint", "")
	v.SetDefault("archive.s3.access_key", "")
	v.SetDefault("archive.s3.secret_key", "")
	v.SetDefault("archive.s3.bucket", "")
	v.SetDefault("archive.s3.region", "")
	v.SetDefault("archive.s3.use_ssl", true)
	v.SetDefault("pricing.tavily.per_search", 0.008)
	v.SetDefault("pricing.jina.per_mtok", 0.02)
	v.SetDefault("pricing.perplexity.per_query", 0.005)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.session_dir", "session_logs")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings required by a command. Mode is "generate"
// or "serve". All problems are reported in a single error.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "generate":
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Search.Provider {
	case "tavily":
		if c.Search.Tavily.Key == "" {
			errs = append(errs, "search.tavily.key is required")
		}
	case "jina":
		if c.Search.Jina.Key == "" {
			errs = append(errs, "search.jina.key is required")
		}
	case "perplexity":
		if c.Search.Perplexity.Key == "" {
			errs = append(errs, "search.perplexity.key is required")
		}
	case "direct":
	default:
		errs = append(errs, "search.provider must be one of tavily, jina, perplexity, direct")
	}
	if c.Search.MaxResults < 1 || c.Search.MaxResults > 20 {
		errs = append(errs, "search.max_results must be between 1 and 20")
	}
	if c.Search.RequestsPerMinute < 0 {
		errs = append(errs, "search.requests_per_minute must be >= 0")
	}

	switch c.LLM.Provider {
	case "openai":
		if c.LLM.OpenAI.Key == "" {
			errs = append(errs, "llm.openai.key is required")
		}
		if c.LLM.OpenAI.Model == "" {
			errs = append(errs, "llm.openai.model is required")
		}
	case "anthropic":
		if c.LLM.Anthropic.Key == "" {
			errs = append(errs, "llm.anthropic.key is required")
		}
	default:
		errs = append(errs, "llm.provider must be one of openai, anthropic")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		errs = append(errs, "llm.temperature must be between 0 and 1")
	}
	if c.LLM.MaxTokens < 1 {
		errs = append(errs, "llm.max_tokens must be > 0")
	}
	if c.LLM.SummaryMaxTokens < 1 {
		errs = append(errs, "llm.summary_max_tokens must be > 0")
	}

	if c.Log.SessionDir == "" {
		errs = append(errs, "log.session_dir is required")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
