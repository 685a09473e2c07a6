package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/MegaGrindStone/portfolio-chat/internal/handlers"
	"github.com/MegaGrindStone/portfolio-chat/internal/services"
	"gopkg.in/yaml.v3"
)

const defaultModel = "meta-llama/llama-4-scout-17b-16e-instruct"

type llmConfig interface {
	llm(systemPrompt string, logger *slog.Logger) (handlers.LLM, error)
}

// BaseLLMConfig contains the common fields for all LLM configurations.
type BaseLLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

type config struct {
	Port           string   `yaml:"port"`
	Environment    string   `yaml:"environment"`
	LogLevel       string   `yaml:"logLevel"`
	CORSOrigins    []string `yaml:"corsOrigins"`
	TrustedProxies []string `yaml:"trustedProxies"`
	APIBaseURL     string   `yaml:"apiBaseURL"`
	ProfilePath    string   `yaml:"profile"`

	Cache     cacheConfig     `yaml:"cache"`
	RateLimit rateLimitConfig `yaml:"rateLimit"`
	LLM       llmConfig       `yaml:"llm"`
}

type cacheConfig struct {
	Path string        `yaml:"path"`
	TTL  time.Duration `yaml:"ttl"`
}

type rateLimitConfig struct {
	PerMinute float64 `yaml:"perMinute"`
	Burst     int     `yaml:"burst"`
}

type openAIConfig struct {
	BaseLLMConfig `yaml:",inline"`
	BaseURL       string                 `yaml:"baseURL"`
	APIKey        string                 `yaml:"apiKey"`
	Params        services.LLMParameters `yaml:"params"`
}

type ollamaConfig struct {
	BaseLLMConfig `yaml:",inline"`
	Host          string `yaml:"host"`
}

type anthropicConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIURL        string `yaml:"apiURL"`
	APIKey        string `yaml:"apiKey"`
	MaxTokens     int    `yaml:"maxTokens"`
}

func defaultConfig() config {
	return config{
		Port:        "8000",
		Environment: "development",
		LogLevel:    "info",
		CORSOrigins: []string{"*"},
		Cache:       cacheConfig{TTL: 24 * time.Hour},
		RateLimit:   rateLimitConfig{PerMinute: 20, Burst: 5},
		LLM: &openAIConfig{
			BaseLLMConfig: BaseLLMConfig{Provider: "openai", Model: defaultModel},
			BaseURL:       services.GroqBaseURL,
		},
	}
}

// loadConfig reads the YAML file at path over the defaults, then applies environment overrides. A missing
// file is not an error: the defaults plus environment are enough to run.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	f, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return config{}, fmt.Errorf("error opening config file: %w", err)
	default:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return config{}, fmt.Errorf("error decoding config file: %w", err)
		}
	}

	cfg.applyEnv()

	if cfg.RateLimit.PerMinute <= 0 || cfg.RateLimit.Burst < 1 {
		return config{}, fmt.Errorf("invalid rate limit: perMinute must be positive and burst at least 1, got %+v",
			cfg.RateLimit)
	}
	return cfg, nil
}

func (c *config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = handlers.ParseOrigins(v)
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		c.TrustedProxies = handlers.ParseOrigins(v)
	}
	if v := os.Getenv("API_BASE_URL"); v != "" {
		c.APIBaseURL = v
	}
}

func (c config) logLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func (c *config) UnmarshalYAML(value *yaml.Node) error {
	// Nested blocks are decoded over the current values so that omitted fields keep their defaults.
	rawConfig := struct {
		Port           string          `yaml:"port"`
		Environment    string          `yaml:"environment"`
		LogLevel       string          `yaml:"logLevel"`
		CORSOrigins    []string        `yaml:"corsOrigins"`
		TrustedProxies []string        `yaml:"trustedProxies"`
		APIBaseURL     string          `yaml:"apiBaseURL"`
		ProfilePath    string          `yaml:"profile"`
		Cache          cacheConfig     `yaml:"cache"`
		RateLimit      rateLimitConfig `yaml:"rateLimit"`
		LLM            map[string]any  `yaml:"llm"`
	}{
		Cache:     c.Cache,
		RateLimit: c.RateLimit,
	}

	if err := value.Decode(&rawConfig); err != nil {
		return err
	}

	if rawConfig.Port != "" {
		c.Port = rawConfig.Port
	}
	if rawConfig.Environment != "" {
		c.Environment = rawConfig.Environment
	}
	if rawConfig.LogLevel != "" {
		c.LogLevel = rawConfig.LogLevel
	}
	if rawConfig.CORSOrigins != nil {
		c.CORSOrigins = rawConfig.CORSOrigins
	}
	if rawConfig.TrustedProxies != nil {
		c.TrustedProxies = rawConfig.TrustedProxies
	}
	c.APIBaseURL = rawConfig.APIBaseURL
	c.ProfilePath = rawConfig.ProfilePath
	c.Cache = rawConfig.Cache
	c.RateLimit = rawConfig.RateLimit

	if rawConfig.LLM == nil {
		return nil
	}

	llmProvider, ok := rawConfig.LLM["provider"].(string)
	if !ok {
		return fmt.Errorf("llm provider is required")
	}

	llmRawYAML, err := yaml.Marshal(rawConfig.LLM)
	if err != nil {
		return err
	}

	var llm llmConfig
	switch llmProvider {
	case "openai":
		llm = &openAIConfig{}
	case "ollama":
		llm = &ollamaConfig{}
	case "anthropic":
		llm = &anthropicConfig{}
	default:
		return fmt.Errorf("unknown llm provider: %s", llmProvider)
	}

	if err := yaml.Unmarshal(llmRawYAML, llm); err != nil {
		return err
	}

	c.LLM = llm

	return nil
}

// errNoAPIKey means the provider is known but cannot be used; the server still starts and the chat API
// answers with an error until a key is configured.
var errNoAPIKey = errors.New("api key is not set")

func (o openAIConfig) llm(systemPrompt string, logger *slog.Logger) (handlers.LLM, error) {
	model := o.Model
	if model == "" {
		model = defaultModel
	}

	// The portfolio assistant runs on Groq unless told otherwise.
	baseURL := o.BaseURL
	if baseURL == "" {
		baseURL = services.GroqBaseURL
	}

	apiKey := o.APIKey
	if apiKey == "" && strings.Contains(baseURL, "groq.com") {
		apiKey = os.Getenv("GROQ_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, errNoAPIKey
	}

	params := o.Params
	if params.Temperature == nil {
		var zero float32
		params.Temperature = &zero
	}

	return services.NewOpenAI(apiKey, baseURL, model, systemPrompt, params, logger), nil
}

func (o ollamaConfig) llm(systemPrompt string, logger *slog.Logger) (handlers.LLM, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	host := o.Host
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = "http://localhost:11434"
	}
	return services.NewOllama(host, o.Model, systemPrompt, logger)
}

func (a anthropicConfig) llm(systemPrompt string, logger *slog.Logger) (handlers.LLM, error) {
	if a.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if a.MaxTokens == 0 {
		return nil, fmt.Errorf("maxTokens is required")
	}

	apiKey := a.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, errNoAPIKey
	}
	return services.NewAnthropic(a.APIURL, apiKey, a.Model, systemPrompt, a.MaxTokens, logger), nil
}
