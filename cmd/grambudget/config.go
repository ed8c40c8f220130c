package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grambudget/grambudget"
	"github.com/grambudget/grambudget/internal/handlers"
	"github.com/grambudget/grambudget/internal/services"
	"gopkg.in/yaml.v3"
)

type llmConfig interface {
	llm(ctx context.Context, systemPrompt string, logger *slog.Logger) (handlers.LLM, error)
}

// BaseLLMConfig contains the common fields for all LLM configurations.
type BaseLLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

type config struct {
	Port         string          `yaml:"port"`
	LogLevel     string          `yaml:"logLevel"`
	SystemPrompt string          `yaml:"systemPrompt"`
	DBPath       string          `yaml:"dbPath"`
	ChatTimeout  time.Duration   `yaml:"chatTimeout"`
	RateLimit    rateLimitConfig `yaml:"rateLimit"`
	News         newsConfig      `yaml:"news"`
	LLM          llmConfig       `yaml:"llm"`
}

type rateLimitConfig struct {
	PerMinute  float64 `yaml:"perMinute"`
	Burst      int     `yaml:"burst"`
	TrustProxy bool    `yaml:"trustProxy"`
}

type newsConfig struct {
	APIKey   string        `yaml:"apiKey"`
	Endpoint string        `yaml:"endpoint"`
	TTL      time.Duration `yaml:"ttl"`
}

type openAIConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string                 `yaml:"apiKey"`
	BaseURL       string                 `yaml:"baseURL"`
	Parameters    services.LLMParameters `yaml:"parameters"`
}

type anthropicConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
	MaxTokens     int    `yaml:"maxTokens"`
	Endpoint      string `yaml:"endpoint"`
}

type openRouterConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
	Endpoint      string `yaml:"endpoint"`
}

type ollamaConfig struct {
	BaseLLMConfig `yaml:",inline"`
	Host          string `yaml:"host"`
}

type geminiConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string                 `yaml:"apiKey"`
	Parameters    services.LLMParameters `yaml:"parameters"`
}

const (
	defaultPort        = "8080"
	defaultOpenAIModel = "gpt-4o-mini"
	defaultMaxTokens   = 1024
	defaultRatePerMin  = 20
	defaultRateBurst   = 5
	configDirName      = "grambudget"
)

func (c *config) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig struct {
		Port         string          `yaml:"port"`
		LogLevel     string          `yaml:"logLevel"`
		SystemPrompt string          `yaml:"systemPrompt"`
		DBPath       string          `yaml:"dbPath"`
		ChatTimeout  time.Duration   `yaml:"chatTimeout"`
		RateLimit    rateLimitConfig `yaml:"rateLimit"`
		News         newsConfig      `yaml:"news"`
		LLM          map[string]any  `yaml:"llm"`
	}

	if err := value.Decode(&rawConfig); err != nil {
		return err
	}

	c.Port = rawConfig.Port
	c.LogLevel = rawConfig.LogLevel
	c.SystemPrompt = rawConfig.SystemPrompt
	c.DBPath = rawConfig.DBPath
	c.ChatTimeout = rawConfig.ChatTimeout
	c.RateLimit = rawConfig.RateLimit
	c.News = rawConfig.News

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
	case "anthropic":
		llm = &anthropicConfig{}
	case "openrouter":
		llm = &openRouterConfig{}
	case "ollama":
		llm = &ollamaConfig{}
	case "gemini":
		llm = &geminiConfig{}
	default:
		return fmt.Errorf("unknown llm provider: %s", llmProvider)
	}

	if err := yaml.Unmarshal(llmRawYAML, llm); err != nil {
		return err
	}

	c.LLM = llm

	return nil
}

// defaultConfigPath is config.yaml in the grambudget directory of the user config dir.
func defaultConfigPath() (string, error) {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("error getting user config dir: %w", err)
	}
	return filepath.Join(cfgDir, configDirName, "config.yaml"), nil
}

// loadConfig reads the config file at path. An empty path selects the default location, which may be
// missing: the server then runs on defaults and environment variables alone.
func loadConfig(path string) (config, error) {
	explicit := path != ""
	if !explicit {
		p, err := defaultConfigPath()
		if err != nil {
			return config{}, err
		}
		path = p
	}

	cfg := config{}

	cfgFile, err := os.Open(path)
	switch {
	case err == nil:
		defer cfgFile.Close()
		if err := yaml.NewDecoder(cfgFile).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return config{}, fmt.Errorf("error decoding config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return config{}, fmt.Errorf("error opening config file: %w", err)
	}

	if err := cfg.applyDefaults(filepath.Dir(path)); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (c *config) applyDefaults(cfgDir string) error {
	if c.Port == "" {
		c.Port = os.Getenv("PORT")
	}
	if c.Port == "" {
		c.Port = defaultPort
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = grambudget.SystemPrompt
	}
	if c.ChatTimeout <= 0 {
		c.ChatTimeout = handlers.DefaultChatTimeout
	}
	if c.RateLimit.PerMinute == 0 {
		c.RateLimit.PerMinute = defaultRatePerMin
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = defaultRateBurst
	}
	if c.News.APIKey == "" {
		c.News.APIKey = os.Getenv("GNEWS_API_KEY")
	}
	if c.News.TTL <= 0 {
		c.News.TTL = services.DefaultNewsTTL
	}
	if c.DBPath == "" {
		if err := os.MkdirAll(cfgDir, 0755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}
		c.DBPath = filepath.Join(cfgDir, "store.db")
	}
	if c.LLM == nil {
		c.LLM = &openAIConfig{BaseLLMConfig: BaseLLMConfig{Provider: "openai"}}
	}
	return nil
}

func (c config) logLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOr(value, key string) string {
	if value != "" {
		return value
	}
	return os.Getenv(key)
}

func (o openAIConfig) llm(_ context.Context, systemPrompt string, logger *slog.Logger) (handlers.LLM, error) {
	apiKey := envOr(o.APIKey, "OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("openai: api key is required, set llm.apiKey or OPENAI_API_KEY")
	}
	model := o.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return services.NewOpenAI(apiKey, o.BaseURL, model, systemPrompt, o.Parameters, logger), nil
}

func (a anthropicConfig) llm(_ context.Context, systemPrompt string, logger *slog.Logger) (handlers.LLM, error) {
	if a.Model == "" {
		return nil, fmt.Errorf("anthropic: model is required")
	}
	apiKey := envOr(a.APIKey, "ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: api key is required, set llm.apiKey or ANTHROPIC_API_KEY")
	}
	maxTokens := a.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	return services.NewAnthropic(apiKey, a.Model, systemPrompt, maxTokens, a.Endpoint, logger), nil
}

func (o openRouterConfig) llm(_ context.Context, systemPrompt string, logger *slog.Logger) (handlers.LLM, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("openrouter: model is required")
	}
	apiKey := envOr(o.APIKey, "OPENROUTER_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("openrouter: api key is required, set llm.apiKey or OPENROUTER_API_KEY")
	}
	return services.NewOpenRouter(apiKey, o.Model, systemPrompt, o.Endpoint, logger), nil
}

func (o ollamaConfig) llm(_ context.Context, systemPrompt string, logger *slog.Logger) (handlers.LLM, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("ollama: model is required")
	}
	host := envOr(o.Host, "OLLAMA_HOST")
	if host == "" {
		return nil, fmt.Errorf("ollama: host is required, set llm.host or OLLAMA_HOST")
	}
	llm, err := services.NewOllama(host, o.Model, systemPrompt, logger)
	if err != nil {
		return nil, err
	}
	return llm, nil
}

func (g geminiConfig) llm(ctx context.Context, systemPrompt string, logger *slog.Logger) (handlers.LLM, error) {
	if g.Model == "" {
		return nil, fmt.Errorf("gemini: model is required")
	}
	apiKey := envOr(g.APIKey, "GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is required, set llm.apiKey or GEMINI_API_KEY")
	}
	llm, err := services.NewGemini(ctx, apiKey, g.Model, systemPrompt, g.Parameters, logger)
	if err != nil {
		return nil, err
	}
	return llm, nil
}
