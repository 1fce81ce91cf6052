// Package llm implements generation.Gateway on top of chat-completion
// providers: OpenAI (via go-openai), Anthropic and Ollama.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/papercomputeco/gauntlet/pkg/logger"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"

	defaultTimeout = 60 * time.Second
)

// Call is one chat-completion request.
type Call struct {
	System string
	Prompt string

	// Model overrides the caller's configured model when set.
	Model string

	// JSON asks the provider for a JSON object reply.
	JSON bool
}

// CallFunc sends one Call and returns the reply text.
type CallFunc func(ctx context.Context, call Call) (string, error)

// CallerConfig holds configuration for creating a CallFunc.
type CallerConfig struct {
	Provider string // "openai", "anthropic", or "ollama"
	Model    string
	APIKey   string // explicit API key, highest priority
	BaseURL  string
	Timeout  time.Duration
	Logger   *slog.Logger
}

// NewCaller creates a CallFunc for cfg.Provider.
// Resolution order for API key:
//  1. Explicit APIKey in config
//  2. Environment variables (OPENAI_API_KEY / ANTHROPIC_API_KEY)
//  3. Fall back to Ollama at localhost:11434
func NewCaller(cfg CallerConfig) (CallFunc, error) {
	provider := strings.ToLower(cfg.Provider)
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = resolveAPIKeyFromEnv(provider)
	}

	if apiKey == "" && provider != ProviderOllama {
		cfg.Logger.Warn("no API key found, falling back to ollama", "provider", provider)
		provider = ProviderOllama
		cfg.Model = ""
		cfg.BaseURL = ""
	}

	client := &http.Client{Timeout: cfg.Timeout}

	switch provider {
	case ProviderOpenAI, "":
		return newOpenAICaller(apiKey, withDefault(cfg.Model, "gpt-4o-mini"), withDefault(cfg.BaseURL, "https://api.openai.com"), client), nil
	case ProviderAnthropic:
		return newAnthropicCaller(apiKey, withDefault(cfg.Model, "claude-haiku-4-5-20251001"), withDefault(cfg.BaseURL, "https://api.anthropic.com"), client), nil
	case ProviderOllama:
		return newOllamaCaller(withDefault(cfg.Model, "llama3.2"), withDefault(cfg.BaseURL, "http://localhost:11434"), client), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func resolveAPIKeyFromEnv(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case ProviderOpenAI, "":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return ""
	}
}

// model picks the per-call override, if any.
func (c Call) model(def string) string {
	return withDefault(c.Model, def)
}
