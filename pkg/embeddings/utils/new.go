// Package embeddingutils builds an embeddings.Embedder from configuration.
package embeddingutils

import (
	"fmt"

	"github.com/papercomputeco/gauntlet/pkg/embeddings"
	"github.com/papercomputeco/gauntlet/pkg/embeddings/ollama"
	"github.com/papercomputeco/gauntlet/pkg/embeddings/openai"
)

// Embedding provider names accepted in embedding.provider.
const (
	ProviderNone   = "none"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	Dimensions   uint
	APIKey       string
}

// NewEmbedder returns nil with no error when no provider is configured.
func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case "", ProviderNone:
		return nil, nil
	case ProviderOllama:
		return ollama.NewEmbedder(ollama.Config{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	case ProviderOpenAI:
		return openai.NewEmbedder(openai.Config{
			APIKey:     o.APIKey,
			BaseURL:    o.TargetURL,
			Model:      o.Model,
			Dimensions: o.Dimensions,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (available: none, ollama, openai)", o.ProviderType)
	}
}
