// Package openai implements embeddings.Embedder on the OpenAI embeddings API
// and any server that speaks it.
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/gauntlet/pkg/embeddings"
	"github.com/papercomputeco/gauntlet/pkg/vector"
)

const DefaultModel = string(openai.SmallEmbedding3)

// Config configures the embedder. An empty APIKey falls back to
// OPENAI_API_KEY. BaseURL, when set, is the server root without /v1.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions uint
}

// Embedder wraps a go-openai client.
type Embedder struct {
	client     *openai.Client
	model      string
	dimensions int
}

// NewEmbedder creates an Embedder for cfg.
func NewEmbedder(cfg Config) (*Embedder, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" && cfg.BaseURL == "" {
		return nil, errors.New("openai embeddings require an API key")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	clientCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/") + "/v1"
	}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		dimensions: int(cfg.Dimensions),
	}, nil
}

// Model reports the embedding model in use.
func (e *Embedder) Model() string {
	return e.model
}

// Embed converts text into a vector embedding. Every failure wraps
// vector.ErrEmbedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai request: %v", vector.ErrEmbedding, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", vector.ErrEmbedding)
	}
	return resp.Data[0].Embedding, nil
}

func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
