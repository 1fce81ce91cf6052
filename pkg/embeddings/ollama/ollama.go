// Package ollama implements embeddings.Embedder on Ollama's /api/embed endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/gauntlet/pkg/embeddings"
	"github.com/papercomputeco/gauntlet/pkg/vector"
)

const (
	DefaultModel   = "nomic-embed-text"
	DefaultBaseURL = "http://localhost:11434"

	defaultTimeout = 2 * time.Minute
)

// Config holds configuration for the Ollama embedder. Empty fields take
// the package defaults.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Embedder calls a local or remote Ollama server.
type Embedder struct {
	endpoint string
	model    string
	client   *http.Client
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewEmbedder creates an Embedder for cfg.
func NewEmbedder(cfg Config) (*Embedder, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Embedder{
		endpoint: strings.TrimSuffix(cfg.BaseURL, "/") + "/api/embed",
		model:    cfg.Model,
		client:   &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Model reports the embedding model in use.
func (e *Embedder) Model() string {
	return e.model
}

// Embed converts text into a vector embedding. Every failure wraps
// vector.ErrEmbedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Input: text})
	if err != nil {
		return nil, embedErr("marshaling request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, embedErr("creating request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, embedErr("sending request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: ollama returned status %d: %s",
			vector.ErrEmbedding, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, embedErr("decoding response", err)
	}
	if len(out.Embeddings) == 0 || len(out.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", vector.ErrEmbedding)
	}

	return out.Embeddings[0], nil
}

// Close is a no-op; the HTTP client holds no resources worth releasing.
func (e *Embedder) Close() error {
	return nil
}

func embedErr(step string, err error) error {
	return fmt.Errorf("%w: %s: %v", vector.ErrEmbedding, step, err)
}

var _ embeddings.Embedder = (*Embedder)(nil)
