// Package chroma provides a Chroma vector database driver implementation.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/papercomputeco/gauntlet/pkg/logger"
	"github.com/papercomputeco/gauntlet/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for payload embeddings.
	DefaultCollectionName = "gauntlet_payloads"

	collectionsPath = "/api/v2/tenants/default_tenant/databases/default_database/collections"
)

// Driver implements vector.Driver using Chroma's REST API.
type Driver struct {
	baseURL        string
	collectionName string
	collectionID   string
	httpClient     *http.Client
	logger         *slog.Logger
}

// Config holds configuration for the Chroma driver.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// CollectionName defaults to DefaultCollectionName.
	CollectionName string

	Logger *slog.Logger
}

// NewDriver connects to Chroma and resolves (or creates) the collection.
func NewDriver(ctx context.Context, c Config) (*Driver, error) {
	if c.URL == "" {
		return nil, errors.New("chroma URL is required")
	}
	if c.CollectionName == "" {
		c.CollectionName = DefaultCollectionName
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	d := &Driver{
		baseURL:        c.URL,
		collectionName: c.CollectionName,
		httpClient:     &http.Client{Timeout: 60 * time.Second},
		logger:         c.Logger,
	}

	id, err := d.getOrCreateCollection(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: collection %q: %w", vector.ErrConnection, c.CollectionName, err)
	}
	d.collectionID = id

	c.Logger.Info("connected to Chroma",
		"url", c.URL,
		"collection", c.CollectionName,
		"collection_id", id,
	)
	return d, nil
}

func (d *Driver) getOrCreateCollection(ctx context.Context) (string, error) {
	var collection chromaCollection

	err := d.do(ctx, http.MethodGet, collectionsPath+"/"+d.collectionName, nil, &collection)
	if err == nil {
		return collection.ID, nil
	}

	if err := d.do(ctx, http.MethodPost, collectionsPath, map[string]string{"name": d.collectionName}, &collection); err != nil {
		return "", fmt.Errorf("creating collection: %w", err)
	}
	return collection.ID, nil
}

// Add upserts payload embeddings.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	body := chromaUpsertRequest{
		IDs:        make([]string, len(docs)),
		Embeddings: make([][]float32, len(docs)),
		Metadatas:  make([]map[string]any, len(docs)),
	}
	for i, doc := range docs {
		body.IDs[i] = doc.ID
		body.Embeddings[i] = doc.Embedding
		body.Metadatas[i] = map[string]any{"operation_id": doc.OperationID}
	}

	if err := d.do(ctx, http.MethodPost, d.collectionPath("upsert"), body, nil); err != nil {
		return fmt.Errorf("upserting payloads: %w", err)
	}

	d.logger.Debug("added payloads to chroma", "count", len(docs))
	return nil
}

// Query finds the topK most similar payloads to embedding.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}

	var resp chromaQueryResponse
	if err := d.do(ctx, http.MethodPost, d.collectionPath("query"), chromaQueryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        topK,
		Include:         []string{"metadatas", "distances"},
	}, &resp); err != nil {
		return nil, fmt.Errorf("querying payloads: %w", err)
	}

	// one query embedding, so one result group
	if len(resp.IDs) == 0 {
		return nil, nil
	}

	results := make([]vector.QueryResult, 0, len(resp.IDs[0]))
	for i, id := range resp.IDs[0] {
		r := vector.QueryResult{Document: vector.Document{ID: id}}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			if opID, ok := resp.Metadatas[0][i]["operation_id"].(string); ok {
				r.OperationID = opID
			}
		}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			r.Score = 1.0 / (1.0 + resp.Distances[0][i])
		}
		results = append(results, r)
	}

	d.logger.Debug("queried chroma", "results", len(results))
	return results, nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return nil
}

func (d *Driver) collectionPath(action string) string {
	return fmt.Sprintf("%s/%s/%s", collectionsPath, d.collectionID, action)
}

// do sends a JSON request and decodes a JSON response into out when non-nil.
func (d *Driver) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chroma returned status %d: %s", resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

var _ vector.Driver = (*Driver)(nil)
