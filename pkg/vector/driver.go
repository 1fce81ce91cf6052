// Package vector indexes payload embeddings for similarity retrieval.
package vector

import "context"

// Document is one indexed payload prompt.
type Document struct {
	// ID is the payload ID the embedding was computed for.
	ID string

	// OperationID is the operation the payload was harvested from.
	OperationID string

	// Embedding is the vector representation of the payload prompt.
	Embedding []float32
}

// QueryResult is a search hit with a similarity score.
type QueryResult struct {
	Document

	// Score represents the similarity score (higher = more similar).
	Score float32
}

// Driver stores payload embeddings and answers nearest-neighbour queries.
type Driver interface {
	// Add stores documents, replacing any with the same ID.
	Add(ctx context.Context, docs []Document) error

	// Query finds the topK most similar documents to embedding.
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error)

	// Close releases any resources held by the driver.
	Close() error
}
