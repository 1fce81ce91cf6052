// Package qdrant provides a Qdrant vector database driver over gRPC.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/google/uuid"
	qc "github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/gauntlet/pkg/logger"
	"github.com/papercomputeco/gauntlet/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for payload embeddings.
	DefaultCollectionName = "gauntlet_payloads"

	// DefaultPort is Qdrant's gRPC port.
	DefaultPort = 6334

	payloadIDKey   = "payload_id"
	operationIDKey = "operation_id"
)

// Driver implements vector.Driver using the Qdrant gRPC client.
type Driver struct {
	client     *qc.Client
	collection string
	logger     *slog.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Address is host or host:port of the gRPC endpoint.
	Address string

	// Dimensions sizes the collection when it has to be created.
	Dimensions uint64

	CollectionName string
	APIKey         string
	UseTLS         bool

	Logger *slog.Logger
}

// NewDriver connects to Qdrant and ensures the collection exists.
func NewDriver(ctx context.Context, c Config) (*Driver, error) {
	if c.Address == "" {
		return nil, errors.New("qdrant address is required")
	}
	if c.Dimensions == 0 {
		return nil, errors.New("qdrant embedding dimensions cannot be 0, must be configured")
	}
	if c.CollectionName == "" {
		c.CollectionName = DefaultCollectionName
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	host, port, err := splitAddress(c.Address)
	if err != nil {
		return nil, err
	}

	client, err := qc.NewClient(&qc.Config{
		Host:   host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}

	exists, err := client.CollectionExists(ctx, c.CollectionName)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: checking collection %q: %w", vector.ErrConnection, c.CollectionName, err)
	}
	if !exists {
		if err := client.CreateCollection(ctx, &qc.CreateCollection{
			CollectionName: c.CollectionName,
			VectorsConfig: qc.NewVectorsConfig(&qc.VectorParams{
				Size:     c.Dimensions,
				Distance: qc.Distance_Cosine,
			}),
		}); err != nil {
			client.Close()
			return nil, fmt.Errorf("creating collection %q: %w", c.CollectionName, err)
		}
	}

	c.Logger.Info("connected to Qdrant",
		"address", c.Address,
		"collection", c.CollectionName,
		"created", !exists,
	)

	return &Driver{client: client, collection: c.CollectionName, logger: c.Logger}, nil
}

func splitAddress(addr string) (string, int, error) {
	if !strings.Contains(addr, ":") {
		return addr, DefaultPort, nil
	}
	host, rawPort, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(rawPort)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant port %q: %w", rawPort, err)
	}
	return host, port, nil
}

// PointID maps a payload ID onto a Qdrant point UUID. UUID payload IDs are
// used as-is, anything else is hashed into a name-based UUID.
func PointID(payloadID string) string {
	if id, err := uuid.Parse(payloadID); err == nil {
		return id.String()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(payloadID)).String()
}

// Add upserts payload embeddings.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qc.PointStruct, len(docs))
	for i, doc := range docs {
		points[i] = &qc.PointStruct{
			Id:      qc.NewID(PointID(doc.ID)),
			Vectors: qc.NewVectors(doc.Embedding...),
			Payload: qc.NewValueMap(map[string]any{
				payloadIDKey:   doc.ID,
				operationIDKey: doc.OperationID,
			}),
		}
	}

	if _, err := d.client.Upsert(ctx, &qc.UpsertPoints{
		CollectionName: d.collection,
		Wait:           qc.PtrOf(true),
		Points:         points,
	}); err != nil {
		return fmt.Errorf("upserting payloads: %w", err)
	}

	d.logger.Debug("added payloads to qdrant", "count", len(docs))
	return nil
}

// Query finds the topK most similar payloads to embedding.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}

	points, err := d.client.Query(ctx, &qc.QueryPoints{
		CollectionName: d.collection,
		Query:          qc.NewQuery(embedding...),
		Limit:          qc.PtrOf(uint64(topK)),
		WithPayload:    qc.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying payloads: %w", err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, p := range points {
		results = append(results, vector.QueryResult{
			Document: vector.Document{
				ID:          p.GetPayload()[payloadIDKey].GetStringValue(),
				OperationID: p.GetPayload()[operationIDKey].GetStringValue(),
			},
			Score: p.GetScore(),
		})
	}

	d.logger.Debug("queried qdrant", "results", len(results))
	return results, nil
}

// Close releases the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

var _ vector.Driver = (*Driver)(nil)
