// Package vectorutils builds a vector.Driver from configuration.
package vectorutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/gauntlet/pkg/vector"
	"github.com/papercomputeco/gauntlet/pkg/vector/chroma"
	"github.com/papercomputeco/gauntlet/pkg/vector/qdrant"
	"github.com/papercomputeco/gauntlet/pkg/vector/sqlitevec"
)

// Provider names accepted by NewVectorDriver.
const (
	ProviderNone   = "none"
	ProviderSQLite = "sqlite"
	ProviderChroma = "chroma"
	ProviderQdrant = "qdrant"
)

type NewVectorDriverOpts struct {
	ProviderType string

	// Target is a database path for sqlite, a URL for chroma and a
	// host:port for qdrant.
	Target     string
	Dimensions uint
	Logger     *slog.Logger
}

// NewVectorDriver returns nil with no error for the "none" provider.
func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "", ProviderNone:
		return nil, nil
	case ProviderSQLite:
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.Target,
			Dimensions: o.Dimensions,
			Logger:     o.Logger,
		})
	case ProviderChroma:
		return chroma.NewDriver(ctx, chroma.Config{
			URL:    o.Target,
			Logger: o.Logger,
		})
	case ProviderQdrant:
		return qdrant.NewDriver(ctx, qdrant.Config{
			Address:    o.Target,
			Dimensions: uint64(o.Dimensions),
			Logger:     o.Logger,
		})
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
