package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/gauntlet/pkg/vector"
)

// MockVectorDriver records added documents and returns canned results.
type MockVectorDriver struct {
	mu sync.Mutex

	Documents []vector.Document

	// Results is returned by Query, truncated to topK.
	Results []vector.QueryResult

	FailAdd   bool
	FailQuery bool
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{}
}

func (m *MockVectorDriver) Add(_ context.Context, docs []vector.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAdd {
		return vector.ErrConnection
	}
	m.Documents = append(m.Documents, docs...)
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, _ []float32, topK int) ([]vector.QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailQuery {
		return nil, errors.New("mock vector query failure")
	}
	if len(m.Results) < topK {
		return m.Results, nil
	}
	return m.Results[:topK], nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}

var _ vector.Driver = (*MockVectorDriver)(nil)
