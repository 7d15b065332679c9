package embeddings

import (
	"context"
	"fmt"
	"unicode/utf8"
)

// MockClient is a deterministic in-memory client for tests. Vectors are
// looked up by exact text; unknown texts fail as unavailable unless a
// Default vector is set.
type MockClient struct {
	Vectors map[string][]float32
	Default []float32
	Calls   int
}

func NewMockClient() *MockClient {
	return &MockClient{Vectors: make(map[string][]float32)}
}

func (m *MockClient) Fingerprint(_ context.Context, text string) ([]float32, error) {
	m.Calls++

	if utf8.RuneCountInString(text) < MinFingerprintRunes {
		return nil, fmt.Errorf("%w: text below %d runes", ErrUnavailable, MinFingerprintRunes)
	}

	if v, ok := m.Vectors[text]; ok {
		return v, nil
	}

	if m.Default != nil {
		return m.Default, nil
	}

	return nil, fmt.Errorf("%w: no mock vector for text", ErrUnavailable)
}

var _ Client = (*MockClient)(nil)
