package llm

import (
	"context"

	"github.com/signalrelay/telegram-signal-relay/internal/core/domain"
)

// MockClient is a scriptable client for tests.
type MockClient struct {
	ClassifyFunc func(ctx context.Context, text string) (domain.Judgment, error)
	OCRFunc      func(ctx context.Context, image []byte) (string, error)

	ClassifyCalls int
	OCRCalls      int
}

func (m *MockClient) Classify(ctx context.Context, text string) (domain.Judgment, error) {
	m.ClassifyCalls++

	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, text)
	}

	return domain.Judgment{Relevant: true, Valuable: true, Importance: domain.ImportanceMedium}, nil
}

func (m *MockClient) ExtractImageText(ctx context.Context, image []byte) (string, error) {
	m.OCRCalls++

	if m.OCRFunc != nil {
		return m.OCRFunc(ctx, image)
	}

	return "", nil
}

var _ Client = (*MockClient)(nil)
