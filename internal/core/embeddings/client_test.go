package embeddings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float32
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "length mismatch", a: []float32{1, 2}, b: []float32{1, 2, 3}, want: 0},
		{name: "both empty", a: nil, b: nil, want: 0},
		{name: "zero magnitude", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
		{name: "scaled vectors still identical", a: []float32{1, 1}, b: []float32{5, 5}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-5)
		})
	}
}

func TestMockClient_ShortTextUnavailable(t *testing.T) {
	m := NewMockClient()
	m.Default = []float32{1, 0}

	_, err := m.Fingerprint(context.Background(), "gm")
	require.ErrorIs(t, err, ErrUnavailable)

	v, err := m.Fingerprint(context.Background(), "long enough text")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, v)
}
