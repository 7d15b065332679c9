// Package embeddings computes semantic fingerprints for near-duplicate
// detection. The engine is fail-soft: when a fingerprint cannot be produced
// the caller falls back to exact-hash dedup only.
package embeddings

import (
	"context"
	"errors"
	"math"
)

// Dimensions of the stored vectors; matches the DB schema.
const DefaultDimensions = 1536

// Fingerprinting limits.
const (
	// MinFingerprintRunes rejects texts too short to embed meaningfully.
	MinFingerprintRunes = 3

	// MaxFingerprintChars truncates input before the remote call.
	MaxFingerprintChars = 8000
)

// ErrUnavailable wraps every condition under which no fingerprint can be
// produced: text below the minimum length, retry exhaustion, an empty
// provider response. Callers treat it as "proceed without a vector".
var ErrUnavailable = errors.New("fingerprint unavailable")

// Client produces semantic fingerprints.
type Client interface {
	Fingerprint(ctx context.Context, text string) ([]float32, error)
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns 0 for mismatched lengths, empty or zero-magnitude input, so a
// degenerate vector can never count as a duplicate.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, magA, magB float64

	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(magA) * math.Sqrt(magB)))
}
