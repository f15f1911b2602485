// Package vector implements the textual embedding codec and similarity math.
package vector

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/paperbase/semsearch/internal/domain"
)

// Encode serializes a vector as a JSON number array. The encoder emits the
// shortest decimal that round-trips the float32 bits, so Decode(Encode(v))
// reproduces v exactly for any finite vector and any dimensionality.
func Encode(v []float32) (string, error) {
	if v == nil {
		v = []float32{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode vector: %w", err)
	}
	return string(data), nil
}

// Decode parses a JSON number array back into a vector.
func Decode(text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("empty embedding text: %w", domain.ErrMalformedVector)
	}
	var v []float32
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("decode vector: %w: %w", domain.ErrMalformedVector, err)
	}
	return v, nil
}

// Cosine returns the cosine similarity of a and b in [-1, 1].
// A zero-magnitude operand yields 0 instead of dividing by zero.
// Dimension mismatches return domain.ErrDimensionMismatch so callers can
// degrade instead of crashing on provider-migration leftovers.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", domain.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
