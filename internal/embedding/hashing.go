// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultHashingDimensions is the vector size used when none is configured.
const DefaultHashingDimensions = 256

// HashingModel is a deterministic feature-hashing embedder: each term is
// hashed into a bucket with a signed weight and the result is
// L2-normalized. It needs no model server, which makes it suitable for
// offline index builds and tests. Identical text always embeds to the
// identical vector.
type HashingModel struct {
	dimensions int
}

// NewHashingModel creates a hashing embedder with the given dimensionality.
func NewHashingModel(dimensions int) *HashingModel {
	if dimensions <= 0 {
		dimensions = DefaultHashingDimensions
	}
	return &HashingModel{dimensions: dimensions}
}

// Name identifies the model and its dimensionality.
func (m *HashingModel) Name() string {
	return fmt.Sprintf("hashing-%d", m.dimensions)
}

// Dimensions returns the vector dimensionality.
func (m *HashingModel) Dimensions() int {
	return m.dimensions
}

// Embed hashes each term of text into a bucket and L2-normalizes the
// accumulated vector. Text with no terms embeds to the zero vector.
func (m *HashingModel) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, m.dimensions)

	for _, term := range hashingTerms(text) {
		h := fnv.New32a()
		h.Write([]byte(term))
		sum := h.Sum32()

		bucket := int(sum % uint32(m.dimensions))
		// Use one hash bit as the sign so collisions tend to cancel
		// rather than accumulate.
		sign := float32(1)
		if sum&0x80000000 != 0 {
			sign = -1
		}
		vec[bucket] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}

	return vec, nil
}

// hashingTerms lowercases text and splits it into alphanumeric terms.
func hashingTerms(text string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}
