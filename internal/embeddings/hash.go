package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"
)

// HashDimension is the dimension of hash-based embeddings.
const HashDimension = 128

// HashEmbedder is a deterministic feature-hashing embedder. Each token is
// hashed into a bucket with a signed contribution, and the result is L2
// normalized. It captures lexical overlap only, but requires no vocabulary
// pass and gives the same vector for the same text on every run.
type HashEmbedder struct{}

// NewHashEmbedder creates a new hash embedder.
func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{}
}

// EmbedText implements Provider.
func (e *HashEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, HashDimension)
	for _, term := range tokenize(text) {
		sum := sha256.Sum256([]byte(term))
		bucket := binary.BigEndian.Uint32(sum[0:4]) % HashDimension
		// Second hash word decides the sign so collisions tend to cancel.
		if binary.BigEndian.Uint32(sum[4:8])&1 == 0 {
			vec[bucket]++
		} else {
			vec[bucket]--
		}
	}
	normalize(vec)
	return vec, nil
}

// EmbedBatch implements Provider.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions implements Provider.
func (e *HashEmbedder) Dimensions() int { return HashDimension }

// ModelName implements Provider.
func (e *HashEmbedder) ModelName() string { return "feature-hash-128" }

// normalize scales vec to unit L2 norm in place. The zero vector stays zero.
func normalize(vec []float32) {
	norm := 0.0
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 || math.IsNaN(norm) {
		return
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}

// tokenize splits text into lowercase alphanumeric terms of length >= 2.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	terms := strings.FieldsFunc(text, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})
	filtered := terms[:0]
	for _, term := range terms {
		if len(term) >= 2 {
			filtered = append(filtered, term)
		}
	}
	return filtered
}
