// Package embeddings generates vector embeddings for notes.
//
// The Provider interface is the capability consumed by the recall layer;
// TFIDFEmbedder and HashEmbedder are local implementations that need no
// external ML models.
package embeddings

import "context"

// Provider generates embeddings for text.
//
// Implementations must be deterministic: the same input always yields the
// same vector, and all vectors have the declared dimensionality.
type Provider interface {
	// EmbedText embeds a single document.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds several documents in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector length.
	Dimensions() int

	// ModelName identifies the embedding model.
	ModelName() string
}
