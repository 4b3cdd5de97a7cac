package embeddings

import (
	"context"
	"math"
	"sync"
)

// TFIDFDimension is the dimension of TF-IDF embeddings.
const TFIDFDimension = 100

// TFIDFEmbedder generates TF-IDF based embeddings for note text. It needs a
// Fit pass over the corpus before embedding; unfitted use falls back to a
// default IDF of 1 per term.
type TFIDFEmbedder struct {
	mu       sync.RWMutex
	idf      map[string]float64 // term -> IDF score
	docCount int
	vocab    map[string]int // term -> index in embedding vector
}

// NewTFIDFEmbedder creates a new TF-IDF embedder.
func NewTFIDFEmbedder() *TFIDFEmbedder {
	return &TFIDFEmbedder{
		idf:   make(map[string]float64),
		vocab: make(map[string]int),
	}
}

// Fit builds the vocabulary and IDF table from the corpus. Terms beyond the
// embedding dimension are ignored; refitting replaces the previous state.
func (e *TFIDFEmbedder) Fit(docs []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.vocab = make(map[string]int)
	e.idf = make(map[string]float64)
	e.docCount = len(docs)

	docFreq := make(map[string]int)
	termIndex := 0
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, term := range tokenize(doc) {
			if seen[term] {
				continue
			}
			seen[term] = true
			docFreq[term]++
			if _, exists := e.vocab[term]; !exists && termIndex < TFIDFDimension {
				e.vocab[term] = termIndex
				termIndex++
			}
		}
	}

	for term, df := range docFreq {
		if df > 0 {
			e.idf[term] = math.Log(float64(e.docCount) / float64(df))
		}
	}
}

// EmbedText implements Provider.
func (e *TFIDFEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	embedding := make([]float32, TFIDFDimension)

	tf := make(map[string]int)
	for _, term := range tokenize(text) {
		tf[term]++
	}

	maxTF := 0.0
	for _, count := range tf {
		if float64(count) > maxTF {
			maxTF = float64(count)
		}
	}
	if maxTF == 0 {
		return embedding, nil
	}

	for term, count := range tf {
		idx, exists := e.vocab[term]
		if !exists {
			continue
		}
		idf := e.idf[term]
		if idf == 0 {
			idf = 1.0 // default for unseen terms
		}
		embedding[idx] = float32(float64(count) / maxTF * idf)
	}

	normalize(embedding)
	return embedding, nil
}

// EmbedBatch implements Provider.
func (e *TFIDFEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
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
func (e *TFIDFEmbedder) Dimensions() int { return TFIDFDimension }

// ModelName implements Provider.
func (e *TFIDFEmbedder) ModelName() string { return "tfidf-100" }
