package domain

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// Embedder is the shared text vectorization contract between layers.
// This is the seam where the external embedding model plugs in.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the
// decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Synthesizer composes the final answer text from expert stage outputs.
// Swappable: LLM-backed in production, deterministic template in tests.
type Synthesizer interface {
	Synthesize(ctx context.Context, q Query, stages map[string]ExpertResponse) (string, error)
}

// HashEmbedder is a deterministic stand-in used when no embedding provider is
// configured. Vectors are derived from SHA-256 of the input, unit-normalized,
// so identical text always maps to an identical vector. Not semantically
// meaningful; retrieval quality with it is whatever exact-match gives you.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder creates a hash-based embedder of the given dimensionality.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 1024
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed implements Embedder.
func (h *HashEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	vec := make([]float32, h.dimensions)
	digest := sha256.Sum256([]byte(text))
	buf := digest[:]
	var norm float64
	for i := 0; i < h.dimensions; i++ {
		off := (i * 2) % len(buf)
		if i > 0 && off == 0 {
			digest = sha256.Sum256(buf)
			buf = digest[:]
		}
		bits := binary.LittleEndian.Uint16(buf[off : off+2])
		v := float64(bits)/math.MaxUint16*2 - 1
		vec[i] = float32(v)
		norm += v * v
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return EmbeddingResult{Embedding: vec}, nil
}
