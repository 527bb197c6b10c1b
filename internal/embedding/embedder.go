// Package embedding provides text embedding via OpenAI or ONNX, with caching.
package embedding

import (
	"context"
	"errors"
)

// ErrEmptyText is returned when the input text is empty or whitespace-only.
var ErrEmptyText = errors.New("cannot embed empty text")

// Embedder produces vector embeddings for text. Implementations return
// vectors of exactly Dimensions() elements and are deterministic for
// identical input.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
